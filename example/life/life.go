// Package life runs Conway's Game of Life on a wrapping board of cells.
package life

import "github.com/nikki93/gxfx/fx"

//go:generate go run github.com/nikki93/gxfx .

// Cell is stored in a color surface. Only the red channel, State, is used.
//
//gxfx:copy fx.Color Cell R=State

const (
	Dead  = 0
	Alive = 1
)

// UpdateLife advances the board by one generation.
type UpdateLife struct {
	fx.GridComputation
}

//gxfx:fragment
func (UpdateLife) Fragment(vertex fx.VertexOut, current fx.Field[Cell]) Cell {
	here := current.At(fx.Here)

	neighbors := current.At(fx.RightOne).State + current.At(fx.LeftOne).State +
		current.At(fx.UpOne).State + current.At(fx.DownOne).State +
		current.At(fx.UpRight).State + current.At(fx.UpLeft).State +
		current.At(fx.DownRight).State + current.At(fx.DownLeft).State

	if neighbors < 2 || neighbors > 3 {
		here.State = Dead
	}
	if neighbors == 3 {
		here.State = Alive
	}
	return here
}

// DrawLife renders live cells white and dead cells black.
type DrawLife struct {
	fx.GridComputation
}

//gxfx:fragment
func (DrawLife) Fragment(vertex fx.VertexOut, board fx.Field[Cell]) fx.Color {
	here := board.At(fx.Here)
	return fx.Select(here.State == Alive, fx.White, fx.Black)
}

// Board is a Life board held in two surfaces, the current generation and the next.
type Board struct {
	Current, Next fx.RenderTarget
}

// Step computes the next generation and swaps the surfaces.
func (b *Board) Step(device fx.Device) {
	UpdateLife{}.Apply(device, b.field(), b.Next)
	b.Current, b.Next = b.Next, b.Current
}

// Draw renders the current generation into output.
func (b *Board) Draw(device fx.Device, output fx.RenderTarget) {
	DrawLife{}.Apply(device, b.field(), output)
}

func (b *Board) field() fx.Field[Cell] {
	return fx.Field[Cell]{Sampler: fx.Sampler[fx.Point, fx.Wrap]{Texture: b.Current}}
}
