package life

import (
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/nikki93/gxfx/fx"
	"github.com/nikki93/gxfx/fxeval"
)

// newBoard loads the effects and fills a board from rows of '#' (alive) and '.' (dead).
func newBoard(t *testing.T, rows ...string) (*fxeval.Device, *Board) {
	t.Helper()
	device := fxeval.NewDevice()
	if err := LoadShaders(device.Content(os.DirFS("shaders"))); err != nil {
		t.Fatal(err)
	}
	current := fxeval.NewTexture(len(rows[0]), len(rows))
	for y, row := range rows {
		for x, c := range row {
			if c == '#' {
				current.Set(x, y, cellToColor(Cell{State: Alive}))
			}
		}
	}
	next := fxeval.NewTexture(current.Width, current.Height)
	return device, &Board{Current: current, Next: next}
}

func boardRows(texture *fxeval.Texture) []string {
	var rows []string
	for y := 0; y < texture.Height; y++ {
		row := &strings.Builder{}
		for x := 0; x < texture.Width; x++ {
			if cellFromColor(texture.At(x, y)).State == Alive {
				row.WriteByte('#')
			} else {
				row.WriteByte('.')
			}
		}
		rows = append(rows, row.String())
	}
	return rows
}

func step(t *testing.T, device *fxeval.Device, board *Board) []string {
	t.Helper()
	board.Step(device)
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	return boardRows(board.Current.(*fxeval.Texture))
}

func TestBlinker(t *testing.T) {
	device, board := newBoard(t,
		".....",
		".....",
		".###.",
		".....",
		".....",
	)
	vertical := []string{
		".....",
		"..#..",
		"..#..",
		"..#..",
		".....",
	}
	if diff := cmp.Diff(vertical, step(t, device, board)); diff != "" {
		t.Errorf("first generation (-want +got):\n%s", diff)
	}
	horizontal := []string{
		".....",
		".....",
		".###.",
		".....",
		".....",
	}
	if diff := cmp.Diff(horizontal, step(t, device, board)); diff != "" {
		t.Errorf("second generation (-want +got):\n%s", diff)
	}
}

// The triple straddles the left edge of a 4x4 torus.
func TestBlinkerWraps(t *testing.T) {
	device, board := newBoard(t,
		"....",
		"##.#",
		"....",
		"....",
	)
	want := []string{
		"#...",
		"#...",
		"#...",
		"....",
	}
	if diff := cmp.Diff(want, step(t, device, board)); diff != "" {
		t.Errorf("first generation (-want +got):\n%s", diff)
	}
}

func TestBlockIsStill(t *testing.T) {
	block := []string{
		"......",
		".##...",
		".##...",
		"......",
	}
	device, board := newBoard(t, block...)
	for i := 0; i < 3; i++ {
		if diff := cmp.Diff(block, step(t, device, board)); diff != "" {
			t.Fatalf("generation %d (-want +got):\n%s", i+1, diff)
		}
	}
}

// A glider moves one cell diagonally every four generations, so on a 5x5 board it crosses both
// edges and is back where it started after twenty.
func TestGliderWraps(t *testing.T) {
	glider := []string{
		".#...",
		"..#..",
		"###..",
		".....",
		".....",
	}
	device, board := newBoard(t, glider...)
	var got []string
	for i := 0; i < 12; i++ {
		got = step(t, device, board)
	}
	crossing := []string{
		"#..##",
		".....",
		".....",
		"....#",
		"#....",
	}
	if diff := cmp.Diff(crossing, got); diff != "" {
		t.Errorf("after 12 generations (-want +got):\n%s", diff)
	}
	for i := 12; i < 20; i++ {
		got = step(t, device, board)
	}
	if diff := cmp.Diff(glider, got); diff != "" {
		t.Errorf("after 20 generations (-want +got):\n%s", diff)
	}
}

func TestDraw(t *testing.T) {
	device, board := newBoard(t,
		"#.",
		".#",
	)
	output := fxeval.NewTexture(2, 2)
	board.Draw(device, output)
	if err := device.Err(); err != nil {
		t.Fatal(err)
	}
	want := []fx.Color{fx.White, fx.Black, fx.Black, fx.White}
	if diff := cmp.Diff(want, output.Pix); diff != "" {
		t.Errorf("drawn board (-want +got):\n%s", diff)
	}
}
