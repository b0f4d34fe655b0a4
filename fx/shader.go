package fx

// Shader is the base of every compilable shader. A struct that embeds it, directly or through
// another shader, is compiled when it has (or inherits) both a vertex and a fragment entry.
//
//gxfx:shader
type Shader struct{}

// GridComputation draws a full-screen quad so that the fragment entry runs once per output cell.
type GridComputation struct {
	Shader
}

//gxfx:vertex
func (GridComputation) Vertex(data Vertex) VertexOut {
	output := ZeroVertexOut
	output.Position.W = 1
	output.Position.X = data.Position.X
	output.Position.Y = data.Position.Y
	output.TexCoords = data.TexCoords
	return output
}

// Vertex is the input of a vertex entry.
type Vertex struct {
	//gxfx:hlsl inPos expression
	Position Vec2
	//gxfx:hlsl inColor expression
	Color Color
	//gxfx:hlsl inTexCoords expression
	TexCoords Vec2
}

// VertexOut is passed from the vertex entry to the fragment entry, interpolated.
//
//gxfx:hlsl VertexToPixel
type VertexOut struct {
	//gxfx:hlsl Position
	Position Vec4
	//gxfx:hlsl Color
	Color Color
	//gxfx:hlsl TexCoords
	TexCoords Vec2
}

//gxfx:hlsl (VertexToPixel)0 expression
var ZeroVertexOut VertexOut
