package fx

// Spellings of the predeclared types. Each method maps its parameter's type.
//
//gxfx:typemap
type typeMap struct{}

//gxfx:hlsl float
func (typeMap) Float32(float32) {}

//gxfx:hlsl float
func (typeMap) Float64(float64) {}

//gxfx:hlsl int
func (typeMap) Int(int) {}

//gxfx:hlsl int
func (typeMap) Int32(int32) {}

//gxfx:hlsl bool
func (typeMap) Bool(bool) {}

// Bool is a boolean shader parameter that is specialized instead of passed at run time.
//
//gxfx:hlsl bool
//gxfx:vals true false
type Bool bool

// Byte-valued channel constants, n/255.
const (
	B0  = 0.0 / 255
	B1  = 1.0 / 255
	B2  = 2.0 / 255
	B3  = 3.0 / 255
	B4  = 4.0 / 255
	B5  = 5.0 / 255
	B6  = 6.0 / 255
	B7  = 7.0 / 255
	B8  = 8.0 / 255
	B9  = 9.0 / 255
	B10 = 10.0 / 255
	B11 = 11.0 / 255
	B12 = 12.0 / 255
)

// RelativeIndex is a grid offset from the cell being computed.
//
//gxfx:hlsl float2
//gxfx:offset
type RelativeIndex struct {
	//gxfx:hlsl x
	X int
	//gxfx:hlsl y
	Y int
}

//gxfx:hlsl float2
func Offset(x, y int) RelativeIndex { return RelativeIndex{x, y} }

//gxfx:readonly
var (
	RightOne  = RelativeIndex{1, 0}
	LeftOne   = RelativeIndex{-1, 0}
	UpOne     = RelativeIndex{0, 1}
	DownOne   = RelativeIndex{0, -1}
	UpRight   = RelativeIndex{1, 1}
	UpLeft    = RelativeIndex{-1, 1}
	DownRight = RelativeIndex{1, -1}
	DownLeft  = RelativeIndex{-1, -1}
	Here      = RelativeIndex{0, 0}
)
