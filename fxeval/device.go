package fxeval

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"reflect"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/nikki93/gxfx/fx"
)

// Device runs effects on the CPU. Faults are recorded rather than returned, since the device
// interface has no error results; check Err after drawing.
type Device struct {
	target *Texture
	effect *Effect

	mu  sync.Mutex
	err error
}

func NewDevice() *Device {
	return &Device{}
}

// Err returns the first fault recorded since the device was created.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}

func (d *Device) fail(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err == nil {
		d.err = err
	}
}

func (d *Device) SetRenderTarget(target fx.RenderTarget) {
	texture, ok := target.(*Texture)
	if !ok {
		d.fail(fmt.Errorf("render target %T is not an fxeval texture", target))
		return
	}
	d.target = texture
}

func (d *Device) Clear(c fx.Color) {
	if d.target == nil {
		d.fail(errors.New("clear without a render target"))
		return
	}
	c = quantize(c)
	for i := range d.target.Pix {
		d.target.Pix[i] = c
	}
}

// quad is the full-screen quad DrawGrid rasterizes: position, texture coordinates, in the order
// top left, top right, bottom left, bottom right.
var quad = [4][4]float32{
	{-1, 1, 0, 0},
	{1, 1, 1, 0},
	{-1, -1, 0, 1},
	{1, -1, 1, 1},
}

// DrawGrid runs the current effect over a full-screen quad. The vertex stage runs once per corner,
// its outputs are interpolated to each cell center, and the fragment stage runs once per cell.
func (d *Device) DrawGrid() {
	if d.effect == nil || d.target == nil {
		d.fail(errors.New("draw without an effect and a render target"))
		return
	}
	program := d.effect.program
	vertexFn, fragmentFn := program.Funcs[program.Vertex], program.Funcs[program.Fragment]
	if len(fragmentFn.Params) != 1 || fragmentFn.Params[0].Type.Kind != Struct {
		d.fail(fmt.Errorf("%s: fragment entry must take one struct", program.Name))
		return
	}

	// Vertex stage
	var corners [4]Value
	m := newMachine(program, d.effect.uniforms)
	for i, corner := range quad {
		args := make([]Value, len(vertexFn.Params))
		for j, param := range vertexFn.Params {
			var v Value
			switch semantic := strings.ToUpper(param.Semantic); {
			case strings.HasPrefix(semantic, "POSITION"):
				v = Value{Type: vectorType(Float, 2), C: [4]float32{corner[0], corner[1]}}
			case strings.HasPrefix(semantic, "TEXCOORD"):
				v = Value{Type: vectorType(Float, 2), C: [4]float32{corner[2], corner[3]}}
			case strings.HasPrefix(semantic, "COLOR"):
				v = Value{Type: vectorType(Float, 4), C: [4]float32{1, 1, 1, 1}}
			default:
				d.fail(fmt.Errorf("%s: unknown vertex input semantic %q", program.Name, param.Semantic))
				return
			}
			args[j] = v
		}
		out, err := m.invoke(program.Vertex, args)
		if err != nil {
			d.fail(err)
			return
		}
		corners[i] = out
	}

	// Fragment stage
	target := d.target
	pix := make([]fx.Color, len(target.Pix))
	group := &errgroup.Group{}
	group.SetLimit(runtime.GOMAXPROCS(0))
	for y := 0; y < target.Height; y++ {
		group.Go(func() error {
			m := newMachine(program, d.effect.uniforms)
			t := (float32(y) + 0.5) / float32(target.Height)
			for x := 0; x < target.Width; x++ {
				s := (float32(x) + 0.5) / float32(target.Width)
				weights := [4]float32{(1 - s) * (1 - t), s * (1 - t), (1 - s) * t, s * t}
				in, err := interpolate(corners, weights, fragmentFn.Params[0].Type)
				if err != nil {
					return fmt.Errorf("%s: %w", program.Name, err)
				}
				out, err := m.invoke(program.Fragment, []Value{in})
				if err != nil {
					return err
				}
				c, err := outputColor(out)
				if err != nil {
					return fmt.Errorf("%s: %w", program.Name, err)
				}
				pix[y*target.Width+x] = quantize(c)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		d.fail(err)
		return
	}
	copy(target.Pix, pix)
}

// interpolate blends the vertex outputs of the corners with the given weights.
func interpolate(corners [4]Value, weights [4]float32, t *Type) (Value, error) {
	for _, corner := range corners {
		if corner.Type.Kind != Struct || corner.Type.Name != t.Name {
			return Value{}, fmt.Errorf("vertex output %s does not match fragment input %s", corner.Type.Name, t.Name)
		}
	}
	result := zero(t)
	for i, field := range t.Fields {
		if field.Type.Kind != Float {
			result.Fields[i] = corners[0].Fields[i].clone()
			continue
		}
		for j, corner := range corners {
			for k := 0; k < field.Type.N; k++ {
				result.Fields[i].C[k] += weights[j] * corner.Fields[i].C[k]
			}
		}
	}
	return result, nil
}

func outputColor(v Value) (fx.Color, error) {
	if v.Type.Kind == Struct {
		for i, field := range v.Type.Fields {
			if strings.HasPrefix(strings.ToUpper(field.Semantic), "COLOR") || field.Name == "Color" {
				return outputColor(v.Fields[i])
			}
		}
	}
	if v.Type.Kind == Float && v.Type.N == 4 {
		return fx.Color{R: v.C[0], G: v.C[1], B: v.C[2], A: v.C[3]}, nil
	}
	return fx.Color{}, fmt.Errorf("fragment output %s is not a color", v.Type.Name)
}

//
// Effects
//

// Effect is a parsed program with its parameter values.
type Effect struct {
	device   *Device
	program  *Program
	uniforms map[string]*Value
}

// NewEffect prepares a program for drawing on this device.
func (d *Device) NewEffect(program *Program) *Effect {
	e := &Effect{device: d, program: program, uniforms: make(map[string]*Value)}
	for _, g := range program.Globals {
		if g.Static {
			continue
		}
		v := zero(g.Type)
		v.Sampler = g.Sampler
		e.uniforms[g.Name] = &v
	}
	return e
}

func (e *Effect) Program() *Program {
	return e.program
}

func (e *Effect) Apply() {
	e.device.effect = e
}

func (e *Effect) Parameter(name string) fx.Parameter {
	return &parameter{effect: e, name: name}
}

type parameter struct {
	effect *Effect
	name   string
}

func (p *parameter) SetValue(v any) {
	if err := p.set(v); err != nil {
		p.effect.device.fail(fmt.Errorf("%s: parameter %s: %w", p.effect.program.Name, p.name, err))
	}
}

func (p *parameter) set(v any) error {
	target, ok := p.effect.uniforms[p.name]
	if !ok {
		return errors.New("no such parameter")
	}
	if target.Type.Kind == TextureKind {
		texture, ok := v.(*Texture)
		if !ok || texture == nil {
			return fmt.Errorf("%T is not an fxeval texture", v)
		}
		target.Texture = texture
		return nil
	}
	value, err := hostValue(reflect.ValueOf(v))
	if err != nil {
		return err
	}
	converted, err := convert(value, target.Type)
	if err != nil {
		return err
	}
	*target = converted
	return nil
}

// hostValue converts a Go value to an HLSL value. Structs of numbers become vectors, which covers
// every vector type of package fx and types copied from them.
func hostValue(v reflect.Value) (Value, error) {
	if !v.IsValid() {
		return Value{}, errors.New("nil value")
	}
	switch v.Kind() {
	case reflect.Bool:
		return boolValue(v.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return intValue(int(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return intValue(int(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return floatValue(float32(v.Float())), nil
	case reflect.Struct:
		n := v.NumField()
		if n < 1 || n > 4 {
			break
		}
		kind := Int
		var c [4]float32
		for i := 0; i < n; i++ {
			field, err := hostValue(v.Field(i))
			if err != nil || field.Type.N != 1 {
				return Value{}, fmt.Errorf("unsupported field %s of %s", v.Type().Field(i).Name, v.Type())
			}
			kind = promote(kind, field.Type.Kind)
			c[i] = field.C[0]
		}
		return Value{Type: vectorType(kind, n), C: c}, nil
	}
	return Value{}, fmt.Errorf("unsupported value of type %s", v.Type())
}

//
// Content
//

// Content loads effects from compiled effect files in a file system.
type Content struct {
	device *Device
	fsys   fs.FS
}

// Content returns a loader of "<name>.fx" files in fsys.
func (d *Device) Content(fsys fs.FS) *Content {
	return &Content{device: d, fsys: fsys}
}

func (c *Content) Load(name string) (fx.Effect, error) {
	filename := path.Clean(name) + ".fx"
	src, err := fs.ReadFile(c.fsys, filename)
	if err != nil {
		return nil, err
	}
	program, err := Parse(filename, string(src))
	if err != nil {
		return nil, err
	}
	return c.device.NewEffect(program), nil
}
