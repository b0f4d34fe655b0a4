package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/ast"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/go/packages"
)

// Equality is how float == and != are lowered.
type Equality int

const (
	Strict Equality = iota
	Tolerant
)

const (
	defaultEpsilon   = 1e-5
	defaultOutputDir = "shaders"
)

type Config struct {
	Patterns  []string // Package patterns to compile
	Dir       string   // Directory patterns are resolved in
	OutputDir string   // Where effect files go, relative to each package unless absolute

	Equality Equality
	Epsilon  float64 // Tolerance of Tolerant equality

	Parallel bool    // Assemble shaders concurrently
	Builder  Builder // Receives the written effect files, if set

	Logf func(format string, args ...interface{})
}

func (cfg Config) epsilon() float64 {
	if cfg.Epsilon > 0 {
		return cfg.Epsilon
	}
	return defaultEpsilon
}

func (cfg Config) outputDir(pkg *packages.Package) string {
	dir := cfg.OutputDir
	if dir == "" {
		dir = defaultOutputDir
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(pkgDir(pkg), dir)
}

// OutputFile is one generated file.
type OutputFile struct {
	Path     string
	Contents string
}

type Result struct {
	Units []*Unit
	Files []OutputFile
}

// EffectPaths lists the paths of the generated effect files.
func (r *Result) EffectPaths() []string {
	var result []string
	for _, file := range r.Files {
		if filepath.Ext(file.Path) == ".fx" {
			result = append(result, file.Path)
		}
	}
	return result
}

// Write writes every file whose contents changed.
func (r *Result) Write() error {
	for _, file := range r.Files {
		if err := os.MkdirAll(filepath.Dir(file.Path), 0755); err != nil {
			return err
		}
		if err := writeFileIfChanged(file.Path, file.Contents); err != nil {
			return err
		}
	}
	return nil
}

func readersEqual(a, b io.Reader) bool {
	bufA := make([]byte, 1024)
	bufB := make([]byte, 1024)
	for {
		nA, errA := io.ReadFull(a, bufA)
		nB, _ := io.ReadFull(b, bufB)
		if !bytes.Equal(bufA[:nA], bufB[:nB]) {
			return false
		}
		if errA == io.EOF || errA == io.ErrUnexpectedEOF {
			return true
		}
	}
}

func writeFileIfChanged(path string, contents string) error {
	byteContents := []byte(contents)
	if f, err := os.Open(path); err == nil {
		equal := readersEqual(f, bytes.NewReader(byteContents))
		f.Close()
		if equal {
			return nil
		}
	}
	if err := os.WriteFile(path, byteContents, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Compile runs both passes over the configured packages and returns the generated files without
// writing them.
func Compile(ctx context.Context, cfg Config) (*Result, error) {
	c := newCompiler(cfg)
	result, err := c.compile(ctx)
	if err != nil {
		return result, err
	}
	if c.errored() {
		return result, errors.New(strings.TrimSuffix(c.errors.String(), "\n"))
	}
	return result, nil
}

// Run compiles, writes the output and hands the effect files to the configured builder.
func Run(ctx context.Context, cfg Config) (*Result, error) {
	result, err := Compile(ctx, cfg)
	if err != nil {
		return result, err
	}
	if err := result.Write(); err != nil {
		return result, err
	}
	if cfg.Builder != nil {
		if err := cfg.Builder.Build(ctx, result.EffectPaths()); err != nil {
			return result, fmt.Errorf("building effects: %w", err)
		}
	}
	return result, nil
}

// generatedStubs overlays previously generated files in root packages with empty package clauses,
// so stale output never affects type checking.
func generatedStubs(roots []*packages.Package, contents map[string]string) map[string][]byte {
	overlay := make(map[string][]byte)
	for _, pkg := range roots {
		for _, path := range pkg.GoFiles {
			switch filepath.Base(path) {
			case glueFileName, copiesFileName:
				overlay[path] = []byte("package " + pkg.Name + "\n")
			}
		}
		if dir := pkgDir(pkg); dir != "" {
			for name, text := range contents {
				if filepath.Dir(name) == dir {
					overlay[name] = []byte(text)
				}
			}
		}
	}
	return overlay
}

func (c *Compiler) compile(ctx context.Context) (*Result, error) {
	result := &Result{}

	// Pass 1: copies
	listed, err := packages.Load(&packages.Config{Context: ctx, Dir: c.config.Dir, Mode: packages.NeedName | packages.NeedFiles}, c.config.Patterns...)
	if err != nil {
		return result, err
	}
	c.load(ctx, generatedStubs(listed, nil))
	if c.errored() {
		return result, nil
	}
	c.collect()
	copies := make(map[string]string)
	for _, pkg := range c.roots {
		text, err := c.genCopies(pkg)
		if err != nil {
			return result, err
		}
		if text != "" {
			path := filepath.Join(pkgDir(pkg), copiesFileName)
			copies[path] = text
			result.Files = append(result.Files, OutputFile{Path: path, Contents: text})
		}
	}
	if c.errored() {
		return result, nil
	}

	// Pass 2: shaders
	rootErrors := c.load(ctx, generatedStubs(listed, copies))
	if c.errored() {
		return result, nil
	}
	for _, err := range rootErrors {
		if err.raw.Kind != packages.TypeError {
			c.errorf(0, "%s", err)
		}
	}
	if c.errored() {
		return result, nil
	}
	c.collect()
	builder := NewTableBuilder(c.fileSet)
	c.populate(builder)
	c.table = builder.Freeze()
	c.findRecursion()
	c.discover()

	// Plan
	type job struct {
		shader *Shader
		key    Key
		unit   *Unit
	}
	var jobs []*job
	for _, shader := range c.rootShaders() {
		vertex, fragment := shader.Entries()
		if vertex == nil || fragment == nil {
			continue
		}
		c.logf("%s, vertex = %s, fragment = %s", shader, vertex.Name.Name, fragment.Name.Name)
		fragmentFn := c.funcOf(fragment)
		if fragmentFn == nil || c.funcOf(vertex) == nil {
			continue
		}
		for _, key := range c.Plan(fragmentFn) {
			jobs = append(jobs, &job{shader: shader, key: key})
		}
	}

	// Assemble
	if c.config.Parallel {
		group, _ := errgroup.WithContext(ctx)
		for _, j := range jobs {
			group.Go(func() error {
				j.unit = c.assemble(j.shader, j.key)
				return nil
			})
		}
		if err := group.Wait(); err != nil {
			return result, err
		}
	} else {
		for _, j := range jobs {
			if err := ctx.Err(); err != nil {
				return result, err
			}
			j.unit = c.assemble(j.shader, j.key)
		}
	}

	// Type errors only matter inside compiled code
	for _, err := range rootErrors {
		if err.raw.Kind != packages.TypeError {
			continue
		}
		fatal := false
		for _, j := range jobs {
			if c.covers(j.unit.decls, err) {
				fatal = true
				break
			}
		}
		if fatal {
			c.errorf(0, "%s", err)
		} else {
			c.logf("warning: %s", err)
		}
	}

	// Output
	byPkg := make(map[*packages.Package][]*Unit)
	var pkgs []*packages.Package
	for _, j := range jobs {
		result.Units = append(result.Units, j.unit)
		if j.unit.HasErrors() {
			c.logf("warning: %s contains ERROR markers", j.unit.FileName())
		}
		pkg := j.shader.Pkg
		if _, ok := byPkg[pkg]; !ok {
			pkgs = append(pkgs, pkg)
		}
		byPkg[pkg] = append(byPkg[pkg], j.unit)
		result.Files = append(result.Files, OutputFile{
			Path:     filepath.Join(c.config.outputDir(pkg), j.unit.FileName()),
			Contents: j.unit.Source,
		})
	}
	for _, pkg := range pkgs {
		text, err := c.genGlue(pkg.Types, byPkg[pkg])
		if err != nil {
			return result, err
		}
		result.Files = append(result.Files, OutputFile{Path: filepath.Join(pkgDir(pkg), glueFileName), Contents: text})
	}
	sort.SliceStable(result.Files, func(i, j int) bool { return result.Files[i].Path < result.Files[j].Path })
	return result, nil
}

// covers reports whether a type error falls inside one of the given declarations.
func (c *Compiler) covers(decls []*ast.FuncDecl, err typeError) bool {
	if err.file == "" {
		return false
	}
	for _, decl := range decls {
		if decl == nil {
			continue
		}
		start, end := c.fileSet.Position(decl.Pos()), c.fileSet.Position(decl.End())
		if filepath.Clean(start.Filename) == err.file && start.Line <= err.line && err.line <= end.Line {
			return true
		}
	}
	return false
}
