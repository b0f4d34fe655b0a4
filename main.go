package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"log"
	"os"
	"os/signal"
	"strings"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/term"

	"github.com/nikki93/gxfx/fx"
	"github.com/nikki93/gxfx/fxeval"
)

const usage = `usage: gxfx [flags] <package pattern>...
       gxfx run [flags] <effect dir> <effect>...

Compiles the shaders of Go packages to HLSL effects and Go glue. The run command executes compiled
effects on the CPU, feeding each effect's output into the next.

`

const (
	errorColor   = "\x1b[31m"
	warningColor = "\x1b[33m"
	statusColor  = "\x1b[36m"
	defaultColor = "\x1b[0m"
)

var colored = term.IsTerminal(int(os.Stderr.Fd()))

func decorate(s, color string) string {
	if !colored {
		return s
	}
	return color + s + defaultColor
}

func main() {
	log.SetFlags(0)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	if len(os.Args) > 1 && os.Args[1] == "run" {
		err = runEffects(ctx, os.Args[2:])
	} else {
		err = compileMain(ctx, os.Args[1:])
	}
	if err != nil {
		log.Print(decorate(err.Error(), errorColor))
		os.Exit(1)
	}
}

func compileMain(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("gxfx", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	var (
		out      = flags.String("out", defaultOutputDir, "Effect output directory, relative to each package unless absolute")
		tolerant = flags.Bool("tolerant", false, "Compare floats with a tolerance instead of exactly")
		epsilon  = flags.Float64("epsilon", defaultEpsilon, "Tolerance of -tolerant comparisons")
		parallel = flags.Bool("parallel", false, "Assemble shaders concurrently")
		build    = flags.String("build", "", "Shader compiler command run on each effect file")
		check    = flags.Bool("check", false, "Parse every effect file with the CPU evaluator")
		verbose  = flags.Bool("v", false, "Log progress")
	)
	flags.Parse(args)
	if flags.NArg() == 0 {
		flags.Usage()
		os.Exit(2)
	}

	cfg := Config{
		Patterns:  flags.Args(),
		OutputDir: *out,
		Epsilon:   *epsilon,
		Parallel:  *parallel,
	}
	if *tolerant {
		cfg.Equality = Tolerant
	}
	switch {
	case *build != "":
		fields := strings.Fields(*build)
		cfg.Builder = ExecBuilder{Command: fields[0], Args: fields[1:]}
	case *check:
		cfg.Builder = CheckBuilder{}
	}
	cfg.Logf = func(format string, args ...interface{}) {
		msg := fmt.Sprintf(format, args...)
		if strings.HasPrefix(msg, "warning: ") {
			log.Print(decorate(msg, warningColor))
		} else if *verbose {
			log.Print(decorate(msg, statusColor))
		}
	}

	result, err := Run(ctx, cfg)
	if err != nil {
		return err
	}
	if *verbose {
		log.Printf("%d effects, %d files", len(result.Units), len(result.Files))
	}
	return nil
}

// runEffects executes compiled effects on the CPU. Every sampler of every effect is bound to the
// previous output, starting from the seed image.
func runEffects(ctx context.Context, args []string) error {
	flags := flag.NewFlagSet("gxfx run", flag.ExitOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	var (
		in    = flags.String("in", "", "Seed image")
		out   = flags.String("out", "out.png", "Result image")
		steps = flags.Int("steps", 1, "Number of times the effects are run")
		width = flags.Int("width", 64, "Grid width when there is no seed image")
		hgt   = flags.Int("height", 64, "Grid height when there is no seed image")
		scale = flags.Int("scale", 1, "Upscale factor of the result image")
	)
	flags.Parse(args)
	if flags.NArg() < 2 {
		flags.Usage()
		os.Exit(2)
	}

	device := fxeval.NewDevice()
	content := device.Content(os.DirFS(flags.Arg(0)))
	var effects []*fxeval.Effect
	for _, name := range flags.Args()[1:] {
		effect, err := content.Load(name)
		if err != nil {
			return err
		}
		effects = append(effects, effect.(*fxeval.Effect))
	}

	current := fxeval.NewTexture(*width, *hgt)
	if *in != "" {
		img, err := imaging.Open(*in)
		if err != nil {
			return fmt.Errorf("loading seed: %w", err)
		}
		current = fxeval.TextureFromImage(img)
	}
	next := fxeval.NewTexture(current.Width, current.Height)

	for step := 0; step < *steps; step++ {
		for _, effect := range effects {
			if err := ctx.Err(); err != nil {
				return err
			}
			for _, g := range effect.Program().Globals {
				if g.Sampler == nil {
					continue
				}
				effect.Parameter(g.Sampler.Texture).SetValue(current)
				effect.Parameter(g.Name + "_size").SetValue(fx.TextureSize(current))
				effect.Parameter(g.Name + "_dxdy").SetValue(fx.TextureStep(current))
			}
			effect.Apply()
			device.SetRenderTarget(next)
			device.Clear(fx.Transparent)
			device.DrawGrid()
			if err := device.Err(); err != nil {
				return err
			}
			current, next = next, current
		}
	}

	var result image.Image = current.Image()
	if *scale > 1 {
		scaled := image.NewNRGBA(image.Rect(0, 0, current.Width**scale, current.Height**scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), result, result.Bounds(), draw.Src, nil)
		result = scaled
	}
	if err := imaging.Save(result, *out); err != nil {
		return fmt.Errorf("saving result: %w", err)
	}
	log.Print(decorate(fmt.Sprintf("wrote %s after %d steps", *out, *steps), statusColor))
	return nil
}
