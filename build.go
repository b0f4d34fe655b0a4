package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/nikki93/gxfx/fxeval"
)

// Builder turns written effect files into whatever the runtime loads.
type Builder interface {
	Build(ctx context.Context, paths []string) error
}

// ExecBuilder runs an external shader compiler once per effect file. "{}" in Args is replaced by
// the file's path, which is otherwise appended.
type ExecBuilder struct {
	Command string
	Args    []string
}

func (b ExecBuilder) Build(ctx context.Context, paths []string) error {
	var failures []string
	for _, path := range paths {
		args := make([]string, 0, len(b.Args)+1)
		substituted := false
		for _, arg := range b.Args {
			if strings.Contains(arg, "{}") {
				arg = strings.ReplaceAll(arg, "{}", path)
				substituted = true
			}
			args = append(args, arg)
		}
		if !substituted {
			args = append(args, path)
		}
		output, err := exec.CommandContext(ctx, b.Command, args...).CombinedOutput()
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %s\n%s", path, err, strings.TrimSpace(string(output))))
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("%s", strings.Join(failures, "\n"))
	}
	return nil
}

// CheckBuilder parses every effect file with the CPU evaluator, which rejects any ERROR marker.
type CheckBuilder struct{}

func (CheckBuilder) Build(ctx context.Context, paths []string) error {
	group, ctx := errgroup.WithContext(ctx)
	for _, path := range paths {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if _, err := fxeval.Parse(path, string(src)); err != nil {
				return err
			}
			return nil
		})
	}
	return group.Wait()
}
