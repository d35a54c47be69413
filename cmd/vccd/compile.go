package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vccd/internal/compiler"
	"github.com/samcharles93/vccd/internal/logger"
)

func compileCmd() *cli.Command {
	var (
		inputs          []string
		output          string
		allowCollisions bool
	)

	return &cli.Command{
		Name:      "compile",
		Usage:     "Compile caption source files into .dat archives",
		ArgsUsage: "[source.txt ...]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "caption source file (repeatable)",
				Destination: &inputs,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output archive path (single input only)",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "allow-collisions",
				Usage:       "warn instead of failing when two caption names share a hash",
				Destination: &allowCollisions,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			applyCompileConfig(cmd, cfg, &allowCollisions)

			paths := append(append([]string(nil), inputs...), cmd.Args().Slice()...)
			if len(paths) == 0 {
				return errors.New("compile: at least one source file is required")
			}
			if output != "" && len(paths) > 1 {
				return errors.New("compile: --output needs exactly one source file")
			}

			c := compiler.New(log, compiler.Options{AllowCollisions: allowCollisions})
			for _, in := range paths {
				outPath, err := resolveCompileOut(in, output, cfg.OutDir)
				if err != nil {
					return fmt.Errorf("compile %s: %w", in, err)
				}
				res, _, err := c.CompileFile(ctx, in, outPath)
				if err != nil {
					return err
				}
				for _, col := range res.Collisions {
					log.Warn("caption hash collision", "hash", fmt.Sprintf("%08x", col.Hash), "kept", col.Kept, "dropped", col.Dropped)
				}
				fmt.Printf("%s -> %s (%s, %d captions, %d blocks)\n", in, outPath, res.Language, res.Entries, res.Blocks)
			}
			return nil
		},
	}
}
