package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vccd/internal/captionstore"
	"github.com/samcharles93/vccd/internal/logger"
	"github.com/samcharles93/vccd/pkg/vccd"
)

func lookupCmd() *cli.Command {
	var archive string

	return &cli.Command{
		Name:      "lookup",
		Usage:     "Print the caption text stored for each name",
		ArgsUsage: "name [name ...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "archive",
				Aliases:     []string{"a"},
				Usage:       "path to the .dat archive",
				Required:    true,
				Destination: &archive,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			log := logger.FromContext(ctx)
			names := cmd.Args().Slice()
			if len(names) == 0 {
				return errors.New("lookup: at least one caption name is required")
			}

			s, err := captionstore.Open(archive)
			if err != nil {
				return fmt.Errorf("lookup %s: %w", archive, err)
			}
			defer func() { _ = s.Close() }()

			var missing int
			for _, name := range names {
				text, err := s.Lookup(name)
				if errors.Is(err, captionstore.ErrCaptionNotFound) {
					log.Warn("caption not found", "name", name, "hash", fmt.Sprintf("%08x", vccd.HashName(name)))
					missing++
					continue
				}
				if err != nil {
					return err
				}
				fmt.Printf("%s\t%s\n", name, text)
			}
			if missing > 0 {
				return fmt.Errorf("lookup: %d of %d captions not found", missing, len(names))
			}
			return nil
		},
	}
}
