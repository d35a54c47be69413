package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/vccd/internal/captionstore"
	"github.com/samcharles93/vccd/pkg/vccd"
)

type inspectReport struct {
	Path             string      `json:"path"`
	Size             int         `json:"size"`
	Digest           string      `json:"digest"`
	Version          int32       `json:"version"`
	BlockCount       int32       `json:"block_count"`
	BlockSize        int32       `json:"block_size"`
	DirectoryCount   int32       `json:"directory_count"`
	FirstBlockOffset int32       `json:"first_block_offset"`
	BlockUsage       []int       `json:"block_usage"`
	Entries          []entryJSON `json:"entries"`
}

type entryJSON struct {
	Hash   string `json:"hash"`
	Block  uint32 `json:"block"`
	Offset uint16 `json:"offset"`
	Length uint16 `json:"length"`
	Text   string `json:"text,omitempty"`
}

func inspectCmd() *cli.Command {
	var (
		archive  string
		asJSON   bool
		limit    int64
		withText bool
	)

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print the header, block usage and directory of a .dat archive",
		ArgsUsage: "[archive.dat]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "archive",
				Aliases:     []string{"a"},
				Usage:       "path to the .dat archive",
				Destination: &archive,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit a JSON report",
				Destination: &asJSON,
			},
			&cli.Int64Flag{
				Name:        "limit",
				Usage:       "max directory entries to print (0 = all)",
				Value:       20,
				Destination: &limit,
			},
			&cli.BoolFlag{
				Name:        "text",
				Usage:       "include caption text for each entry",
				Destination: &withText,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if archive == "" && cmd.Args().Len() > 0 {
				archive = cmd.Args().First()
			}
			if archive == "" {
				return errors.New("inspect: --archive is required")
			}

			s, err := captionstore.Open(archive)
			if err != nil {
				return fmt.Errorf("inspect %s: %w", archive, err)
			}
			defer func() { _ = s.Close() }()

			report := buildReport(archive, s, int(limit), withText)
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(report)
			}
			printReport(report, len(s.Entries()))
			return nil
		},
	}
}

func buildReport(path string, s *captionstore.Store, limit int, withText bool) inspectReport {
	h := s.Header()
	r := inspectReport{
		Path:             path,
		Size:             s.Size(),
		Digest:           s.Digest(),
		Version:          h.Version,
		BlockCount:       h.BlockCount,
		BlockSize:        h.BlockSize,
		DirectoryCount:   h.DirectoryCount,
		FirstBlockOffset: h.FirstBlockOffset,
		BlockUsage:       s.BlockUsage(),
	}
	entries := s.Entries()
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	r.Entries = make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		ej := entryJSON{
			Hash:   fmt.Sprintf("%08x", e.Hash),
			Block:  e.Block,
			Offset: e.Offset,
			Length: e.Length,
		}
		if withText {
			if text, err := s.LookupHash(e.Hash); err == nil {
				ej.Text = text
			}
		}
		r.Entries = append(r.Entries, ej)
	}
	return r
}

func printReport(r inspectReport, total int) {
	fmt.Printf("Archive: %s\n", r.Path)
	fmt.Printf("Size: %d bytes\n", r.Size)
	fmt.Printf("Digest: %s\n", r.Digest)
	fmt.Printf("Version: %d\n", r.Version)
	fmt.Printf("Blocks: %d x %d bytes, data at offset %d\n", r.BlockCount, r.BlockSize, r.FirstBlockOffset)
	fmt.Printf("Directory entries: %d\n", r.DirectoryCount)

	fmt.Println("\nBlock usage:")
	for i, used := range r.BlockUsage {
		fmt.Printf("  [%d] %d/%d bytes (%.1f%%)\n", i, used, vccd.BlockSize, 100*float64(used)/vccd.BlockSize)
	}

	if len(r.Entries) == 0 {
		return
	}
	fmt.Println("\nDirectory:")
	for _, e := range r.Entries {
		line := fmt.Sprintf("  %s block=%d offset=%d length=%d", e.Hash, e.Block, e.Offset, e.Length)
		if e.Text != "" {
			line += fmt.Sprintf(" %q", e.Text)
		}
		fmt.Println(line)
	}
	if total > len(r.Entries) {
		fmt.Printf("  ... %d more\n", total-len(r.Entries))
	}
}
