package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samcharles93/vccd/internal/compiler"
)

const envVCCDOutDir = "VCCD_OUT_DIR"

// resolveCompileOut picks the archive path for inPath: an explicit --output
// wins, then $VCCD_OUT_DIR, then out_dir from the config file, and finally the
// source's own directory. The parent directory is created.
func resolveCompileOut(inPath, outFlag, cfgOutDir string) (string, error) {
	outPath := strings.TrimSpace(outFlag)
	if outPath == "" {
		base := filepath.Base(compiler.DefaultOutputPath(inPath))
		outDir := strings.TrimSpace(os.Getenv(envVCCDOutDir))
		if outDir == "" {
			outDir = strings.TrimSpace(cfgOutDir)
		}
		if outDir != "" {
			outPath = filepath.Join(outDir, base)
		} else {
			outPath = compiler.DefaultOutputPath(inPath)
		}
	}
	outPath = filepath.Clean(outPath)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return "", err
	}
	return outPath, nil
}
