// registro-backup exports the ledger to a JSON backup document or restores
// one, against the same backend the server uses.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"registro/internal/backup"
	"registro/internal/cli"
)

func main() {
	exportPath := flag.String("export", "", "write a backup document to the given path (use '-' for a dated file in the working directory)")
	importPath := flag.String("import", "", "restore the ledger from the given backup document")
	flag.Parse()

	logger := cli.SetupLogger()
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig(logger)

	if (*exportPath == "") == (*importPath == "") {
		fmt.Fprintln(os.Stderr, "usage: registro-backup -export <path> | -import <path>")
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	ledger, cleanup, err := cli.InitLedger(ctx, logger, cfg)
	if err != nil {
		logger.Error("Failed to initialize ledger", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if cleanup != nil {
			_ = cleanup()
		}
	}()

	if *exportPath != "" {
		path := *exportPath
		if path == "-" {
			path = backup.FileName(time.Now())
		}
		out, err := backup.Export(ledger, time.Now)
		if err != nil {
			logger.Error("Export failed", "error", err)
			os.Exit(1)
		}
		if err := os.WriteFile(path, out, 0o644); err != nil {
			logger.Error("Failed to write backup file", "error", err, "path", path)
			os.Exit(1)
		}
		logger.Info("Backup written", "path", path, "records", ledger.Len())
		return
	}

	data, err := os.ReadFile(*importPath)
	if err != nil {
		logger.Error("Failed to read backup file", "error", err, "path", *importPath)
		os.Exit(1)
	}
	if err := backup.Import(ctx, ledger, data); err != nil {
		logger.Error("Import failed", "error", err, "path", *importPath)
		os.Exit(1)
	}
	logger.Info("Backup restored", "path", *importPath, "records", ledger.Len())
}
