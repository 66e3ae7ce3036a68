package main

import (
	"fmt"

	"github.com/coplib/orderengine/internal/record"
	"github.com/urfave/cli/v2"
)

var verifyLogCommand = &cli.Command{
	Name:   "verify-log",
	Usage:  "read every frame in the record log, decode it, and report per-type counts without restoring any state",
	Flags:  configFlags,
	Action: verifyLogAction,
}

func verifyLogAction(ctx *cli.Context) error {
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	frames, err := record.ReadAll(cfg.RecordLogPath)
	if err != nil {
		return err
	}

	counts := make(map[record.Type]int)
	for _, f := range frames {
		counts[f.Type]++
	}

	fmt.Printf("log=%s frames=%d\n", cfg.RecordLogPath, len(frames))
	for typ, count := range counts {
		fmt.Printf("  %-14s %d\n", typ, count)
	}
	return nil
}
