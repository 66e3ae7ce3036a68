package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
)

var replayCommand = &cli.Command{
	Name:   "replay",
	Usage:  "restore order book / storage / catalog state from the record log and report the recovered floor",
	Flags:  configFlags,
	Action: replayAction,
}

func replayAction(ctx *cli.Context) error {
	e, err := newEngine(ctx)
	if err != nil {
		return err
	}
	if err := e.replayLog(); err != nil {
		return err
	}
	fmt.Printf("replay complete: log=%s\n", e.rt.Config.RecordLogPath)
	return nil
}
