// orderengine is the Concurrent Order Processing Engine's standalone
// entrypoint: it wires the incoming/outgoing queues, transaction
// manager, order book, subscription layer, task manager, write-behind
// persistence worker, and record dispatcher into one running process,
// following the teacher's cmd/evm-node single-binary-with-subcommands
// shape.
package main

import (
	"fmt"
	"os"

	"github.com/luxfi/log"
	"github.com/urfave/cli/v2"
)

const clientIdentifier = "orderengine"

var app = &cli.App{
	Name:    clientIdentifier,
	Usage:   "concurrent order processing engine",
	Version: "1.0.0",
	Commands: []*cli.Command{
		runCommand,
		replayCommand,
		verifyLogCommand,
	},
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	app.Before = func(ctx *cli.Context) error {
		log.SetDefault(log.Root())
		return nil
	}
}
