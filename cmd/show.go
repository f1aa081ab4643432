package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli"

	"github.com/warpdl/stickers/cmd/common"
	"github.com/warpdl/stickers/internal/instance"
)

// showEndpoint overrides the IPC endpoint in tests.
var showEndpoint string

func show(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	cctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	pid, err := instance.RequestShow(cctx, showEndpoint)
	if err != nil {
		return common.PrintRuntimeErr(ctx, "show", "request", fmt.Errorf("stickers does not seem to be running: %w", err))
	}
	fmt.Printf("stickers: main window shown (pid %d)\n", pid)
	return nil
}
