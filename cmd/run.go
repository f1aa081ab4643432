package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/warpdl/stickers/cmd/common"
	"github.com/warpdl/stickers/internal/config"
	"github.com/warpdl/stickers/internal/daemon"
)

var (
	noHotkey bool

	runFlags = []cli.Flag{
		dataDirFlag,
		cli.BoolFlag{
			Name:        "no-hotkey",
			Usage:       "do not register the global hotkey",
			Destination: &noHotkey,
		},
	}
)

// startRunner is replaced in tests.
var startRunner = func(ctx context.Context, c *daemon.Config) error {
	return daemon.New(c, nil).Start(ctx)
}

func run(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	fs := afero.NewOsFs()
	paths, err := config.Resolve(fs, dataDir)
	if err != nil {
		return common.PrintRuntimeErr(ctx, "run", "data_dir", err)
	}
	settings, err := config.Load(fs, paths.ConfigFile())
	if err != nil {
		return common.PrintRuntimeErr(ctx, "run", "load_config", err)
	}
	if noHotkey {
		settings.Hotkey.Enabled = false
	}

	sctx, cancel := setupShutdownHandler()
	defer cancel()

	err = startRunner(sctx, &daemon.Config{
		DataDir:  paths.DataDir,
		Settings: settings,
	})
	switch {
	case errors.Is(err, daemon.ErrAlreadyRunning):
		fmt.Println("stickers: already running, brought it to the front")
	case err != nil:
		return common.PrintRuntimeErr(ctx, "run", "start", err)
	}
	return nil
}
