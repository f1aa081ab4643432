package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"

	"github.com/warpdl/stickers/cmd/common"
	"github.com/warpdl/stickers/internal/instance"
)

type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

// dataDirFlag is shared by every command that touches the data directory.
var (
	dataDir     string
	dataDirFlag = cli.StringFlag{
		Name:        "data-dir",
		Usage:       "directory holding the database, lock and logs",
		EnvVar:      "STICKERS_DATA_DIR",
		Destination: &dataDir,
	}
)

func Execute(args []string, bArgs BuildArgs) error {
	app := cli.App{
		Name:                  "stickers",
		HelpName:              "stickers",
		Usage:                 "Notes, timers and scheduled commands on your desktop.",
		Version:               fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:             "stickers <command> [arguments...]",
		Description:           DESCRIPTION,
		CustomAppHelpTemplate: HELP_TEMPL,
		OnUsageError:          common.UsageErrorCallback,
		Commands: []cli.Command{
			{
				Name:               "run",
				Usage:              "start stickers or bring it to the front",
				Description:        RunDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             run,
				Flags:              runFlags,
			},
			{
				Name:               "show",
				Aliases:            []string{"s"},
				Usage:              "show the main window of the running instance",
				Description:        ShowDescription,
				OnUsageError:       common.UsageErrorCallback,
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             show,
			},
			{
				Name:                   "list",
				Aliases:                []string{"l"},
				Usage:                  "print the saved stickers",
				Action:                 list,
				OnUsageError:           common.UsageErrorCallback,
				CustomHelpTemplate:     CMD_HELP_TEMPL,
				Description:            ListDescription,
				UseShortOptionHandling: true,
				Flags:                  lsFlags,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  common.Help,
			},
			{
				Name:               "version",
				Aliases:            []string{"v"},
				Usage:              "prints installed version of stickers",
				UsageText:          " ",
				CustomHelpTemplate: CMD_HELP_TEMPL,
				Action:             common.GetVersion,
			},
		},
		Action:      run,
		Flags:       runFlags,
		HideHelp:    true,
		HideVersion: true,
	}
	common.VersionCmdStr = fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\nHotkey: %s\n",
		app.Name,
		app.Version,
		runtime.GOOS,
		runtime.GOARCH,
		bArgs.Date, bArgs.Commit,
		instance.ChordName,
	)
	return app.Run(args)
}
