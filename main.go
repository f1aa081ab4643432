package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/warpdl/stickers/cmd"
	"github.com/warpdl/stickers/cmd/common"
)

var (
	version   string
	commit    string
	date      string
	buildType string = "unclassified"
)

var osExit = os.Exit

func main() {
	runOnMainThread(func() {
		osExit(runMain(os.Args, func(args []string) error {
			return cmd.Execute(args, cmd.BuildArgs{
				Version:   version,
				Commit:    commit,
				Date:      date,
				BuildType: buildType,
			})
		}))
	})
}

func runMain(args []string, execute func([]string) error) int {
	if err := execute(args); err != nil {
		var re *common.RuntimeError
		if !errors.As(err, &re) {
			fmt.Printf("stickers: %s\n", err.Error())
		}
		return 1
	}
	return 0
}
