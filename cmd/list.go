package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/warpdl/stickers/cmd/common"
	"github.com/warpdl/stickers/internal/config"
	"github.com/warpdl/stickers/internal/sticker"
	"github.com/warpdl/stickers/internal/store"
)

const titleWidth = 40

var (
	lsSearch  string
	lsContent bool
	lsSort    string
	lsAsc     bool
	lsLimit   int
	lsOffset  int

	lsFlags = []cli.Flag{
		dataDirFlag,
		cli.StringFlag{
			Name:        "search, s",
			Usage:       "only stickers whose title contains `TEXT`",
			Destination: &lsSearch,
		},
		cli.BoolFlag{
			Name:        "content, c",
			Usage:       "also match --search against sticker content",
			Destination: &lsContent,
		},
		cli.StringFlag{
			Name:        "sort",
			Usage:       "sort by `FIELD`: updated or created",
			Value:       "updated",
			Destination: &lsSort,
		},
		cli.BoolFlag{
			Name:        "asc, a",
			Usage:       "oldest first (default: newest first)",
			Destination: &lsAsc,
		},
		cli.IntFlag{
			Name:        "limit, n",
			Usage:       "show at most `N` stickers (0 for all)",
			Destination: &lsLimit,
		},
		cli.IntFlag{
			Name:        "offset",
			Usage:       "skip the first `N` stickers",
			Destination: &lsOffset,
		},
	}
)

var kindColor = map[sticker.Kind]func(a ...interface{}) string{
	sticker.KindMarkdown: color.New(color.FgCyan).SprintFunc(),
	sticker.KindTimer:    color.New(color.FgYellow).SprintFunc(),
	sticker.KindCommand:  color.New(color.FgMagenta).SprintFunc(),
}

func list(ctx *cli.Context) error {
	if ctx.Args().First() == "help" {
		return cli.ShowCommandHelp(ctx, ctx.Command.Name)
	}
	opts := store.ListOptions{
		Search:        lsSearch,
		SearchContent: lsContent,
		Desc:          !lsAsc,
		Limit:         lsLimit,
		Offset:        lsOffset,
	}
	switch lsSort {
	case "updated", "":
		opts.OrderBy = store.OrderUpdated
	case "created":
		opts.OrderBy = store.OrderCreated
	default:
		return common.PrintErrWithCmdHelp(ctx, fmt.Errorf("unknown sort field %q", lsSort))
	}

	paths, err := config.Resolve(afero.NewOsFs(), dataDir)
	if err != nil {
		return common.PrintRuntimeErr(ctx, "list", "data_dir", err)
	}
	st, err := store.Open(paths.Database())
	if err != nil {
		return common.PrintRuntimeErr(ctx, "list", "open_store", err)
	}
	defer st.Close()

	bg := context.Background()
	items, err := st.List(bg, opts)
	if err != nil {
		return common.PrintRuntimeErr(ctx, "list", "get_list", err)
	}
	total, err := st.Count(bg, opts.Search, opts.SearchContent)
	if err != nil {
		return common.PrintRuntimeErr(ctx, "list", "count", err)
	}
	if len(items) == 0 {
		fmt.Fprintln(color.Output, "stickers: no stickers found")
		return nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	bold := color.New(color.Bold).SprintFunc()
	tbl.AddRow(bold("ID"), bold("KIND"), bold("STATE"), bold("COLOR"), bold("UPDATED"), bold("TITLE"))
	for _, s := range items {
		paint := kindColor[s.Kind]
		if paint == nil {
			paint = fmt.Sprint
		}
		tbl.AddRow(
			s.ID,
			paint(string(s.Kind)),
			string(s.State),
			string(s.Color),
			time.UnixMilli(s.UpdatedAt).Format("2006-01-02 15:04"),
			common.Truncate(s.Title, titleWidth),
		)
	}
	fmt.Fprintln(color.Output, tbl)
	if len(items) < total {
		fmt.Fprintf(color.Output, "\nshowing %d of %d stickers\n", len(items), total)
	}
	return nil
}
