package songs

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/strobe/cmd/common"
	"github.com/gigurra/strobe/cmd/show"
	"github.com/gigurra/strobe/cmd/show/catalog"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

var ErrMissingFiles = errors.New("catalog references missing files")

type Params struct {
	Catalog string `pos:"true" optional:"true" help:"Song catalog file (JSON). Defaults to ./songs.json or ~/.strobe/songs.json."`
	Check   bool   `short:"c" help:"Fail if any song file is missing." default:"false"`
	JSON    bool   `help:"Output as JSON." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "songs",
		Short:       "List the songs of a catalog",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(params, os.Stdout); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "songs: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(params *Params, out io.Writer) error {
	path := params.Catalog
	if path == "" {
		path = common.DefaultCatalogPath()
	}
	cat, err := catalog.Load(path)
	if err != nil {
		return err
	}

	missing := lo.Filter(cat.Songs, func(s show.Song, _ int) bool {
		_, err := os.Stat(s.File)
		return err != nil
	})
	isMissing := lo.SliceToMap(missing, func(s show.Song) (int, bool) { return s.ID, true })

	if params.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cat.Songs); err != nil {
			return err
		}
	} else {
		t := table.NewWriter()
		t.SetOutputMirror(out)
		t.SetStyle(table.StyleLight)
		t.AppendHeader(table.Row{"ID", "Name", "File", ""})
		for _, s := range cat.Songs {
			note := ""
			if isMissing[s.ID] {
				note = "missing"
			}
			t.AppendRow(table.Row{s.ID, s.Name, s.File, note})
		}
		t.Render()
	}

	if params.Check && len(missing) > 0 {
		return fmt.Errorf("%w: %d of %d", ErrMissingFiles, len(missing), len(cat.Songs))
	}
	return nil
}
