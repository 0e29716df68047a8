package onsets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"os"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/strobe/cmd/common"
	"github.com/gigurra/strobe/cmd/show"
	"github.com/gigurra/strobe/cmd/show/onsets"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type Params struct {
	File    string `pos:"true" help:"Audio file (wav or mp3) to analyse."`
	Backend string `short:"b" help:"Onset detection backend." default:"analyzer" alts:"analyzer,aubio"`
	Aubio   string `help:"aubioonset command used by the aubio backend." default:"aubioonset"`
	Count   int    `short:"n" help:"Number of LEDs, used to plan flash regions." default:"64"`
	Seed    int64  `short:"s" help:"Seed for region selection (0 = random)." default:"0"`
	JSON    bool   `help:"Output as JSON." default:"false"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "onsets",
		Short:       "Show the onsets of a song and the flashes planned for them",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			if err := Run(cmd.Context(), params, os.Stdout); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "onsets: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

type report struct {
	File     string        `json:"file"`
	Duration time.Duration `json:"duration"`
	Flashes  []show.Flash  `json:"flashes"`
}

func Run(ctx context.Context, params *Params, out io.Writer) error {
	provider, err := onsets.New(params.Backend, params.Aubio, 0)
	if err != nil {
		return err
	}

	times, err := provider.Onsets(ctx, params.File)
	if err != nil {
		return fmt.Errorf("failed to detect onsets: %w", err)
	}
	duration, err := provider.Duration(ctx, params.File)
	if err != nil {
		return fmt.Errorf("failed to read duration: %w", err)
	}

	seed := params.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))
	flashes := show.PlanFlashes(times, duration, show.RegionsFor(params.Count), show.DefaultPalette, rng)

	if params.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report{File: params.File, Duration: duration, Flashes: flashes})
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleLight)
	t.SetTitle(fmt.Sprintf("%s (%s)", params.File, duration.Round(time.Millisecond)))
	t.AppendHeader(table.Row{"#", "At", "LEDs", "Color"})
	for _, f := range flashes {
		t.AppendRow(table.Row{
			f.Index,
			fmt.Sprintf("%.3fs", f.At.Seconds()),
			fmt.Sprintf("%d-%d", f.Region.Start, f.Region.End-1),
			f.Color.String(),
		})
	}
	t.AppendFooter(table.Row{"", "", "flashes", len(flashes)})
	t.Render()
	return nil
}
