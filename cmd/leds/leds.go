package leds

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/strobe/cmd/common"
	"github.com/gigurra/strobe/cmd/show"
	"github.com/gigurra/strobe/cmd/show/leds"
	"github.com/spf13/cobra"
)

func Cmd() *cobra.Command {
	return boa.CmdT[boa.NoParams]{
		Use:   "leds",
		Short: "Drive the LED strip directly",
		SubCmds: []*cobra.Command{
			OffCmd(),
			StaticCmd(),
			RainbowCmd(),
			FlickerCmd(),
		},
	}.ToCobra()
}

// Strip selects and opens the device. Every sub-command carries the same
// flags.
type Strip struct {
	Backend string
	Device  string
	Baud    int
	Count   int
	Order   string
}

func (s Strip) open(ctx context.Context) (show.Strip, error) {
	order, err := leds.ParseOrder(s.Order)
	if err != nil {
		return nil, err
	}
	opener, err := leds.Config{
		Backend: s.Backend,
		Device:  s.Device,
		Baud:    s.Baud,
		Count:   s.Count,
		Order:   order,
	}.Opener()
	if err != nil {
		return nil, err
	}
	if opener == nil {
		return nil, fmt.Errorf("backend %q has no strip to drive", s.Backend)
	}
	return opener(ctx)
}

func withStrip(ctx context.Context, s Strip, fn func(show.Strip) error) error {
	strip, err := s.open(ctx)
	if err != nil {
		return err
	}
	err = fn(strip)
	if cerr := strip.Close(); err == nil {
		err = cerr
	}
	return err
}

func exitOnErr(name string, err error) {
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "leds %s: %v\n", name, err)
		os.Exit(1)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

type OffParams struct {
	Backend string `short:"B" help:"LED backend." default:"serial" alts:"serial,terminal"`
	Device  string `short:"d" help:"Serial device of the LED controller." default:"/dev/ttyUSB0"`
	Baud    int    `help:"Serial baud rate." default:"115200"`
	Count   int    `short:"n" help:"Number of LEDs on the strip." default:"32"`
	Order   string `help:"Channel order the controller expects." default:"bgr" alts:"rgb,bgr,grb"`
}

func (p *OffParams) strip() Strip {
	return Strip{Backend: p.Backend, Device: p.Device, Baud: p.Baud, Count: p.Count, Order: p.Order}
}

func OffCmd() *cobra.Command {
	return boa.CmdT[OffParams]{
		Use:         "off",
		Short:       "Turn every LED off",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *OffParams, cmd *cobra.Command, args []string) {
			exitOnErr("off", withStrip(cmd.Context(), params.strip(), leds.Off))
		},
	}.ToCobra()
}

type StaticParams struct {
	Backend string `short:"B" help:"LED backend." default:"serial" alts:"serial,terminal"`
	Device  string `short:"d" help:"Serial device of the LED controller." default:"/dev/ttyUSB0"`
	Baud    int    `help:"Serial baud rate." default:"115200"`
	Count   int    `short:"n" help:"Number of LEDs on the strip." default:"32"`
	Order   string `help:"Channel order the controller expects." default:"bgr" alts:"rgb,bgr,grb"`
	Color   string `pos:"true" help:"Color as #rrggbb or r,g,b."`
	From    int    `help:"First LED to light (-1 = whole strip)." default:"-1"`
	To      int    `help:"LED after the last one to light." default:"-1"`
}

func (p *StaticParams) strip() Strip {
	return Strip{Backend: p.Backend, Device: p.Device, Baud: p.Baud, Count: p.Count, Order: p.Order}
}

func StaticCmd() *cobra.Command {
	return boa.CmdT[StaticParams]{
		Use:         "static",
		Short:       "Light the strip, or part of it, with one color",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *StaticParams, cmd *cobra.Command, args []string) {
			exitOnErr("static", RunStatic(cmd.Context(), params))
		},
	}.ToCobra()
}

func RunStatic(ctx context.Context, params *StaticParams) error {
	c, err := show.ParseColor(params.Color)
	if err != nil {
		return err
	}
	var regions []show.Region
	if params.From >= 0 {
		to := params.To
		if to < 0 {
			to = params.Count
		}
		regions = append(regions, show.Region{Start: params.From, End: to})
	}
	return withStrip(ctx, params.strip(), func(s show.Strip) error {
		return leds.Static(s, c, regions...)
	})
}

type RainbowParams struct {
	Backend   string `short:"B" help:"LED backend." default:"serial" alts:"serial,terminal"`
	Device    string `short:"d" help:"Serial device of the LED controller." default:"/dev/ttyUSB0"`
	Baud      int    `help:"Serial baud rate." default:"115200"`
	Count     int    `short:"n" help:"Number of LEDs on the strip." default:"32"`
	Order     string `help:"Channel order the controller expects." default:"bgr" alts:"rgb,bgr,grb"`
	Seconds   int    `pos:"true" help:"How long to run."`
	Frequency int    `pos:"true" help:"Color changes per second."`
}

func (p *RainbowParams) strip() Strip {
	return Strip{Backend: p.Backend, Device: p.Device, Baud: p.Baud, Count: p.Count, Order: p.Order}
}

func RainbowCmd() *cobra.Command {
	return boa.CmdT[RainbowParams]{
		Use:         "rainbow",
		Short:       "Cycle purples over the strip",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *RainbowParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			exitOnErr("rainbow", RunRainbow(ctx, params))
		},
	}.ToCobra()
}

func RunRainbow(ctx context.Context, params *RainbowParams) error {
	duration := time.Duration(params.Seconds) * time.Second
	return withStrip(ctx, params.strip(), func(s show.Strip) error {
		err := leds.Rainbow(ctx, s, leds.Purples, leds.DefaultRainbowRegions, params.Frequency, duration)
		if ctx.Err() != nil {
			return nil
		}
		return err
	})
}

type FlickerParams struct {
	Backend string  `short:"B" help:"LED backend." default:"serial" alts:"serial,terminal"`
	Device  string  `short:"d" help:"Serial device of the LED controller." default:"/dev/ttyUSB0"`
	Baud    int     `help:"Serial baud rate." default:"115200"`
	Count   int     `short:"n" help:"Number of LEDs on the strip." default:"32"`
	Order   string  `help:"Channel order the controller expects." default:"bgr" alts:"rgb,bgr,grb"`
	FPS     int     `help:"Frames per second." default:"30"`
	Sigma   float64 `help:"Standard deviation of the brightness step per frame." default:"0.075"`
	For     int     `help:"Stop after this many seconds (0 = until interrupted)." default:"0"`
}

func (p *FlickerParams) strip() Strip {
	return Strip{Backend: p.Backend, Device: p.Device, Baud: p.Baud, Count: p.Count, Order: p.Order}
}

func FlickerCmd() *cobra.Command {
	return boa.CmdT[FlickerParams]{
		Use:         "flicker",
		Short:       "Candle-like flicker in white, gold and red",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *FlickerParams, cmd *cobra.Command, args []string) {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			exitOnErr("flicker", RunFlicker(ctx, params))
		},
	}.ToCobra()
}

func RunFlicker(ctx context.Context, params *FlickerParams) error {
	if params.For > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(params.For)*time.Second)
		defer cancel()
	}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return withStrip(ctx, params.strip(), func(s show.Strip) error {
		return leds.Flicker(ctx, s, leds.DefaultFlickerBands, params.FPS, params.Sigma, rng)
	})
}
