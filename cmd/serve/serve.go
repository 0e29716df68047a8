package serve

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/strobe/cmd/common"
	"github.com/gigurra/strobe/cmd/show"
	"github.com/gigurra/strobe/cmd/show/audio"
	"github.com/gigurra/strobe/cmd/show/catalog"
	"github.com/gigurra/strobe/cmd/show/leds"
	"github.com/gigurra/strobe/cmd/show/onsets"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	Catalog string `pos:"true" optional:"true" help:"Song catalog file (JSON). Defaults to ./songs.json or ~/.strobe/songs.json."`
	Port    int    `short:"p" help:"Port to listen on." default:"5000"`
	Host    string `help:"Host interface to bind to." default:"localhost"`

	LEDs       string  `help:"LED backend: serial, terminal or none." default:"serial"`
	Device     string  `short:"d" help:"Serial device of the LED controller." default:"/dev/ttyUSB0"`
	Baud       int     `help:"Serial baud rate." default:"115200"`
	Count      int     `short:"n" help:"Number of LEDs on the strip." default:"64"`
	Order      string  `help:"Channel order the controller expects: rgb, bgr or grb." default:"bgr"`
	Brightness float64 `help:"Global strip brightness (0-1)." default:"1.0"`
	Blackout   bool    `help:"Turn the strip off when a song is stopped or skipped." default:"true"`

	Onsets    string `help:"Onset detection backend: analyzer or aubio." default:"analyzer"`
	Aubio     string `help:"aubioonset command used by the aubio backend." default:"aubioonset"`
	CacheSize int    `help:"Number of analysed songs kept in memory (0 disables)." default:"32"`

	Autoplay bool  `help:"Start playing immediately." default:"false"`
	Watch    bool  `help:"Reload the catalog when the file changes." default:"true"`
	Seed     int64 `help:"Seed for flash region selection (0 = random)." default:"0"`
	Debug    bool  `help:"Enable debug logging." default:"false"`

	ReadTimeoutMillis  int64 `help:"Maximum duration for reading the entire request, including the body (ms)." default:"5000"`
	WriteTimeoutMillis int64 `help:"Maximum duration before timing out writes of the response (ms)." default:"15000"`
	IdleTimeoutMillis  int64 `help:"Maximum amount of time to wait for the next request when keep-alives are enabled (ms)." default:"120000"`
}

func Cmd() *cobra.Command {
	return boa.CmdT[Params]{
		Use:         "serve",
		Short:       "Play songs with onset-synced LED flashes, controlled over HTTP",
		ParamEnrich: common.DefaultParamEnricher(),
		RunFunc: func(params *Params, cmd *cobra.Command, args []string) {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := Run(ctx, params); err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "serve: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func Run(ctx context.Context, params *Params) error {
	logger := common.InitLogger(params.Debug)

	catalogPath := params.Catalog
	if catalogPath == "" {
		catalogPath = common.DefaultCatalogPath()
	}
	cat, err := catalog.Load(catalogPath)
	if err != nil {
		return err
	}
	source, err := show.NewSongSource(cat.Songs)
	if err != nil {
		return err
	}

	provider, err := onsets.New(params.Onsets, params.Aubio, params.CacheSize)
	if err != nil {
		return err
	}

	order, err := leds.ParseOrder(params.Order)
	if err != nil {
		return err
	}
	opener, err := leds.Config{
		Backend:    params.LEDs,
		Device:     params.Device,
		Baud:       params.Baud,
		Count:      params.Count,
		Order:      order,
		Brightness: params.Brightness,
	}.Opener()
	if err != nil {
		return err
	}

	player := audio.NewPlayer()
	defer player.Close()
	if !audio.Available {
		logger.Warn("built without audio support, songs play silently")
	}

	opts := []show.Option{
		show.WithRegions(show.RegionsFor(params.Count)),
		show.WithLogger(logger),
		show.WithBlackoutOnStop(params.Blackout),
	}
	if params.Seed != 0 {
		opts = append(opts, show.WithRand(rand.New(rand.NewSource(params.Seed))))
	}
	coord := show.NewCoordinator(source, provider, player, opener, opts...)
	ctl := NewControl(coord, cat)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	g.Go(func() error {
		if err := coord.Run(ctx); !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	if params.Watch {
		g.Go(func() error {
			return catalog.Watch(ctx, cat.Path, catalog.DefaultDebounce, func(c *catalog.Catalog) {
				if err := ctl.Reload(c); err != nil {
					logger.Warn("catalog reload rejected", "error", err)
				}
			})
		})
	}
	if params.Autoplay {
		coord.Play()
	}

	addr := fmt.Sprintf("%s:%d", params.Host, params.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      NewHandler(ctl, logger),
		ReadTimeout:  time.Duration(params.ReadTimeoutMillis) * time.Millisecond,
		WriteTimeout: time.Duration(params.WriteTimeoutMillis) * time.Millisecond,
		IdleTimeout:  time.Duration(params.IdleTimeoutMillis) * time.Millisecond,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("serving", "url", "http://"+addr, "catalog", cat.Path, "songs", len(cat.Songs), "leds", params.LEDs)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serverErr:
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("server shutdown failed: %w", err)
	}
	if err := coord.Stop(shutdownCtx); err != nil {
		logger.Warn("active song did not stop in time", "error", err)
	}
	cancel()

	if err := g.Wait(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

