package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloudzz-dev/batepapo/internal/server/handlers"
	"github.com/cloudzz-dev/batepapo/internal/server/metrics"
	"github.com/cloudzz-dev/batepapo/internal/server/ratelimit"
	"github.com/cloudzz-dev/batepapo/internal/server/room"
	"github.com/cloudzz-dev/batepapo/internal/server/storage"
)

var rootCmd = &cobra.Command{
	Use:           "batepapo-server",
	Short:         "Development backend for the bate-papo room API",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagAddr          string
	flagPrefix        string
	flagDatabaseURL   string
	flagIdle          time.Duration
	flagSweep         time.Duration
	flagRegistrations int
	flagVerbose       bool
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagAddr, "addr", ":3567", "listen address")
	flags.StringVar(&flagPrefix, "prefix", "/api/v6/uol", "path prefix of the room API")
	flags.StringVar(&flagDatabaseURL, "database-url", os.Getenv("DATABASE_URL"), "Postgres connection string; empty keeps everything in memory")
	flags.DurationVar(&flagIdle, "idle", 10*time.Second, "remove participants without a status ping for this long")
	flags.DurationVar(&flagSweep, "sweep", 15*time.Second, "how often idle participants are removed")
	flags.IntVar(&flagRegistrations, "registrations-per-min", 5, "registration attempts allowed per IP per minute; 0 disables the limit")
	flags.BoolVarP(&flagVerbose, "verbose", "v", false, "log every request")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	level := zerolog.InfoLevel
	if flagVerbose {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		Level(level).
		With().Timestamp().Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStore(ctx, log)
	if err != nil {
		return err
	}
	defer store.Close()

	m := metrics.New()
	rm := room.New(store, m, log.With().Str("component", "room").Logger(), room.WithIdle(flagIdle))
	limiter := ratelimit.New(flagRegistrations, time.Minute)
	h := handlers.New(rm, limiter, m, log.With().Str("component", "http").Logger())

	go limiter.Run(ctx)
	go rm.RunSweeper(ctx, flagSweep)

	srv := &http.Server{
		Addr:              flagAddr,
		Handler:           h.Router(flagPrefix),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", flagAddr).
			Str("prefix", flagPrefix).
			Dur("idle", flagIdle).
			Int("registrations_per_min", flagRegistrations).
			Msg("server starting")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openStore(ctx context.Context, log zerolog.Logger) (storage.Store, error) {
	if flagDatabaseURL == "" {
		log.Info().Msg("using in-memory store")
		return storage.NewMemory(), nil
	}
	pg, err := storage.NewPostgres(ctx, flagDatabaseURL)
	if err != nil {
		return nil, err
	}
	log.Info().Msg("connected to database")
	return pg, nil
}
