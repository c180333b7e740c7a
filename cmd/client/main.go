package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gen2brain/beeep"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/cloudzz-dev/batepapo/internal/chat"
	"github.com/cloudzz-dev/batepapo/internal/client/api"
	"github.com/cloudzz-dev/batepapo/internal/client/config"
	"github.com/cloudzz-dev/batepapo/internal/client/debug"
	"github.com/cloudzz-dev/batepapo/internal/client/profile"
	"github.com/cloudzz-dev/batepapo/internal/client/ui"
)

var rootCmd = &cobra.Command{
	Use:           "batepapo",
	Short:         "Terminal client for the UOL bate-papo room",
	RunE:          run,
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	flagConfig   string
	flagServer   string
	flagName     string
	flagProfile  string
	flagDebug    bool
	flagHeadless bool
)

func init() {
	flags := rootCmd.Flags()
	flags.StringVar(&flagConfig, "config", config.DefaultPath(), "path to the TOML config file")
	flags.StringVar(&flagServer, "server", "", "backend base URL (overrides config and BATEPAPO_SERVER)")
	flags.StringVar(&flagName, "name", "", "display name; required with --headless")
	flags.StringVar(&flagProfile, "profile", "default", "profile used to remember the last name and server")
	flags.BoolVar(&flagDebug, "debug", false, "write a debug log")
	flags.BoolVar(&flagHeadless, "headless", false, "print the room to stdout and send lines read from stdin; keeps polling after stdin closes until interrupted")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagServer != "" {
		cfg.ServerURL = flagServer
	}
	if cmd.Flags().Changed("debug") {
		cfg.Debug = flagDebug
	}

	logger, closer := debug.Logger(cfg.Debug, cfg.DebugLog)
	defer closer.Close()

	client := api.New(cfg.ServerURL,
		api.WithTimeout(cfg.RequestTimeout.Duration),
		api.WithLogger(logger.With().Str("component", "api").Logger()),
	)
	intervals := chat.Intervals{
		Messages: cfg.MessageInterval.Duration,
		Contacts: cfg.ContactInterval.Duration,
		Status:   cfg.StatusInterval.Duration,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if flagHeadless {
		if flagName == "" {
			return fmt.Errorf("--name is required with --headless")
		}
		return runHeadless(ctx, client, flagName, intervals, logger, cmd.InOrStdin(), cmd.OutOrStdout())
	}

	name := flagName
	if name == "" {
		if p := profile.Load(flagProfile); p != nil && p.ServerURL == cfg.ServerURL {
			name = p.Name
		}
	}

	opts := ui.Options{
		Backend:   client,
		Intervals: intervals,
		Name:      name,
		Logger:    logger,
		Forget: func() {
			profile.Clear(flagProfile)
			logger.Info().Str("profile", flagProfile).Msg("remembered name is taken, profile cleared")
		},
		OnLogin: func(name string) {
			if err := profile.Save(flagProfile, cfg.ServerURL, name); err != nil {
				logger.Warn().Err(err).Msg("save profile")
			}
		},
	}
	if cfg.Notifications {
		opts.Notify = func(title, body string) error {
			return beeep.Notify(title, body, "")
		}
	}

	p := tea.NewProgram(ui.New(opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// printSink writes every new feed entry as one rendered line.
type printSink struct {
	mu  sync.Mutex
	out io.Writer
}

func (p *printSink) OnMessages(u chat.MessageUpdate) {
	p.mu.Lock()
	defer p.mu.Unlock()
	io.WriteString(p.out, ui.RenderFeed(u.Arrivals, 0))
}

func (p *printSink) OnContacts(u chat.ContactUpdate) {
	if u.Dropped {
		p.mu.Lock()
		defer p.mu.Unlock()
		fmt.Fprintf(p.out, "-- recipient left, now sending to %s\n", u.SendTo)
	}
}

func (p *printSink) OnError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, "-- %v\n", err)
}

// runHeadless logs in as name and polls until ctx is done. Lines read
// from in are sent with the current selection; the end of in only stops
// sending.
func runHeadless(ctx context.Context, client chat.Backend, name string, iv chat.Intervals, logger zerolog.Logger, in io.Reader, out io.Writer) error {
	session, err := chat.Login(ctx, client, name)
	if err != nil {
		return err
	}

	sink := &printSink{out: out}
	poller := chat.NewPoller(client, session, sink, iv, logger)
	sender := chat.NewSender(client, session, poller.Messages)

	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			upd, err := sender.Send(ctx, scanner.Text())
			switch {
			case errors.Is(err, chat.ErrEmptyMessage):
			case err != nil:
				sink.OnError(err)
			case !upd.Stale:
				sink.OnMessages(upd)
			}
		}
		if err := scanner.Err(); err != nil {
			logger.Warn().Err(err).Msg("read stdin")
		}
		logger.Debug().Msg("stdin closed, still polling")
	}()

	if err := poller.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
