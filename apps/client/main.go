package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"holdem-sync/apps/client/internal/config"
	"holdem-sync/apps/client/internal/replay"
	"holdem-sync/apps/client/internal/session"
	"holdem-sync/apps/client/internal/store"
	"holdem-sync/apps/client/internal/transport"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		pterm.Error.Printfln("[Client] %v", err)
		os.Exit(1)
	}
	cfg, err := config.FromEnv()
	if err != nil {
		pterm.Error.Printfln("[Client] Invalid configuration: %v", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		pterm.Error.Printfln("[Client] Failed to init logger: %v", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.Named("client")

	backend, mode, err := session.NewBackend(cfg.Session)
	if err != nil {
		log.Warn("session backend unavailable, identity will not persist", zap.String("mode", mode), zap.Error(err))
		backend, mode = session.NewMemoryBackend(), session.ModeMemory
	}
	sess := session.New(backend, logger)

	tr := transport.New(transport.Options{
		URL:       cfg.URL,
		BaseDelay: cfg.ReconnectBase,
		MaxDelay:  cfg.ReconnectMax,
		Logger:    logger,
	})
	st := store.New(store.Options{
		Transport:       tr,
		Session:         sess,
		Logger:          logger,
		NotificationTTL: cfg.NotificationTTL,
		PendingTimeout:  cfg.PendingTimeout,
		RevealDelay:     cfg.RevealDelay,
	})

	var tape *os.File
	if cfg.TapePath != "" {
		tape, err = os.OpenFile(cfg.TapePath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			log.Fatal("open tape", zap.String("path", cfg.TapePath), zap.Error(err))
		}
		tr.Configure(replay.NewRecorder(tape, st, logger))
	} else {
		tr.Configure(st)
	}

	log.Info("starting", zap.String("url", cfg.URL), zap.String("session", mode))
	printBanner(cfg.URL)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watch(ctx, st)

	if !st.Resume() {
		name, _ := pterm.DefaultInteractiveTextInput.WithDefaultText("Enter your name").Show()
		st.JoinRoom(name)
	}

	lines := make(chan string)
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case line, ok := <-lines:
			if !ok {
				break loop
			}
			if quit := dispatch(st, strings.TrimSpace(line)); quit {
				break loop
			}
		}
	}

	if err := shutdown(tr, st, sess, tape); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	pterm.Println("Bye.")
}

func newLogger(level zapcore.Level) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	return cfg.Build()
}

func shutdown(tr *transport.Client, st *store.Store, sess *session.Session, tape *os.File) error {
	var err error
	err = multierr.Append(err, tr.Close())
	st.Close()
	err = multierr.Append(err, sess.Close())
	if tape != nil {
		err = multierr.Append(err, tape.Sync())
		err = multierr.Append(err, tape.Close())
	}
	return err
}

// watch re-renders whenever the table or the notifications change.
func watch(ctx context.Context, st *store.Store) {
	states, cancel := st.Subscribe()
	defer cancel()

	var last store.State
	seen := make(map[string]bool)
	for {
		select {
		case <-ctx.Done():
			return
		case cur, ok := <-states:
			if !ok {
				return
			}
			for _, n := range cur.UI.Notifications {
				if !seen[n.ID] {
					seen[n.ID] = true
					printNotification(n)
				}
			}
			if cur.Connection.Status != last.Connection.Status || cur.Connection.ShowReconnectBanner != last.Connection.ShowReconnectBanner {
				printConnection(cur.Connection)
			}
			if cur.Snapshot != last.Snapshot && cur.Snapshot != nil {
				renderTable(cur)
			}
			if !last.UI.NextHandUnlockAt.IsZero() && cur.UI.NextHandUnlockAt.IsZero() && cur.Affordances().CanStartNextHand && cur.Affordances().Host {
				pterm.Info.Println("Type next to deal the next hand.")
			}
			last = cur
		}
	}
}

func printBanner(url string) {
	title, err := pterm.DefaultBigText.WithLetters(
		putils.LettersFromStringWithStyle("Hold", pterm.FgRed.ToStyle()),
		putils.LettersFromStringWithStyle("em", pterm.FgDarkGray.ToStyle()),
	).Srender()
	if err == nil {
		pterm.Print(title)
	}
	pterm.Info.Printfln("Table server: %s", url)
	pterm.Info.Println(fmt.Sprintf("Type %s for commands.", pterm.LightCyan("help")))
}
