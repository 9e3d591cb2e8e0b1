// Command campus-companion is the student-facing terminal client: it
// shows the campus notification feed, surfaces new notifications as
// transient popups, and keeps an unread badge in sync with the hosted
// backend.
package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/nhle/campus-companion/internal/app"
	"github.com/nhle/campus-companion/internal/credential"
	"github.com/nhle/campus-companion/internal/logging"
	"github.com/nhle/campus-companion/internal/model"
	"github.com/nhle/campus-companion/internal/notify"
	"github.com/nhle/campus-companion/internal/realtime"
	"github.com/nhle/campus-companion/internal/store"
)

func main() {
	cfgPath := flag.String("config", model.DefaultConfigPath(), "path to config file")
	flag.Parse()

	if err := run(*cfgPath); err != nil {
		fmt.Fprintf(os.Stderr, "campus-companion: %v\n", err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := model.LoadConfig(cfgPath)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Log.File, cfg.Log.Level)
	if err != nil {
		return err
	}

	dsn := credential.BackendDSN(cfg.Backend.Driver, cfg.Backend.DSN)

	st, err := store.NewSQLStore(cfg.Backend.Driver, dsn)
	if err != nil {
		return err
	}
	defer st.Close()

	// Realtime is postgres-only; without it the 30s poll stands alone.
	var events <-chan realtime.Event
	if cfg.Backend.Driver == "postgres" {
		listener, err := realtime.NewListener(dsn, log)
		if err != nil {
			log.WithError(err).Warn("realtime unavailable, relying on polling")
		} else {
			defer listener.Close()
			events = listener.Events()
		}
	}

	fetcher := notify.NewFetcher(st, log)
	center := notify.NewCenter(fetcher, events, log)
	center.SetPollInterval(cfg.Notifications.PollInterval())
	defer center.Stop()

	m := app.New(cfg, cfgPath, fetcher, center, log)

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running ui: %w", err)
	}

	return nil
}
