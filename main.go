// Command console is the LiftLogic live-operations console: it follows a
// remote elevator simulation over its snapshot stream, renders the
// building's live state in the terminal, and issues operator commands
// back to the service.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"liftlogic/console/internal/history"
	"liftlogic/console/internal/journal"
	"liftlogic/console/internal/state"
	"liftlogic/console/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "console: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg := loadConfig()

	logFile, err := os.OpenFile(cfg.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer logFile.Close()

	logCfg := logging.DefaultConfig()
	logCfg.Fields = map[string]any{"base_url": cfg.BaseURL}
	router := logging.NewRouter(nil, logCfg, logging.NewTextSink(logFile))
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		router.Close(ctx)
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if raw := os.Getenv("LIFTLOGIC_BASE_URL"); raw != "" && cfg.BaseURL == defaultBaseURL && raw != defaultBaseURL {
		router.Publish(ctx, logging.Event{
			Type:     logging.EventConfigFallback,
			Severity: logging.SeverityWarn,
			Category: logging.CategorySystem,
			Payload:  map[string]string{"rejected": raw, "using": cfg.BaseURL},
		})
	}

	var jstore *journal.Store
	if cfg.JournalPath != "" {
		jstore, err = journal.Open(ctx, cfg.JournalPath)
		if err != nil {
			// Recording is best-effort; run the session without it.
			router.Publish(ctx, logging.Event{
				Type:     logging.EventJournalError,
				Severity: logging.SeverityWarn,
				Category: logging.CategoryJournal,
				Payload:  map[string]string{"error": err.Error()},
			})
			jstore = nil
		} else {
			defer jstore.Close()
			if _, err := jstore.Begin(ctx, cfg.BaseURL); err != nil {
				router.Publish(ctx, logging.Event{
					Type:     logging.EventJournalError,
					Severity: logging.SeverityWarn,
					Category: logging.CategoryJournal,
					Payload:  map[string]string{"error": err.Error()},
				})
				jstore.Close()
				jstore = nil
			}
		}
	}

	store := state.NewStore()
	ring := history.New(cfg.HistoryCapacity)
	commands := newCommandClient(cfg, router)
	stream := newStreamSupervisor(cfg, router)

	go stream.Run(ctx)

	m := newModel(cfg, store, ring, commands, stream, jstore, router)
	program := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run display: %w", err)
	}
	return nil
}
