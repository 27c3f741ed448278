// Package main runs OVERHEAT locally in the terminal.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/samwiegames/overheat/internal/engine"
	"github.com/samwiegames/overheat/internal/infra/storage"
	"github.com/samwiegames/overheat/internal/platform/config"
	"github.com/samwiegames/overheat/internal/platform/logger"
	"github.com/samwiegames/overheat/internal/tui"
)

func main() {
	tuningPath := flag.String("tuning", "", "YAML tuning file (defaults to the shipped balance)")
	dbPath := flag.String("db", "overheat.db", "SQLite file for the best time; empty keeps it in memory")
	profile := flag.String("profile", "local", "Profile whose best time is tracked")
	logPath := flag.String("log", "", "Write debug logs to this file")
	flag.Parse()

	if err := run(*tuningPath, *dbPath, *profile, *logPath); err != nil {
		fmt.Fprintln(os.Stderr, "overheat:", err)
		os.Exit(1)
	}
}

func run(tuningPath, dbPath, profile, logPath string) error {
	var out io.Writer = io.Discard
	level := "panic"
	if logPath != "" {
		f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer f.Close()
		out, level = f, "debug"
	}
	appLogger := logger.New(logger.Options{Level: level, Output: out})

	tuning, err := config.LoadTuning(tuningPath)
	if err != nil {
		return err
	}

	var store engine.BestTimeStore = storage.NewMemoryBestTimeStore(0)
	var history engine.SessionHistory
	if dbPath != "" {
		db, err := storage.InitSQLite(dbPath)
		if err != nil {
			return err
		}
		defer db.Close()
		store = storage.NewSQLiteBestTimeStore(db, profile)
		history = storage.NewSQLiteSessionRepository(db)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	session, err := engine.NewSession(tuning, engine.Deps{
		Store:   store,
		History: history,
		Logger:  appLogger,
		Context: ctx,
	})
	if err != nil {
		return err
	}
	eng := engine.NewEngine(session, engine.Options{Logger: appLogger})

	screen, err := tcell.NewScreen()
	if err != nil {
		return err
	}
	if err := screen.Init(); err != nil {
		return err
	}
	defer screen.Fini()

	eng.Start(ctx)
	defer eng.Stop()

	return tui.New(screen, eng, tuning, appLogger).Run(ctx)
}
