package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"impactmap/internal/config"
	"impactmap/internal/server"
	"impactmap/internal/store"
	"impactmap/util"
)

func main() {
	root := flag.String("root", "", "workspace root (default: enclosing git repository)")
	cfgPath := flag.String("config", "", "config file (default: <root>/impactmap.toml)")
	dbPath := flag.String("db", "", "graph database (default: <root>/.impactmap.db)")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	if err := run(*root, *cfgPath, *dbPath, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, "impactmap:", err)
		os.Exit(1)
	}
}

func run(root, cfgPath, dbPath string, verbose bool) error {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	// stdout carries the MCP stream; logs go to stderr
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if root == "" {
		var err error
		root, err = util.FindGitRoot()
		if err != nil {
			return fmt.Errorf("locate workspace root: %w", err)
		}
	}
	if cfgPath == "" {
		cfgPath = filepath.Join(root, "impactmap.toml")
	}
	if dbPath == "" {
		dbPath = filepath.Join(root, ".impactmap.db")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("starting impactmap", "root", root, "db", dbPath)
	return server.New(root, cfg, st).Run(ctx)
}
