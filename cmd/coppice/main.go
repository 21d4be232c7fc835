package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/xonecas/coppice/internal/config"
	"github.com/xonecas/coppice/internal/protocol"
	"github.com/xonecas/coppice/internal/ui"
)

const (
	exitOK            = 0
	exitConfigError   = 1
	exitRuntimeError  = 2
	initialSnapshotSz = 100
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := setupFileLogging(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to setup logging: %v\n", err)
	}

	flagConfig := flag.String("config", "", "path to the config file")
	flagExport := flag.String("export-defaults", "", "write the default config to PATH and exit")
	flag.Parse()

	registry := config.Options()

	if *flagExport != "" {
		if err := registry.ExportDefaults(*flagExport); err != nil {
			fmt.Fprintf(os.Stderr, "Error exporting defaults: %v\n", err)
			return exitConfigError
		}
		fmt.Printf("Exported default config to %s\n", *flagExport)
		return exitOK
	}

	cfg, err := loadConfig(registry, *flagConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		return exitConfigError
	}

	roomName := flag.Arg(0)
	if roomName == "" {
		fmt.Fprintln(os.Stderr, "Usage: coppice [--config PATH] [--export-defaults PATH] ROOM")
		return exitRuntimeError
	}

	// The protocol transport is pluggable; the built-in client keeps the
	// room in memory.
	client := protocol.NewLocalClient("", nil, initialSnapshotSz)
	defer client.Close()

	p := tea.NewProgram(ui.New(cfg, client, roomName))
	if _, err := p.Run(); err != nil {
		log.Error().Err(err).Msg("program failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitRuntimeError
	}
	return exitOK
}

// loadConfig reads the given path, or the default location when none is
// given. A missing default file is fine; a missing explicit file is not.
func loadConfig(registry *config.Registry, path string) (*config.Config, error) {
	if path == "" {
		defaultPath, err := config.DefaultPath()
		if err != nil {
			return registry.Defaults(), nil
		}
		if _, err := os.Stat(defaultPath); err != nil {
			return registry.Defaults(), nil
		}
		path = defaultPath
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("config file not found: %s", path)
	}
	return registry.Load(path)
}

// setupFileLogging sends the global logger to a per-day file so the TUI
// never shares the terminal with log output.
func setupFileLogging() error {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	dataDir, err := config.DataDir()
	if err != nil {
		return err
	}

	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0750); err != nil {
		return err
	}

	logPath := filepath.Join(logDir, fmt.Sprintf("coppice-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return err
	}

	log.Logger = zerolog.New(f).With().Timestamp().Logger()
	return nil
}
