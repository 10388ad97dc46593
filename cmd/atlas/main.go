// Command atlas serves, views and validates Atlas scenes.
package main

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlas/internal/config"
	"github.com/beetlebugorg/atlas/pkg/atlas"
)

func main() {
	var (
		configPath string
		logPath    string
	)

	rootCmd := &cobra.Command{
		Use:          "atlas",
		Short:        "Interactive map widget for geographic entities",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "atlas.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVar(&logPath, "log", "", "log file (default stderr, or log.file from the config)")

	env := func() (*config.Config, *log.Logger, func(), error) {
		cfg, err := config.Load(configPath)
		if err != nil {
			return nil, nil, nil, err
		}
		if logPath == "" {
			logPath = cfg.Log.File
		}
		logger, closeLog, err := openLog(logPath)
		if err != nil {
			return nil, nil, nil, err
		}
		return cfg, logger, closeLog, nil
	}

	rootCmd.AddCommand(serveCmd(env))
	rootCmd.AddCommand(viewCmd(env))
	rootCmd.AddCommand(validateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type envFunc func() (*config.Config, *log.Logger, func(), error)

// openLog returns a logger writing to path, or stderr when path is empty.
func openLog(path string) (*log.Logger, func(), error) {
	var w io.Writer = os.Stderr
	closeLog := func() {}
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening log file: %w", err)
		}
		w = f
		closeLog = func() { f.Close() }
	}
	return log.New(w, "atlas: ", log.LstdFlags|log.Lmsgprefix), closeLog, nil
}

// newAtlas builds an instance styled from cfg.
func newAtlas(cfg *config.Config, logger *log.Logger) (*atlas.Atlas, error) {
	opts := atlas.DefaultOptions()
	opts.Logger = logger
	opts.DefaultStyle = cfg.Styles.Default
	opts.SelectedStyle = cfg.Styles.Selected
	return atlas.New(opts)
}
