package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/beetlebugorg/atlas/internal/scene"
	"github.com/beetlebugorg/atlas/internal/server"
	"github.com/beetlebugorg/atlas/pkg/atlas"
	"github.com/beetlebugorg/atlas/pkg/c3ml"
)

func serveCmd(env envFunc) *cobra.Command {
	var (
		addr      string
		sceneFile string
		accessLog bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve an Atlas instance over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, logger, closeLog, err := env()
			if err != nil {
				return err
			}
			defer closeLog()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			a, err := newAtlas(cfg, logger)
			if err != nil {
				return err
			}

			opts := server.Options{
				ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
				Logger:       logger,
				AccessLog:    accessLog,
				AccessLogOut: logger.Writer(),
			}
			ctx := context.Background()
			if cfg.Store.Path != "" {
				repo, err := scene.Open(ctx, cfg.Store.Path)
				if err != nil {
					return err
				}
				defer repo.Close()
				opts.Repository = repo
			}

			srv := server.New(a, opts)
			if opts.Repository != nil {
				n, err := srv.Restore(ctx)
				if err != nil {
					return err
				}
				logger.Printf("restored %d entities from %s", n, cfg.Store.Path)
			}
			if sceneFile != "" {
				if _, err := loadScene(a, sceneFile); err != nil {
					return err
				}
			}

			errc := make(chan error, 1)
			go func() {
				logger.Printf("listening on %s", cfg.Server.Addr)
				errc <- srv.Listen(cfg.Server.Addr)
			}()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(sig)

			select {
			case err := <-errc:
				return err
			case <-sig:
				logger.Printf("shutting down")
				ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
				defer cancel()
				return srv.Shutdown(ctx)
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "listen address (overrides server.addr)")
	cmd.Flags().StringVarP(&sceneFile, "scene", "s", "", "scene file loaded at startup")
	cmd.Flags().BoolVar(&accessLog, "access-log", false, "log every request")
	return cmd
}

// loadScene creates the entities of a scene file. IDs already present are
// skipped.
func loadScene(a *atlas.Atlas, path string) (c3ml.Document, error) {
	doc, err := c3ml.Load(path)
	if err != nil {
		return doc, err
	}
	if err := c3ml.ValidateDocument(doc); err != nil {
		return doc, err
	}
	a.Serialize(func() {
		_, err = a.Entities().BulkCreate(doc.Entities)
	})
	return doc, err
}
