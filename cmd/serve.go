package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/ytboxd/internal/server"
)

// Serve exposes the library over the local HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	lib, err := r.openLibrary(cmd, true)
	if err != nil {
		return err
	}
	defer lib.Close()

	engine := r.buildEngine(lib)
	handler := server.NewLibraryHandler(engine, lib.videos, lib.playlists, lib.tags, lib.videoTags, lib.user, r.logger)

	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(handler)

	addr := fmt.Sprintf("%s:%d", lib.config.Server.Host, lib.config.Server.Port)
	srv := &http.Server{Addr: addr, Handler: router}

	errs := make(chan error, 1)
	go func() {
		r.logger.Info("serving library API", "addr", addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown failed: %w", err)
		}
		return nil
	}
}
