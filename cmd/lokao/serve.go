package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	httpapi "github.com/denisok6893-rgb/lokao-advisor/internal/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, true)
	if err != nil {
		return err
	}
	defer a.Close()

	if a.cfg.Logging.Mode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	srv := httpapi.NewServer(httpapi.Deps{
		Catalog:      a.catalog,
		Engine:       a.engine,
		Reports:      a.reports,
		Payments:     a.payments,
		Pilot:        a.pilot,
		AdminKey:     a.cfg.Server.AdminKey,
		PriceCents:   a.cfg.Payment.PriceCents,
		MaxBodyBytes: a.cfg.Server.MaxBodyBytes,
		Logger:       a.log,
	})
	hs := &http.Server{
		Addr:              a.cfg.Server.Address,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("API listening", "addr", hs.Addr)
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return hs.Shutdown(shutdownCtx)
}
