package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"yowbook/internal/app"
)

func newServeCmd(c *cli) *cobra.Command {
	var listenAddr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if listenAddr != "" {
				c.cfg.ListenAddr = listenAddr
			}
			return serve(cmd.Context(), c)
		},
	}
	cmd.Flags().StringVar(&listenAddr, "listen", "", "listen address (default $YOWBOOK_LISTEN_ADDR)")
	return cmd
}

func serve(ctx context.Context, c *cli) error {
	application, err := app.New(c.cfg, c.log)
	if err != nil {
		return err
	}
	defer application.Close()

	server := &http.Server{
		Addr:              c.cfg.ListenAddr,
		Handler:           application.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	sum, err := application.Summary(ctx)
	if err != nil {
		return err
	}
	c.log.Info("yowbook listening",
		zap.String("addr", c.cfg.ListenAddr),
		zap.String("books_dir", sum.BooksDir),
		zap.Int("books", sum.Books),
		zap.Int("records", sum.Records),
		zap.Int("catalog", sum.Catalog),
	)
	c.log.Info("admin token", zap.String("settings_url", settingsURL(c.cfg.ListenAddr)), zap.String("token", application.AdminToken()))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func settingsURL(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return fmt.Sprintf("http://%s/api/settings", listenAddr)
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s:%s/api/settings", host, port)
}
