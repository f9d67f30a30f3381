// Command enterprise-gateway serves annotated code endpoints over HTTP,
// executing each request on a pooled remote kernel.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ajbozarth/enterprise-gateway/gateway"
	"github.com/ajbozarth/enterprise-gateway/kernel"
	"github.com/ajbozarth/enterprise-gateway/sources"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:           "enterprise-gateway",
		Short:         "HTTP gateway that executes annotated code endpoints on pooled kernels",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cfgFile := v.GetString("config"); cfgFile != "" {
				v.SetConfigFile(cfgFile)
				if err := v.ReadInConfig(); err != nil {
					return fmt.Errorf("read config: %w", err)
				}
			}
			return serve(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("config", "", "path to a config file")
	flags.String("addr", ":8888", "listen address")
	flags.String("sources", "", "annotated source file defining the endpoints")
	flags.StringSlice("kernel-url", nil, "kernel channel endpoint, repeatable")
	flags.String("kernel-token", "", "token sent on kernel handshakes")
	flags.String("auth-token", "", "shared token required on gateway requests")
	flags.Duration("execution-timeout", 60*time.Second, "bound on each request's kernel execution")
	flags.Duration("acquire-timeout", 0, "bound on waiting for a free kernel, 0 waits indefinitely")
	flags.String("allow-origin", "", "Access-Control-Allow-Origin header value")
	flags.Bool("allow-download", false, "serve the source file verbatim at /_api/source")
	_ = v.BindPFlags(flags)
	v.SetEnvPrefix("EG")
	v.AutomaticEnv()

	return cmd
}

func serve(ctx context.Context, v *viper.Viper) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	var doc sources.Document
	sourcePath := v.GetString("sources")
	if sourcePath != "" {
		f, err := os.Open(sourcePath)
		if err != nil {
			return fmt.Errorf("open sources: %w", err)
		}
		parsed, err := sources.Parse(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", sourcePath, err)
		}
		doc = parsed
	}

	// Endpoints may also be declared directly in the config file.
	var configured []sources.Endpoint
	if err := v.UnmarshalKey("endpoints", &configured); err != nil {
		return fmt.Errorf("decode endpoints: %w", err)
	}
	doc.Endpoints = append(doc.Endpoints, configured...)
	if len(doc.Endpoints) == 0 {
		return fmt.Errorf("no endpoints: provide --sources or an endpoints config section")
	}

	urls := v.GetStringSlice("kernel-url")
	if len(urls) == 0 {
		return fmt.Errorf("at least one --kernel-url is required")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	conns := make(map[string]kernel.Connection, len(urls))
	for i, url := range urls {
		conn, err := kernel.Dial(ctx, kernel.DialConfig{
			URL:    url,
			Token:  v.GetString("kernel-token"),
			Logger: logger,
		})
		if err != nil {
			for _, c := range conns {
				_ = c.Close()
			}
			return err
		}
		conns[fmt.Sprintf("kernel-%d", i)] = conn
	}

	pool, err := kernel.NewPool(kernel.PoolConfig{
		Connections:    conns,
		AcquireTimeout: v.GetDuration("acquire-timeout"),
		Logger:         logger,
	})
	if err != nil {
		return err
	}
	defer pool.Close()

	cfg := gateway.Config{
		Pool:             pool,
		Endpoints:        doc.Endpoints,
		Preamble:         doc.Preamble,
		ExecutionTimeout: v.GetDuration("execution-timeout"),
		Cors:             gateway.CorsPolicy{AllowOrigin: v.GetString("allow-origin")},
		Logger:           logger,
	}
	if token := v.GetString("auth-token"); token != "" {
		cfg.Authorizer = gateway.TokenAuthorizer{Token: token}
	}
	if v.GetBool("allow-download") {
		cfg.SourcePath = sourcePath
	}

	srv, err := gateway.New(cfg)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              v.GetString("addr"),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("gateway listening", "addr", httpServer.Addr, "endpoints", len(doc.Endpoints), "kernels", len(conns))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	logger.Info("gateway stopped")
	return nil
}
