package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		cfgPath  string
		addr     string
		seedPath string
		pageSize int
		latency  time.Duration
		fail     string
		jsonLog  bool
		traceOn  bool
	)

	root := &cobra.Command{
		Use:   "pazar-sandbox",
		Short: "Local marketplace API for Pazar SDK development",
		Long: `pazar-sandbox serves the feed and commerce endpoints over a seeded
in-memory catalog, so SDK clients can run against a real HTTP server
without network access. Latency and failure injection make it usable
for exercising retry and cache behaviour.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cfgPath)
			if err != nil {
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = addr
			}
			if flags.Changed("seed") {
				cfg.SeedPath = seedPath
			}
			if flags.Changed("page-size") {
				cfg.PageSize = pageSize
			}
			if flags.Changed("latency") {
				cfg.Latency = latency
			}
			if flags.Changed("json-log") {
				cfg.LogJSON = jsonLog
			}
			if flags.Changed("trace") {
				cfg.Trace = traceOn
			}
			if flags.Changed("fail") {
				rate, code, err := parseFailConfig(fail)
				if err != nil {
					return fmt.Errorf("parse fail flag: %w", err)
				}
				cfg.FailRate = rate
				if code > 0 {
					cfg.FailCode = code
				}
			}

			return run(cmd.Context(), cfg)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to YAML config file")
	root.Flags().StringVar(&addr, "addr", ":8787", "listen address")
	root.Flags().StringVar(&seedPath, "seed", "", "path to JSON catalog seed")
	root.Flags().IntVar(&pageSize, "page-size", 20, "items per feed page")
	root.Flags().DurationVar(&latency, "latency", 0, "artificial latency to inject per request")
	root.Flags().StringVar(&fail, "fail", "", "failure injection (rate=<float>,code=<httpStatus>)")
	root.Flags().BoolVar(&jsonLog, "json-log", false, "log as JSON instead of text")
	root.Flags().BoolVar(&traceOn, "trace", false, "print request spans to stdout")

	return root
}

func run(ctx context.Context, cfg Config) error {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.LogJSON {
		logger.SetFormatter(&logrus.JSONFormatter{
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "severity",
				logrus.FieldKeyMsg:   "message",
			},
			TimestampFormat: time.RFC3339Nano,
		})
	}

	if cfg.Trace {
		tp, err := initTracerProvider(ctx)
		if err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tp.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Warn("shut down tracer provider")
			}
		}()
	}

	srv, err := newServer(cfg, logger)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    cfg.Addr,
		Handler: srv.router(),
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	logger.Infof("pazar-sandbox listening on %s", cfg.Addr)
	printExports(cfg.Addr)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("pazar-sandbox stopped")
	return nil
}

func printExports(addr string) {
	host := addr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	fmt.Println()
	fmt.Println("export PAZAR_RUNTIME_MODE=http")
	fmt.Printf("export PAZAR_FEED_API_URL=http://%s\n", host)
	fmt.Printf("export PAZAR_COMMERCE_API_URL=http://%s\n", host)
	fmt.Println()
}

func parseFailConfig(raw string) (rate float64, code int, err error) {
	if strings.TrimSpace(raw) == "" {
		return 0, 0, nil
	}
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		keyVal := strings.SplitN(part, "=", 2)
		if len(keyVal) != 2 {
			return 0, 0, fmt.Errorf("invalid fail segment %q", part)
		}
		switch strings.TrimSpace(keyVal[0]) {
		case "rate":
			v, perr := strconv.ParseFloat(strings.TrimSpace(keyVal[1]), 64)
			if perr != nil {
				return 0, 0, perr
			}
			rate = v
		case "code":
			v, perr := strconv.Atoi(strings.TrimSpace(keyVal[1]))
			if perr != nil {
				return 0, 0, perr
			}
			code = v
		default:
			return 0, 0, fmt.Errorf("unknown fail key %q", keyVal[0])
		}
	}
	return rate, code, nil
}
