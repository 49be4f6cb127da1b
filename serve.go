package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"brief-copilot/llm"
	"brief-copilot/server"
	"brief-copilot/utils"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ServerFlags configure the chat relay. Unset flags fall back to the config file.
type ServerFlags struct {
	ListenAddr  string
	MetricsAddr string
	Token       string
	Provider    string
	MaxTurns    int
	ReplyDelay  time.Duration
}

func NewServerFlags() *ServerFlags {
	return &ServerFlags{
		ListenAddr:  ":8080",
		MetricsAddr: ":2112",
	}
}

func (f *ServerFlags) BindFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&f.ListenAddr, "listen", f.ListenAddr, "The address to serve the chat endpoint on (default :8080)")
	flagSet.StringVar(&f.MetricsAddr, "listen-metrics", f.MetricsAddr, "The address to serve prometheus metrics on, empty to disable (default :2112)")
	flagSet.StringVar(&f.Token, "token", f.Token, "Bearer token required from clients, empty to accept any")
	flagSet.StringVar(&f.Provider, "provider", f.Provider, "llm_providers entry answering the chat, empty for canned replies")
	flagSet.IntVar(&f.MaxTurns, "max-turns", f.MaxTurns, "Messages kept per conversation (default data.max_history)")
	flagSet.DurationVar(&f.ReplyDelay, "canned-delay", 30*time.Millisecond, "Pause between words of canned replies")
}

// complete fills the flags the user did not set from the config file
func (f *ServerFlags) complete(flagSet *pflag.FlagSet, config *utils.Config) {
	if !flagSet.Changed("listen") && config.Server.ListenAddr != "" {
		f.ListenAddr = config.Server.ListenAddr
	}
	if !flagSet.Changed("listen-metrics") {
		f.MetricsAddr = config.Server.MetricsAddr
	}
	if !flagSet.Changed("token") {
		f.Token = config.Server.Token
	}
	if !flagSet.Changed("provider") {
		f.Provider = config.Server.Provider
	}
	if !flagSet.Changed("max-turns") {
		f.MaxTurns = config.Data.MaxHistory
	}
}

func (f *ServerFlags) Validate() error {
	if f.ListenAddr == "" {
		return errors.New("--listen must not be empty")
	}
	if f.MaxTurns < 0 {
		return fmt.Errorf("--max-turns must be positive, got %d", f.MaxTurns)
	}
	return nil
}

func NewServeCommand(opts *rootOptions) *cobra.Command {
	f := NewServerFlags()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the chat relay streaming assistant replies",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := opts.load(cmd); err != nil {
				return err
			}
			defer opts.close()
			logger := opts.logger

			f.complete(cmd.Flags(), opts.config)
			if err := f.Validate(); err != nil {
				return fmt.Errorf("error validating options: %w", err)
			}

			var responder server.Responder = &server.CannedResponder{Delay: f.ReplyDelay}
			if f.Provider != "" {
				pc, ok := providerConfig(opts.config, f.Provider)
				if !ok {
					return fmt.Errorf("provider %s is not configured or not enabled", f.Provider)
				}
				provider, err := llm.NewOpenAIProvider(pc)
				if err != nil {
					return fmt.Errorf("couldn't create provider %s: %w", f.Provider, err)
				}
				if err := provider.ValidateConfig(); err != nil {
					return fmt.Errorf("provider %s: %w", f.Provider, err)
				}
				responder = server.NewProviderResponder(provider)
				logger.Info("Answering with provider %s (%s)", f.Provider, pc.Model)
			} else {
				logger.Info("No provider configured, answering with canned replies")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			reg := prometheus.NewRegistry()
			metrics := server.NewMetrics(reg)

			if f.MetricsAddr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", metrics.Handler())
				metricsServer := &http.Server{
					Addr:              f.MetricsAddr,
					Handler:           mux,
					ReadHeaderTimeout: 10 * time.Second,
				}
				utils.SafeGo(logger, "metricsServer", func() {
					logger.Info("Serving metrics on %s", f.MetricsAddr)
					if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						logger.Error("Metrics server failed: %v", err)
					}
				})
				defer metricsServer.Close()
			}

			srv := server.New(server.Options{
				Responder: responder,
				Token:     f.Token,
				MaxTurns:  f.MaxTurns,
				Logger:    logger,
				Metrics:   metrics,
			})
			return srv.ListenAndServe(ctx, f.ListenAddr)
		},
	}

	f.BindFlags(cmd.Flags())
	return cmd
}
