package main

import (
	"fmt"
	"os"

	"brief-copilot/brief"
	"brief-copilot/db"
	"brief-copilot/llm"
	"brief-copilot/ui"
	"brief-copilot/utils"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
)

// rootOptions are shared by every command
type rootOptions struct {
	ConfigPath string
	LogLevel   string

	config     *utils.Config
	configPath string
	logger     *utils.Logger
}

// load reads the configuration and opens the log file
func (o *rootOptions) load(cmd *cobra.Command) error {
	var err error
	if o.ConfigPath != "" {
		o.configPath = o.ConfigPath
	} else {
		// Ensure default config exists
		o.configPath, err = utils.EnsureDefaultConfig()
		if err != nil {
			return fmt.Errorf("failed to create default config: %w", err)
		}
	}

	o.config, err = utils.LoadConfig(o.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logPath := o.config.Log.Path
	if logPath == "" {
		logPath = utils.GetLogPath()
	}
	o.logger, err = utils.NewLogger(logPath)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	level := o.config.Log.Level
	if cmd.Flags().Changed("log-level") || level == "" {
		level = o.LogLevel
	}
	if level == "" {
		level = "info"
	}
	if err := o.logger.SetLevel(level); err != nil {
		return err
	}

	o.logger.Info("Starting Brief Copilot v%s (config: %s)", version, o.configPath)
	return nil
}

func (o *rootOptions) close() {
	if o.logger != nil {
		o.logger.Close()
	}
}

// providerConfig returns the llm configuration of an enabled provider entry
func providerConfig(config *utils.Config, name string) (llm.Config, bool) {
	pc, ok := config.LLMProviders[name]
	if !ok || !pc.Enabled {
		return llm.Config{}, false
	}
	return llm.Config{
		ProviderName: name,
		APIKey:       pc.APIKey,
		BaseURL:      pc.BaseURL,
		Model:        pc.DefaultModel,
		MaxTokens:    pc.MaxTokens,
		Temperature:  pc.Temperature,
	}, true
}

func main() {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "brief-copilot",
		Short: "Recruitment brief assistant",
		Long: `Brief Copilot guides a recruiter through a chat with an assistant to build
a structured job brief, then turns the completed brief into a job posting.

Without a subcommand the desktop client is started.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Path to configuration file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "info", "Log level (trace,debug,info,warn,error)")

	rootCmd.AddCommand(
		NewUICommand(opts),
		NewServeCommand(opts),
		NewExportCommand(opts),
		NewPostingsCommand(opts),
		NewVersionCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// NewUICommand starts the desktop client
func NewUICommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Start the desktop client",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd, opts)
		},
	}
}

func runUI(cmd *cobra.Command, opts *rootOptions) error {
	if err := opts.load(cmd); err != nil {
		return err
	}
	config, logger := opts.config, opts.logger

	database, err := db.New(config.Data.DBPath)
	if err != nil {
		logger.Error("Failed to initialize database: %v", err)
		opts.close()
		return err
	}
	logger.Info("Database initialized: %s", config.Data.DBPath)

	streamer := llm.NewChatClient(config.Backend.ChatURL, config.Backend.Token)
	logger.Info("Chat endpoint: %s", config.Backend.ChatURL)

	var titler brief.Titler
	if name := config.Backend.TitleProvider; name != "" {
		if pc, ok := providerConfig(config, name); ok {
			provider, err := llm.NewOpenAIProvider(pc)
			if err != nil {
				logger.Warn("Title provider %s disabled: %v", name, err)
			} else if err := provider.ValidateConfig(); err != nil {
				logger.Warn("Title provider %s disabled: %v", name, err)
			} else {
				titler = provider
			}
		} else {
			logger.Warn("Title provider %s is not configured or not enabled", name)
		}
	}

	// Cleanup closes the database and the logger
	app := ui.NewApp(config, opts.configPath, database, logger, streamer, titler)
	defer app.Cleanup()

	logger.Info("Application started")
	app.Run()
	logger.Info("Application stopped")
	return nil
}

// NewVersionCommand prints the version
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "Brief Copilot v%s\n", version)
		},
	}
}
