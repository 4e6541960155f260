package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/prodtests/internal/api"
	"github.com/zjrosen/prodtests/internal/app"
	"github.com/zjrosen/prodtests/internal/config"
	"github.com/zjrosen/prodtests/internal/feed"
	"github.com/zjrosen/prodtests/internal/flags"
	"github.com/zjrosen/prodtests/internal/history"
	"github.com/zjrosen/prodtests/internal/log"
	"github.com/zjrosen/prodtests/internal/mode"
	"github.com/zjrosen/prodtests/internal/mode/shared"
	"github.com/zjrosen/prodtests/internal/tracing"
	"github.com/zjrosen/prodtests/internal/ui/styles"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

const localConfigPath = ".prodtests/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "prodtests",
	Short: "A terminal ui for device production tests",
	Long: `A terminal user interface for running device production tests.

Choose a test set, run it while following live progress, edit test sets
from the test library and adjust device settings. Tests run on the
production test service; prodtests only drives it.`,
	Version:      version,
	SilenceUsage: true,
	RunE:         runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/prodtests/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&debugFlag, "debug", "d", false,
		"enable debug logging (also PRODTESTS_DEBUG)")
	rootCmd.Flags().String("url", "", "production test service base URL")
	rootCmd.Flags().String("part-number", "", "device part number (skips the device lookup)")

	_ = viper.BindPFlag("backend.url", rootCmd.Flags().Lookup("url"))
	_ = viper.BindPFlag("device.part_number", rootCmd.Flags().Lookup("part-number"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("backend.url", defaults.Backend.URL)
	viper.SetDefault("backend.timeout", defaults.Backend.Timeout)
	viper.SetDefault("run.finish_delay", defaults.Run.FinishDelay)
	viper.SetDefault("log.path", defaults.Log.Path)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.path", defaults.History.Path)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("ui.show_status_bar", defaults.UI.ShowStatusBar)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", defaults.Tracing.FilePath)
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)
	viper.SetDefault("tracing.service_name", defaults.Tracing.ServiceName)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .prodtests/config.yaml (current directory)
		// 2. ~/.config/prodtests/config.yaml (user config)
		if _, err := os.Stat(localConfigPath); err == nil {
			viper.SetConfigFile(localConfigPath)
		} else {
			viper.AddConfigPath(config.DefaultConfigDir())
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create the default user config
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			defaultPath := filepath.Join(config.DefaultConfigDir(), "config.yaml")
			if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
				viper.SetConfigFile(defaultPath)
				_ = viper.ReadInConfig()
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
	cfg.History.Path = config.ExpandHome(cfg.History.Path)
	cfg.Tracing.FilePath = config.ExpandHome(cfg.Tracing.FilePath)
}

// initLogging writes the log to a file when --debug or PRODTESTS_DEBUG is set.
// The returned cleanup is never nil.
func initLogging(prefix string) (func(), error) {
	if os.Getenv("PRODTESTS_DEBUG") == "" && !debugFlag {
		// Entries still reach the in-app log overlay.
		log.InitWriter(io.Discard)
		return func() {}, nil
	}
	logPath := os.Getenv("PRODTESTS_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.InitWithTeaLog(logPath, prefix)
	if err != nil {
		return func() {}, fmt.Errorf("initializing logging: %w", err)
	}
	log.Info(log.CatConfig, "prodtests starting", "debug", true, "logPath", logPath, "config", viper.ConfigFileUsed())
	return cleanup, nil
}

// openHistory returns the run history store, or history.Nop when disabled.
func openHistory(c config.Config, reg *flags.Registry) (history.Store, error) {
	if !c.History.Enabled || !reg.Enabled(flags.FlagRunHistory) {
		return history.Nop{}, nil
	}
	store, err := history.Open(c.History.Path)
	if err != nil {
		return nil, fmt.Errorf("opening run history: %w", err)
	}
	return store, nil
}

// newBackend wires the HTTP client, the event feed and the startup
// collaborators from c.
func newBackend(c config.Config, provider *tracing.Provider) (*api.Client, feed.Source, api.ConfigPrimer, api.DeviceIdentity) {
	hc := &http.Client{Transport: tracing.NewTransport(http.DefaultTransport, provider.Tracer())}
	client := api.NewClient(c.Backend.URL, api.WithHTTPClient(hc), api.WithTimeout(c.Backend.Timeout))

	var primer api.ConfigPrimer = api.NoopPrimer{}
	if c.Device.PrimePath != "" {
		primer = api.HTTPPrimer{Client: client, Path: c.Device.PrimePath}
	}

	var identity api.DeviceIdentity = api.StaticIdentity(c.Device.PartNumber)
	if c.Device.PartNumber == "" && c.Device.PartNumberPath != "" {
		identity = api.HTTPIdentity{Client: client, Path: c.Device.PartNumberPath}
	}

	return client, feed.NewClient(client.FeedURL(), hc), primer, identity
}

func runApp(_ *cobra.Command, _ []string) error {
	cleanup, err := initLogging("prodtests")
	if err != nil {
		return err
	}
	defer cleanup()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := styles.ApplyTheme(cfg.Theme.StylesTheme()); err != nil {
		return fmt.Errorf("invalid theme configuration: %w", err)
	}

	reg := flags.New(cfg.Flags)

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = provider.Shutdown(ctx)
	}()

	store, err := openHistory(cfg, reg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Store the config file path for saving the last selection
	configFilePath := viper.ConfigFileUsed()
	if configFilePath == "" {
		configFilePath = filepath.Join(config.DefaultConfigDir(), "config.yaml")
	}

	client, source, primer, identity := newBackend(cfg, provider)
	model := app.New(app.Options{
		Services: mode.Services{
			Backend:    client,
			Feed:       source,
			Config:     &cfg,
			ConfigPath: configFilePath,
			Flags:      reg,
			History:    store,
			Tracer:     provider.Tracer(),
			Clock:      shared.RealClock{},
		},
		Primer:   primer,
		Identity: identity,
	})

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	final, err := p.Run()
	if fm, ok := final.(app.Model); ok {
		model = fm
	}

	// Detach from a run still in progress and stop following the log
	if closeErr := model.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	if err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
