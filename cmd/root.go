package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/strand/internal/builtin"
	"github.com/zjrosen/strand/internal/compiler"
	"github.com/zjrosen/strand/internal/config"
	"github.com/zjrosen/strand/internal/definition"
	"github.com/zjrosen/strand/internal/log"
	"github.com/zjrosen/strand/internal/pubsub"
	"github.com/zjrosen/strand/internal/tracing"
)

var (
	version = "dev"
	cfgFile string
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "strand",
	Short:   "An event-driven component compiler",
	Long:    `Strand registers system design components, compiles them through an extensible pipeline, and loads whole systems with cache-backed resolution.`,
	Version: version,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/strand/config.yaml)")
	rootCmd.PersistentFlags().StringSliceP("dir", "d", nil,
		"directory with component definition files (repeatable)")

	_ = viper.BindPFlag("component_dirs", rootCmd.PersistentFlags().Lookup("dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("component_dirs", defaults.ComponentDirs)
	viper.SetDefault("cache.enabled", defaults.Cache.Enabled)
	viper.SetDefault("cache.ttl", defaults.Cache.TTL)
	viper.SetDefault("cache.max_entries", defaults.Cache.MaxEntries)
	viper.SetDefault("cache.sliding", defaults.Cache.Sliding)
	viper.SetDefault("loader.lazy", defaults.Loader.Lazy)
	viper.SetDefault("loader.preload_in_background", defaults.Loader.PreloadInBackground)
	viper.SetDefault("loader.background_pause", defaults.Loader.BackgroundPause)
	viper.SetDefault("log.enabled", defaults.Log.Enabled)
	viper.SetDefault("log.level", defaults.Log.Level)
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce", defaults.Watch.Debounce)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .strand/config.yaml (current directory)
		// 2. ~/.config/strand/config.yaml (user config)
		if _, err := os.Stat(".strand/config.yaml"); err == nil {
			viper.SetConfigFile(".strand/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "strand"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintf(os.Stderr, "reading config: %v\n", err)
		}
		// Continue with defaults when no config file exists.
	}

	_ = viper.Unmarshal(&cfg)

	if cfg.Log.Enabled {
		path := cfg.Log.Path
		if path == "" {
			path = config.DefaultLogPath()
		}
		if _, err := log.Init(path); err == nil {
			log.SetMinLevel(log.ParseLevel(cfg.Log.Level))
		}
	}
}

// runtime bundles everything a subcommand needs: the compiler with the
// bundled plugins registered, the definitions found on disk, and the tracing
// provider to shut down on exit.
type runtime struct {
	compiler *compiler.Compiler
	bundle   definition.Bundle
	tracing  *tracing.Provider
	bus      *pubsub.Broker[any]
}

// newRuntime validates the config, starts tracing, builds the compiler and
// registers every component found in the configured directories.
func newRuntime(ctx context.Context) (*runtime, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	provider, err := tracing.NewProvider(cfg.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	bus := pubsub.NewBroker[any]()
	comp := compiler.New(compiler.Config{
		CacheEnabled:    cfg.Cache.Enabled,
		CacheTTL:        cfg.Cache.TTL,
		CacheMaxEntries: cfg.Cache.MaxEntries,
		CacheSliding:    cfg.Cache.Sliding,
	}, bus, compiler.WithTracer(provider.Tracer()))

	if err := comp.Plugins().RegisterPlugin(builtin.SchemaPlugin()); err != nil {
		return nil, err
	}

	var bundle definition.Bundle
	for _, dir := range cfg.ComponentDirs {
		loaded, err := definition.LoadDir(os.DirFS(dir), ".")
		if err != nil {
			return nil, fmt.Errorf("loading definitions from %s: %w", dir, err)
		}
		// Rebase source paths so they stay valid outside the dir FS.
		for i := range loaded.Components {
			loaded.Components[i].SourcePath = filepath.Join(dir, loaded.Components[i].SourcePath)
		}
		bundle.Components = append(bundle.Components, loaded.Components...)
		bundle.Systems = append(bundle.Systems, loaded.Systems...)
	}

	for _, c := range bundle.Components {
		if err := comp.RegisterComponent(ctx, c); err != nil {
			return nil, fmt.Errorf("registering %s: %w", c.Name, err)
		}
	}

	return &runtime{compiler: comp, bundle: bundle, tracing: provider, bus: bus}, nil
}

// close flushes tracing and tears down the bus.
func (r *runtime) close(ctx context.Context) {
	r.bus.Close()
	if err := r.tracing.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatConfig, "tracing shutdown", err)
	}
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
