package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"wallpaper-catalog/internal/logging"
	"wallpaper-catalog/internal/metrics"
	"wallpaper-catalog/internal/registry"
	"wallpaper-catalog/internal/startup"
	"wallpaper-catalog/internal/store"
)

// app carries the state shared by every subcommand of one invocation.
type app struct {
	v          *viper.Viper
	configFile string
	logLevel   string
}

func newApp() *app {
	return &app{v: startup.NewViper()}
}

// Execute runs the CLI and exits non-zero on error. SIGINT and SIGTERM
// cancel the command context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := newApp()
	err := a.rootCommand().ExecuteContext(ctx)

	if werr := metrics.WriteTextfile(a.v.GetString("metrics-textfile")); werr != nil {
		logging.Warn("%v", werr)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "catalog",
		Short:         "Wallpaper collection ingestion and catalog generation",
		Long:          `Validates, deduplicates and stores wallpapers by category, and derives a paginated static JSON catalog from the stored collection.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if a.logLevel != "" {
				level, err := logging.ParseLevel(a.logLevel)
				if err != nil {
					return err
				}
				logging.SetLevel(level)
			}
			metrics.InitializeMetrics(store.CategoryNames())
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default ./catalog.yaml or $HOME/.catalog/catalog.yaml)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.String("root", "", "collection root directory")
	flags.String("output-dir", "", "derived document directory (default <root>/api/v1)")
	flags.String("registry-path", "", "hash registry database (default <root>/registry/hashes.db)")
	flags.String("base-url", "", "URL prefix for image and thumbnail links")
	flags.String("duplicate-scope", "", "duplicate detection scope: global or category")
	flags.Duration("lock-timeout", 0, "how long to wait for a category lock")
	flags.String("metrics-textfile", "", "write Prometheus metrics to this file on exit")
	a.bind(flags, "root", "output-dir", "registry-path", "base-url", "duplicate-scope", "lock-timeout", "metrics-textfile")

	root.AddCommand(
		a.ingestCommand(),
		a.removeCommand(),
		a.buildCommand(),
		a.checkCommand(),
		a.registryCommand(),
		a.serveCommand(),
		a.publishCommand(),
		a.versionCommand(),
	)
	return root
}

// bind ties flags to viper keys of the same name. Unset flags fall through
// to the environment, the config file and the defaults.
func (a *app) bind(flags *pflag.FlagSet, names ...string) {
	for _, name := range names {
		if err := a.v.BindPFlag(name, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", name, err))
		}
	}
}

func (a *app) config() (*startup.Config, error) {
	if a.configFile != "" {
		a.v.SetConfigFile(a.configFile)
	}
	cfg, err := startup.LoadConfig(a.v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logging.IsDebugEnabled() {
		startup.LogConfig(cfg)
	}
	return cfg, nil
}

// env is an opened collection: configuration, store and registry.
type env struct {
	cfg      *startup.Config
	store    *store.Store
	registry *registry.Registry
}

func (a *app) open(ctx context.Context, withRegistry bool) (*env, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, err
	}
	if err := startup.PrepareRoot(cfg, withRegistry); err != nil {
		return nil, err
	}

	e := &env{cfg: cfg, store: store.New(cfg.Root, cfg.LockTimeout)}
	if withRegistry {
		e.registry, err = registry.Open(ctx, cfg.RegistryPath, cfg.Scope())
		if err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *env) Close() {
	if e.registry == nil {
		return
	}
	if err := e.registry.Close(); err != nil {
		logging.Warn("Failed to close registry: %v", err)
	}
}

func (a *app) versionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			info := startup.GetBuildInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "catalog %s (commit %s, built %s, %s %s/%s)\n",
				info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		},
	}
}
