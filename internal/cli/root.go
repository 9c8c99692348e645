// Package cli is the cobra command tree of the provider-finder binary.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"provider-finder/internal/config"
	"provider-finder/internal/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries what every subcommand needs once the root pre-run is done.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	log     *slog.Logger
}

// NewRootCommand builds the command tree. Each call has its own viper
// instance, so commands built for tests do not share state.
func NewRootCommand() *cobra.Command {
	a := &app{v: config.New()}

	root := &cobra.Command{
		Use:   "provider-finder",
		Short: "Find providers near an address",
		Long: `provider-finder searches a directory of healthcare providers by name,
specialty category and distance from a geocoded address.

Configuration can be provided through a config file, PF_ environment
variables or command-line flags.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default ./provider-finder.yaml or $HOME/.provider-finder.yaml)")
	pf.String("log-level", "", "log level (debug, info, warn, error)")
	pf.String("log-format", "", "log format (text, json)")
	pf.String("data", "", "provider directory, .csv or .xlsx")
	pf.String("sheet", "", "worksheet to read from an xlsx directory (default first sheet)")

	// Bind flags to viper
	a.v.BindPFlag("log.level", pf.Lookup("log-level"))
	a.v.BindPFlag("log.format", pf.Lookup("log-format"))
	a.v.BindPFlag("data.path", pf.Lookup("data"))
	a.v.BindPFlag("data.sheet", pf.Lookup("sheet"))

	root.AddCommand(newServeCommand(a))
	root.AddCommand(newSearchCommand(a))
	root.AddCommand(newCategoriesCommand(a))
	return root
}

// Execute runs the command tree against os.Args.
func Execute() error {
	return NewRootCommand().Execute()
}

// init reads the config file, decodes the configuration and installs the
// logger.
func (a *app) init(cmd *cobra.Command) error {
	if path := a.configPath(); path != "" {
		a.v.SetConfigFile(path)
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg, err := config.Load(a.v)
	if err != nil {
		return err
	}
	log, err := logger.New(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	slog.SetDefault(log)

	a.cfg = cfg
	a.log = log
	if used := a.v.ConfigFileUsed(); used != "" {
		log.Debug("using config file", "path", used)
	}
	return nil
}

func (a *app) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	candidates := []string{"provider-finder.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".provider-finder.yaml"))
	}
	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}
