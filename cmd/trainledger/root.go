package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trainledger/pkg/trainledger"
	"github.com/randalmurphal/trainledger/pkg/trainledger/config"
)

const (
	envConfig = "TRAINLEDGER_CONFIG"
	envRoot   = "TRAINLEDGER_ROOT"
)

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	root       string
	verbose    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	rootCmd := &cobra.Command{
		Use:           "trainledger",
		Short:         "Inspect and resolve RL training runs and their checkpoints.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", "", "settings file (.yaml, .yml, .json); default $"+envConfig)
	rootCmd.PersistentFlags().StringVar(&g.root, "root", "", "models root directory; default $"+envRoot+" or the settings file")
	rootCmd.PersistentFlags().BoolVarP(&g.verbose, "verbose", "v", false, "log lifecycle decisions to stderr")

	rootCmd.AddCommand(
		newRunsCmd(g),
		newLatestCmd(g),
		newTopCmd(g),
		newResolveCmd(g),
		newNextCmd(g),
	)
	return rootCmd
}

// settings resolves flags, environment and settings file, in that order of
// precedence.
func (g *globals) settings() (config.Settings, error) {
	s := config.DefaultSettings()

	path := g.configPath
	if path == "" {
		path = os.Getenv(envConfig)
	}
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return config.Settings{}, err
		}
		s = loaded
	}

	root := g.root
	if root == "" {
		root = os.Getenv(envRoot)
	}
	if root != "" {
		s = s.WithRoot(root)
	}
	return s, nil
}

func (g *globals) open(cmd *cobra.Command) (*trainledger.Ledger, error) {
	s, err := g.settings()
	if err != nil {
		return nil, err
	}
	level := slog.LevelWarn
	if g.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	return trainledger.Open(s, trainledger.WithLogger(logger))
}
