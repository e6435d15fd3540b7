// Package cmd holds the cobra commands of the annoview binary.
package cmd

import (
	"fmt"
	"os"

	"github.com/philipparndt/annoview/internal/app"
	"github.com/philipparndt/annoview/internal/config"
	"github.com/philipparndt/annoview/internal/logging"
	"github.com/philipparndt/annoview/internal/store"
	"github.com/philipparndt/annoview/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	configDir string
	logLevel  string
)

var rootCmd = &cobra.Command{
	Use:   "annoview <file>",
	Short: "3D model viewer with persistent surface annotations",
	Long: `annoview shows an STL, OBJ, glTF or OpenSCAD model under an orbit camera with a
light that follows the view. Right click the surface to add a note, click a
marker to edit or delete it. Notes are stored between sessions and can be
exported to and imported from JSON files.`,
	Version:      version.GetFullVersion(),
	Args:         cobra.ExactArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		return app.Run(cfg, args[0], st, log)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configDir, "config", "", "directory holding annoview.yaml (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error)")
}

// setup loads the configuration and builds the logger. The --log-level flag
// wins over the configured level.
func setup() (config.Config, zerolog.Logger, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return cfg, zerolog.Nop(), err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	log := logging.New(cfg.LogLevel, nil)
	if cfg.File != "" {
		log.Debug().Str("file", cfg.File).Msg("loaded config")
	}
	return cfg, log, nil
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
