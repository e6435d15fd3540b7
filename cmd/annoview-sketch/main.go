package main

import (
	"fmt"
	"os"

	"github.com/philipparndt/annoview/internal/config"
	"github.com/philipparndt/annoview/internal/logging"
	"github.com/philipparndt/annoview/internal/sketch"
	"github.com/philipparndt/annoview/version"
	"github.com/spf13/cobra"
)

var (
	configDir string
	textureA  string
	textureB  string
)

var rootCmd = &cobra.Command{
	Use:   "annoview-sketch <model-a> <model-b>",
	Short: "Two textured models lit from the mouse position",
	Long: `annoview-sketch draws two models, each with its own light whose direction
follows the mouse. Drag to orbit, scroll to zoom, and press the button or
Space to start and stop rotating the scene.`,
	Version:      version.GetFullVersion(),
	Args:         cobra.ExactArgs(2),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configDir)
		if err != nil {
			return err
		}
		if textureA != "" {
			cfg.Sketch.TextureA = textureA
		}
		if textureB != "" {
			cfg.Sketch.TextureB = textureB
		}
		log := logging.New(cfg.LogLevel, nil)

		s, err := sketch.New(cmd.Context(), cfg, args[0], args[1], log)
		if err != nil {
			return err
		}
		s.Run(cfg)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&configDir, "config", "", "directory holding annoview.yaml (default: user config dir)")
	rootCmd.Flags().StringVar(&textureA, "texture-a", "", "image drawn on the first model")
	rootCmd.Flags().StringVar(&textureB, "texture-b", "", "image drawn on the second model")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
