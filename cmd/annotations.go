package cmd

import (
	"fmt"
	"io"

	"github.com/philipparndt/annoview/internal/annotation"
	"github.com/philipparndt/annoview/internal/store"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var annotationsCmd = &cobra.Command{
	Use:     "annotations",
	Aliases: []string{"notes"},
	Short:   "Manage stored annotations without opening a window",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored annotations",
	Args:  cobra.NoArgs,
	RunE: withManager(func(cmd *cobra.Command, args []string, m *annotation.Manager) error {
		return listAnnotations(cmd.OutOrStdout(), m)
	}),
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write stored annotations to a JSON file, - for stdout",
	Args:  cobra.ExactArgs(1),
	RunE: withManager(func(cmd *cobra.Command, args []string, m *annotation.Manager) error {
		if args[0] == "-" {
			return m.Export(cmd.OutOrStdout())
		}
		if err := m.ExportFile(args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d annotation(s) to %s\n", m.Len(), args[0])
		return nil
	}),
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace stored annotations with a JSON file, - for stdin",
	Args:  cobra.ExactArgs(1),
	RunE: withManager(func(cmd *cobra.Command, args []string, m *annotation.Manager) error {
		var err error
		if args[0] == "-" {
			err = m.Import(cmd.InOrStdin())
		} else {
			err = m.ImportFile(args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d annotation(s)\n", m.Len())
		return nil
	}),
}

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored annotations",
	Args:  cobra.NoArgs,
	RunE: withManager(func(cmd *cobra.Command, args []string, m *annotation.Manager) error {
		n := m.Len()
		if err := m.Clear(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Removed %d annotation(s)\n", n)
		return nil
	}),
}

func init() {
	annotationsCmd.AddCommand(listCmd, exportCmd, importCmd, clearCmd)
	rootCmd.AddCommand(annotationsCmd)
}

type managerFunc func(cmd *cobra.Command, args []string, m *annotation.Manager) error

// withManager opens the configured store and restores its annotations into
// a manager backed by a windowless scene
func withManager(fn managerFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, log, err := setup()
		if err != nil {
			return err
		}
		st, err := store.New(cfg.Storage, log)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		m := newHeadlessManager(st, cfg.Annotations.StorageKey, log)
		return fn(cmd, args, m)
	}
}

func newHeadlessManager(st annotation.Store, key string, log zerolog.Logger) *annotation.Manager {
	m := annotation.NewManager(annotation.NewMemoryScene(nil), st,
		annotation.WithStorageKey(key),
		annotation.WithLogger(log),
	)
	m.Restore()
	return m
}

func listAnnotations(w io.Writer, m *annotation.Manager) error {
	entries := m.Entries()
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No annotations")
		return err
	}
	for i, e := range entries {
		if _, err := fmt.Fprintf(w, "%3d  (%.4f, %.4f, %.4f)  %s\n",
			i+1, e.Position.X, e.Position.Y, e.Position.Z, e.Text); err != nil {
			return err
		}
	}
	return nil
}

