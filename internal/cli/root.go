// Package cli implements the topoview command line: offline layouts of
// topology files, the built-in scenarios, nmap scans and the terminal drawer.
package cli

import (
	"os"

	"github.com/spf13/cobra"

	"topoview/internal/config"
	"topoview/internal/ui"
)

var version = "0.3.0"

// app carries state shared by the subcommands of one invocation
type app struct {
	configPath string
	cfg        *config.Config
}

// loadConfig reads the config file once per invocation
func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if a.configPath != "" {
		cfg, _, err = config.LoadFromPath(a.configPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

// NewRootCmd builds the command tree
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "topoview",
		Short: "topoview — force-directed network topology layouts",
		Long: ui.Brand.Sprint("topoview") + " — lay out network topologies with a deterministic force-directed engine\n" +
			ui.Subtle.Sprint("Import a topology, compute its layout, and inspect it in the terminal"),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetVersionTemplate("topoview {{ .Version }}\n")
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file path (default: search standard locations)")

	root.AddCommand(
		layoutCmd(a),
		scenariosCmd(),
		scenarioCmd(a),
		legendCmd(),
		scanCmd(a),
		drawerCmd(a),
		configCmd(a),
	)
	return root
}

// Execute runs the CLI, printing any error
func Execute() error {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		ui.Bad.Fprintf(root.ErrOrStderr(), "topoview: %v\n", err)
		return err
	}
	return nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
