package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/drawer"
	"topoview/internal/scenario"
	"topoview/internal/ui"
)

func scenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenarios",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := scenario.Builtin()
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			ui.Banner(w, "scenarios")
			rows := make([][]string, 0, reg.Len())
			for _, sc := range reg.List() {
				rows = append(rows, []string{
					sc.Name,
					sc.Title,
					fmt.Sprintf("%d", len(sc.Nodes)),
					fmt.Sprintf("%d", len(sc.Edges)),
					sc.Description,
				})
			}
			ui.Table(w, []string{"NAME", "TITLE", "NODES", "EDGES", "DESCRIPTION"}, rows)
			return nil
		},
	}
}

func scenarioCmd(a *app) *cobra.Command {
	var (
		lf layoutFlags
		of outputFlags
	)

	cmd := &cobra.Command{
		Use:   "scenario <name>",
		Short: "Lay out a built-in scenario",
		Args:  cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			reg, err := scenario.Builtin()
			if err != nil || len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			return reg.Names(), cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := lf.options(cmd, cfg.Layout.Options())
			if err != nil {
				return err
			}

			reg, err := scenario.Builtin()
			if err != nil {
				return err
			}
			sc, ok := reg.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown scenario %q (available: %v)", args[0], reg.Names())
			}

			if of.width == 0 {
				of.width = cfg.Drawer.Width
			}
			if of.height == 0 {
				of.height = cfg.Drawer.Height
			}

			w := cmd.OutOrStdout()
			if of.output == "table" || of.output == "canvas" {
				fmt.Fprintf(w, "%s %s\n", ui.Brand.Sprint(sc.Title), ui.Subtle.Sprintf("(%s)", sc.Name))
				if sc.Description != "" {
					fmt.Fprintf(w, "%s\n", sc.Description)
				}
				fmt.Fprintln(w)
			}

			result := drawer.Engine(opts).Scenario(sc)
			return printLayout(w, sc.Topology(), result, of)
		},
	}

	lf.register(cmd)
	of.register(cmd)
	return cmd
}

func legendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "legend",
		Short: "Show the severity color legend",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := cmd.OutOrStdout()
			ui.Banner(w, "severity legend")
			rows := make([][]string, 0)
			for _, e := range domain.Legend() {
				rows = append(rows, []string{ui.SeverityDot(e.Severity), e.Color, e.Description})
			}
			ui.Table(w, []string{"SEVERITY", "COLOR", "MEANING"}, rows)
		},
	}
}

func drawerCmd(a *app) *cobra.Command {
	var (
		lf     layoutFlags
		file   string
		format string
	)

	cmd := &cobra.Command{
		Use:   "drawer",
		Short: "Open the interactive test drawer",
		Long: "Cycles through the built-in scenarios in a movable terminal panel, or\n" +
			"shows the topology dataset given with --file.\n" +
			"Keys: n/p scenario, r relayout, c collapse, arrows move, tab select edge, q quit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := lf.options(cmd, cfg.Layout.Options())
			if err != nil {
				return err
			}
			reg, err := drawerScenarios(cmd, file, format)
			if err != nil {
				return err
			}
			return drawer.Run(reg, drawer.Engine(opts), cfg.Drawer.Width, cfg.Drawer.Height)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Topology dataset to show instead of the built-in scenarios")
	cmd.Flags().StringVarP(&format, "format", "f", "", "Dataset format (default from file extension): "+strings.Join(codec.Formats(), ", "))
	lf.register(cmd)
	return cmd
}

// drawerScenarios returns the built-in scenarios, or the dataset at file
// wrapped as the only entry
func drawerScenarios(cmd *cobra.Command, file, format string) (*scenario.Registry, error) {
	if file == "" {
		return scenario.Builtin()
	}
	topo, err := loadDataset(cmd, file, format)
	if err != nil {
		return nil, err
	}
	return drawer.Dataset(topo)
}
