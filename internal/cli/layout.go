package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"topoview/internal/codec"
	"topoview/internal/domain"
	"topoview/internal/drawer"
	"topoview/internal/layout"
	"topoview/internal/service"
	"topoview/internal/ui"
)

// layoutFlags overrides the configured engine parameters when set
type layoutFlags struct {
	iterations int
	repulsion  float64
	attraction float64
	damping    float64
	radius     float64
}

func (f *layoutFlags) register(cmd *cobra.Command) {
	d := layout.DefaultOptions()
	cmd.Flags().IntVar(&f.iterations, "iterations", d.Iterations, "Simulation steps")
	cmd.Flags().Float64Var(&f.repulsion, "repulsion", d.Repulsion, "Pairwise repulsion strength")
	cmd.Flags().Float64Var(&f.attraction, "attraction", d.Attraction, "Edge spring strength")
	cmd.Flags().Float64Var(&f.damping, "damping", d.Damping, "Fraction of force applied per step (0-1)")
	cmd.Flags().Float64Var(&f.radius, "radius", d.Radius, "Radius of the initial circle")
}

// options applies the flags the user actually set onto base and validates the result
func (f *layoutFlags) options(cmd *cobra.Command, base layout.Options) (layout.Options, error) {
	flags := cmd.Flags()
	if flags.Changed("iterations") {
		base.Iterations = f.iterations
	}
	if flags.Changed("repulsion") {
		base.Repulsion = f.repulsion
	}
	if flags.Changed("attraction") {
		base.Attraction = f.attraction
	}
	if flags.Changed("damping") {
		base.Damping = f.damping
	}
	if flags.Changed("radius") {
		base.Radius = f.radius
	}

	params := service.ParamsFromOptions(base)
	if err := service.ValidateParams(&params); err != nil {
		return layout.Options{}, err
	}
	return base, nil
}

// outputFlags selects how a layout is printed
type outputFlags struct {
	output string
	width  int
	height int
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.output, "output", "o", "table", "Output: table, canvas, json or yaml")
	cmd.Flags().IntVar(&o.width, "width", 0, "Canvas width (default from config)")
	cmd.Flags().IntVar(&o.height, "height", 0, "Canvas height (default from config)")
}

func layoutCmd(a *app) *cobra.Command {
	var (
		format string
		lf     layoutFlags
		of     outputFlags
	)

	cmd := &cobra.Command{
		Use:   "layout <file>",
		Short: "Compute the layout of a topology file",
		Long: "Reads a topology (JSON, YAML, TOML or Ansible inventory), runs the\n" +
			"force-directed engine and prints node positions.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			opts, err := lf.options(cmd, cfg.Layout.Options())
			if err != nil {
				return err
			}

			topo, err := loadDataset(cmd, args[0], format)
			if err != nil {
				return err
			}

			result := service.LayoutTopology(topo, opts)
			if of.width == 0 {
				of.width = cfg.Drawer.Width
			}
			if of.height == 0 {
				of.height = cfg.Drawer.Height
			}
			return printLayout(cmd.OutOrStdout(), topo, result, of)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Input format (default from file extension): "+strings.Join(codec.Formats(), ", "))
	lf.register(cmd)
	of.register(cmd)
	return cmd
}

// loadDataset reads, normalizes and validates a topology file, warning about
// edges that point at missing nodes. The format defaults to the extension.
func loadDataset(cmd *cobra.Command, path, format string) (*domain.Topology, error) {
	if format == "" {
		format = service.FormatForPath(path)
	}
	topo, err := readTopology(path, format)
	if err != nil {
		return nil, err
	}

	topo.Normalize()
	if topo.Name == "" {
		topo.Name = path
	}
	if err := topo.Validate(); err != nil {
		return nil, err
	}
	for _, e := range topo.DanglingEdges() {
		ui.Warn.Fprintf(cmd.ErrOrStderr(), "  warning: edge %s references a missing node (%s -> %s)\n", e.ID, e.From, e.To)
	}
	return topo, nil
}

func readTopology(path, format string) (*domain.Topology, error) {
	c, err := codec.ForFormat(format)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open topology: %w", err)
	}
	defer f.Close()

	topo, err := c.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return topo, nil
}

// printLayout writes a layout result in the requested output form
func printLayout(w io.Writer, topo *domain.Topology, result *domain.LayoutResult, of outputFlags) error {
	switch of.output {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		return enc.Encode(result)
	case "canvas":
		canvas := drawer.NewCanvas(of.width, of.height)
		canvas.Plot(topo, result, "")
		fmt.Fprintln(w, canvas.Render())
		return nil
	case "table", "":
		printPositions(w, topo, result)
		return nil
	default:
		return fmt.Errorf("unknown output %q (want table, canvas, json or yaml)", of.output)
	}
}

func printPositions(w io.Writer, topo *domain.Topology, result *domain.LayoutResult) {
	rows := make([][]string, 0, len(result.Positions))
	for _, p := range result.Positions {
		label, severity := p.NodeID, domain.SeverityUnknown
		if n, ok := topo.Node(p.NodeID); ok {
			label, severity = n.DisplayLabel(), n.Severity
		}
		rows = append(rows, []string{
			p.NodeID,
			label,
			ui.SeverityDot(severity),
			fmt.Sprintf("%.2f", p.X),
			fmt.Sprintf("%.2f", p.Y),
		})
	}
	ui.Table(w, []string{"NODE", "LABEL", "SEVERITY", "X", "Y"}, rows)

	params := result.Params
	fmt.Fprintln(w)
	ui.Subtle.Fprintf(w, "  %d nodes, %d edges, %d iterations (repulsion=%g attraction=%g damping=%g radius=%g) in %s\n",
		len(topo.Nodes), len(topo.Edges), params.Iterations,
		params.Repulsion, params.Attraction, params.Damping, params.Radius, result.Duration)
}
