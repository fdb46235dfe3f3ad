package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"topoview/internal/adapter"
	"topoview/internal/domain"
	"topoview/internal/layout"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
	"topoview/internal/service"
	"topoview/internal/ui"
)

// progressPrinter shows nmap progress events on the terminal
type progressPrinter struct {
	w io.Writer
}

func (p progressPrinter) PublishDiscoveryEvent(eventType string, payload any) {
	msg := ""
	if m, ok := payload.(map[string]any); ok {
		if s, ok := m["message"].(string); ok {
			msg = s
		}
	}
	ui.Subtle.Fprintf(p.w, "  [%s] %s\n", strings.TrimPrefix(eventType, "discovery_"), msg)
}

func scanCmd(a *app) *cobra.Command {
	var (
		ports   string
		timeout time.Duration
		fast    bool
		deep    bool
		local   bool
		topN    int
		osScan  bool
		noPing  bool
		save    bool
		id      string
		of      outputFlags
	)

	cmd := &cobra.Command{
		Use:   "scan [targets...]",
		Short: "Discover hosts with nmap and lay them out",
		Long: "Scans CIDR ranges or addresses with nmap, links every host to the\n" +
			"detected gateway and prints the resulting layout. Requires nmap.",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && !local {
				return fmt.Errorf("requires at least one target, or --local")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			targets := args
			if local {
				subnets, err := adapter.LocalSubnets()
				if err != nil {
					return err
				}
				targets = append(targets, subnets...)
			}
			targets, err = adapter.ParseTargets(targets)
			if err != nil {
				return err
			}

			var opts []adapter.NmapOption
			switch {
			case fast && deep:
				return fmt.Errorf("--fast and --aggressive are mutually exclusive")
			case fast:
				opts = append(opts, adapter.WithFastScan())
			case deep:
				opts = append(opts, adapter.WithAggressiveScan())
			}
			if ports != "" {
				opts = append(opts, adapter.WithPortRange(ports))
			}
			if topN > 0 {
				opts = append(opts, adapter.WithTopPorts(topN))
			}
			if osScan {
				opts = append(opts, adapter.WithOSDetection(true))
			}
			if noPing {
				opts = append(opts, adapter.WithSkipHostDiscovery(true))
			}
			if cmd.Flags().Changed("timeout") {
				opts = append(opts, adapter.WithTimeout(timeout))
			}
			if id != "" {
				opts = append(opts, adapter.WithTopologyID(id))
			}
			if gw := adapter.DefaultGateway(); gw != "" {
				opts = append(opts, adapter.WithGatewayHint(gw))
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			nmapAdapter := adapter.NewNmapAdapter(targets, opts...)
			nmapAdapter.SetEventPublisher(progressPrinter{w: cmd.ErrOrStderr()})
			if !nmapAdapter.Available(ctx) {
				return fmt.Errorf("nmap is not installed or not runnable")
			}

			topo, err := nmapAdapter.Discover(ctx)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printHosts(w, topo)

			var result *domain.LayoutResult
			if save {
				result, err = storeScan(ctx, cfg.Database.Path, topo, cfg.Layout.Options())
				if err != nil {
					return err
				}
				ui.Good.Fprintf(w, "\n  %s stored %s in %s (run %s)\n\n", ui.StatusIcon(true), topo.ID, cfg.Database.Path, result.RunID)
			} else {
				result = service.LayoutTopology(topo, cfg.Layout.Options())
				fmt.Fprintln(w)
			}

			if of.width == 0 {
				of.width = cfg.Drawer.Width
			}
			if of.height == 0 {
				of.height = cfg.Drawer.Height
			}
			return printLayout(w, topo, result, of)
		},
	}

	cmd.Flags().StringVarP(&ports, "ports", "p", "", "Ports to probe (e.g. 22,80,443 or 1-1024)")
	cmd.Flags().BoolVar(&deep, "aggressive", false, "Full port range with service and OS detection (requires root)")
	cmd.Flags().IntVar(&topN, "top-ports", 0, "Probe the N most common ports instead of --ports")
	cmd.Flags().BoolVar(&osScan, "os", false, "Enable OS detection (requires root)")
	cmd.Flags().BoolVar(&noPing, "no-ping", false, "Treat every target as up (nmap -Pn)")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Minute, "Scan timeout per target")
	cmd.Flags().BoolVar(&local, "local", false, "Add the private subnets of this host's interfaces to the targets")
	cmd.Flags().BoolVar(&fast, "fast", false, "Quick scan of ports 22, 80 and 443 without service detection")
	cmd.Flags().BoolVar(&save, "save", false, "Store the topology and its layout in the database")
	cmd.Flags().StringVar(&id, "id", "", "Topology ID to store the scan under (default: nmap)")
	of.register(cmd)
	return cmd
}

func printHosts(w io.Writer, topo *domain.Topology) {
	ui.Banner(w, fmt.Sprintf("%d hosts", len(topo.Nodes)))
	rows := make([][]string, 0, len(topo.Nodes))
	for _, n := range topo.Nodes {
		rows = append(rows, []string{
			n.ID,
			n.DisplayLabel(),
			string(n.Type),
			ui.SeverityDot(n.Severity),
		})
	}
	ui.Table(w, []string{"NODE", "HOST", "TYPE", "SEVERITY"}, rows)
}

// storeScan saves the scanned topology and computes a stored layout for it
func storeScan(ctx context.Context, dbPath string, topo *domain.Topology, defaults layout.Options) (*domain.LayoutResult, error) {
	repo, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	defer repo.Close()

	reg := metrics.NewRegistry()
	bus := service.NewEventBus()
	topologies := service.NewTopologyService(repo, bus, reg)
	layouts := service.NewLayoutService(repo, bus, reg, defaults)

	if err := topologies.Save(ctx, topo); err != nil {
		return nil, err
	}
	return layouts.Compute(ctx, topo.ID, nil)
}
