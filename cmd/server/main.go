package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"topoview/internal/adapter"
	"topoview/internal/config"
	"topoview/internal/domain"
	"topoview/internal/handler"
	"topoview/internal/hub"
	"topoview/internal/metrics"
	"topoview/internal/repository/sqlite"
	"topoview/internal/scenario"
	"topoview/internal/service"
	"topoview/internal/watcher"
)

func main() {
	// Command line flags; explicitly set flags override the config file
	configPath := flag.String("config", "", "Config file path (default: search standard locations)")
	addr := flag.String("addr", ":3000", "HTTP listen address")
	dbPath := flag.String("db", "./topoview.db", "SQLite database path")
	watch := flag.Bool("watch", false, "Re-import dataset files when they change")
	flag.Parse()

	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting topoview server...")

	cfg, foundPath, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if foundPath != "" {
		log.Printf("Config loaded: %s", foundPath)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Server.Addr = *addr
		case "db":
			cfg.Database.Path = *dbPath
		case "watch":
			cfg.Datasets.Watch = *watch
		}
	})
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	log.Println(cfg.Summary())

	// Initialize SQLite repository
	repo, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()
	log.Printf("Database opened: %s", cfg.Database.Path)

	reg := metrics.DefaultRegistry()

	// Initialize event bus
	eventBus := service.NewEventBus()
	eventBus.OnDrop(func() { reg.EventsDroppedTotal.Inc() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize SSE hub
	sseHub := hub.New()
	sseHub.SetMetrics(reg)
	go sseHub.Run(ctx)

	// Connect event bus to SSE hub
	eventChan := make(chan service.Event, 100)
	eventBus.Subscribe(eventChan)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case event := <-eventChan:
				sseHub.Broadcast(event)
			}
		}
	}()

	// Initialize services
	topologySvc := service.NewTopologyService(repo, eventBus, reg)
	layoutSvc := service.NewLayoutService(repo, eventBus, reg, cfg.Layout.Options())

	scenarios, err := scenario.Builtin()
	if err != nil {
		log.Fatalf("Failed to load scenarios: %v", err)
	}
	log.Printf("Loaded %d scenarios: %v", scenarios.Len(), scenarios.Names())

	// Import configured datasets, then keep them in sync
	for _, path := range cfg.Datasets.Files {
		if _, err := service.ReloadDataset(ctx, topologySvc, layoutSvc, path); err != nil {
			log.Printf("Failed to import dataset %s: %v", path, err)
		}
	}
	if cfg.Datasets.Watch {
		w := watcher.New(cfg.Datasets.Files, func(path string) {
			log.Printf("Dataset changed: %s", path)
			if _, err := service.ReloadDataset(ctx, topologySvc, layoutSvc, path); err != nil {
				log.Printf("Failed to reload dataset %s: %v", path, err)
			}
		}).WithDebounce(cfg.Datasets.Debounce.Duration())
		go func() {
			if err := w.Watch(ctx); err != nil && ctx.Err() == nil {
				log.Printf("Dataset watcher stopped: %v", err)
			}
		}()
	}

	// Periodic network discovery
	if cfg.Discovery.Enabled {
		startDiscovery(ctx, cfg.Discovery, topologySvc, layoutSvc, eventBus, reg)
	}

	// Setup routes
	mux := http.NewServeMux()
	handler.NewTopologyHandler(topologySvc, layoutSvc, scenarios).Register(mux)

	// SSE events endpoint
	mux.Handle("GET /events", sseHub)

	// Prometheus scrape endpoint
	mux.Handle("GET /metrics", reg.Handler())

	// Apply middleware
	finalHandler := handler.Chain(mux,
		handler.Recover,
		handler.CORS,
		handler.Logger,
		handler.Metrics(reg),
	)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      finalHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Stop discovery, watcher and hub; SSE streams end with the hub
	cancel()

	// Graceful shutdown with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// startDiscovery polls nmap in the background, storing each scan as a
// topology and laying it out
func startDiscovery(ctx context.Context, cfg config.DiscoveryConfig, topologies *service.TopologyService, layouts *service.LayoutService, eventBus *service.EventBus, reg *metrics.Registry) {
	targets := cfg.Targets
	if cfg.Local {
		local, err := adapter.LocalSubnets()
		if err != nil {
			log.Printf("Failed to detect local subnets: %v", err)
		}
		targets = append(targets, local...)
	}
	targets, err := adapter.ParseTargets(targets)
	if err != nil {
		log.Printf("Discovery disabled: %v", err)
		return
	}

	opts := []adapter.NmapOption{
		adapter.WithTopologyID(cfg.TopologyID),
		adapter.WithInterval(cfg.Interval.Duration()),
		adapter.WithTimeout(cfg.Timeout.Duration()),
		adapter.WithServiceDetection(cfg.ServiceDetection),
	}
	if cfg.Ports != "" {
		opts = append(opts, adapter.WithPortRange(cfg.Ports))
	}
	if gw := adapter.DefaultGateway(); gw != "" {
		opts = append(opts, adapter.WithGatewayHint(gw))
	}

	nmapAdapter := adapter.NewNmapAdapter(targets, opts...)
	nmapAdapter.SetEventPublisher(eventBus)

	if !nmapAdapter.Available(ctx) {
		log.Println("Discovery disabled: nmap binary not available")
		return
	}

	go nmapAdapter.Poll(ctx, func(topo *domain.Topology) {
		if err := topologies.Save(ctx, topo); err != nil {
			log.Printf("Failed to store discovered topology: %v", err)
			reg.RecordDiscovery(nmapAdapter.Name(), 0, err)
			return
		}
		reg.RecordDiscovery(nmapAdapter.Name(), len(topo.Nodes), nil)

		if _, err := layouts.Compute(ctx, topo.ID, nil); err != nil {
			log.Printf("Failed to lay out discovered topology: %v", err)
		}
	})
	log.Printf("Discovery started: %v every %s", targets, nmapAdapter.Interval())
}
