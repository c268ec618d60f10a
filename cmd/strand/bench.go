package main

import (
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"github.com/strand-dev/strand/internal/config"
	"github.com/strand-dev/strand/pkg/client"
	"github.com/strand-dev/strand/pkg/packet"
	"github.com/strand-dev/strand/pkg/protocol"
)

func benchCmd() *cobra.Command {
	var (
		configPath  string
		workers     int
		calls       int
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure call latency against an echo peer",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if metricsAddr != "" {
				cfg.MetricsAddr = metricsAddr
			}
			return runBench(cfg, workers, calls)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", config.ConfigFileName, "configuration file")
	cmd.Flags().IntVar(&workers, "workers", 8, "concurrent callers")
	cmd.Flags().IntVar(&calls, "calls", 1000, "calls per worker")
	cmd.Flags().StringVar(&metricsAddr, "metrics", "", "serve Prometheus metrics on this address")
	return cmd
}

// connectorFor builds the connector selected by the configuration.
func connectorFor(cfg *config.Config) (packet.Connector, error) {
	switch cfg.Transport {
	case "tcp":
		return &packet.TCPConnector{Addr: cfg.Addr}, nil
	case "unix":
		return &packet.UnixConnector{Path: cfg.Addr}, nil
	case "websocket":
		return &packet.WebSocketConnector{URL: cfg.Addr}, nil
	default:
		return nil, fmt.Errorf("unknown transport %q", cfg.Transport)
	}
}

func runBench(cfg *config.Config, workers, calls int) error {
	connector, err := connectorFor(cfg)
	if err != nil {
		return err
	}
	timeout, err := cfg.ParseRequestTimeout()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		r.Use(middleware.Recoverer)
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		})
		go http.ListenAndServe(cfg.MetricsAddr, r)
		fmt.Printf("metrics on http://%s/metrics\n", cfg.MetricsAddr)
	}

	engine := client.NewEngine(connector,
		client.WithRequestTimeout(timeout),
		client.WithMaxQueuedEvents(cfg.MaxQueuedEvents),
		client.WithRegisterer(reg),
	)
	defer engine.Close()

	echo := engine.GetProxy("echo")
	methodAdd := client.NewMethod("Add", []string{"u32", "u32"}, "u32")

	fmt.Printf("benchmarking %s over %s: %d workers x %d calls\n",
		cfg.Addr, cfg.Transport, workers, calls)

	latencies := make([]time.Duration, workers*calls)
	var failures int
	var mu sync.Mutex
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < calls; i++ {
				t0 := time.Now()
				sum, err := client.Call[protocol.U32](nil, echo, methodAdd,
					protocol.U32(w), protocol.U32(i))
				if err != nil || uint32(sum) != uint32(w+i) {
					mu.Lock()
					failures++
					mu.Unlock()
					continue
				}
				latencies[w*calls+i] = time.Since(t0)
			}
		}(w)
	}
	wg.Wait()
	total := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	n := len(latencies)
	fmt.Printf("done in %v (%.0f calls/s), %d failures\n",
		total.Round(time.Millisecond), float64(n)/total.Seconds(), failures)
	fmt.Printf("latency p50=%v p90=%v p99=%v max=%v\n",
		latencies[n/2], latencies[n*9/10], latencies[n*99/100], latencies[n-1])
	return nil
}
