package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evadvisor/internal/buildinfo"
	"evadvisor/internal/config"
	"evadvisor/internal/driver"
	"evadvisor/internal/energy"
	"evadvisor/internal/events"
	"evadvisor/internal/graph"
	"evadvisor/internal/loopdetect"
	"evadvisor/internal/mapdata"
	"evadvisor/internal/metrics"
	"evadvisor/internal/sim"
	"evadvisor/internal/station"
	"evadvisor/internal/store"
)

func main() {
	var (
		mapFile       = flag.String("map", "", "map description JSON (required)")
		customersFile = flag.String("customers", "", "customer roster JSON (required)")
		stationsFile  = flag.String("stations", "", "charging-station roster JSON (required)")
		strategyFile  = flag.String("strategy", "", "strategy YAML; built-in defaults when empty")
		forecastFile  = flag.String("forecast", "", "optional prior-run data (vehicle speeds, zone logs)")
		apiURL        = flag.String("api-url", "http://localhost:8080", "simulation engine base URL")
		mode          = flag.String("mode", "iterative", "run mode: iterative or single")
		outFile       = flag.String("out", "", "write the final game input JSON here")
		listen        = flag.String("listen", "", "ops HTTP address (/metrics, /healthz, /v1/runs, /ws/runs); empty disables")
	)
	flag.Parse()

	if *mapFile == "" || *customersFile == "" || *stationsFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.Default()
	if *strategyFile != "" {
		var err error
		cfg, err = config.Load(*strategyFile)
		if err != nil {
			log.Fatalf("strategy: %v", err)
		}
	}

	mf, err := mapdata.LoadMap(*mapFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	customers, err := mapdata.LoadCustomers(*customersFile)
	if err != nil {
		log.Fatalf("%v", err)
	}
	stations, err := mapdata.LoadStations(*stationsFile)
	if err != nil {
		log.Fatalf("%v", err)
	}

	ix, err := graph.NewIndex(mf.Nodes, mf.Edges)
	if err != nil {
		log.Fatalf("building graph: %v", err)
	}
	log.Printf("map %s: %d nodes, %d customers, %d stations", mf.Name, ix.NodeCount(), len(customers), len(stations))

	history := energy.NewHistory()
	if *forecastFile != "" {
		forecast, err := mapdata.LoadForecast(*forecastFile)
		if err != nil {
			log.Fatalf("%v", err)
		}
		if n := history.Merge(forecast.ZoneLogs); n > 0 {
			log.Printf("forecast: %d zone-log ticks preloaded", n)
		}
		for typ, speed := range forecast.VehicleSpeeds {
			if cfg.VehicleSpeeds == nil {
				cfg.VehicleSpeeds = map[string]float64{}
			}
			if _, set := cfg.VehicleSpeeds[typ]; !set {
				cfg.VehicleSpeeds[typ] = speed
			}
		}
	}

	st, err := store.FromEnv()
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	broker := events.FromEnv()
	metrics.RegisterDefault()

	if *listen != "" {
		go serveOps(*listen, st, broker)
	}

	d := &driver.Driver{
		Sim:       sim.NewClient(strings.TrimRight(*apiURL, "/"), sim.WithAPIKey(os.Getenv("API_KEY"))),
		Router:    graph.NewRouter(ix),
		Catalog:   station.NewCatalog(stations, mf.Zones),
		History:   history,
		Loops:     loopdetect.NewDetector(cfg.LoopDetection),
		Cfg:       cfg,
		MapName:   mf.Name,
		Customers: customers,
		Store:     st,
		Broker:    broker,
	}

	ctx := context.Background()
	var res driver.Result
	switch *mode {
	case "iterative":
		res, err = d.Run(ctx)
	case "single":
		res, err = d.RunSingle(ctx)
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
	if err != nil {
		log.Printf("run ended early: %v", err)
	}

	fmt.Printf("run %s: score %.2f, kWh revenue %.2f, completion %.2f, ticks %d\n",
		res.RunID, res.Final.Score, res.Final.KwhRevenue, res.Final.CustomerCompletionScore, res.TicksPlayed)

	if *outFile != "" {
		data, jerr := json.MarshalIndent(res.FinalInput, "", "  ")
		if jerr != nil {
			log.Fatalf("encoding final input: %v", jerr)
		}
		if werr := os.WriteFile(*outFile, data, 0o644); werr != nil {
			log.Fatalf("writing %s: %v", *outFile, werr)
		}
		log.Printf("final game input written to %s", *outFile)
	}
	if err != nil {
		os.Exit(1)
	}
}

// serveOps runs the operational endpoints next to the run loop.
func serveOps(addr string, st store.Store, broker events.Broker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]any{"status": "ok", "build": buildinfo.Info()})
	})
	mux.HandleFunc("/v1/runs", func(w http.ResponseWriter, r *http.Request) {
		runs, err := st.ListRuns(r.Context(), 50)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, map[string]any{"runs": runs})
	})
	mux.HandleFunc("/v1/runs/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/v1/runs/")
		id, sub, _ := strings.Cut(rest, "/")
		switch sub {
		case "":
			run, err := st.GetRun(r.Context(), id)
			if err != nil {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			writeJSON(w, run)
		case "ticks":
			tas, err := st.ListTickAnalyses(r.Context(), id)
			if err != nil {
				http.Error(w, "run not found", http.StatusNotFound)
				return
			}
			writeJSON(w, map[string]any{"ticks": tas})
		default:
			http.NotFound(w, r)
		}
	})
	mux.HandleFunc("/ws/runs", events.StreamHandler(broker))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("ops listening on %s", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("ops server: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
