package main

import (
	"flag"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"

	"github.com/apprun/apprun/pkg/api"
	"github.com/apprun/apprun/pkg/cancel"
	"github.com/apprun/apprun/pkg/executor"
	"github.com/apprun/apprun/pkg/logging"
	"github.com/apprun/apprun/pkg/metrics"
	"github.com/apprun/apprun/pkg/ratelimit"
	"github.com/apprun/apprun/pkg/registry"
	"github.com/apprun/apprun/pkg/runner"
	"github.com/apprun/apprun/pkg/shutdown"
	"github.com/apprun/apprun/pkg/store"
)

func main() {
	configFile := flag.String("config", "", "path to config file (yaml)")
	flag.Parse()

	viper.SetDefault("listen_addr", ":8080")
	viper.SetDefault("store.type", "sqlite")
	viper.SetDefault("store.dsn", "apprun.db")
	viper.SetDefault("registry.type", "redis")
	viper.SetDefault("registry.addr", "localhost:6379")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.json", false)
	viper.SetDefault("ratelimit.rps", 10.0)
	viper.SetDefault("ratelimit.burst", 20)

	viper.SetEnvPrefix("APPRUND")
	viper.AutomaticEnv()

	if *configFile != "" {
		viper.SetConfigFile(*configFile)
		if err := viper.ReadInConfig(); err != nil {
			log.Fatalf("Failed to read config file: %v", err)
		}
	}

	logger := logging.New(logging.ParseLevel(viper.GetString("log.level")), viper.GetBool("log.json"))

	log.Println("Starting apprun admin daemon")

	dataStore, err := store.New(store.Config{
		Type: viper.GetString("store.type"),
		DSN:  viper.GetString("store.dsn"),
	})
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}

	reg, err := registry.New(registry.Config{
		Type:     viper.GetString("registry.type"),
		Addr:     viper.GetString("registry.addr"),
		Password: viper.GetString("registry.password"),
		DB:       viper.GetInt("registry.db"),
	})
	if err != nil {
		log.Fatalf("Failed to open correlation registry: %v", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	exe := executor.New(reg, logger, executor.Config{})
	coord := runner.New(dataStore, exe, logger)
	coord.SetMetricsRecorder(m)
	canceller := cancel.NewService(reg, logger)

	handler := api.NewHandler(dataStore, coord, canceller)
	handler.SetMetricsRecorder(m)

	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	limiter := ratelimit.NewLimiter(viper.GetFloat64("ratelimit.rps"), viper.GetInt("ratelimit.burst"))

	srv := &http.Server{
		Addr:    viper.GetString("listen_addr"),
		Handler: limiter.Middleware(router),
		// No write timeout: a run request stays open for the lifetime of
		// the spawned process, up to the executor's own ceiling.
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	sd := shutdown.New(30 * time.Second)
	sd.Register(shutdown.CloseResource(dataStore, "store"))
	sd.Register(shutdown.CloseResource(reg, "registry"))
	sd.Register(shutdown.StopHTTPServer(srv, "api"))

	go func() {
		log.Printf("API listening on %s", srv.Addr)
		log.Println("Endpoints:")
		log.Println("  POST   /runs")
		log.Println("  POST   /runs/{id}/cancel")
		log.Println("  POST   /applications")
		log.Println("  GET    /applications/{id}")
		log.Println("  GET    /reports/{id}")
		log.Println("  GET    /reports/{id}/download")
		log.Println("  GET    /health")
		log.Println("  GET    /metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	sd.Wait()
}
