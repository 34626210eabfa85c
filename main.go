package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	apihttp "hassems/internal/api/http"
	"hassems/internal/auth"
	"hassems/internal/eventing"
	helperapp "hassems/internal/helper/application"
	historyapp "hassems/internal/history/application"
	"hassems/internal/mqtt"
	"hassems/internal/notify"
	"hassems/internal/observability/metrics"
	"hassems/internal/recorder"
	statsapp "hassems/internal/statistics/application"
	statsinterfaces "hassems/internal/statistics/interfaces"
	"hassems/internal/storage"
	"hassems/internal/storage/memory"
	"hassems/internal/storage/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Fatalf("store error: %v", err)
	}
	defer closeStore()

	metrics.Init()
	locks := storage.NewKeyedMutex()
	bus := eventing.NewBus()

	historyService, err := historyapp.NewService(store, locks,
		historyapp.WithPublisher(bus),
		historyapp.WithThreshold(cfg.HistoricThreshold),
		historyapp.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("history service error: %v", err)
	}

	var publisher mqtt.Publisher
	if cfg.MQTTConfigPath != "" {
		mqttCfg, err := mqtt.LoadConfig(cfg.MQTTConfigPath)
		if err != nil {
			logger.Fatalf("mqtt config error: %v", err)
		}
		real, err := mqtt.NewRealPublisher(mqttCfg)
		if err != nil {
			logger.Fatalf("mqtt connect error: %v", err)
		}
		defer real.Close()
		publisher = real
		logger.Printf("mqtt connected to %s", mqttCfg.Broker)
	}

	helperOpts := []helperapp.Option{
		helperapp.WithCursorSeeder(historyService),
		helperapp.WithLogger(logger),
	}
	if publisher != nil {
		helperOpts = append(helperOpts, helperapp.WithDiscovery(publisher))
	}
	helperService, err := helperapp.NewService(store, locks, helperOpts...)
	if err != nil {
		logger.Fatalf("helper service error: %v", err)
	}

	refresherOpts := []statsapp.Option{statsapp.WithLogger(logger)}
	if cfg.StatisticsSinkURL != "" {
		sink, err := statsinterfaces.NewHTTPSink(cfg.StatisticsSinkURL, cfg.StatisticsSinkToken)
		if err != nil {
			logger.Fatalf("statistics sink error: %v", err)
		}
		refresherOpts = append(refresherOpts, statsapp.WithSink(sink))
	}
	refresher, err := statsapp.NewRefresher(store, refresherOpts...)
	if err != nil {
		logger.Fatalf("statistics refresher error: %v", err)
	}
	eventing.On(bus, refresher.HandleHistoricDataChanged)

	if cfg.RecorderBaseURL != "" {
		writer, err := recorder.NewHTTPWriter(cfg.RecorderBaseURL, cfg.RecorderToken)
		if err != nil {
			logger.Fatalf("recorder writer error: %v", err)
		}
		bridge := recorder.NewBridge(writer, recorder.WithLogger(logger))
		eventing.On(bus, bridge.HandlePointRecorded)
	}

	if len(cfg.WebhookURLs) > 0 {
		channels := make([]notify.Channel, 0, len(cfg.WebhookURLs))
		for _, webhookURL := range cfg.WebhookURLs {
			channel, err := notify.NewWebhookChannel(webhookURL)
			if err != nil {
				logger.Fatalf("webhook error: %v", err)
			}
			channels = append(channels, channel)
		}
		notifier := notify.NewNotifier(channels, notify.WithLogger(logger))
		eventing.On(bus, notifier.HandleHistoricDataChanged)
	}

	if publisher != nil {
		forwarder := mqtt.NewStateForwarder(publisher, logger)
		eventing.On(bus, forwarder.HandlePointRecorded)
	}

	helpersHandler, err := apihttp.NewHelpersHandler(helperService, historyService, refresher)
	if err != nil {
		logger.Fatalf("helpers handler error: %v", err)
	}
	exportsHandler, err := apihttp.NewExportsHandler(helperService, historyService, refresher)
	if err != nil {
		logger.Fatalf("exports handler error: %v", err)
	}

	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), "/healthz", "/metrics")

	mux := http.NewServeMux()
	mux.Handle("/api/v1/helpers", helpersHandler)
	mux.Handle("/api/v1/helpers/", helpersHandler)
	mux.Handle("/api/v1/exports/", exportsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL         string
	HTTPAddr            string
	HistoricThreshold   time.Duration
	JWTSecret           string
	WebhookURLs         []string
	RecorderBaseURL     string
	RecorderToken       string
	StatisticsSinkURL   string
	StatisticsSinkToken string
	MQTTConfigPath      string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:         getenvDefault("DATABASE_URL", ""),
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		HistoricThreshold:   getenvDuration("HISTORIC_THRESHOLD", 0),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", ""),
		RecorderBaseURL:     getenvDefault("RECORDER_BASE_URL", ""),
		RecorderToken:       getenvDefault("RECORDER_TOKEN", ""),
		StatisticsSinkURL:   getenvDefault("STATISTICS_SINK_URL", ""),
		StatisticsSinkToken: getenvDefault("STATISTICS_SINK_TOKEN", getenvDefault("RECORDER_TOKEN", "")),
		MQTTConfigPath:      getenvDefault("MQTT_CONFIG", ""),
	}
	if raw := getenvDefault("HISTORY_WEBHOOK_URLS", ""); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if trimmed := strings.TrimSpace(part); trimmed != "" {
				cfg.WebhookURLs = append(cfg.WebhookURLs, trimmed)
			}
		}
	}
	return cfg
}

// openStore returns a postgres-backed store when DATABASE_URL is set and an
// in-memory store otherwise.
func openStore(cfg config, logger *log.Logger) (storage.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Printf("no DATABASE_URL, using in-memory store")
		return memory.NewStore(), func() {}, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, nil, err
	}
	store := postgres.NewStore(db)
	if err := store.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() { _ = db.Close() }, nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
