package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	incidentlog "mspmon/internal/alerting/infrastructure/postgres"
	apihttp "mspmon/internal/api/http"
	"mspmon/internal/audit"
	"mspmon/internal/auth"
	config "mspmon/internal/config/domain"
	configpg "mspmon/internal/config/infrastructure/postgres"
	"mspmon/internal/docsync"
	feedapp "mspmon/internal/feeds/application"
	feeds "mspmon/internal/feeds/domain"
	feedpg "mspmon/internal/feeds/infrastructure/postgres"
	"mspmon/internal/feeds/infrastructure/rss"
	"mspmon/internal/monitor"
	"mspmon/internal/observability/metrics"
	"mspmon/internal/sla"
	"mspmon/internal/ticketing"
	"mspmon/internal/vendors"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	env := loadEnv()
	cfg, err := monitor.LoadConfig()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", env.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	store := configpg.NewStore(db)
	auditRepo := audit.NewRepository(db)
	incidentRepo := incidentlog.NewIncidentLog(db)

	ticketer, err := buildTicketer(cfg.Ticketing, logger)
	if err != nil {
		logger.Fatalf("ticketer error: %v", err)
	}

	sources, err := buildSources(cfg)
	if err != nil {
		logger.Fatalf("vendor sources error: %v", err)
	}
	if len(sources) == 0 {
		logger.Fatal("no vendor sources configured")
	}

	collector, err := monitor.NewCollector(sources, store, ticketer, logger,
		monitor.WithIncidentRecorder(incidentRepo))
	if err != nil {
		logger.Fatalf("collector error: %v", err)
	}
	go collector.Start(context.Background(), cfg.Schedule.CollectInterval)

	scheduler, err := sla.NewScheduler(store, logger,
		sla.WithDailyAt(cfg.Schedule.SLADailyAt),
		sla.WithFireFunc(func(ctx context.Context, due sla.DueNotification) error {
			metrics.IncSLAFired(due.Notification.Interval)
			_, err := ticketer.CreateTicket(ctx, "SLA: "+due.Notification.Task, due.Text, ticketing.PriorityNormal, "sla")
			return err
		}))
	if err != nil {
		logger.Fatalf("sla scheduler error: %v", err)
	}
	go scheduler.Start(context.Background())

	if len(cfg.Feeds) > 0 {
		watcher, err := buildWatcher(cfg, store, feedpg.NewSeenStore(db), ticketer, logger)
		if err != nil {
			logger.Fatalf("feed watcher error: %v", err)
		}
		go watcher.Start(context.Background())
	}

	if cfg.Docsync.BaseURL != "" {
		hudu, err := docsync.NewHuduClient(cfg.Docsync.BaseURL, cfg.Docsync.APIKey)
		if err != nil {
			logger.Fatalf("docsync client error: %v", err)
		}
		syncer, err := docsync.NewSyncer(hudu, store, logger)
		if err != nil {
			logger.Fatalf("docsync error: %v", err)
		}
		go func() {
			ticker := time.NewTicker(24 * time.Hour)
			defer ticker.Stop()
			for range ticker.C {
				if err := syncer.Sync(context.Background()); err != nil {
					logger.Printf("docsync error: %v", err)
				}
			}
		}()
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(env.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/incidents", apihttp.NewIncidentsHandler(incidentRepo))
	mux.Handle("/api/v1/incidents/", apihttp.NewIncidentExportHandler(incidentRepo))
	mux.Handle("/api/v1/customers", apihttp.NewCustomersHandler(store))
	mux.Handle("/api/v1/customers/", apihttp.NewCompactReportedHandler(collector, auditRepo))
	mux.Handle("/api/v1/notifications", apihttp.NewNotificationsHandler(scheduler, auditRepo))
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: env.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", env.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type envConfig struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
}

func loadEnv() envConfig {
	cfg := envConfig{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func buildSources(cfg monitor.Config) ([]vendors.Source, error) {
	var sources []vendors.Source
	if v := cfg.Vendors.CloudAlly; v.Enabled() {
		source, err := vendors.NewCloudAllySource(v.BaseURL, v.Token)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if v := cfg.Vendors.Skykick; v.Enabled() {
		refresh := vendors.StaticToken(v.Token)
		if v.TokenURL != "" {
			refresh = vendors.ClientCredentialsRefresh(v.TokenURL, v.ClientID, v.ClientSecret)
		}
		source, err := vendors.NewSkykickSource(v.BaseURL, refresh)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if v := cfg.Vendors.Sophos; v.Enabled() {
		source, err := vendors.NewSophosSource(v.BaseURL, v.Token, v.PartnerID)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if v := cfg.Vendors.Veeam; v.Enabled() {
		source, err := vendors.NewVeeamSource(v.BaseURL, v.Token)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if v := cfg.Vendors.Integra365; v.Enabled() {
		source, err := vendors.NewIntegra365Source(v.BaseURL, v.APIKey)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	if v := cfg.Vendors.Zabbix; v.Enabled() {
		source, err := vendors.NewZabbixSource(v.BaseURL, v.Token)
		if err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, nil
}

func buildTicketer(cfg monitor.TicketingConfig, logger *log.Logger) (ticketing.Ticketer, error) {
	if cfg.BaseURL == "" {
		logger.Printf("ticketing not configured, tickets will only be logged")
		return logTicketer{logger: logger}, nil
	}
	var opts []ticketing.ZammadOption
	if cfg.Group != "" {
		opts = append(opts, ticketing.WithGroup(cfg.Group))
	}
	if cfg.Customer != "" {
		opts = append(opts, ticketing.WithCustomer(cfg.Customer))
	}
	return ticketing.NewZammad(cfg.BaseURL, cfg.Token, opts...)
}

func buildWatcher(cfg monitor.Config, store *configpg.Store, seen *feedpg.SeenStore, ticketer ticketing.Ticketer, logger *log.Logger) (*feedapp.Watcher, error) {
	var feedList []feedapp.Feed
	for _, feedCfg := range cfg.Feeds {
		fetcher, err := rss.NewFetcher(feedCfg.Name, feedCfg.URL)
		if err != nil {
			return nil, err
		}
		if !knownFeedService(feedCfg.Service) {
			logger.Printf("feeds: feed %s has unknown service category %q, advisories will reach all customers", feedCfg.Name, feedCfg.Service)
		}
		feedList = append(feedList, feedapp.Feed{
			Fetcher:    fetcher,
			Classify:   feeds.KeywordClassifier(feedCfg.Keywords...),
			Interested: interestedBy(feedCfg.Service),
		})
	}

	notify := func(ctx context.Context, vuln feeds.Vulnerability) error {
		metrics.IncFeedItem(vuln.Feed, vuln.Priority)
		priority := ticketing.PriorityNormal
		if vuln.Priority == feeds.PriorityHigh {
			priority = ticketing.PriorityHigh
		}
		body := fmt.Sprintf("%s\n\n%s\n\nAffected customers: %d\nLink: %s",
			vuln.Item.Title, vuln.Item.Summary, len(vuln.Tenants), vuln.Item.Link)
		_, err := ticketer.CreateTicket(ctx, "Advisory: "+vuln.Item.Title, body, priority, "advisory")
		return err
	}
	return feedapp.NewWatcher(feedList, store, seen, notify, logger,
		feedapp.WithInterval(cfg.Schedule.FeedInterval))
}

// interestedBy maps a feed's service category onto the config flag that
// marks a customer as subscribed to that service. Feeds without a category
// reach every customer.
func interestedBy(service string) func(entry *config.Entry) bool {
	switch service {
	case "backup":
		return func(entry *config.Entry) bool { return entry.MonitorBackup }
	case "endpoints":
		return func(entry *config.Entry) bool { return entry.MonitorEndpoints }
	case "connectivity":
		return func(entry *config.Entry) bool { return entry.MonitorConnectivity }
	case "dtc":
		return func(entry *config.Entry) bool { return entry.MonitorDTC }
	default:
		return func(entry *config.Entry) bool { return true }
	}
}

func knownFeedService(service string) bool {
	switch service {
	case "", "backup", "endpoints", "connectivity", "dtc":
		return true
	}
	return false
}

type logTicketer struct {
	logger *log.Logger
}

func (t logTicketer) CreateTicket(ctx context.Context, title, body, priority, tag string) (string, error) {
	t.logger.Printf("ticket (dry-run) tag=%s priority=%s title=%q", tag, priority, title)
	return "", nil
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
