package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	appointmenthandler "clinic/internal/appointment/handler"
	appointmentservice "clinic/internal/appointment/service"
	appointmentstore "clinic/internal/appointment/store"
	audithandler "clinic/internal/audit"
	cpfhandler "clinic/internal/cpf/handler"
	dashboardcache "clinic/internal/dashboard/cache"
	dashboardhandler "clinic/internal/dashboard/handler"
	dashboardservice "clinic/internal/dashboard/service"
	httpapi "clinic/internal/http"
	jwttoken "clinic/internal/jwt_token"
	patienthandler "clinic/internal/patient/handler"
	patientservice "clinic/internal/patient/service"
	patientstore "clinic/internal/patient/store"
	"clinic/internal/platform/config"
	"clinic/internal/platform/database"
	"clinic/internal/platform/httpserver"
	"clinic/internal/platform/kafka"
	"clinic/internal/platform/logger"
	"clinic/internal/platform/metrics"
	redisclient "clinic/internal/platform/redis"
	audit "clinic/pkg/platform/audit"
	"clinic/pkg/platform/audit/publisher"
	kafkastore "clinic/pkg/platform/audit/store/kafka"
	auditmemory "clinic/pkg/platform/audit/store/memory"
	"clinic/pkg/platform/tx"
)

const auditBufferSize = 1024

type stores struct {
	patients     patientservice.Store
	appointments interface {
		appointmentservice.Store
		patientservice.AppointmentRemover
	}
	runner tx.Runner
}

// main wires dependencies and runs the HTTP server until SIGINT or SIGTERM.
// Business logic lives in the internal service packages.
func main() {
	envFile := flag.String("env", ".env", "optional dotenv file")
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	if cfg.UsesDefaultSecret() && !cfg.Server.AuthDisabled {
		log.Warn("using the development SECRET_KEY; set SECRET_KEY in production")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)
	health := map[string]httpapi.HealthCheck{}

	st, closeDB, err := openStores(ctx, cfg.Database, log, health)
	if err != nil {
		return err
	}
	defer closeDB()

	rc, err := redisclient.New(ctx, cfg.Redis, redisclient.WithMetrics(m))
	if err != nil {
		return err
	}
	if rc != nil {
		defer rc.Close()
		health["redis"] = rc.Health
	}

	auditStore, closeAudit, err := openAuditStore(ctx, cfg.Kafka, log, health)
	if err != nil {
		return err
	}
	defer closeAudit()

	pub := publisher.NewPublisher(auditStore,
		publisher.WithAsyncBuffer(auditBufferSize),
		publisher.WithLogger(log),
		publisher.WithMetrics(m),
	)
	// drains queued audit events before the sinks close
	defer pub.Close()

	patients := patientservice.New(st.patients,
		patientservice.WithLogger(log),
		patientservice.WithMetrics(m),
		patientservice.WithAuditPublisher(pub),
		patientservice.WithIdentifierHasher(audit.NewHasher([]byte(cfg.Server.SecretKey))),
		patientservice.WithAppointmentRemover(st.appointments),
		patientservice.WithTxRunner(st.runner),
	)
	appointments := appointmentservice.New(st.appointments, patients,
		appointmentservice.WithLogger(log),
		appointmentservice.WithMetrics(m),
		appointmentservice.WithAuditPublisher(pub),
		appointmentservice.WithLocation(cfg.Location),
	)
	dashboardOpts := []dashboardservice.Option{
		dashboardservice.WithLogger(log),
		dashboardservice.WithMetrics(m),
	}
	if rc != nil && cfg.Dashboard.CacheTTL > 0 {
		dashboardOpts = append(dashboardOpts, dashboardservice.WithCache(dashboardcache.NewRedis(rc.Client, cfg.Dashboard.CacheTTL)))
	}
	dashboard := dashboardservice.New(patients, appointments, dashboardOpts...)

	jwtService := jwttoken.NewJWTService(cfg.Server.SecretKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience)

	router := httpapi.NewRouter(httpapi.Config{
		Logger:         log,
		Metrics:        m,
		Gatherer:       reg,
		TokenValidator: jwttoken.NewJWTServiceAdapter(jwtService),
		AuthDisabled:   cfg.Server.AuthDisabled,
		RequestTimeout: cfg.Server.RequestTimeout,
		HealthChecks:   health,
	},
		dashboardhandler.New(dashboard, log),
		patienthandler.New(patients, log),
		appointmenthandler.New(appointments, log),
		cpfhandler.New(log),
		audithandler.NewHandler(pub, log),
	)

	srv := httpserver.New(cfg.Server, router)
	log.Info("starting clinic server", "addr", cfg.Server.Addr, "auth_disabled", cfg.Server.AuthDisabled)
	return httpserver.Run(ctx, srv, nil, log)
}

func openStores(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger, health map[string]httpapi.HealthCheck) (stores, func(), error) {
	if cfg.URL == "" {
		log.Warn("DATABASE_URL not set; using in-memory stores")
		return stores{
			patients:     patientstore.NewInMemory(),
			appointments: appointmentstore.NewInMemory(),
			runner:       tx.NoopRunner{},
		}, func() {}, nil
	}

	db, err := database.Open(ctx, cfg)
	if err != nil {
		return stores{}, nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return stores{}, nil, err
	}
	health["database"] = db.PingContext
	return stores{
		patients:     patientstore.NewPostgres(db),
		appointments: appointmentstore.NewPostgres(db),
		runner:       tx.NewSQLRunner(db),
	}, closer(db, log), nil
}

func closer(db *sql.DB, log *slog.Logger) func() {
	return func() {
		if err := db.Close(); err != nil {
			log.Warn("close database", "error", err)
		}
	}
}

func openAuditStore(ctx context.Context, cfg config.KafkaConfig, log *slog.Logger, health map[string]httpapi.HealthCheck) (audit.Store, func(), error) {
	if len(cfg.Brokers) == 0 {
		return auditmemory.NewInMemoryStore(), func() {}, nil
	}
	producer, err := kafka.NewProducer(cfg.Brokers, cfg.AuditTopic)
	if err != nil {
		return nil, nil, err
	}
	if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
		log.Warn("audit topic bootstrap failed; relying on broker auto-create",
			"topic", cfg.AuditTopic,
			"error", err,
		)
	}
	health["kafka"] = producer.Health
	log.Info("streaming audit events to kafka", "topic", producer.Topic())
	return kafkastore.New(producer), producer.Close, nil
}
