package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	appointmentstore "clinic/internal/appointment/store"
	dashboardcache "clinic/internal/dashboard/cache"
	patientstore "clinic/internal/patient/store"
	"clinic/internal/platform/config"
	"clinic/internal/platform/database"
	"clinic/internal/platform/logger"
	redisclient "clinic/internal/platform/redis"
	"clinic/internal/seed"
	"clinic/pkg/platform/tx"
)

func main() {
	var (
		envFile      = flag.String("env", ".env", "optional dotenv file")
		patients     = flag.Int("patients", seed.DefaultPatients, "number of patients to generate")
		appointments = flag.Int("appointments", seed.DefaultAppointments, "number of appointments to generate")
		seedValue    = flag.Uint64("seed", seed.DefaultSeed, "random seed")
		clearFlag    = flag.Bool("clear", false, "delete existing data without asking")
		keep         = flag.Bool("keep", false, "keep existing data without asking")
		useCopy      = flag.Bool("copy", true, "bulk load with COPY instead of row inserts")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if *clearFlag && *keep {
		log.Error("-clear and -keep are mutually exclusive")
		os.Exit(2)
	}
	clearData := *clearFlag
	if !*clearFlag && !*keep {
		clearData, err = confirm(os.Stdin, os.Stdout, "Clear existing data? (y/n): ")
		if err != nil {
			log.Error("read answer", "error", err)
			os.Exit(1)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := seed.Options{
		Patients:     *patients,
		Appointments: *appointments,
		Seed:         *seedValue,
		Clear:        clearData,
	}
	if err := run(ctx, cfg, log, opts, *useCopy); err != nil {
		log.Error("seed failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, opts seed.Options, useCopy bool) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required to seed")
	}

	db, err := database.Open(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	var sink seed.Sink
	if useCopy {
		pool, err := database.OpenPool(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer pool.Close()
		sink = seed.NewCopySink(pool)
	} else {
		sink = seed.NewStoreSink(
			patientstore.NewPostgres(db),
			appointmentstore.NewPostgres(db),
			tx.NewSQLRunner(db),
		)
	}

	if _, err := seed.New(sink, log).Run(ctx, opts); err != nil {
		return err
	}

	// the running server may still serve a summary from before the seed
	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		log.Warn("dashboard cache not invalidated", "error", err)
		return nil
	}
	if rc != nil {
		defer rc.Close()
		if err := dashboardcache.NewRedis(rc.Client, cfg.Dashboard.CacheTTL).Invalidate(ctx); err != nil {
			log.Warn("dashboard cache not invalidated", "error", err)
		}
	}
	return nil
}

func confirm(in io.Reader, out io.Writer, prompt string) (bool, error) {
	fmt.Fprint(out, prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes", "s", "sim":
		return true, nil
	default:
		return false, nil
	}
}
