package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	jwttoken "clinic/internal/jwt_token"
	"clinic/internal/platform/config"
)

// token prints a signed staff bearer token for the /api routes.
func main() {
	var (
		envFile = flag.String("env", ".env", "optional dotenv file")
		staff   = flag.String("staff", "", "staff member the token is issued to")
		ttl     = flag.Duration("ttl", 8*time.Hour, "token lifetime")
	)
	flag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	if *staff == "" {
		fmt.Fprintln(os.Stderr, "usage: token -staff <name> [-ttl 8h]")
		os.Exit(2)
	}
	if cfg.UsesDefaultSecret() {
		slog.Warn("signing with the development SECRET_KEY")
	}

	token, err := jwttoken.NewJWTService(cfg.Server.SecretKey, jwttoken.DefaultIssuer, jwttoken.DefaultAudience).
		GenerateStaffToken(*staff, *ttl)
	if err != nil {
		slog.Error("generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
