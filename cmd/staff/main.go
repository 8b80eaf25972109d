// Command staff creates a staff account that can sign in to the portal, or
// lists the existing ones with -list.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/loussodesigns/opts/internal/customers"
	"github.com/loussodesigns/opts/pkg/config"
	"github.com/loussodesigns/opts/pkg/db"
	"github.com/loussodesigns/opts/pkg/logger"
	"github.com/loussodesigns/opts/pkg/mailer"
	"github.com/loussodesigns/opts/pkg/security"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "opts-staff"})

	_ = godotenv.Load()

	name := flag.String("name", "", "staff member's display name")
	email := flag.String("email", "", "staff login email")
	password := flag.String("password", "", "initial password (falls back to OPTS_STAFF_PASSWORD)")
	list := flag.Bool("list", false, "list existing staff accounts and exit")
	flag.Parse()

	if *list {
		listStaff(ctx, logg)
		return
	}

	if *password == "" {
		*password = os.Getenv("OPTS_STAFF_PASSWORD")
	}
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: staff -name NAME -email EMAIL -password PASSWORD")
		os.Exit(2)
	}
	if len([]rune(*password)) < security.MinPasswordLength {
		fmt.Fprintf(os.Stderr, "password must be at least %d characters\n", security.MinPasswordLength)
		os.Exit(2)
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = configuredLogger(cfg)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	mail, err := mailer.New(cfg.Mail, cfg.App.BaseURL)
	requireResource(ctx, logg, "mailer", err)

	svc, err := customers.NewService(customers.ServiceParams{DB: dbClient, Mailer: mail, Logger: logg})
	requireResource(ctx, logg, "customer service", err)

	hash, err := security.HashPassword(*password, cfg.Password)
	requireResource(ctx, logg, "password hash", err)

	staff, err := svc.CreateStaff(ctx, *name, *email, hash)
	if err != nil {
		logg.Error(ctx, "create staff failed", err)
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	fmt.Printf("created staff account %d for %s\n", staff.ID, staff.Email)
}

func listStaff(ctx context.Context, logg *logger.Logger) {
	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)
	logg = configuredLogger(cfg)

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	svc, err := customers.NewService(customers.ServiceParams{DB: dbClient, Logger: logg})
	requireResource(ctx, logg, "customer service", err)

	staff, err := svc.ListStaff(ctx)
	requireResource(ctx, logg, "staff list", err)
	for _, member := range staff {
		fmt.Printf("%d\t%s\t%s\n", member.ID, member.Name, member.Email)
	}
}

func configuredLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "opts-staff",
		Environment: cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		Format:      cfg.App.LogFormat,
	})
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
