package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"

	"partner-subscription-platform/internal/config"
	"partner-subscription-platform/internal/domain/model"
	pg "partner-subscription-platform/internal/infra/db/postgres"
)

// Seeds the schema and a small plan catalog for local development.
func main() {
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	schemaPath := flag.String("schema", "deploy/postgres/init.sql", "path to the schema DDL file")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, false)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 4)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer pool.Close()

	schema, err := os.ReadFile(*schemaPath)
	if err != nil {
		log.Fatalf("read schema: %v", err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		log.Fatalf("create schema: %v", err)
	}

	planRepo := pg.NewPlanRepo(pool)

	// If plans already exist, do nothing
	plans, err := planRepo.ListActive(ctx, nil)
	if err != nil {
		log.Fatalf("list plans: %v", err)
	}
	if len(plans) > 0 {
		fmt.Printf("%d plans already present. No changes.\n", len(plans))
		for _, p := range plans {
			fmt.Printf("  - %s (%s, %s)\n", p.Name, p.Interval, model.FormatAmount(p.PriceCents, p.Currency))
		}
		return
	}

	seed := []struct {
		Name     string
		Cents    int64
		Interval model.BillingInterval
	}{
		{"Basic Monthly", 999, model.BillingIntervalMonthly},
		{"Pro Monthly", 2499, model.BillingIntervalMonthly},
		{"Pro Yearly", 24900, model.BillingIntervalYearly},
	}

	for _, s := range seed {
		p, err := model.NewPlan(uuid.NewString(), s.Name, s.Cents, cfg.Payment.Currency, s.Interval)
		if err != nil {
			log.Fatalf("build plan %s: %v", s.Name, err)
		}
		if err := planRepo.Save(ctx, nil, p); err != nil {
			log.Fatalf("save plan %s: %v", s.Name, err)
		}
		fmt.Printf("seeded plan %s (%s)\n", p.Name, model.FormatAmount(p.PriceCents, p.Currency))
	}
}
