package main

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"

	"github.com/bedehampo/banking-transaction-api/internal/config"
	"github.com/bedehampo/banking-transaction-api/internal/db"
	"github.com/bedehampo/banking-transaction-api/internal/models"
	"github.com/bedehampo/banking-transaction-api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if _, err := database.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (filename text primary key, applied_at timestamptz default now())`); err != nil {
		log.Fatalf("failed to ensure schema_migrations: %v", err)
	}

	files, err := filepath.Glob("migrations/*.sql")
	if err != nil {
		log.Fatalf("failed to read migrations: %v", err)
	}
	sort.Strings(files)

	for _, file := range files {
		filename := filepath.Base(file)
		var exists bool
		if err := database.Get(&exists, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE filename = $1)`, filename); err != nil {
			log.Fatalf("failed to read migration state: %v", err)
		}
		if exists {
			continue
		}
		if err := applyFile(database, file); err != nil {
			log.Fatalf("failed to apply %s: %v", filename, err)
		}
		if _, err := database.Exec(`INSERT INTO schema_migrations (filename) VALUES ($1)`, filename); err != nil {
			log.Fatalf("failed to record migration %s: %v", filename, err)
		}
		fmt.Printf("applied %s\n", filename)
	}

	if err := seedCurrencies(database); err != nil {
		log.Fatalf("failed to seed currencies: %v", err)
	}
}

// seedCurrencies loads the supported ISO 4217 reference rows. Upsert
// ignores codes that already exist, so reruns are safe.
func seedCurrencies(database *sqlx.DB) error {
	currencies := store.NewCurrencyStore(database)
	ctx := context.Background()
	for _, row := range []models.Currency{
		{Code: "NGN", Number: 566, Digits: 2, Currency: "Naira"},
		{Code: "USD", Number: 840, Digits: 2, Currency: "US Dollar"},
		{Code: "EUR", Number: 978, Digits: 2, Currency: "Euro"},
		{Code: "GBP", Number: 826, Digits: 2, Currency: "Pound Sterling"},
		{Code: "GHS", Number: 936, Digits: 2, Currency: "Ghana Cedi"},
		{Code: "KES", Number: 404, Digits: 2, Currency: "Kenyan Shilling"},
		{Code: "ZAR", Number: 710, Digits: 2, Currency: "Rand"},
		{Code: "CAD", Number: 124, Digits: 2, Currency: "Canadian Dollar"},
		{Code: "AUD", Number: 36, Digits: 2, Currency: "Australian Dollar"},
		{Code: "JPY", Number: 392, Digits: 0, Currency: "Yen"},
		{Code: "CNY", Number: 156, Digits: 2, Currency: "Yuan Renminbi"},
		{Code: "INR", Number: 356, Digits: 2, Currency: "Indian Rupee"},
	} {
		if err := currencies.Upsert(ctx, database, row); err != nil {
			return err
		}
	}
	return nil
}

func applyFile(db execer, path string) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	sections := strings.Split(string(content), "-- +migrate Down")
	if len(sections) == 0 {
		return nil
	}
	up := sections[0]
	for _, stmt := range splitSQL(up) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func splitSQL(sqlText string) []string {
	var statements []string
	var current strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(sqlText))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(strings.TrimSpace(line), "--") {
			continue
		}
		current.WriteString(line)
		current.WriteRune('\n')
		if strings.Contains(line, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}
