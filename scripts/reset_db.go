package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"wholesale-backend/internal/config"
	"wholesale-backend/internal/db"
)

// Transactional tables, children first
var transactionalTables = []string{
	"monthly_closings",
	"customer_ledger_entries",
	"return_records",
	"order_lines",
	"order_headers",
	"order_sequences",
	"stock_movements",
	"warehouse_stock",
}

var catalogTables = []string{
	"customer_order_limits",
	"items",
	"customers",
	"warehouses",
}

func main() {
	withCatalog := flag.Bool("catalog", false, "also clear customers, items and warehouses")
	yes := flag.Bool("yes", false, "skip the confirmation prompt")
	flag.Parse()

	fmt.Println("========================================")
	fmt.Println("   Reset Database for Testing")
	fmt.Println("========================================")
	fmt.Println()
	fmt.Println("WARNING: This will DELETE all orders, returns, stock and ledger data!")
	if *withCatalog {
		fmt.Println("         The catalog (customers, items, warehouses) is cleared too.")
	}
	fmt.Println()

	if !*yes {
		fmt.Print("Type 'yes' to confirm: ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" {
			fmt.Println("Reset cancelled.")
			return
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer pool.Close()

	fmt.Println()
	fmt.Println("Resetting database...")

	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v\n", err)
	}
	defer tx.Rollback(ctx)

	tables := transactionalTables
	if *withCatalog {
		tables = append(tables, catalogTables...)
	}
	for _, table := range tables {
		if _, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table)); err != nil {
			log.Fatalf("Failed to truncate %s: %v\n", table, err)
		}
		fmt.Printf("  - Cleared %s\n", table)
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit transaction: %v\n", err)
	}

	fmt.Println()
	fmt.Println("Database reset successful.")
}
