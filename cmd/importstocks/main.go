package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"stockfolio/internal/catalog"
	"stockfolio/internal/store"
)

// One-shot import of a market-data snapshot CSV into the stocks table.
func main() {
	godotenv.Load()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is required")
	}
	driver := os.Getenv("STORAGE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}

	csvPath := "stock_info.csv"
	if len(os.Args) > 1 {
		csvPath = os.Args[1]
	}

	db, err := sqlx.Connect(driver, dbURL)
	if err != nil {
		log.Fatalf("failed to connect to db: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	if driver == "sqlite" {
		if err := store.InitSQLiteSchema(ctx, db); err != nil {
			log.Fatalf("schema init failed: %v", err)
		}
	}

	f, err := os.Open(csvPath)
	if err != nil {
		log.Fatalf("open %s: %v", csvPath, err)
	}
	defer f.Close()

	cat := catalog.New(db, logrus.New())
	n, err := cat.ReplaceFromCSV(ctx, f)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	fmt.Printf("Imported %d stocks from %s\n", n, csvPath)
}
