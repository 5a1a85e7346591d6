package main

import (
	"context"
	"fmt"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/backend-go/internal/config"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/backend-go/pkg/logger"
)

type dbKey struct{}

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "db-url",
		Usage:   "Database connection string (defaults to the DB_* settings)",
		EnvVars: []string{"DATABASE_URL"},
	}
}

func storageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "storage-endpoint", Usage: "S3-compatible endpoint", EnvVars: []string{"STORAGE_ENDPOINT"}},
		&cli.StringFlag{Name: "storage-access-key", Usage: "Storage access key", EnvVars: []string{"STORAGE_ACCESS_KEY"}},
		&cli.StringFlag{Name: "storage-secret-key", Usage: "Storage secret key", EnvVars: []string{"STORAGE_SECRET_KEY"}},
		&cli.StringFlag{Name: "storage-bucket", Usage: "Bucket holding archived uploads", Value: "stockcast", EnvVars: []string{"STORAGE_BUCKET"}},
		&cli.StringFlag{Name: "storage-region", Usage: "Bucket region", Value: "us-east-1", EnvVars: []string{"STORAGE_REGION"}},
		&cli.BoolFlag{Name: "storage-use-ssl", Usage: "Use HTTPS for the storage endpoint", EnvVars: []string{"STORAGE_USE_SSL"}},
	}
}

func initDB(c *cli.Context) error {
	url := c.String("db-url")
	if url == "" {
		url = config.Load().Database.URL()
	}

	// The CLI talks to Postgres through the pgx stdlib driver
	db, err := postgres.Open("pgx", url, config.Load().Database.MaxConcurrency)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	c.Context = context.WithValue(c.Context, dbKey{}, db)
	return nil
}

func closeDB(c *cli.Context) error {
	if db, ok := c.Context.Value(dbKey{}).(*postgres.DB); ok && db != nil {
		return db.Close()
	}
	return nil
}

func dbFromContext(c *cli.Context) (*postgres.DB, error) {
	db, ok := c.Context.Value(dbKey{}).(*postgres.DB)
	if !ok || db == nil {
		return nil, fmt.Errorf("database connection not initialized")
	}
	return db, nil
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}
	cfg := config.Load()
	logger.Configure(cfg.Server.Mode, cfg.Server.LogLevel)

	app := &cli.App{
		Name:  "seed",
		Usage: "Operate the stockcast database: schema, mock data, imports and reports",
		Flags: []cli.Flag{
			newDBURLFlag(),
		},
		Commands: []*cli.Command{
			{
				Name:   "migrate",
				Usage:  "Create the tables and indexes",
				Before: initDB,
				After:  closeDB,
				Action: runMigrate,
			},
			{
				Name:  "mock",
				Usage: "Insert the liquor catalogue with synthetic daily sales",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "days", Usage: "Days of sales history to generate", Value: 365},
					&cli.Int64Flag{Name: "seed", Usage: "Random seed", Value: 42},
				},
				Before: initDB,
				After:  closeDB,
				Action: runMock,
			},
			{
				Name:      "import",
				Usage:     "Import a CSV or XLSX sales file",
				ArgsUsage: "<file>",
				Flags:     append(storageFlags(), &cli.BoolFlag{Name: "archive", Usage: "Archive the file to object storage"}),
				Before:    initDB,
				After:     closeDB,
				Action:    runImport,
			},
			{
				Name:  "forecast",
				Usage: "Print the demand forecast and replenishment metrics for a product",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "code", Usage: "Product code", Required: true},
					&cli.IntFlag{Name: "periods", Usage: "Forecast horizon in days", Value: cfg.Forecast.DefaultPeriods},
				},
				Before: initDB,
				After:  closeDB,
				Action: runForecast,
			},
			{
				Name:  "report",
				Usage: "Write the reorder report for every product as CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Usage: "Output file (stdout when empty)"},
					&cli.IntFlag{Name: "workers", Usage: "Concurrent product workers", Value: cfg.Forecast.ReportWorkers},
				},
				Before: initDB,
				After:  closeDB,
				Action: runReport,
			},
			{
				Name:  "uploads",
				Usage: "List archived sales uploads, optionally downloading them",
				Flags: append(storageFlags(),
					&cli.StringFlag{Name: "prefix", Usage: "Key prefix to list", Value: uploadsPrefix},
					&cli.StringFlag{Name: "download-dir", Usage: "Download the listed uploads into this directory"},
				),
				Action: runUploads,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func runMigrate(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	if err := db.Migrate(c.Context); err != nil {
		return err
	}
	log.Println("Schema is up to date")
	return nil
}
