package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/andresuchdata/stockcast/backend-go/internal/config"
	"github.com/andresuchdata/stockcast/backend-go/internal/domain"
	"github.com/andresuchdata/stockcast/backend-go/internal/forecast"
	"github.com/andresuchdata/stockcast/backend-go/internal/replenishment"
	"github.com/andresuchdata/stockcast/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/stockcast/backend-go/internal/service"
	"github.com/andresuchdata/stockcast/backend-go/internal/storage"
)

func runImport(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return fmt.Errorf("a sales file is required")
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var archive storage.ObjectStorage
	if c.Bool("archive") {
		client, err := newStorageClient(c)
		if err != nil {
			return err
		}
		archive = client
	}

	importer := service.NewSalesImportService(
		postgres.NewProductRepository(db),
		postgres.NewSalesRepository(db),
		archive,
		nil,
		nil,
	)
	result, err := importer.Import(c.Context, path, file)
	if err != nil {
		return err
	}

	for _, rowErr := range result.Errors {
		log.Printf("row %d (%s): %s\n", rowErr.Row, rowErr.ProductCode, rowErr.Error)
	}
	log.Println(result.Message)
	if result.Archived != "" {
		log.Printf("Archived as %s\n", result.Archived)
	}
	return nil
}

func runForecast(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	cfg := config.Load().Forecast

	products := postgres.NewProductRepository(db)
	found, err := products.GetByCodes(c.Context, []string{c.String("code")})
	if err != nil {
		return err
	}
	product, ok := found[c.String("code")]
	if !ok {
		return fmt.Errorf("%w: product %s", domain.ErrNotFound, c.String("code"))
	}

	svc := service.NewForecastService(
		products,
		postgres.NewSalesRepository(db),
		forecast.NewEngine(cfg.EngineConfig()),
		replenishment.NewCalculator(cfg.ReplenishmentConfig()),
		nil,
	)
	resp, err := svc.Forecast(c.Context, service.ForecastRequest{ProductID: product.ID, Periods: c.Int("periods")})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func runReport(c *cli.Context) error {
	db, err := dbFromContext(c)
	if err != nil {
		return err
	}
	cfg := config.Load().Forecast

	report := service.NewReorderReport(
		postgres.NewProductRepository(db),
		postgres.NewSalesRepository(db),
		replenishment.NewCalculator(cfg.ReplenishmentConfig()),
		c.Int("workers"),
	)
	rows, err := report.Build(c.Context)
	if err != nil {
		return err
	}
	for _, row := range rows {
		if row.Err != nil {
			log.Printf("skipping %s: %v\n", row.Product.Code, row.Err)
		}
	}

	var out io.Writer = os.Stdout
	if path := c.String("out"); path != "" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer file.Close()
		out = file
	}

	skipped, err := service.WriteCSV(out, rows)
	if err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	log.Printf("Reorder report written: %d products, %d skipped\n", len(rows)-skipped, skipped)
	return nil
}
