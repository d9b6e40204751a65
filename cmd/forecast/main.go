package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/andresuchdata/stockforecast/internal/cache"
	"github.com/andresuchdata/stockforecast/internal/config"
	"github.com/andresuchdata/stockforecast/internal/forecast"
	"github.com/andresuchdata/stockforecast/internal/repository/postgres"
	"github.com/andresuchdata/stockforecast/internal/service"
	"github.com/andresuchdata/stockforecast/internal/storage"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func newDBURLFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "db-url",
		Usage:    "Database connection string",
		Required: true,
		EnvVars:  []string{"DATABASE_URL"},
	}
}

// buildService wires repositories and the forecast engine the same way
// the server does, minus the HTTP layer.
func buildService(c *cli.Context) (*service.StockForecastService, *postgres.DB, error) {
	cfg := config.Load()

	db, err := postgres.NewDBFromURL("pgx", c.String("db-url"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	engine := forecast.NewService(cfg.Model.Path,
		forecast.WithLookbackDays(cfg.Model.LookbackDays),
		forecast.WithSeed(cfg.Model.Seed),
	)
	trainer := forecast.NewTrainer(orderRepo, forecast.TrainerConfig{
		LookbackDays:  cfg.Model.LookbackDays,
		SyntheticDays: cfg.Model.SyntheticDays,
		MinRealOrders: cfg.Model.MinRealOrders,
		Seed:          cfg.Model.Seed,
		Parallelism:   cfg.Model.TrainBatchSize,
	})

	var store storage.ObjectStorage
	if cfg.Storage.Enabled {
		store, err = storage.NewMinioClient(cfg.Storage)
		if err != nil {
			log.Printf("warning: object storage unavailable: %v", err)
			store = nil
		}
	}

	svc := service.NewStockForecastService(productRepo, orderRepo, engine, trainer, cache.NewNoopForecastCache(), store)
	return svc, db, nil
}

func runTrain(c *cli.Context) error {
	svc, db, err := buildService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	report, err := svc.Train(c.Context)
	if err != nil {
		return fmt.Errorf("training failed: %w", err)
	}

	fmt.Printf("trained on %d samples (train R2 %.4f, validation R2 %.4f)\n",
		report.Samples, report.TrainR2, report.ValidationR2)
	return nil
}

func runSynthesize(c *cli.Context) error {
	cfg := config.Load()

	db, err := postgres.NewDBFromURL("pgx", c.String("db-url"))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	productRepo := postgres.NewProductRepository(db)
	orderRepo := postgres.NewOrderRepository(db)

	products, err := productRepo.ListProducts(c.Context)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	days := c.Int("days")
	now := time.Now()
	since := now.AddDate(0, 0, -cfg.Model.LookbackDays)
	generated := 0

	for _, product := range products {
		count, err := orderRepo.CountAccepted(c.Context, product.ID, since)
		if err != nil {
			return fmt.Errorf("failed to count orders for product %d: %w", product.ID, err)
		}
		if count >= cfg.Model.MinRealOrders && !c.Bool("force") {
			continue
		}

		// Regenerate from scratch so repeated runs stay deterministic.
		if err := orderRepo.DeleteSynthetic(c.Context, product.ID); err != nil {
			return fmt.Errorf("failed to clear synthetic orders for product %d: %w", product.ID, err)
		}

		synth := forecast.NewSynthesizer(cfg.Model.Seed + product.ID)
		orders := synth.Generate(product, now, days)
		if len(orders) == 0 {
			continue
		}

		if err := orderRepo.InsertOrders(c.Context, orders); err != nil {
			return fmt.Errorf("failed to insert synthetic orders for product %d: %w", product.ID, err)
		}
		generated += len(orders)
	}

	fmt.Printf("generated %d synthetic orders across %d products\n", generated, len(products))
	return nil
}

func runEstimate(c *cli.Context) error {
	svc, db, err := buildService(c)
	if err != nil {
		return err
	}
	defer db.Close()

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if id := c.Int64("product-id"); id > 0 {
		result, err := svc.ProductForecast(c.Context, id)
		if err != nil {
			return fmt.Errorf("forecast failed: %w", err)
		}
		return enc.Encode(result)
	}

	results, err := svc.FleetStatus(c.Context)
	if err != nil {
		return fmt.Errorf("fleet status failed: %w", err)
	}
	return enc.Encode(results)
}

func main() {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("warning: could not load .env file: %v", err)
	}

	app := &cli.App{
		Name:  "forecast",
		Usage: "Train and query the stock depletion model",
		Commands: []*cli.Command{
			{
				Name:   "train",
				Usage:  "Build training samples from stored order history and fit a fresh model",
				Flags:  []cli.Flag{newDBURLFlag()},
				Action: runTrain,
			},
			{
				Name:  "synthesize",
				Usage: "Generate synthetic order history for products with sparse real data",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.IntFlag{
						Name:  "days",
						Usage: "Number of days of history to generate",
						Value: forecast.DefaultSyntheticDays,
					},
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Regenerate even for products with enough real orders",
						Value: false,
					},
				},
				Action: runSynthesize,
			},
			{
				Name:  "estimate",
				Usage: "Print the depletion forecast for one product, or all products",
				Flags: []cli.Flag{
					newDBURLFlag(),
					&cli.Int64Flag{
						Name:  "product-id",
						Usage: "Product to estimate; omit to estimate the whole catalog",
					},
				},
				Action: runEstimate,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
