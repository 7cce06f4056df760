// Batch driver: ingests a directory of saved job pages straight into the
// store, without going through the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"jobdex/internal/config"
	"jobdex/internal/extractor"
	"jobdex/internal/logging"
	"jobdex/internal/storage"
)

func main() {
	var (
		dir        = flag.String("dir", ".", "directory containing saved job pages")
		configPath = flag.String("config", "configs/config.yaml", "path to the configuration file")
		template   = flag.String("template", "", "extraction template override (positional, labeled, auto)")
		deleteDone = flag.Bool("delete", false, "delete each page and its assets directory after a successful write")
	)
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *template != "" {
		cfg.Extractor.Template = *template
	}

	if err := logging.InitializeLogging(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Adapters); err != nil {
		log.Fatalf("Failed to initialize logging: %v", err)
	}
	defer logging.CloseLogging()

	logger := logging.GetGlobalLogger()

	ctx := context.Background()
	pool, err := storage.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer pool.Close()

	if err := storage.Migrate(ctx, pool); err != nil {
		logger.Fatal("Failed to apply database schema", map[string]interface{}{
			"error": err.Error(),
		})
	}

	store := storage.NewStore(pool, cfg.Database.QueryTimeout, logger)

	pages, err := filepath.Glob(filepath.Join(*dir, "*.html"))
	if err != nil {
		logger.Fatal("Failed to list saved pages", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Info("Batch ingestion starting", map[string]interface{}{
		"directory": *dir,
		"pages":     len(pages),
		"template":  cfg.Extractor.Template,
	})

	factory := extractor.NewFactory()
	var inserted, duplicates, failed int

	for _, page := range pages {
		outcome, err := ingestPage(ctx, factory, cfg.Extractor.Template, store, page)
		if err != nil {
			failed++
			logger.Error("Page ingestion failed", map[string]interface{}{
				"page":  page,
				"error": err.Error(),
			})
			continue
		}

		switch outcome {
		case storage.OutcomeAlreadyExists:
			duplicates++
		default:
			inserted++
		}

		logger.Info("Page ingested", map[string]interface{}{
			"page":    page,
			"outcome": outcome.String(),
		})

		if *deleteDone {
			removePage(logger, page)
		}
	}

	logger.Info("Batch ingestion complete", map[string]interface{}{
		"inserted":   inserted,
		"duplicates": duplicates,
		"failed":     failed,
	})

	fmt.Printf("ingested %d pages: %d inserted, %d duplicates, %d failed\n",
		len(pages), inserted, duplicates, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

func ingestPage(ctx context.Context, factory *extractor.Factory, template string, store *storage.Store, page string) (storage.Outcome, error) {
	data, err := os.ReadFile(page)
	if err != nil {
		return storage.OutcomeFailed, fmt.Errorf("read page: %w", err)
	}

	doc, err := extractor.Parse(string(data))
	if err != nil {
		return storage.OutcomeFailed, err
	}

	ex, err := factory.CreateExtractor(template)
	if err != nil {
		return storage.OutcomeFailed, err
	}

	record, err := ex.Extract(doc)
	if err != nil {
		return storage.OutcomeFailed, err
	}

	return store.WriteJob(ctx, record)
}

// removePage deletes a saved page and the browser's companion assets
// directory ("<name>_files") next to it.
func removePage(logger logging.Logger, page string) {
	if err := os.Remove(page); err != nil {
		logger.Warn("Failed to delete page", map[string]interface{}{
			"page":  page,
			"error": err.Error(),
		})
		return
	}

	assets := strings.TrimSuffix(page, filepath.Ext(page)) + "_files"
	if info, err := os.Stat(assets); err == nil && info.IsDir() {
		if err := os.RemoveAll(assets); err != nil {
			logger.Warn("Failed to delete assets directory", map[string]interface{}{
				"assets": assets,
				"error":  err.Error(),
			})
		}
	}
}
