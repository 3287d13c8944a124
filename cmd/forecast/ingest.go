package main

import (
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/andresuchdata/budget-engine/backend-go/internal/cache"
	"github.com/andresuchdata/budget-engine/backend-go/internal/config"
	"github.com/andresuchdata/budget-engine/backend-go/internal/drive"
	"github.com/andresuchdata/budget-engine/backend-go/internal/pipeline"
	"github.com/andresuchdata/budget-engine/backend-go/internal/pipeline/movements"
	"github.com/andresuchdata/budget-engine/backend-go/internal/repository/postgres"
	"github.com/andresuchdata/budget-engine/backend-go/internal/storage"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
)

func ingestCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Load movement exports (CSV or XLSX) into the database",
		ArgsUsage: "[file ...]",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.StringFlag{
				Name:    "dir",
				Usage:   "Directory scanned for movement files",
				Value:   cfg.App.ImportDir,
				EnvVars: []string{"APP_IMPORT_DIR"},
			},
			&cli.BoolFlag{
				Name:  "bucket",
				Usage: "Also pull files from object storage under the import prefix",
			},
			&cli.StringFlag{
				Name:  "bucket-prefix",
				Usage: "Object storage prefix to pull from",
				Value: cfg.Storage.ImportPrefix,
			},
			&cli.BoolFlag{
				Name:  "drive",
				Usage: "Also pull new files from the configured Google Drive folder",
			},
			&cli.BoolFlag{
				Name:  "retry",
				Usage: "Retry file jobs that failed in earlier runs",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Files processed in parallel",
				Value: cfg.App.Workers,
			},
			&cli.StringFlag{
				Name:  "default-store",
				Usage: "Store name for files without one",
				Value: cfg.App.DefaultStore,
			},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			return runIngest(c, cfg)
		},
	}
}

func runIngest(c *cli.Context, cfg *config.Config) error {
	db, err := dbFrom(c)
	if err != nil {
		return err
	}
	ctx := c.Context

	pc := pipeline.DefaultPipelineConfig("movements")
	if w := c.Int("workers"); w > 0 {
		pc.WorkerCount = w
	}
	if cfg.App.BatchSize > 0 {
		pc.BatchRows = cfg.App.BatchSize
	}

	movementRepo := postgres.NewMovementRepository(db)
	runs := pipeline.NewRepository(db.DB)
	p := movements.New(movements.Config{DefaultStore: c.String("default-store")})

	if c.Bool("retry") {
		return pipeline.NewWorker(p, pc, runs, movementRepo).RetryFailed(ctx)
	}

	dir := c.String("dir")
	if c.Bool("bucket") {
		if err := pullFromBucket(ctx, cfg, c.String("bucket-prefix"), dir); err != nil {
			return err
		}
	}
	if c.Bool("drive") {
		if err := pullFromDrive(ctx, cfg, dir); err != nil {
			return err
		}
	}

	files := c.Args().Slice()
	if len(files) == 0 {
		files, err = scanDir(dir)
		if err != nil {
			return err
		}
	}
	if len(files) == 0 {
		fmt.Fprintf(c.App.Writer, "no movement files found in %s\n", dir)
		return nil
	}

	resultCache, err := cache.NewResultCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("result cache unavailable, cached results will expire on their own")
		resultCache = cache.NewNoopResultCache()
	}

	result, err := pipeline.NewOrchestrator(runs, movementRepo, pc).
		OnComplete(resultCache.InvalidateAll).
		Run(ctx, p, files)
	if result != nil {
		fmt.Fprintf(c.App.Writer, "runs: %d  files: %d  rows: %d\n", len(result.Runs), result.Files, result.Rows)
	}
	return err
}

func scanDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !movements.Supported(e.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

func pullFromBucket(ctx context.Context, cfg *config.Config, prefix, dir string) error {
	store, err := storage.NewMinioClient(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	objects, err := store.ListObjects(ctx, prefix)
	if err != nil {
		return err
	}
	for _, obj := range objects {
		if !movements.Supported(obj.Key) {
			continue
		}
		dest := filepath.Join(dir, path.Base(obj.Key))
		if err := store.DownloadObject(ctx, obj.Key, dest); err != nil {
			return err
		}
		log.Info().Str("key", obj.Key).Str("path", dest).Msg("downloaded movement file")
	}
	return nil
}

func pullFromDrive(ctx context.Context, cfg *config.Config, dir string) error {
	svc, err := drive.NewService(ctx, cfg.Drive.CredentialsJSON)
	if err != nil {
		return err
	}
	folderID, err := svc.FindFolderByPath(ctx, cfg.Drive.FolderPath)
	if err != nil {
		return err
	}
	paths, err := drive.NewDownloader(svc).Download(ctx, drive.DownloadOptions{FolderID: folderID, DownloadDir: dir})
	if err != nil {
		return err
	}
	log.Info().Int("files", len(paths)).Msg("downloaded files from drive")
	return nil
}

func runsCommand() *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "List recent ingest runs",
		Flags: []cli.Flag{
			newDBURLFlag(),
			&cli.IntFlag{Name: "limit", Value: 20},
		},
		Before: initDB,
		After:  closeDB,
		Action: func(c *cli.Context) error {
			db, err := dbFrom(c)
			if err != nil {
				return err
			}
			runs, err := pipeline.NewRepository(db.DB).RecentRuns(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tSTATUS\tFILES\tROWS\tSTARTED\tERROR")
			for _, r := range runs {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%d/%d\t%d\t%s\t%s\n",
					r.ID, r.Date.Format("2006-01-02"), r.Status, r.ProcessedFiles, r.TotalFiles,
					r.TotalRows, r.StartedAt.Format(time.RFC3339), r.ErrorMessage)
			}
			return tw.Flush()
		},
	}
}
