package main

import (
	"bytes"
	"context"
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/usecase"
	"github.com/mangalakulal105/benchtrack/internal/infrastructure/persistence/postgres"
	s3storage "github.com/mangalakulal105/benchtrack/internal/infrastructure/storage/s3"
	"github.com/mangalakulal105/benchtrack/pkg/config"
	"github.com/mangalakulal105/benchtrack/pkg/logger"

	_ "github.com/lib/pq"
)

// benchtrack-export renders the accumulated benchmark history into the
// data.json / data.js artifacts consumed by the static dashboard. By
// default the files are written to a local directory; with -publish
// they are uploaded to the configured object store instead.
func main() {
	var (
		outDir  = flag.String("out", "dist", "directory to write data.json and data.js into")
		publish = flag.Bool("publish", false, "upload the artifacts to the object store instead of writing files")
		jsOnly  = flag.Bool("js-only", false, "write only the data.js artifact")
		verify  = flag.Bool("verify", false, "parse each written artifact back and re-render it to confirm a byte-identical round trip")
		timeout = flag.Duration("timeout", 2*time.Minute, "overall execution timeout")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(os.Getenv("LOG_LEVEL"))

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Error("Failed to connect to database", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping database", err)
		os.Exit(1)
	}

	runRepository := postgres.NewPostgresRunRepository(db)

	var publishUC *usecase.PublishHistoryUseCase
	if *publish {
		if !cfg.S3.Enabled {
			log.Error("Object store publication requested but S3 is not configured", fmt.Errorf("set S3_ENABLED=true"))
			os.Exit(1)
		}

		store, initErr := s3storage.NewHistoryStore(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if initErr != nil {
			log.Error("Failed to initialize history store", initErr)
			os.Exit(1)
		}

		publishUC = usecase.NewPublishHistoryUseCase(runRepository, store, usecase.PublishHistoryConfig{
			KeyPrefix: cfg.Benchmarks.KeyPrefix,
			RepoURL:   cfg.Benchmarks.RepoURL,
		}, log)
	} else {
		publishUC = usecase.NewPublishHistoryUseCase(runRepository, nil, usecase.PublishHistoryConfig{
			KeyPrefix: cfg.Benchmarks.KeyPrefix,
			RepoURL:   cfg.Benchmarks.RepoURL,
		}, log)
	}

	if *publish {
		result, err := publishUC.Execute(ctx)
		if err != nil {
			log.Error("Failed to publish history document", err)
			os.Exit(1)
		}

		for _, doc := range result.Documents {
			fmt.Printf("Published %s (%d bytes): %s\n", doc.Key, doc.SizeBytes, doc.URL)
		}
		return
	}

	doc, err := publishUC.Render(ctx)
	if err != nil {
		log.Error("Failed to render history document", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Error("Failed to create output directory", err)
		os.Exit(1)
	}

	script, err := doc.MarshalJS()
	if err != nil {
		log.Error("Failed to render data.js", err)
		os.Exit(1)
	}

	scriptPath := filepath.Join(*outDir, "data.js")
	if err := os.WriteFile(scriptPath, script, 0o644); err != nil {
		log.Error("Failed to write data.js", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", scriptPath, len(script))

	if *verify {
		if err := verifyRoundTrip(script, true); err != nil {
			log.Error("data.js round-trip verification failed", err)
			os.Exit(1)
		}
	}

	if *jsOnly {
		return
	}

	payload, err := doc.MarshalStable()
	if err != nil {
		log.Error("Failed to render data.json", err)
		os.Exit(1)
	}

	documentPath := filepath.Join(*outDir, "data.json")
	if err := os.WriteFile(documentPath, payload, 0o644); err != nil {
		log.Error("Failed to write data.json", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", documentPath, len(payload))

	if *verify {
		if err := verifyRoundTrip(payload, false); err != nil {
			log.Error("data.json round-trip verification failed", err)
			os.Exit(1)
		}
	}
}

// verifyRoundTrip parses a written artifact back and re-renders it,
// requiring the second rendering to reproduce the original bytes.
func verifyRoundTrip(artifact []byte, script bool) error {
	parsed, err := dto.ParseHistoryDocument(artifact)
	if err != nil {
		return fmt.Errorf("failed to parse artifact: %w", err)
	}

	var got []byte
	if script {
		got, err = parsed.MarshalJS()
	} else {
		got, err = parsed.MarshalStable()
	}
	if err != nil {
		return fmt.Errorf("failed to re-render artifact: %w", err)
	}

	if !bytes.Equal(got, artifact) {
		return fmt.Errorf("re-rendered artifact differs from the written one (%d vs %d bytes)", len(got), len(artifact))
	}
	return nil
}
