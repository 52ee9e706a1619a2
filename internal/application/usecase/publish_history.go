package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/mangalakulal105/benchtrack/internal/application/dto"
	"github.com/mangalakulal105/benchtrack/internal/application/port"
	"github.com/mangalakulal105/benchtrack/internal/domain/repository"
	"github.com/mangalakulal105/benchtrack/pkg/logger"
)

const (
	documentJSONName = "data.json"
	documentJSName   = "data.js"

	contentTypeJSON = "application/json"
	contentTypeJS   = "application/javascript"
)

// PublishHistoryConfig controls where the rendered document is uploaded
type PublishHistoryConfig struct {
	KeyPrefix string
	RepoURL   string
}

// PublishHistoryResult describes the uploaded document renderings
type PublishHistoryResult struct {
	LastUpdate int64                    `json:"last_update"`
	Documents  []port.PublishedDocument `json:"documents"`
}

// PublishHistoryUseCase renders the full history into the dashboard
// document and uploads both the JSON and the script variants to the
// history store
type PublishHistoryUseCase struct {
	repository repository.RunRepository
	store      port.HistoryStore
	config     PublishHistoryConfig
	logger     *logger.Logger
}

// NewPublishHistoryUseCase creates a new use case
func NewPublishHistoryUseCase(
	repository repository.RunRepository,
	store port.HistoryStore,
	config PublishHistoryConfig,
	logger *logger.Logger,
) *PublishHistoryUseCase {
	return &PublishHistoryUseCase{
		repository: repository,
		store:      store,
		config:     config,
		logger:     logger,
	}
}

// Render builds the current history document without uploading it
func (uc *PublishHistoryUseCase) Render(ctx context.Context) (*dto.HistoryDocumentDTO, error) {
	history, err := uc.repository.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return dto.NewHistoryDocument(history, uc.config.RepoURL), nil
}

// Execute renders and uploads the history document
func (uc *PublishHistoryUseCase) Execute(ctx context.Context) (*PublishHistoryResult, error) {
	if uc.store == nil {
		return nil, fmt.Errorf("history store is not configured")
	}

	doc, err := uc.Render(ctx)
	if err != nil {
		return nil, err
	}

	jsonPayload, err := doc.MarshalStable()
	if err != nil {
		return nil, fmt.Errorf("failed to render document: %w", err)
	}

	jsPayload, err := doc.MarshalJS()
	if err != nil {
		return nil, fmt.Errorf("failed to render script document: %w", err)
	}

	result := &PublishHistoryResult{LastUpdate: doc.LastUpdate}

	uploads := []struct {
		name        string
		contentType string
		payload     []byte
	}{
		{documentJSONName, contentTypeJSON, jsonPayload},
		{documentJSName, contentTypeJS, jsPayload},
	}

	for _, upload := range uploads {
		key := uc.buildKey(upload.name)
		url, err := uc.store.PutDocument(ctx, key, upload.contentType, upload.payload)
		if err != nil {
			uc.logger.Error("Failed to upload history document", err, "key", key)
			return nil, fmt.Errorf("failed to upload %s: %w", upload.name, err)
		}

		result.Documents = append(result.Documents, port.PublishedDocument{
			Key:         key,
			URL:         url,
			ContentType: upload.contentType,
			SizeBytes:   int64(len(upload.payload)),
		})
	}

	uc.logger.Info("History document published",
		"last_update", doc.LastUpdate,
		"suites", len(doc.Entries),
		"bytes", len(jsonPayload))

	return result, nil
}

func (uc *PublishHistoryUseCase) buildKey(name string) string {
	prefix := strings.Trim(uc.config.KeyPrefix, "/")
	if prefix == "" {
		prefix = "benchmarks"
	}
	return prefix + "/" + name
}
