package dynamodb

import (
	"context"
	"crypto/sha1"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/mangalakulal105/benchtrack/internal/application/port"
)

const (
	defaultListLimit = 25
	maxListLimit     = 100

	attrPK           = "PK"
	attrSK           = "SK"
	attrRunID        = "run_id"
	attrSuite        = "suite"
	attrCommitID     = "commit_id"
	attrCommitURL    = "commit_url"
	attrTool         = "tool"
	attrBenchCount   = "bench_count"
	attrRecordedAt   = "recorded_at"
	attrLastModified = "last_modified"
)

type Config struct {
	TableName       string
	Region          string
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	StrongReads     bool
}

// RunIndexRepository implements port.RunIndex on a DynamoDB table keyed by
// suite with capture-time sort keys
type RunIndexRepository struct {
	client      *dynamodb.Client
	tableName   string
	strongReads bool
}

type cursorPayload struct {
	Suite  string                 `json:"suite"`
	FromMS int64                  `json:"from_ms,omitempty"`
	ToMS   int64                  `json:"to_ms,omitempty"`
	Key    map[string]cursorValue `json:"key"`
}

type cursorValue struct {
	S string `json:"s,omitempty"`
	N string `json:"n,omitempty"`
}

func NewRunIndexRepository(ctx context.Context, cfg Config) (*RunIndexRepository, error) {
	if strings.TrimSpace(cfg.TableName) == "" {
		return nil, fmt.Errorf("dynamodb table name is required")
	}

	if strings.TrimSpace(cfg.Region) == "" {
		cfg.Region = "us-east-1"
	}

	loadOptions := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	accessKeyID := strings.TrimSpace(cfg.AccessKeyID)
	secretAccessKey := strings.TrimSpace(cfg.SecretAccessKey)
	if accessKeyID != "" || secretAccessKey != "" {
		if accessKeyID == "" || secretAccessKey == "" {
			return nil, fmt.Errorf("both dynamodb access key id and secret access key are required for static credentials")
		}
		loadOptions = append(loadOptions, awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"",
		)))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws config for dynamodb: %w", err)
	}

	client := dynamodb.NewFromConfig(awsCfg, func(options *dynamodb.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			options.BaseEndpoint = &endpoint
		}
	})

	return &RunIndexRepository{
		client:      client,
		tableName:   strings.TrimSpace(cfg.TableName),
		strongReads: cfg.StrongReads,
	}, nil
}

// Put writes one run record to the index
func (r *RunIndexRepository) Put(ctx context.Context, record port.RunIndexRecord) error {
	item, err := r.toItem(record)
	if err != nil {
		return err
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("dynamodb put failed: %w", err)
	}

	return nil
}

// ListBySuite queries runs of a suite, newest first, with cursor pagination
func (r *RunIndexRepository) ListBySuite(
	ctx context.Context,
	query port.RunListQuery,
) (port.RunListPage, error) {
	suite := strings.TrimSpace(query.Suite)
	if suite == "" {
		return port.RunListPage{}, fmt.Errorf("suite is required")
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	fromMS, toMS, hasRange, err := normalizeTimeRange(query.From, query.To)
	if err != nil {
		return port.RunListPage{}, err
	}

	input := &dynamodb.QueryInput{
		TableName:                 &r.tableName,
		Limit:                     int32Pointer(int32(limit)),
		ScanIndexForward:          boolPointer(false),
		ConsistentRead:            boolPointer(r.strongReads),
		ExpressionAttributeNames:  map[string]string{"#pk": attrPK},
		ExpressionAttributeValues: map[string]types.AttributeValue{},
	}

	input.ExpressionAttributeValues[":pk"] = &types.AttributeValueMemberS{Value: buildPK(suite)}
	keyCondition := "#pk = :pk"
	if hasRange {
		input.ExpressionAttributeNames["#sk"] = attrSK
		input.ExpressionAttributeValues[":from"] = &types.AttributeValueMemberS{Value: buildSortLowerBound(fromMS)}
		input.ExpressionAttributeValues[":to"] = &types.AttributeValueMemberS{Value: buildSortUpperBound(toMS)}
		keyCondition += " AND #sk BETWEEN :from AND :to"
	}
	input.KeyConditionExpression = &keyCondition

	if strings.TrimSpace(query.Cursor) != "" {
		exclusiveStartKey, err := decodeCursor(query.Cursor, suite, fromMS, toMS)
		if err != nil {
			return port.RunListPage{}, err
		}
		input.ExclusiveStartKey = exclusiveStartKey
	}

	output, err := r.client.Query(ctx, input)
	if err != nil {
		return port.RunListPage{}, fmt.Errorf("dynamodb query failed: %w", err)
	}

	items := make([]port.RunIndexRecord, 0, len(output.Items))
	for _, raw := range output.Items {
		item, err := fromItem(raw)
		if err != nil {
			return port.RunListPage{}, err
		}
		items = append(items, item)
	}

	nextCursor := ""
	if len(output.LastEvaluatedKey) > 0 {
		nextCursor, err = encodeCursor(output.LastEvaluatedKey, suite, fromMS, toMS)
		if err != nil {
			return port.RunListPage{}, err
		}
	}

	return port.RunListPage{
		Items:      items,
		NextCursor: nextCursor,
	}, nil
}

func (r *RunIndexRepository) toItem(record port.RunIndexRecord) (map[string]types.AttributeValue, error) {
	suite := strings.TrimSpace(record.Suite)
	runID := strings.TrimSpace(record.RunID)
	if suite == "" {
		return nil, fmt.Errorf("suite is required")
	}
	if runID == "" {
		return nil, fmt.Errorf("run_id is required")
	}
	if strings.TrimSpace(record.CommitID) == "" {
		return nil, fmt.Errorf("commit_id is required")
	}

	recordedAt := record.RecordedAt.UTC()
	if recordedAt.IsZero() {
		recordedAt = time.Now().UTC()
	}

	lastModified := record.LastModified.UTC()
	if lastModified.IsZero() {
		lastModified = recordedAt
	}

	recordedAtMS := recordedAt.UnixMilli()

	item := map[string]types.AttributeValue{
		attrPK:           &types.AttributeValueMemberS{Value: buildPK(suite)},
		attrSK:           &types.AttributeValueMemberS{Value: buildSK(recordedAtMS, runID)},
		attrRunID:        &types.AttributeValueMemberS{Value: runID},
		attrSuite:        &types.AttributeValueMemberS{Value: suite},
		attrCommitID:     &types.AttributeValueMemberS{Value: record.CommitID},
		attrTool:         &types.AttributeValueMemberS{Value: record.Tool},
		attrBenchCount:   &types.AttributeValueMemberN{Value: strconv.Itoa(record.BenchCount)},
		attrRecordedAt:   &types.AttributeValueMemberN{Value: strconv.FormatInt(recordedAtMS, 10)},
		attrLastModified: &types.AttributeValueMemberN{Value: strconv.FormatInt(lastModified.UnixMilli(), 10)},
	}

	if url := strings.TrimSpace(record.CommitURL); url != "" {
		item[attrCommitURL] = &types.AttributeValueMemberS{Value: url}
	}

	return item, nil
}

func fromItem(item map[string]types.AttributeValue) (port.RunIndexRecord, error) {
	runID, err := attrStringValue(item, attrRunID)
	if err != nil {
		return port.RunIndexRecord{}, err
	}
	suite, err := attrStringValue(item, attrSuite)
	if err != nil {
		return port.RunIndexRecord{}, err
	}
	commitID, err := attrStringValue(item, attrCommitID)
	if err != nil {
		return port.RunIndexRecord{}, err
	}

	recordedAtMS, err := attrInt64Value(item, attrRecordedAt)
	if err != nil {
		return port.RunIndexRecord{}, err
	}
	lastModifiedMS, err := attrInt64Value(item, attrLastModified)
	if err != nil {
		return port.RunIndexRecord{}, err
	}

	return port.RunIndexRecord{
		RunID:        runID,
		Suite:        suite,
		CommitID:     commitID,
		CommitURL:    optionalStringValue(item, attrCommitURL),
		Tool:         optionalStringValue(item, attrTool),
		BenchCount:   int(optionalInt64Value(item, attrBenchCount)),
		RecordedAt:   time.UnixMilli(recordedAtMS).UTC(),
		LastModified: time.UnixMilli(lastModifiedMS).UTC(),
	}, nil
}

func normalizeTimeRange(from, to time.Time) (int64, int64, bool, error) {
	from = from.UTC()
	to = to.UTC()
	if from.IsZero() && to.IsZero() {
		return 0, math.MaxInt64, false, nil
	}

	fromMS := int64(0)
	toMS := int64(math.MaxInt64)
	if !from.IsZero() {
		fromMS = from.UnixMilli()
	}
	if !to.IsZero() {
		toMS = to.UnixMilli()
	}

	if fromMS > toMS {
		return 0, 0, false, fmt.Errorf("from must be less than or equal to to")
	}

	return fromMS, toMS, true, nil
}

func buildPK(suite string) string {
	return "SUITE#" + suite
}

func buildSK(recordedAtMS int64, runID string) string {
	return fmt.Sprintf("TS#%013d#RUN#%s", recordedAtMS, objectHash(runID))
}

func buildSortLowerBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#", tsMS)
}

func buildSortUpperBound(tsMS int64) string {
	return fmt.Sprintf("TS#%013d#~", tsMS)
}

func objectHash(key string) string {
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:8])
}

func encodeCursor(
	key map[string]types.AttributeValue,
	suite string,
	fromMS, toMS int64,
) (string, error) {
	values := make(map[string]cursorValue, len(key))
	for attributeName, raw := range key {
		switch value := raw.(type) {
		case *types.AttributeValueMemberS:
			values[attributeName] = cursorValue{S: value.Value}
		case *types.AttributeValueMemberN:
			values[attributeName] = cursorValue{N: value.Value}
		default:
			return "", fmt.Errorf("unsupported cursor attribute type for %s", attributeName)
		}
	}

	payload := cursorPayload{
		Suite:  suite,
		FromMS: fromMS,
		ToMS:   toMS,
		Key:    values,
	}

	serialized, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal cursor: %w", err)
	}

	return base64.RawURLEncoding.EncodeToString(serialized), nil
}

func decodeCursor(
	cursor string,
	suite string,
	fromMS, toMS int64,
) (map[string]types.AttributeValue, error) {
	raw, err := base64.RawURLEncoding.DecodeString(cursor)
	if err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	var payload cursorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("invalid cursor")
	}

	if payload.Suite != suite || payload.FromMS != fromMS || payload.ToMS != toMS {
		return nil, fmt.Errorf("cursor does not match query filters")
	}

	key := make(map[string]types.AttributeValue, len(payload.Key))
	for attributeName, value := range payload.Key {
		if value.S != "" {
			key[attributeName] = &types.AttributeValueMemberS{Value: value.S}
			continue
		}
		if value.N != "" {
			key[attributeName] = &types.AttributeValueMemberN{Value: value.N}
			continue
		}
		return nil, fmt.Errorf("invalid cursor")
	}

	return key, nil
}

func attrStringValue(item map[string]types.AttributeValue, name string) (string, error) {
	raw, ok := item[name]
	if !ok {
		return "", fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok || strings.TrimSpace(value.Value) == "" {
		return "", fmt.Errorf("invalid attribute %s", name)
	}
	return value.Value, nil
}

func optionalStringValue(item map[string]types.AttributeValue, name string) string {
	raw, ok := item[name]
	if !ok {
		return ""
	}
	value, ok := raw.(*types.AttributeValueMemberS)
	if !ok {
		return ""
	}
	return value.Value
}

func attrInt64Value(item map[string]types.AttributeValue, name string) (int64, error) {
	raw, ok := item[name]
	if !ok {
		return 0, fmt.Errorf("missing attribute %s", name)
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("invalid attribute %s", name)
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid attribute %s: %w", name, err)
	}
	return parsed, nil
}

func optionalInt64Value(item map[string]types.AttributeValue, name string) int64 {
	raw, ok := item[name]
	if !ok {
		return 0
	}
	value, ok := raw.(*types.AttributeValueMemberN)
	if !ok {
		return 0
	}
	parsed, err := strconv.ParseInt(value.Value, 10, 64)
	if err != nil {
		return 0
	}
	return parsed
}

func boolPointer(v bool) *bool {
	return &v
}

func int32Pointer(v int32) *int32 {
	return &v
}
