package cloudwatch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/mangalakulal105/benchtrack/internal/domain/entity"
	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

const (
	// CloudWatch limits
	maxMetricsPerRequest = 1000
	maxRetries           = 3
	initialBackoff       = 100 * time.Millisecond
)

// MeasurementPublisherConfig holds configuration for republishing benchmark
// measurements to CloudWatch.
type MeasurementPublisherConfig struct {
	Namespace         string            // CloudWatch namespace (e.g., "Benchtrack/Benchmarks")
	Region            string            // AWS region (e.g., "us-east-1")
	Endpoint          string            // Optional endpoint override (for LocalStack)
	AccessKeyID       string            // AWS access key
	SecretAccessKey   string            // AWS secret key
	DefaultDimensions map[string]string // Default dimensions added to all datapoints
	BufferSize        int               // Buffer size before auto-flush
	FlushInterval     time.Duration     // Automatic flush interval
	StorageResolution int32             // Storage resolution in seconds (1 or 60)
}

type bufferedDatum struct {
	suite      string
	tool       string
	commitID   string
	name       string
	value      float64
	unit       valueobject.Unit
	recordedAt time.Time
}

// MeasurementPublisher republishes benchmark measurements to AWS CloudWatch.
type MeasurementPublisher struct {
	client            *cloudwatch.Client
	namespace         string
	defaultDimensions map[string]string
	storageResolution int32

	buffer     []bufferedDatum
	bufferSize int
	mu         sync.Mutex

	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
}

// NewMeasurementPublisher creates a new CloudWatch measurement publisher.
func NewMeasurementPublisher(ctx context.Context, cfg MeasurementPublisherConfig) (*MeasurementPublisher, error) {
	if cfg.Namespace == "" {
		return nil, fmt.Errorf("namespace is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("region is required")
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 10 * time.Second
	}
	if cfg.StorageResolution != 1 && cfg.StorageResolution != 60 {
		cfg.StorageResolution = 60 // Default to standard resolution
	}

	awsCfg, err := buildAWSConfig(ctx, cfg.Region, cfg.Endpoint, cfg.AccessKeyID, cfg.SecretAccessKey)
	if err != nil {
		return nil, fmt.Errorf("failed to build AWS config: %w", err)
	}

	client := cloudwatch.NewFromConfig(awsCfg)

	p := &MeasurementPublisher{
		client:            client,
		namespace:         cfg.Namespace,
		defaultDimensions: cfg.DefaultDimensions,
		storageResolution: cfg.StorageResolution,
		buffer:            make([]bufferedDatum, 0, cfg.BufferSize),
		bufferSize:        cfg.BufferSize,
		flushTicker:       time.NewTicker(cfg.FlushInterval),
		stopCh:            make(chan struct{}),
	}

	p.wg.Add(1)
	go p.flushLoop()

	return p, nil
}

// PublishRun buffers every measurement of a run for batched publication.
func (p *MeasurementPublisher) PublishRun(ctx context.Context, run *entity.BenchmarkRun) error {
	if run == nil {
		return fmt.Errorf("run cannot be nil")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	for _, measurement := range run.Measurements() {
		p.buffer = append(p.buffer, bufferedDatum{
			suite:      run.Suite().String(),
			tool:       run.Tool(),
			commitID:   run.Commit().ShortID(),
			name:       measurement.Name(),
			value:      measurement.Value(),
			unit:       measurement.Unit(),
			recordedAt: run.RecordedAt(),
		})

		// Auto-flush if buffer is full
		if len(p.buffer) >= p.bufferSize {
			if err := p.flushBufferUnsafe(ctx); err != nil {
				return fmt.Errorf("failed to flush buffer: %w", err)
			}
		}
	}

	return nil
}

// Flush forces immediate publication of all buffered measurements.
func (p *MeasurementPublisher) Flush(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.flushBufferUnsafe(ctx)
}

// Close stops the background flush goroutine and flushes remaining data.
func (p *MeasurementPublisher) Close(ctx context.Context) error {
	close(p.stopCh)
	p.flushTicker.Stop()
	p.wg.Wait()

	return p.Flush(ctx)
}

// flushLoop runs in a background goroutine and flushes the buffer periodically.
func (p *MeasurementPublisher) flushLoop() {
	defer p.wg.Done()

	for {
		select {
		case <-p.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			if err := p.Flush(ctx); err != nil {
				// retry on next tick
				_ = err
			}
			cancel()
		case <-p.stopCh:
			return
		}
	}
}

// flushBufferUnsafe flushes the buffer without locking (caller must hold lock).
func (p *MeasurementPublisher) flushBufferUnsafe(ctx context.Context) error {
	if len(p.buffer) == 0 {
		return nil
	}

	data := make([]types.MetricDatum, 0, len(p.buffer))
	for _, datum := range p.buffer {
		data = append(data, p.convertToDatum(datum))
	}

	// Publish in chunks (CloudWatch limit: 1000 metrics/request)
	for i := 0; i < len(data); i += maxMetricsPerRequest {
		end := i + maxMetricsPerRequest
		if end > len(data) {
			end = len(data)
		}

		chunk := data[i:end]
		if err := p.publishBatchWithRetry(ctx, chunk); err != nil {
			return fmt.Errorf("failed to publish chunk: %w", err)
		}
	}

	p.buffer = p.buffer[:0]

	return nil
}

// publishBatchWithRetry publishes a batch of datapoints with exponential backoff retry.
func (p *MeasurementPublisher) publishBatchWithRetry(ctx context.Context, data []types.MetricDatum) error {
	var lastErr error
	backoff := initialBackoff

	for attempt := 0; attempt < maxRetries; attempt++ {
		input := &cloudwatch.PutMetricDataInput{
			Namespace:  aws.String(p.namespace),
			MetricData: data,
		}

		_, err := p.client.PutMetricData(ctx, input)
		if err == nil {
			return nil
		}

		lastErr = err

		if attempt < maxRetries-1 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}

	return fmt.Errorf("failed after %d retries: %w", maxRetries, lastErr)
}

// convertToDatum converts one buffered measurement to a CloudWatch MetricDatum.
func (p *MeasurementPublisher) convertToDatum(datum bufferedDatum) types.MetricDatum {
	dimensions := make([]types.Dimension, 0)

	for key, value := range p.defaultDimensions {
		dimensions = append(dimensions, types.Dimension{
			Name:  aws.String(key),
			Value: aws.String(value),
		})
	}

	dimensions = append(dimensions,
		types.Dimension{
			Name:  aws.String("Suite"),
			Value: aws.String(datum.suite),
		},
		types.Dimension{
			Name:  aws.String("Tool"),
			Value: aws.String(datum.tool),
		},
	)

	result := types.MetricDatum{
		MetricName: aws.String(datum.name),
		Value:      aws.Float64(datum.value),
		Unit:       mapUnit(datum.unit),
		Timestamp:  aws.Time(datum.recordedAt),
		Dimensions: dimensions,
	}

	if p.storageResolution > 0 {
		result.StorageResolution = aws.Int32(p.storageResolution)
	}

	return result
}

// mapUnit maps benchmark units to CloudWatch StandardUnit.
func mapUnit(unit valueobject.Unit) types.StandardUnit {
	switch unit {
	case valueobject.Seconds:
		return types.StandardUnitSeconds
	case valueobject.Milliseconds:
		return types.StandardUnitMilliseconds
	case valueobject.Microseconds:
		return types.StandardUnitMicroseconds
	case valueobject.BytesPerSec:
		return types.StandardUnitBytesSecond
	case valueobject.OpsPerSec:
		return types.StandardUnitCountSecond
	default:
		// nanoseconds have no StandardUnit mapping
		return types.StandardUnitNone
	}
}

// buildAWSConfig creates an AWS config with credentials.
func buildAWSConfig(ctx context.Context, region, endpoint, accessKeyID, secretAccessKey string) (aws.Config, error) {
	optFns := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}

	if accessKeyID != "" && secretAccessKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKeyID, secretAccessKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return aws.Config{}, err
	}

	// Override endpoint if specified (for LocalStack testing)
	if endpoint != "" {
		cfg.BaseEndpoint = aws.String(endpoint)
	}

	return cfg, nil
}
