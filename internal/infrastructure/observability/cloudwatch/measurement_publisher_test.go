package cloudwatch

import (
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"github.com/mangalakulal105/benchtrack/internal/domain/valueobject"
)

func TestConvertToDatum(t *testing.T) {
	p := &MeasurementPublisher{
		namespace:         "Benchtrack/Test",
		storageResolution: 60,
		defaultDimensions: map[string]string{
			"Environment": "ci",
		},
	}

	recordedAt := time.Date(2026, 3, 1, 8, 30, 0, 0, time.UTC)
	datum := p.convertToDatum(bufferedDatum{
		suite:      "mount-latency",
		tool:       "benchmarkdotnet",
		commitID:   "48a1b2c",
		name:       "Mount.ColdStart",
		value:      12.5,
		unit:       valueobject.Milliseconds,
		recordedAt: recordedAt,
	})

	if datum.MetricName == nil || *datum.MetricName != "Mount.ColdStart" {
		t.Errorf("Expected MetricName=Mount.ColdStart, got %v", datum.MetricName)
	}
	if datum.Value == nil || *datum.Value != 12.5 {
		t.Errorf("Expected Value=12.5, got %v", datum.Value)
	}
	if datum.Unit != types.StandardUnitMilliseconds {
		t.Errorf("Expected unit milliseconds, got %v", datum.Unit)
	}
	if datum.Timestamp == nil || !datum.Timestamp.Equal(recordedAt) {
		t.Errorf("Expected Timestamp=%v, got %v", recordedAt, datum.Timestamp)
	}
	if datum.StorageResolution == nil || *datum.StorageResolution != 60 {
		t.Errorf("Expected StorageResolution=60, got %v", datum.StorageResolution)
	}

	foundSuite := false
	foundDefault := false
	for _, dimension := range datum.Dimensions {
		if dimension.Name != nil && *dimension.Name == "Suite" {
			foundSuite = true
			if dimension.Value == nil || *dimension.Value != "mount-latency" {
				t.Errorf("Expected Suite dimension=mount-latency, got %v", dimension.Value)
			}
		}
		if dimension.Name != nil && *dimension.Name == "Environment" {
			foundDefault = true
		}
	}
	if !foundSuite {
		t.Error("Expected Suite dimension")
	}
	if !foundDefault {
		t.Error("Expected default Environment dimension")
	}
}

func TestMapUnit(t *testing.T) {
	tests := []struct {
		unit     valueobject.Unit
		expected types.StandardUnit
	}{
		{valueobject.Seconds, types.StandardUnitSeconds},
		{valueobject.Milliseconds, types.StandardUnitMilliseconds},
		{valueobject.Microseconds, types.StandardUnitMicroseconds},
		{valueobject.Nanoseconds, types.StandardUnitNone},
		{valueobject.BytesPerSec, types.StandardUnitBytesSecond},
		{valueobject.OpsPerSec, types.StandardUnitCountSecond},
	}

	for _, tt := range tests {
		if got := mapUnit(tt.unit); got != tt.expected {
			t.Errorf("mapUnit(%s): expected %v, got %v", tt.unit, tt.expected, got)
		}
	}
}
