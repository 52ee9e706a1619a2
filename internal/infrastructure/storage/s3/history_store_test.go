package s3

import (
	"context"
	"testing"
)

func TestNewHistoryStore_Validation(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
	}{
		{"missing bucket", Config{AccessKeyID: "key", SecretAccessKey: "secret"}},
		{"missing credentials", Config{Bucket: "bench-artifacts"}},
		{"bad url mode", Config{Bucket: "bench-artifacts", AccessKeyID: "key", SecretAccessKey: "secret", URLMode: URLMode("signed-maybe")}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewHistoryStore(context.Background(), tc.cfg); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestPublicURL(t *testing.T) {
	tests := []struct {
		name  string
		store HistoryStore
		key   string
		want  string
	}{
		{
			name:  "aws default",
			store: HistoryStore{bucket: "bench-artifacts"},
			key:   "benchmarks/data.json",
			want:  "https://bench-artifacts.s3.amazonaws.com/benchmarks/data.json",
		},
		{
			name:  "path style endpoint",
			store: HistoryStore{bucket: "bench-artifacts", endpoint: "http://localhost:9000", usePathStyle: true},
			key:   "benchmarks/data.js",
			want:  "http://localhost:9000/bench-artifacts/benchmarks/data.js",
		},
		{
			name:  "virtual host endpoint",
			store: HistoryStore{bucket: "bench-artifacts", endpoint: "https://storage.example.com"},
			key:   "benchmarks/data.json",
			want:  "https://bench-artifacts.storage.example.com/benchmarks/data.json",
		},
		{
			name:  "key escaping",
			store: HistoryStore{bucket: "bench-artifacts"},
			key:   "bench marks/data.json",
			want:  "https://bench-artifacts.s3.amazonaws.com/bench%20marks/data.json",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.store.publicURL(tc.key); got != tc.want {
				t.Fatalf("publicURL() = %q, want %q", got, tc.want)
			}
		})
	}
}
