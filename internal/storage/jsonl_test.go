package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReadAll_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	f.Close()

	entries, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadAll() returned %d entries, want 0", len(entries))
	}
}

func TestReadAll_NonExistentFile(t *testing.T) {
	entries, err := ReadAll("/nonexistent/path/cache.jsonl")
	if err != nil {
		t.Fatalf("ReadAll() error = %v (should return nil for nonexistent file)", err)
	}
	if len(entries) != 0 {
		t.Errorf("ReadAll() returned %v, want empty", entries)
	}
}

func TestReadAll_InvalidLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{broken\n"},
		{"missing endpoint", `{"key":"k","payload":{"a":1},"fetched_at":"2024-01-01T00:00:00Z"}` + "\n"},
		{"missing payload", `{"endpoint":"/api/stats","key":"","fetched_at":"2024-01-01T00:00:00Z"}` + "\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "cache.jsonl")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to write test file: %v", err)
			}
			if _, err := ReadAll(path); err == nil {
				t.Error("ReadAll() expected error")
			}
		})
	}
}

func TestWriteAllAppendRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.jsonl")
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	entries := []Entry{
		{Endpoint: "/api/stats", Payload: json.RawMessage(`{"total_webtoons":5}`), FetchedAt: at},
		{Endpoint: "/api/analysis/network", Key: CacheKey("로맨스", "0.2", "30"), Payload: json.RawMessage(`{"nodes":[]}`), FetchedAt: at},
	}
	if err := WriteAll(path, entries); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	extra := Entry{Endpoint: "/api/webtoons", Payload: json.RawMessage(`[]`), FetchedAt: at}
	if err := Append(path, extra); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	got, err := ReadAll(path)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("ReadAll() returned %d entries, want 3", len(got))
	}
	if got[1].Key != "로맨스|0.2|30" {
		t.Errorf("Key = %q, want %q", got[1].Key, "로맨스|0.2|30")
	}
	if !got[0].FetchedAt.Equal(at) {
		t.Errorf("FetchedAt = %v, want %v", got[0].FetchedAt, at)
	}
	if string(got[2].Payload) != "[]" {
		t.Errorf("Payload = %s, want []", got[2].Payload)
	}
}
