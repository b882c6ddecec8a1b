// Package storage caches backend payloads and node positions in SQLite, with
// JSONL export and import.
package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// MaxJSONLLineCapacity is the maximum buffer size for reading JSONL lines (16MB per line).
const MaxJSONLLineCapacity = 16 * 1024 * 1024

// Entry is one cached backend payload.
type Entry struct {
	Endpoint  string          `json:"endpoint"`
	Key       string          `json:"key"`
	Payload   json.RawMessage `json:"payload"`
	FetchedAt time.Time       `json:"fetched_at"`
}

// Validate checks that an entry can be stored.
func (e Entry) Validate() error {
	if e.Endpoint == "" {
		return fmt.Errorf("entry has no endpoint")
	}
	if !json.Valid(e.Payload) {
		return fmt.Errorf("entry %s/%s has invalid JSON payload", e.Endpoint, e.Key)
	}
	return nil
}

// CacheKey joins request parameters into a stable key.
func CacheKey(parts ...string) string {
	return strings.Join(parts, "|")
}

// ReadAll reads all entries from a JSONL file.
func ReadAll(path string) ([]Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil // Empty file returns empty slice
		}
		return nil, fmt.Errorf("opening cache file: %w", err)
	}
	defer f.Close()

	var entries []Entry
	scanner := bufio.NewScanner(f)

	// Increase buffer size for long lines
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, MaxJSONLLineCapacity)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue // Skip empty lines
		}

		var e Entry
		if err := json.Unmarshal(line, &e); err != nil {
			return nil, fmt.Errorf("parsing line %d: %w", lineNum, err)
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("invalid entry at line %d: %w", lineNum, err)
		}
		entries = append(entries, e)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading cache file: %w", err)
	}

	return entries, nil
}

func writeEntryJSONL(w io.Writer, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("writing entry: %w", err)
	}
	if _, err := w.Write([]byte("\n")); err != nil {
		return fmt.Errorf("writing newline: %w", err)
	}
	return nil
}

// Append adds an entry to the end of a JSONL file.
func Append(path string, e Entry) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening cache file for append: %w", err)
	}
	defer f.Close()
	return writeEntryJSONL(f, e)
}

// WriteAll writes all entries to a JSONL file, replacing existing content.
func WriteAll(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating cache file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for i, e := range entries {
		if err := writeEntryJSONL(w, e); err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return w.Flush()
}
