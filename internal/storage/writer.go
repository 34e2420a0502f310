package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/qepting91/burneddit/internal/domain"
)

// AuditWriter appends disposition records to a file as NDJSON.
type AuditWriter struct {
	FilePath string

	mu  sync.Mutex
	f   *os.File
	enc *json.Encoder
}

// OpenAudit opens (or creates) path for appending.
func OpenAudit(path string) (*AuditWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("open audit file: %w", err)
	}
	return &AuditWriter{FilePath: path, f: f, enc: json.NewEncoder(f)}, nil
}

func (w *AuditWriter) Write(rec domain.Record) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	// Write as NDJSON
	return w.enc.Encode(rec)
}

func (w *AuditWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}
