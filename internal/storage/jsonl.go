package storage

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"tokenMirror/internal/model"
)

// JsonlDeadLetter appends rejected events to a JSONL file.
type JsonlDeadLetter struct {
	path string
	mu   sync.Mutex
}

func NewJsonlDeadLetter(path string) *JsonlDeadLetter {
	return &JsonlDeadLetter{path: path}
}

// Put appends one record as a JSON line.
func (s *JsonlDeadLetter) Put(record model.DecodeError) error {
	if s == nil || s.path == "" {
		return nil
	}
	if record.RecordedAt == "" {
		record.RecordedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}

	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dead letter dir: %w", err)
		}
	}

	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal dead letter: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("open dead letter file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)
	if _, err := writer.Write(line); err != nil {
		return fmt.Errorf("write dead letter: %w", err)
	}
	if err := writer.WriteByte('\n'); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("flush dead letter: %w", err)
	}
	return nil
}
