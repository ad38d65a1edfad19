package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/denisok6893-rgb/lokao-advisor/internal/domain"
)

// EventLog appends audit events to a newline-delimited JSON file.
type EventLog struct {
	path string
	mu   sync.Mutex
}

func NewEventLog(path string) *EventLog { return &EventLog{path: path} }

func (l *EventLog) Append(ev domain.AuditEvent) error {
	line, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open event log: %w", err)
	}
	if _, err := f.Write(line); err != nil {
		_ = f.Close()
		return fmt.Errorf("append event: %w", err)
	}
	return f.Close()
}
