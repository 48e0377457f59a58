// Package documents stores uploaded files in the outputs directory, keeps a
// CSV event log, and runs text extraction through the extractor service and
// the extraction agent.
package documents

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("document not found")
	ErrBadFilename = errors.New("invalid filename")
)

// Event is one row of the document event log.
type Event struct {
	Timestamp string `json:"timestamp"`
	Action    string `json:"action"`
	Filename  string `json:"filename"`
	UserID    string `json:"userId"`
	Detail    string `json:"detail"`
}

// Service owns the outputs directory. All filenames are flattened to their
// base name so uploads cannot escape the directory.
type Service struct {
	mu        sync.Mutex
	dir       string
	logPath   string
	extractor *ExtractorClient
}

const eventLogName = "document_events_log.csv"

func NewService(dir string, extractor *ExtractorClient) (*Service, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure outputs dir: %w", err)
	}
	return &Service{
		dir:       dir,
		logPath:   filepath.Join(dir, eventLogName),
		extractor: extractor,
	}, nil
}

// SaveUpload writes the uploaded file and logs the event.
func (s *Service) SaveUpload(filename, userID, description string, r io.Reader) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("save upload: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("write upload: %w", err)
	}
	log.Printf("[documents] uploaded %s (user %s)", name, userID)
	s.logEvent("upload", name, userID, description)
	return name, nil
}

// Path resolves a stored document, or ErrNotFound.
func (s *Service) Path(filename string) (string, error) {
	name, err := cleanName(filename)
	if err != nil {
		return "", err
	}
	path := filepath.Join(s.dir, name)
	if _, err := os.Stat(path); err != nil {
		return "", ErrNotFound
	}
	return path, nil
}

// List names every stored document, the event log excluded.
func (s *Service) List() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list outputs dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || e.Name() == eventLogName {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes a stored document and logs the event.
func (s *Service) Delete(filename, userID string) error {
	path, err := s.Path(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	s.logEvent("delete", filepath.Base(path), userID, "")
	return nil
}

// logEvent appends one CSV row; failures are logged, never fatal.
func (s *Service) logEvent(action, filename, userID, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fresh := false
	if _, err := os.Stat(s.logPath); err != nil {
		fresh = true
	}
	f, err := os.OpenFile(s.logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[documents] open event log: %v", err)
		return
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if fresh {
		_ = w.Write([]string{"timestamp", "action", "filename", "user_id", "detail"})
	}
	_ = w.Write([]string{time.Now().Format(time.RFC3339), action, filename, userID, detail})
	w.Flush()
	if err := w.Error(); err != nil {
		log.Printf("[documents] write event log: %v", err)
	}
}

// EventLog reads back the full event history. A missing log is an empty
// history, not an error.
func (s *Service) EventLog() ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.logPath)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("open event log: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read event log: %w", err)
	}
	events := []Event{}
	for i, row := range rows {
		if i == 0 || len(row) < 5 {
			continue
		}
		events = append(events, Event{
			Timestamp: row[0],
			Action:    row[1],
			Filename:  row[2],
			UserID:    row[3],
			Detail:    row[4],
		})
	}
	return events, nil
}

func cleanName(filename string) (string, error) {
	name := filepath.Base(strings.TrimSpace(filename))
	if name == "" || name == "." || name == ".." || name == eventLogName {
		return "", ErrBadFilename
	}
	return name, nil
}
