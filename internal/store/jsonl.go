package store

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LISSConsulting/LISSTech.AgentDesk/internal/session"
)

// JSONL is a Store backed by an append-only JSONL file. Each line is a
// JSON-serialized Record. The file is synced after every Append so a killed
// process loses at most the line being written.
//
// Session identity: "<unix-timestamp>-<pid>.jsonl", which sorts
// chronologically.
type JSONL struct {
	file      *os.File
	mu        sync.Mutex
	idx       fileIndex
	sessionID string
	startedAt time.Time
	seq       int64
}

// NewJSONL creates (or reopens) the session JSONL log in dir. dir is created
// with os.MkdirAll if it does not exist.
func NewJSONL(dir string) (*JSONL, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("store: mkdir %q: %w", dir, err)
	}
	now := time.Now()
	sessionID := fmt.Sprintf("%d-%d", now.Unix(), os.Getpid())
	path := filepath.Join(dir, sessionID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	return &JSONL{
		file:      f,
		sessionID: sessionID,
		startedAt: now,
	}, nil
}

// Path returns the file backing this session.
func (j *JSONL) Path() string {
	return j.file.Name()
}

// Append serializes rec as a JSON line, writes it to the file, and syncs.
// A zero Seq is replaced with the next sequence number. It is safe to call
// from multiple goroutines.
func (j *JSONL) Append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.seq++
	if rec.Seq == 0 {
		rec.Seq = j.seq
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("store: marshal: %w", err)
	}
	data = append(data, '\n')

	if _, err := j.file.Write(data); err != nil {
		return fmt.Errorf("store: write: %w", err)
	}
	if err := j.file.Sync(); err != nil {
		return fmt.Errorf("store: sync: %w", err)
	}
	j.idx.add(rec)
	return nil
}

// Observe implements session.Observer. Write failures are logged, never
// returned to the orchestrator.
func (j *JSONL) Observe(ev session.Event) {
	if err := j.Append(Record{Event: ev}); err != nil {
		log.Printf("store: %v", err)
	}
}

// Close closes the underlying file.
func (j *JSONL) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.file.Close()
}

// SessionSummary returns metadata about the current session derived from
// the in-memory index.
func (j *JSONL) SessionSummary() (SessionSummary, error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	s := j.idx.summary(j.sessionID)
	s.StartedAt = j.startedAt
	return s, nil
}

// EnforceRetention removes the oldest session log files in dir, keeping at most
// maxKeep files. If maxKeep is 0, no files are removed. Returns nil if dir does
// not exist or is empty.
func EnforceRetention(dir string, maxKeep int) error {
	if maxKeep <= 0 {
		return nil
	}
	files, err := sessionFiles(dir)
	if err != nil {
		return err
	}

	toDelete := len(files) - maxKeep
	for i := 0; i < toDelete; i++ {
		path := filepath.Join(dir, files[i].Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("store: remove %q: %w", path, err)
		}
	}
	return nil
}

// ListSessions returns the session logs in dir, oldest first. A missing dir
// yields no sessions.
func ListSessions(dir string) ([]SessionInfo, error) {
	files, err := sessionFiles(dir)
	if err != nil {
		return nil, err
	}
	out := make([]SessionInfo, 0, len(files))
	for _, e := range files {
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, SessionInfo{
			ID:      strings.TrimSuffix(e.Name(), ".jsonl"),
			Path:    filepath.Join(dir, e.Name()),
			ModTime: info.ModTime(),
			Size:    info.Size(),
		})
	}
	return out, nil
}

// ReadSession decodes every record in a session log. Malformed lines are
// logged and skipped.
func ReadSession(path string) ([]Record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("store: open %q: %w", path, err)
	}
	defer f.Close()

	var recs []Record
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	line := 0
	for sc.Scan() {
		line++
		b := sc.Bytes()
		if len(bytes.TrimSpace(b)) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(b, &rec); err != nil {
			log.Printf("store: skipping malformed line %d in %s: %v", line, filepath.Base(path), err)
			continue
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return recs, fmt.Errorf("store: read %q: %w", path, err)
	}
	return recs, nil
}

// sessionFiles lists *.jsonl entries in dir sorted by name.
func sessionFiles(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: read dir %q: %w", dir, err)
	}
	var files []os.DirEntry
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jsonl") {
			files = append(files, e)
		}
	}
	sort.Slice(files, func(a, b int) bool { return files[a].Name() < files[b].Name() }) // timestamp-prefixed names sort chronologically
	return files, nil
}
