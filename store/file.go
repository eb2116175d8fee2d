package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"storefront-livechat-server/domain"
)

const sessionsFile = "sessions.json"

// FileStore persists sessions and transcripts as JSON files under a data
// directory: one sessions index plus one message log per session. Every
// write goes to a temp file first and is renamed into place, so readers
// never observe a partial file. The hub consumes this fire-and-forget.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Join(dir, "messages"), 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// CreateSession adds or replaces the session in the index. Re-creating
// an existing session is not an error; joins are at-least-once.
func (s *FileStore) CreateSession(ctx context.Context, sess domain.Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if sess.SessionID == "" || !safeName(sess.SessionID) {
		return fmt.Errorf("invalid session id %q", sess.SessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, sessionsFile)
	var sessions []domain.Session
	if err := readJSON(path, &sessions); err != nil {
		return fmt.Errorf("read sessions index: %w", err)
	}

	replaced := false
	for i, existing := range sessions {
		if existing.SessionID == sess.SessionID {
			sessions[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		sessions = append(sessions, sess)
	}

	if err := writeAtomic(path, sessions); err != nil {
		return fmt.Errorf("write sessions index: %w", err)
	}
	return nil
}

// SaveMessage appends the message to its session's log.
func (s *FileStore) SaveMessage(ctx context.Context, msg domain.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if msg.SessionID == "" || !safeName(msg.SessionID) {
		return fmt.Errorf("invalid session id %q", msg.SessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := filepath.Join(s.dir, "messages", msg.SessionID+".json")
	var messages []domain.Message
	if err := readJSON(path, &messages); err != nil {
		return fmt.Errorf("read message log: %w", err)
	}
	messages = append(messages, msg)

	if err := writeAtomic(path, messages); err != nil {
		return fmt.Errorf("write message log: %w", err)
	}
	return nil
}

// Sessions returns the persisted session index.
func (s *FileStore) Sessions() ([]domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var sessions []domain.Session
	if err := readJSON(filepath.Join(s.dir, sessionsFile), &sessions); err != nil {
		return nil, fmt.Errorf("read sessions index: %w", err)
	}
	return sessions, nil
}

// Messages returns the persisted transcript for one session.
func (s *FileStore) Messages(sessionID string) ([]domain.Message, error) {
	if !safeName(sessionID) {
		return nil, fmt.Errorf("invalid session id %q", sessionID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var messages []domain.Message
	if err := readJSON(filepath.Join(s.dir, "messages", sessionID+".json"), &messages); err != nil {
		return nil, fmt.Errorf("read message log: %w", err)
	}
	return messages, nil
}

// safeName rejects session ids that would escape the data directory.
func safeName(name string) bool {
	return name == filepath.Base(name) && name != "." && name != ".."
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func writeAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
