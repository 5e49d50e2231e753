package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"bilancio/internal/core"
	"bilancio/internal/remote"
)

// Store persists a session across process restarts. The policy is explicit:
// restore once on startup, save on every confirmed session change, clear on
// logout. Nothing reads it ambiently.
type Store interface {
	Load() (core.Session, bool, error)
	Save(core.Session) error
	Clear() error
}

// FileStore keeps the session as a JSON document on disk.
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

type storedSession struct {
	User  remote.User `json:"user"`
	Token string      `json:"token"`
}

func (f *FileStore) Load() (core.Session, bool, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return core.Session{}, false, nil
	}
	if err != nil {
		return core.Session{}, false, fmt.Errorf("read session file: %w", err)
	}
	var stored storedSession
	if err := json.Unmarshal(data, &stored); err != nil {
		return core.Session{}, false, fmt.Errorf("decode session file: %w", err)
	}
	return core.Session{User: stored.User.ToCore(), Token: stored.Token}, true, nil
}

func (f *FileStore) Save(sess core.Session) error {
	data, err := json.MarshalIndent(storedSession{
		User:  remote.UserToWire(sess.User),
		Token: sess.Token,
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	// Holds a bearer credential, keep it owner-only.
	if err := os.WriteFile(f.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

func (f *FileStore) Clear() error {
	err := os.Remove(f.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}
