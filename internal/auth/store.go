package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotx/internal/shared"
)

// Store persists a single [TokenRecord] as an owner-only JSON file.
type Store struct {
	path       string
	legacyPath string
	logger     *log.Logger

	mu               sync.Mutex
	migrationChecked bool
}

// NewStore creates a store for path. When legacyPath is non-empty, [Store.Load] migrates a
// token found there into path the first time the canonical file is missing.
func NewStore(path, legacyPath string, logger *log.Logger) *Store {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &Store{path: path, legacyPath: legacyPath, logger: logger}
}

// Path returns the canonical token file location.
func (s *Store) Path() string {
	return s.path
}

// Load returns the stored record, or nil when none exists.
//
// A readable canonical file always wins over the legacy path, which makes an interrupted
// migration safe to re-run. A corrupt canonical file is treated as absent.
func (s *Store) Load() (*TokenRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	switch {
	case err == nil:
		var rec TokenRecord
		decodeErr := json.Unmarshal(data, &rec)
		if decodeErr == nil {
			return &rec, nil
		}
		s.logger.Warn("ignoring unreadable token file", "path", s.path, "error", decodeErr)
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("failed to read token file: %w", err)
	}

	if s.legacyPath == "" || s.migrationChecked {
		return nil, nil
	}
	s.migrationChecked = true

	return s.migrateLegacy()
}

// Save writes rec atomically with 0600 permissions.
func (s *Store) Save(rec *TokenRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(rec)
}

// Clear deletes the canonical token file. A missing file is not an error.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove token file: %w", err)
	}
	return nil
}

func (s *Store) save(rec *TokenRecord) error {
	if rec == nil {
		return fmt.Errorf("%w: nil token record", shared.ErrInvalidArgument)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	if err := shared.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// migrateLegacy imports the pre-JSON token file, persists it canonically, then removes it.
func (s *Store) migrateLegacy() (*TokenRecord, error) {
	data, err := os.ReadFile(s.legacyPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read legacy token file: %w", err)
	}

	rec, err := parseLegacyToken(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse legacy token file %s: %w", s.legacyPath, err)
	}
	if rec == nil {
		return nil, nil
	}

	if err := s.save(rec); err != nil {
		s.logger.Warn("legacy token loaded but not migrated", "error", err)
		return rec, nil
	}

	if err := os.Remove(s.legacyPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove legacy token file", "path", s.legacyPath, "error", err)
	}

	s.logger.Info("migrated legacy token", "from", s.legacyPath, "to", s.path)
	return rec, nil
}

// parseLegacyToken accepts either a bare access token string or a JSON token object.
func parseLegacyToken(data []byte) (*TokenRecord, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	switch trimmed[0] {
	case '{':
		var rec TokenRecord
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, err
		}
		if rec.AccessToken == "" && rec.RefreshToken == "" {
			return nil, nil
		}
		return &rec, nil
	case '"':
		var token string
		if err := json.Unmarshal(trimmed, &token); err != nil {
			return nil, err
		}
		if token = strings.TrimSpace(token); token == "" {
			return nil, nil
		}
		return &TokenRecord{AccessToken: token}, nil
	default:
		return &TokenRecord{AccessToken: string(trimmed)}, nil
	}
}
