package policy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/teemow/mailgate/internal/fileutil"
)

// Source loads and stores the SecurityConfig.
type Source interface {
	// Load returns nil, nil when no config exists.
	Load() (*SecurityConfig, error)

	// Save persists cfg, creating it if necessary.
	Save(cfg *SecurityConfig) error
}

// Locker is implemented by sources that can serialize read-modify-write
// cycles across processes.
type Locker interface {
	WithLock(fn func() error) error
}

// FileSource keeps the config in a JSON file.
type FileSource struct {
	Path string
}

// NewFileSource returns a Source backed by the JSON file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// Load reads and parses the file. A missing file is not an error.
func (s *FileSource) Load() (*SecurityConfig, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read security config: %w", err)
	}

	var cfg SecurityConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse security config %s: %w", s.Path, err)
	}
	return &cfg, nil
}

// Save writes cfg as indented JSON via temp file and rename.
func (s *FileSource) Save(cfg *SecurityConfig) error {
	if cfg == nil {
		return errors.New("refusing to save nil security config")
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode security config: %w", err)
	}
	data = append(data, '\n')

	if err := fileutil.WriteFileAtomic(s.Path, data, 0600); err != nil {
		return fmt.Errorf("write security config: %w", err)
	}
	return nil
}

// WithLock runs fn under an advisory lock next to the config file.
func (s *FileSource) WithLock(fn func() error) error {
	return fileutil.WithLock(s.Path, fn)
}
