package pending

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/teemow/mailgate/internal/fileutil"
	"github.com/teemow/mailgate/internal/logging"
)

// Store is the file-backed pending queue.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore returns a Store persisting to path. A nil logger falls back to
// slog.Default().
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With(logging.Service("pending")),
	}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// List returns all pending messages in insertion order. A missing or
// corrupt file yields an empty slice.
func (s *Store) List() []Message {
	msgs, err := s.read()
	if err != nil {
		s.logger.Warn("pending store unreadable, treating as empty",
			logging.Operation("list"), logging.Err(err))
		return []Message{}
	}
	return msgs
}

// read loads the queue for a mutation. Only a missing or empty file reads as
// empty; anything else is an error so a rewrite never drops queued mail.
func (s *Store) read() ([]Message, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []Message{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending store: %w", err)
	}
	if len(data) == 0 {
		return []Message{}, nil
	}

	var msgs []Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("decode pending store %s: %w", s.path, err)
	}
	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// FindByID returns the first message with the given id.
func (s *Store) FindByID(id string) (Message, bool) {
	for _, msg := range s.List() {
		if msg.ID == id {
			return msg, true
		}
	}
	return Message{}, false
}

// Enqueue appends msg. The id must be set and must not already be queued.
func (s *Store) Enqueue(msg Message) error {
	if msg.ID == "" {
		return ErrEmptyID
	}

	return fileutil.WithLock(s.path, func() error {
		msgs, err := s.read()
		if err != nil {
			return err
		}
		for _, existing := range msgs {
			if existing.ID == msg.ID {
				return fmt.Errorf("%w: %s", ErrDuplicateID, msg.ID)
			}
		}
		if err := s.write(append(msgs, msg)); err != nil {
			return err
		}
		s.logger.Debug("message enqueued",
			logging.Operation("enqueue"),
			logging.PendingID(msg.ID),
			logging.Domain(msg.To))
		return nil
	})
}

// Remove deletes the first message with the given id and returns it.
func (s *Store) Remove(id string) (Message, error) {
	var removed Message
	err := fileutil.WithLock(s.path, func() error {
		msgs, err := s.read()
		if err != nil {
			return err
		}
		idx := -1
		for i, msg := range msgs {
			if msg.ID == id {
				idx = i
				break
			}
		}
		if idx < 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}

		removed = msgs[idx]
		remaining := append(msgs[:idx:idx], msgs[idx+1:]...)
		return s.write(remaining)
	})
	if err != nil {
		return Message{}, err
	}

	s.logger.Debug("message removed",
		logging.Operation("remove"),
		logging.PendingID(id))
	return removed, nil
}

func (s *Store) write(msgs []Message) error {
	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode pending messages: %w", err)
	}
	if err := fileutil.WriteFileAtomic(s.path, data, 0600); err != nil {
		return fmt.Errorf("write pending store: %w", err)
	}
	return nil
}
