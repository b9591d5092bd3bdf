package session

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var _ Store = (*FileStore)(nil)

// FileStore persists the session as a small JSON document so that it survives
// between CLI invocations. The document is rewritten through a temporary file
// and a rename, so a reader never observes a half-written pair.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger zerolog.Logger
}

type FileStoreOption func(*FileStore)

// WithFileLogger sets the logger used to report read and write failures
func WithFileLogger(logger zerolog.Logger) FileStoreOption {
	return func(fs *FileStore) {
		fs.logger = logger
	}
}

// NewFileStore creates a store backed by the file at path. The parent directory
// is created on first write.
func NewFileStore(path string, opts ...FileStoreOption) *FileStore {
	fs := &FileStore{
		path:   path,
		logger: log.Logger,
	}
	for _, opt := range opts {
		opt(fs)
	}
	return fs
}

// Path returns the backing file location
func (fs *FileStore) Path() string {
	return fs.path
}

func (fs *FileStore) Get(_ context.Context) Session {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, err := fs.read()
	if err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("Failed to read session file")
		return Session{}
	}
	return s
}

func (fs *FileStore) Set(_ context.Context, accessToken, refreshToken string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := fs.write(Session{AccessToken: accessToken, RefreshToken: refreshToken}); err != nil {
		fs.logger.Error().Err(err).Str("path", fs.path).Msg("Failed to write session file")
	}
}

func (fs *FileStore) SetAccessToken(_ context.Context, accessToken string) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	s, err := fs.read()
	if err != nil {
		fs.logger.Warn().Err(err).Str("path", fs.path).Msg("Failed to read session file")
	}
	s.AccessToken = accessToken
	if err := fs.write(s); err != nil {
		fs.logger.Error().Err(err).Str("path", fs.path).Msg("Failed to write session file")
	}
}

func (fs *FileStore) Clear(_ context.Context) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if err := os.Remove(fs.path); err != nil && !os.IsNotExist(err) {
		fs.logger.Error().Err(err).Str("path", fs.path).Msg("Failed to remove session file")
	}
}

// read returns an empty session when the file does not exist
func (fs *FileStore) read() (Session, error) {
	data, err := os.ReadFile(fs.path)
	if os.IsNotExist(err) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, errors.Wrap(err, "FileStore read")
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return Session{}, errors.Wrap(err, "FileStore decode")
	}
	return s, nil
}

func (fs *FileStore) write(s Session) error {
	data, err := json.Marshal(s)
	if err != nil {
		return errors.Wrap(err, "FileStore encode")
	}

	dir := filepath.Dir(fs.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return errors.Wrap(err, "FileStore mkdir")
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return errors.Wrap(err, "FileStore create temp")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrap(err, "FileStore write temp")
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "FileStore close temp")
	}
	if err := os.Rename(tmp.Name(), fs.path); err != nil {
		return errors.Wrap(err, "FileStore rename")
	}
	return nil
}
