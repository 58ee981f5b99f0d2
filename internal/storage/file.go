package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

var errRecordFileIsDir = errors.New("record file is dir")

type fileRecord struct {
	Value     []byte    `json:"value"`
	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

type fileData struct {
	Records map[string]fileRecord `json:"records"`
}

type FileStore struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *fileData
}

// NewFile returns a store persisted to a single JSON file. Every write
// is flushed through so sessions survive an unclean shutdown.
func NewFile(path string, log *zap.Logger) (*FileStore, error) {
	s := &FileStore{
		path: path,
		log:  log,
		data: &fileData{Records: map[string]fileRecord{}},
	}

	if err := s.readfile(); err != nil {
		// only log, the file will be created on the first write
		s.log.Warn("failed reading record data file", zap.Error(err))
	}

	return s, nil
}

func (s *FileStore) readfile() error {
	finfo, err := os.Stat(s.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errRecordFileIsDir
	}

	f, err := os.Open(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&s.data); err != nil {
		return err
	}
	if s.data.Records == nil {
		s.data.Records = map[string]fileRecord{}
	}
	return nil
}

// writefile assumes s.mu is held.
func (s *FileStore) writefile() error {
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	f, err := os.Create(s.path)
	if err != nil {
		return err
	}
	defer f.Close()

	b, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	_, err = f.Write(b)
	return err
}

func (s *FileStore) flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writefile()
}

func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.data.Records[key]
	if !ok {
		return nil, ErrNotFound
	}
	if !rec.ExpiresAt.IsZero() && time.Now().After(rec.ExpiresAt) {
		delete(s.data.Records, key)
		return nil, ErrNotFound
	}
	return rec.Value, nil
}

func (s *FileStore) Set(_ context.Context, key string, value []byte, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Records[key] = fileRecord{Value: value, ExpiresAt: expiresAt}
	return s.writefile()
}

func (s *FileStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.data.Records[key]; !ok {
		return nil
	}
	delete(s.data.Records, key)
	return s.writefile()
}

func (s *FileStore) Close() error {
	return s.flush()
}
