package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
)

// FileRepository appends records to a local JSON-lines file. It satisfies
// the Sink contract for runs that have no database configured; the API
// layer keeps using Mongo.
type FileRepository struct {
	path   string
	mutex  sync.Mutex
	file   *os.File
	logger *logger.Logger
}

func NewFileRepository(path string) (*FileRepository, error) {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open output file %s: %w", path, err)
	}

	return &FileRepository{
		path:   path,
		file:   file,
		logger: logger.NewLogger("file_repository"),
	}, nil
}

func (r *FileRepository) Save(_ context.Context, record PropertyRecord) error {
	line, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to encode property: %w", err)
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, err := r.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write property: %w", err)
	}
	return nil
}

func (r *FileRepository) Close() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if err := r.file.Close(); err != nil {
		r.logger.Error("Failed to close output file", err)
	}
}
