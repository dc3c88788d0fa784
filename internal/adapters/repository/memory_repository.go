package repository

import (
	"context"
	"sync"

	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/ports"
)

// MemoryRepository keeps encoded records in process memory
type MemoryRepository struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryRepository creates an empty in-memory store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{records: make(map[string][]byte)}
}

var _ ports.UserRecordRepository = (*MemoryRepository)(nil)

func (r *MemoryRepository) Get(ctx context.Context, userID string) (*entities.UserRecord, error) {
	r.mu.RLock()
	data, ok := r.records[userID]
	r.mu.RUnlock()

	if !ok {
		return nil, entities.ErrRecordNotFound
	}
	return decodeRecord(data)
}

func (r *MemoryRepository) Save(ctx context.Context, rec *entities.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.records[rec.UserID] = data
	r.mu.Unlock()
	return nil
}

func (r *MemoryRepository) Ping(ctx context.Context) error {
	return nil
}

func (r *MemoryRepository) Close() error {
	return nil
}
