package repository

import (
	"encoding/json"
	"fmt"

	"github.com/cloudtodo/core/internal/domain/entities"
)

// Records are stored as one JSON document each, read and rewritten whole.

func encodeRecord(rec *entities.UserRecord) ([]byte, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("encode user record: %w", err)
	}
	return data, nil
}

func decodeRecord(data []byte) (*entities.UserRecord, error) {
	var rec entities.UserRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode user record: %w", err)
	}
	return &rec, nil
}
