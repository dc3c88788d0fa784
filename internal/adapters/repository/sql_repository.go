package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/cloudtodo/core/internal/domain/entities"
	"github.com/cloudtodo/core/internal/infrastructure/database"
	"github.com/cloudtodo/core/internal/ports"
)

// sqliteSchema mirrors migrations/000001_create_user_records for the sqlite driver,
// which does not go through golang-migrate.
const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS user_records (
		user_id    TEXT PRIMARY KEY,
		data       TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`

type userRecordRow struct {
	UserID string `db:"user_id"`
	Data   []byte `db:"data"`
}

// SQLRepository stores records in the user_records table (postgres or sqlite)
type SQLRepository struct {
	db *database.DB
}

// NewSQLRepository creates a new sql-backed store
func NewSQLRepository(db *database.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

var _ ports.UserRecordRepository = (*SQLRepository)(nil)

// EnsureSQLiteSchema creates the table when it does not exist yet
func EnsureSQLiteSchema(ctx context.Context, db *database.DB) error {
	if _, err := db.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("create sqlite schema: %w", err)
	}
	return nil
}

func (r *SQLRepository) Get(ctx context.Context, userID string) (*entities.UserRecord, error) {
	query := r.db.DB.Rebind(`
		SELECT user_id, data
		FROM user_records
		WHERE user_id = ?`)

	var row userRecordRow
	err := r.db.DB.GetContext(ctx, &row, query, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entities.ErrRecordNotFound
		}
		return nil, fmt.Errorf("get user record: %w", err)
	}

	return decodeRecord(row.Data)
}

func (r *SQLRepository) Save(ctx context.Context, rec *entities.UserRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return err
	}

	query := r.db.DB.Rebind(`
		INSERT INTO user_records (user_id, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET data = excluded.data, updated_at = excluded.updated_at`)

	if _, err := r.db.DB.ExecContext(ctx, query, rec.UserID, string(data), time.Now().UTC()); err != nil {
		return fmt.Errorf("save user record: %w", err)
	}

	return nil
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

func (r *SQLRepository) Close() error {
	return r.db.Close()
}
