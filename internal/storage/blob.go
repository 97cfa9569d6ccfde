package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Shared storage contents are stored as zstd-compressed JSON blobs. Item
// stacks compress very well and the shared chest is loaded on every open,
// so the encoder is built once and reused.
var (
	blobEncoder, _ = zstd.NewWriter(nil)
	blobDecoder, _ = zstd.NewReader(nil)
)

// LoadStorageContents returns the decompressed shared-storage blob for a
// nation, or nil when none was ever saved.
func (s *Store) LoadStorageContents(ctx context.Context, nationID int64) ([]byte, error) {
	var blob []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT contents FROM nation_storage WHERE nation_id = ?", nationID).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		return nil, nil
	}
	contents, err := blobDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompressing storage contents: %w", err)
	}
	return contents, nil
}

// SaveStorageContents compresses and upserts the shared-storage blob.
func (s *Store) SaveStorageContents(tx *sql.Tx, nationID int64, contents []byte, now time.Time) error {
	blob := blobEncoder.EncodeAll(contents, nil)
	_, err := tx.Exec(`
		INSERT INTO nation_storage (nation_id, contents, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(nation_id) DO UPDATE SET contents = excluded.contents, updated_at = excluded.updated_at
	`, nationID, blob, formatTimestamp(now))
	return err
}

// DeleteStorageContents removes a nation's shared-storage row.
func (s *Store) DeleteStorageContents(tx *sql.Tx, nationID int64) error {
	_, err := tx.Exec("DELETE FROM nation_storage WHERE nation_id = ?", nationID)
	return err
}
