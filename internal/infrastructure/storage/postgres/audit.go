package postgres

import (
	"context"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"shopledger/internal/domain/audit"
)

// CompressionAlgo specifies how a stored payload is compressed.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// AuditStore persists audit entries. Large payloads are stored
// zstd-compressed; small ones as plain text.
type AuditStore struct {
	txm               *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

var _ audit.Store = (*AuditStore)(nil)

// NewAuditStore creates the audit persistence layer.
func NewAuditStore(txm *TxManager) (*AuditStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditStore{
		txm:               txm,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// Append inserts one audit entry.
func (s *AuditStore) Append(ctx context.Context, e audit.Entry) error {
	payload := e.Payload
	var compressed []byte
	algo := CompressionNone

	if len(payload) > s.compressThreshold {
		compressed = s.encoder.EncodeAll([]byte(payload), nil)
		payload = ""
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO audit_log (method, endpoint, recorded_at, payload, payload_compressed, compression_algo)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	querier := s.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql,
		e.Method, e.Endpoint, e.RecordedAt, payload, compressed, algo,
	); err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}

	return nil
}

// ListRecent returns the newest entries, newest first, with compressed
// payloads restored to plain text.
func (s *AuditStore) ListRecent(ctx context.Context, limit int) ([]audit.Entry, error) {
	if limit <= 0 {
		limit = 100
	}

	sql := `
		SELECT id, method, endpoint, recorded_at, payload, payload_compressed, compression_algo
		FROM audit_log
		ORDER BY id DESC
		LIMIT $1
	`

	rows, err := s.txm.GetQuerier(ctx).Query(ctx, sql, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var entries []audit.Entry
	for rows.Next() {
		var (
			e          audit.Entry
			compressed []byte
			algo       CompressionAlgo
		)
		if err := rows.Scan(&e.ID, &e.Method, &e.Endpoint, &e.RecordedAt, &e.Payload, &compressed, &algo); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}

		if algo == CompressionZstd && len(compressed) > 0 {
			decompressed, err := s.decoder.DecodeAll(compressed, nil)
			if err != nil {
				return nil, fmt.Errorf("decompress audit payload: %w", err)
			}
			e.Payload = string(decompressed)
		}

		entries = append(entries, e)
	}

	return entries, rows.Err()
}
