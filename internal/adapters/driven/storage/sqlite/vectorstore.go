package sqlite

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/custodia-labs/docqa-cli/internal/adapters/driven/embedding"
	"github.com/custodia-labs/docqa-cli/internal/core/domain"
	"github.com/custodia-labs/docqa-cli/internal/core/ports/driven"
)

// MaxStoredTextLength bounds the chunk text kept per row.
const MaxStoredTextLength = 1000

// Ensure VectorStore implements the interfaces.
var (
	_ driven.VectorStore = (*VectorStore)(nil)
	_ driven.ChunkLister = (*VectorStore)(nil)
)

// VectorStore implements driven.VectorStore on the vectors table.
type VectorStore struct {
	store *Store
}

// NewVectorStore opens the store in dataDir.
func NewVectorStore(dataDir string) (*VectorStore, error) {
	s, err := NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	return &VectorStore{store: s}, nil
}

// Path returns the database file path.
func (v *VectorStore) Path() string {
	return v.store.Path()
}

// Ping pings the database.
func (v *VectorStore) Ping(ctx context.Context) error {
	return v.store.db.PingContext(ctx)
}

// Upsert writes records in one transaction, replacing rows with the same chunk ID.
func (v *VectorStore) Upsert(ctx context.Context, records []driven.VectorRecord) error {
	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (chunk_id, document_name, chunk_index, page_number, chunk_text, metadata, embedding, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_id) DO UPDATE SET
			document_name = excluded.document_name,
			chunk_index = excluded.chunk_index,
			page_number = excluded.page_number,
			chunk_text = excluded.chunk_text,
			metadata = excluded.metadata,
			embedding = excluded.embedding,
			updated_at = excluded.updated_at
	`)
	if err != nil {
		return fmt.Errorf("preparing upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, r := range records {
		metadataJSON, err := json.Marshal(r.Chunk.Metadata)
		if err != nil {
			return fmt.Errorf("marshalling metadata for %s: %w", r.Chunk.ChunkID, err)
		}

		if _, err := stmt.ExecContext(ctx,
			r.Chunk.ChunkID, r.Chunk.DocumentName, r.Chunk.Index, nullInt(r.Chunk.PageNumber),
			truncate(r.Chunk.Text, MaxStoredTextLength), string(metadataJSON),
			float32SliceToBytes(r.Vector), now,
		); err != nil {
			return fmt.Errorf("upserting chunk %s: %w", r.Chunk.ChunkID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing upsert: %w", err)
	}
	return nil
}

// Search scores every row matching filter and returns the best k.
func (v *VectorStore) Search(
	ctx context.Context, vector []float32, k int, filter domain.VectorFilter,
) ([]domain.SearchResult, error) {
	if k <= 0 {
		return nil, nil
	}

	rows, err := v.store.db.QueryContext(ctx, `
		SELECT chunk_id, document_name, chunk_index, page_number, chunk_text, metadata, embedding
		FROM vectors
		WHERE (? = '' OR document_name = ?)
		  AND (? IS NULL OR page_number = ?)
		ORDER BY rowid
	`, filter.DocumentName, filter.DocumentName, nullInt(filter.PageNumber), nullInt(filter.PageNumber))
	if err != nil {
		return nil, fmt.Errorf("querying vectors: %w", err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		chunk, vec, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, domain.SearchResult{
			Chunk: *chunk,
			Score: embedding.Similarity(vector, vec),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating vectors: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > k {
		results = results[:k]
	}
	return results, nil
}

// DeletePage removes up to limit rows of documentName.
func (v *VectorStore) DeletePage(ctx context.Context, documentName string, limit int) (int, error) {
	res, err := v.store.db.ExecContext(ctx, `
		DELETE FROM vectors WHERE chunk_id IN (
			SELECT chunk_id FROM vectors WHERE document_name = ? LIMIT ?
		)
	`, documentName, limit)
	if err != nil {
		return 0, fmt.Errorf("deleting vectors: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted vectors: %w", err)
	}
	return int(n), nil
}

// Count returns the number of stored rows.
func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&n); err != nil {
		return 0, fmt.Errorf("counting vectors: %w", err)
	}
	return n, nil
}

// ListChunks returns the chunks of documentName ordered by index.
func (v *VectorStore) ListChunks(ctx context.Context, documentName string) ([]domain.DocumentChunk, error) {
	rows, err := v.store.db.QueryContext(ctx, `
		SELECT chunk_id, document_name, chunk_index, page_number, chunk_text, metadata, embedding
		FROM vectors WHERE document_name = ?
		ORDER BY chunk_index
	`, documentName)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.DocumentChunk
	for rows.Next() {
		chunk, _, err := scanVector(rows)
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// Close closes the database.
func (v *VectorStore) Close() error {
	return v.store.Close()
}

// ==================== Helper Functions ====================

func scanVector(rows *sql.Rows) (*domain.DocumentChunk, []float32, error) {
	var chunk domain.DocumentChunk
	var pageNumber sql.NullInt64
	var metadataJSON string
	var blob []byte

	if err := rows.Scan(&chunk.ChunkID, &chunk.DocumentName, &chunk.Index, &pageNumber,
		&chunk.Text, &metadataJSON, &blob); err != nil {
		return nil, nil, fmt.Errorf("scanning vector: %w", err)
	}

	if pageNumber.Valid {
		chunk.PageNumber = domain.Ptr(int(pageNumber.Int64))
	}
	if err := json.Unmarshal([]byte(metadataJSON), &chunk.Metadata); err != nil {
		return nil, nil, fmt.Errorf("unmarshalling metadata: %w", err)
	}

	return &chunk, bytesToFloat32Slice(blob), nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
