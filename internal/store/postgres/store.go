package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sevakavakians/kato/internal/katoerr"
	"github.com/sevakavakians/kato/internal/model"
)

// Row is the columnar representation of a pattern's immutable body (spec
// §6 Collaborator A: name, kb_id, length, token_count, first/last_token,
// event_data, minhash, lsh_bands, timestamps). Frequency, emotives, and
// metadata live in the KV collaborator instead (spec §4.7).
type Row struct {
	KBID       string
	Name       string
	Length     int
	TokenCount int
	FirstToken string
	LastToken  string
	EventData  model.Sequence
	MinHash    []uint64
	LSHBands   []uint64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PrefilterRow is the cheap projection Stage B of the filter pipeline
// fetches (spec §4.9 Stage B).
type PrefilterRow struct {
	Name       string
	Length     int
	TokenCount int
	FirstToken string
	LastToken  string
	LSHBands   []uint64
}

// InsertIfAbsent inserts row's immutable body if (kb_id, name) does not
// already exist, and reports whether the insert happened (spec §4.7 step
// 1). It is safe to call repeatedly for the same pattern: subsequent
// calls are no-ops, matching the writer's re-learn path (step 2, body is
// immutable after first write).
func (s *Store) InsertIfAbsent(ctx context.Context, row Row) (inserted bool, err error) {
	eventJSON, err := json.Marshal(row.EventData)
	if err != nil {
		return false, fmt.Errorf("marshal event_data: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		INSERT INTO patterns_data
			(kb_id, name, length, token_count, first_token, last_token, event_data, minhash, lsh_bands)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (kb_id, name) DO NOTHING
	`, row.KBID, row.Name, row.Length, row.TokenCount, row.FirstToken, row.LastToken,
		eventJSON, toInt64Slice(row.MinHash), toInt64Slice(row.LSHBands))
	if err != nil {
		return false, fmt.Errorf("%w: insert pattern row: %v", katoerr.ErrStorageUnavailable, err)
	}
	return tag.RowsAffected() > 0, nil
}

// InsertPostings upserts the (kb_id, band_index, band_hash) -> name
// postings for one pattern (spec §4.6 "LSH index").
func (s *Store) InsertPostings(ctx context.Context, kbID, name string, bandHashes []uint64) error {
	batch := &pgx.Batch{}
	for i, h := range bandHashes {
		batch.Queue(`
			INSERT INTO lsh_postings (kb_id, band_index, band_hash, pattern_name)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT DO NOTHING
		`, kbID, i, int64(h), name)
	}
	br := s.pool.SendBatch(ctx, batch)
	defer func() { _ = br.Close() }()

	for range bandHashes {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("%w: insert lsh posting: %v", katoerr.ErrStorageUnavailable, err)
		}
	}
	return nil
}

// CandidatesByBands unions the posting lists for each (band_index,
// band_hash) pair, where bands[i] is the hash for band index i (spec
// §4.9 Stage A).
func (s *Store) CandidatesByBands(ctx context.Context, kbID string, bands []uint64) (map[string]struct{}, error) {
	out := make(map[string]struct{})
	for i, h := range bands {
		rows, err := s.pool.Query(ctx, `
			SELECT pattern_name FROM lsh_postings
			WHERE kb_id = $1 AND band_index = $2 AND band_hash = $3
		`, kbID, i, int64(h))
		if err != nil {
			return nil, fmt.Errorf("%w: candidates by bands: %v", katoerr.ErrStorageUnavailable, err)
		}
		err = func() error {
			defer rows.Close()
			for rows.Next() {
				var name string
				if err := rows.Scan(&name); err != nil {
					return err
				}
				out[name] = struct{}{}
			}
			return rows.Err()
		}()
		if err != nil {
			return nil, fmt.Errorf("%w: scan candidates: %v", katoerr.ErrStorageUnavailable, err)
		}
	}
	return out, nil
}

// FetchPrefilter bulk-fetches the Stage B projection for the given
// pattern names (spec §4.9 Stage B).
func (s *Store) FetchPrefilter(ctx context.Context, kbID string, names []string) ([]PrefilterRow, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT name, length, token_count, first_token, last_token, lsh_bands
		FROM patterns_data
		WHERE kb_id = $1 AND name = ANY($2)
	`, kbID, names)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch prefilter: %v", katoerr.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []PrefilterRow
	for rows.Next() {
		var r PrefilterRow
		var bands []int64
		if err := rows.Scan(&r.Name, &r.Length, &r.TokenCount, &r.FirstToken, &r.LastToken, &bands); err != nil {
			return nil, fmt.Errorf("%w: scan prefilter: %v", katoerr.ErrStorageUnavailable, err)
		}
		r.LSHBands = toUint64Slice(bands)
		out = append(out, r)
	}
	return out, rows.Err()
}

// FetchRows bulk-fetches full pattern rows for the given names (spec
// §4.8 fetch_patterns).
func (s *Store) FetchRows(ctx context.Context, kbID string, names []string) ([]Row, error) {
	if len(names) == 0 {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx, `
		SELECT kb_id, name, length, token_count, first_token, last_token,
		       event_data, minhash, lsh_bands, created_at, updated_at
		FROM patterns_data
		WHERE kb_id = $1 AND name = ANY($2)
	`, kbID, names)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch rows: %v", katoerr.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// FetchRow fetches one full pattern row, returning katoerr.ErrPatternNotFound
// on a miss (spec §4.8 get).
func (s *Store) FetchRow(ctx context.Context, kbID, name string) (Row, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT kb_id, name, length, token_count, first_token, last_token,
		       event_data, minhash, lsh_bands, created_at, updated_at
		FROM patterns_data
		WHERE kb_id = $1 AND name = $2
	`, kbID, name)

	var eventJSON []byte
	var minhash, bands []int64
	var out Row
	err := row.Scan(&out.KBID, &out.Name, &out.Length, &out.TokenCount, &out.FirstToken, &out.LastToken,
		&eventJSON, &minhash, &bands, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return Row{}, katoerr.ErrPatternNotFound
		}
		return Row{}, fmt.Errorf("%w: fetch row: %v", katoerr.ErrStorageUnavailable, err)
	}
	if err := json.Unmarshal(eventJSON, &out.EventData); err != nil {
		return Row{}, fmt.Errorf("unmarshal event_data: %w", err)
	}
	out.MinHash = toUint64Slice(minhash)
	out.LSHBands = toUint64Slice(bands)
	return out, nil
}

// Exists reports whether (kb_id, name) has a stored row.
func (s *Store) Exists(ctx context.Context, kbID, name string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM patterns_data WHERE kb_id = $1 AND name = $2)
	`, kbID, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: exists: %v", katoerr.ErrStorageUnavailable, err)
	}
	return exists, nil
}

// Count returns the number of patterns stored under kb_id (spec §4.8
// count).
func (s *Store) Count(ctx context.Context, kbID string) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM patterns_data WHERE kb_id = $1`, kbID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%w: count: %v", katoerr.ErrStorageUnavailable, err)
	}
	return n, nil
}

// DropPartition deletes every row (and posting) for kb_id (spec §4.8
// bulk_delete).
func (s *Store) DropPartition(ctx context.Context, kbID string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin drop partition: %v", katoerr.ErrStorageUnavailable, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM lsh_postings WHERE kb_id = $1`, kbID); err != nil {
		return fmt.Errorf("%w: drop postings: %v", katoerr.ErrStorageUnavailable, err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM patterns_data WHERE kb_id = $1`, kbID); err != nil {
		return fmt.Errorf("%w: drop patterns: %v", katoerr.ErrStorageUnavailable, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("%w: commit drop partition: %v", katoerr.ErrStorageUnavailable, err)
	}
	return nil
}

// SymbolFrequencies computes, for every symbol occurring in kb_id's
// patterns, the number of patterns it occurs in at least once. Backs the
// itfdf_similarity metric (spec §4.12) and the symbol-frequency LRU cache
// (spec §5 "Shared resources").
func (s *Store) SymbolFrequencies(ctx context.Context, kbID string) (map[string]int64, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT sym, count(DISTINCT p.name)
		FROM patterns_data p,
		     jsonb_array_elements(p.event_data) AS ev,
		     jsonb_array_elements_text(ev) AS sym
		WHERE p.kb_id = $1
		GROUP BY sym
	`, kbID)
	if err != nil {
		return nil, fmt.Errorf("%w: symbol frequencies: %v", katoerr.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var sym string
		var n int64
		if err := rows.Scan(&sym, &n); err != nil {
			return nil, fmt.Errorf("%w: scan symbol frequency: %v", katoerr.ErrStorageUnavailable, err)
		}
		out[sym] = n
	}
	return out, rows.Err()
}

func scanRow(rows pgx.Rows) (Row, error) {
	var out Row
	var eventJSON []byte
	var minhash, bands []int64
	err := rows.Scan(&out.KBID, &out.Name, &out.Length, &out.TokenCount, &out.FirstToken, &out.LastToken,
		&eventJSON, &minhash, &bands, &out.CreatedAt, &out.UpdatedAt)
	if err != nil {
		return Row{}, fmt.Errorf("%w: scan row: %v", katoerr.ErrStorageUnavailable, err)
	}
	if err := json.Unmarshal(eventJSON, &out.EventData); err != nil {
		return Row{}, fmt.Errorf("unmarshal event_data: %w", err)
	}
	out.MinHash = toUint64Slice(minhash)
	out.LSHBands = toUint64Slice(bands)
	return out, nil
}

func toInt64Slice(u []uint64) []int64 {
	out := make([]int64, len(u))
	for i, v := range u {
		out[i] = int64(v)
	}
	return out
}

func toUint64Slice(i []int64) []uint64 {
	out := make([]uint64, len(i))
	for idx, v := range i {
		out[idx] = uint64(v)
	}
	return out
}
