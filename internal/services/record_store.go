package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/eunoia-atlas/backend/internal/models"
)

// RecordStore persists donation records in the append-only donations table.
// Insert-or-ignore on the transaction id primary key is the system's sole
// consistency mechanism: the issuance path and the ingestion listener may both
// write the same transaction without coordination.
type RecordStore struct {
	db *sql.DB
}

func NewRecordStore(db *sql.DB) *RecordStore {
	return &RecordStore{db: db}
}

// Insert stores one donation record. Inserting a transaction id that already
// exists is a silent no-op, never an error.
func (s *RecordStore) Insert(ctx context.Context, rec *models.DonationRecord) error {
	payload := map[string]any{
		"cid":       rec.Memo.CauseID,
		"chr":       rec.Memo.Charity,
		"amt":       rec.Memo.Amount,
		"cur":       rec.Memo.Currency,
		"ts":        rec.Memo.Timestamp,
		"ph":        rec.Memo.PayloadHash,
		"tx":        rec.TransactionID,
		"synthetic": rec.Synthetic,
	}
	if rec.DonorEmail != "" {
		payload["donor_email"] = rec.DonorEmail
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding donation %s: %w", rec.TransactionID, err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO donations (tx, data) VALUES ($1, $2) ON CONFLICT (tx) DO NOTHING`,
		rec.TransactionID, data)
	if err != nil {
		return fmt.Errorf("persisting donation %s: %w", rec.TransactionID, err)
	}
	return nil
}

// TotalsByCharity sums donated amounts grouped by charity code across all
// persisted records.
func (s *RecordStore) TotalsByCharity(ctx context.Context) (map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT data->>'chr' AS chr, SUM((data->>'amt')::NUMERIC) AS total FROM donations GROUP BY chr`)
	if err != nil {
		return nil, fmt.Errorf("aggregating totals: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]float64)
	for rows.Next() {
		var charity string
		var total float64
		if err := rows.Scan(&charity, &total); err != nil {
			return nil, fmt.Errorf("scanning totals row: %w", err)
		}
		totals[charity] = total
	}
	return totals, rows.Err()
}

// CharityScores reads the charity's precomputed donor feature view. The view is
// maintained outside this service; charity must already be validated against
// the recognized set before the view name is derived from it.
func (s *RecordStore) CharityScores(ctx context.Context, charity string) ([]models.CharityScore, error) {
	view := strings.ToLower(charity) + "_features"

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf(`SELECT donor_hash, gift_count FROM %s`, view))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", view, err)
	}
	defer rows.Close()

	scores := []models.CharityScore{}
	for rows.Next() {
		var score models.CharityScore
		if err := rows.Scan(&score.DonorHash, &score.GiftCount); err != nil {
			return nil, fmt.Errorf("scanning %s row: %w", view, err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
