package services

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/eunoia-atlas/backend/internal/models"
)

func testRecord(txID string) *models.DonationRecord {
	return &models.DonationRecord{
		TransactionID: txID,
		Memo: models.DonationMemo{
			CauseID:     "c1",
			Charity:     "MEDA",
			Amount:      25,
			Currency:    "RLUSD",
			Timestamp:   "2025-06-01T12:00:00Z",
			PayloadHash: zeroHash,
		},
	}
}

func TestRecordStore_Insert(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewRecordStore(db)

	t.Run("stores full payload", func(t *testing.T) {
		rec := testRecord("ABC123")
		rec.DonorEmail = "donor@example.com"
		rec.Synthetic = true

		mock.ExpectExec("INSERT INTO donations").
			WithArgs("ABC123", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, store.Insert(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate transaction id is a no-op", func(t *testing.T) {
		rec := testRecord("ABC123")

		// ON CONFLICT DO NOTHING reports zero rows affected, not an error.
		mock.ExpectExec("INSERT INTO donations").
			WithArgs("ABC123", sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, store.Insert(context.Background(), rec))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error surfaces", func(t *testing.T) {
		rec := testRecord("ABC123")

		mock.ExpectExec("INSERT INTO donations").
			WithArgs("ABC123", sqlmock.AnyArg()).
			WillReturnError(errors.New("connection reset"))

		err := store.Insert(context.Background(), rec)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "ABC123")
	})
}

// jsonCapture records the JSON payload argument for later inspection.
type jsonCapture struct {
	value *[]byte
}

func (c jsonCapture) Match(v driver.Value) bool {
	switch data := v.(type) {
	case []byte:
		*c.value = data
	case string:
		*c.value = []byte(data)
	default:
		return false
	}
	return true
}

func TestRecordStore_InsertPayloadShape(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewRecordStore(db)

	var captured []byte
	mock.ExpectExec("INSERT INTO donations").
		WithArgs("ABC123", jsonCapture{&captured}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	rec := testRecord("ABC123")
	assert.NoError(t, store.Insert(context.Background(), rec))

	var decoded map[string]any
	assert.NoError(t, json.Unmarshal(captured, &decoded))
	assert.Equal(t, "MEDA", decoded["chr"])
	assert.Equal(t, 25.0, decoded["amt"])
	assert.Equal(t, "ABC123", decoded["tx"])
	assert.Equal(t, false, decoded["synthetic"])
	assert.NotContains(t, decoded, "donor_email")
}

func TestRecordStore_TotalsByCharity(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewRecordStore(db)

	t.Run("sums per charity", func(t *testing.T) {
		mock.ExpectQuery("SELECT data->>'chr' AS chr").
			WillReturnRows(sqlmock.NewRows([]string{"chr", "total"}).
				AddRow("MEDA", 25.0).
				AddRow("TARA", 5.0))

		totals, err := store.TotalsByCharity(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, map[string]float64{"MEDA": 25, "TARA": 5}, totals)
	})

	t.Run("empty table", func(t *testing.T) {
		mock.ExpectQuery("SELECT data->>'chr' AS chr").
			WillReturnRows(sqlmock.NewRows([]string{"chr", "total"}))

		totals, err := store.TotalsByCharity(context.Background())
		assert.NoError(t, err)
		assert.Empty(t, totals)
	})
}

func TestRecordStore_CharityScores(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	store := NewRecordStore(db)

	t.Run("reads the charity feature view", func(t *testing.T) {
		mock.ExpectQuery("SELECT donor_hash, gift_count FROM meda_features").
			WillReturnRows(sqlmock.NewRows([]string{"donor_hash", "gift_count"}).
				AddRow("d1", 3).
				AddRow("d2", 1))

		scores, err := store.CharityScores(context.Background(), "MEDA")
		assert.NoError(t, err)
		assert.Equal(t, []models.CharityScore{
			{DonorHash: "d1", GiftCount: 3},
			{DonorHash: "d2", GiftCount: 1},
		}, scores)
	})

	t.Run("missing view surfaces as error", func(t *testing.T) {
		mock.ExpectQuery("SELECT donor_hash, gift_count FROM tara_features").
			WillReturnError(errors.New(`relation "tara_features" does not exist`))

		_, err := store.CharityScores(context.Background(), "TARA")
		assert.Error(t, err)
	})
}
