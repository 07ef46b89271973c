package services

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/eunoia-atlas/backend/internal/models"
)

// DonationCurrency is the fixed asset code for the deployed stablecoin.
const DonationCurrency = "RLUSD"

// MemoService builds, validates and decodes donation memos. Construction is
// pure: the content hash is a deterministic function of the other five fields,
// computed over their sorted-key JSON serialization so hash equality is
// reproducible regardless of the order fields arrive in.
type MemoService struct {
	validator *ValidationHelper
	charities map[string]struct{}
	now       func() time.Time
}

func NewMemoService(charities []string) *MemoService {
	set := make(map[string]struct{}, len(charities))
	for _, name := range charities {
		set[strings.ToUpper(strings.TrimSpace(name))] = struct{}{}
	}
	return &MemoService{
		validator: NewValidationHelper(),
		charities: set,
		now:       time.Now,
	}
}

// BuildMemo constructs the canonical memo for one donation. The charity code is
// case-normalized against the recognized set and the timestamp is fixed at
// construction time, second precision, UTC.
func (m *MemoService) BuildMemo(causeID, charity string, amount float64) (*models.DonationMemo, error) {
	charity = strings.ToUpper(strings.TrimSpace(charity))
	if _, ok := m.charities[charity]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharity, charity)
	}
	if amount <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAmount, amount)
	}

	memo := &models.DonationMemo{
		CauseID:   causeID,
		Charity:   charity,
		Amount:    amount,
		Currency:  DonationCurrency,
		Timestamp: m.now().UTC().Truncate(time.Second).Format(time.RFC3339),
	}
	memo.PayloadHash = ContentHash(memo)
	return memo, nil
}

// ValidateMemo is the defense-in-depth schema check run before a memo is
// persisted or attached to a transaction.
func (m *MemoService) ValidateMemo(memo *models.DonationMemo) error {
	if err := m.validator.ValidateStruct(memo); err != nil {
		return fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	return nil
}

// EncodeMemo serializes a memo for attachment to a ledger transaction.
func (m *MemoService) EncodeMemo(memo *models.DonationMemo) ([]byte, error) {
	if err := m.ValidateMemo(memo); err != nil {
		return nil, err
	}
	return json.Marshal(memo)
}

// DecodeMemo parses a raw memo payload pulled from a ledger transaction. Any
// failure, including schema violations, is reported as ErrDecodeMemo so the
// ingestion loop can skip the transaction without aborting its batch.
func (m *MemoService) DecodeMemo(data []byte) (*models.DonationMemo, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrDecodeMemo)
	}

	var memo models.DonationMemo
	if err := json.Unmarshal(data, &memo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeMemo, err)
	}
	if err := m.ValidateMemo(&memo); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeMemo, err)
	}
	return &memo, nil
}

// ContentHash computes the SHA-256 hex digest of the memo's canonical
// serialization: compact JSON with lexicographically sorted keys, excluding the
// hash field itself.
func ContentHash(memo *models.DonationMemo) string {
	blob := map[string]any{
		"cid": memo.CauseID,
		"chr": memo.Charity,
		"amt": memo.Amount,
		"cur": memo.Currency,
		"ts":  memo.Timestamp,
	}
	// encoding/json marshals map keys in sorted order.
	data, _ := json.Marshal(blob)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
