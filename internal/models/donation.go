package models

// DonationMemo is the canonical payload attached to (or associated with) a
// ledger payment. PayloadHash is computed once at construction over the sorted-key
// JSON serialization of the other five fields and never recomputed afterwards.
type DonationMemo struct {
	CauseID     string  `json:"cid" validate:"required"`
	Charity     string  `json:"chr" validate:"required,uppercase"`
	Amount      float64 `json:"amt" validate:"required,gt=0"`
	Currency    string  `json:"cur" validate:"required"`
	Timestamp   string  `json:"ts" validate:"required"`
	PayloadHash string  `json:"ph" validate:"required,len=64,hexadecimal"`
}

// DonationRecord is one row of the donations table. TransactionID is the primary
// key; Synthetic marks identifiers generated locally when the ledger submission
// did not succeed.
type DonationRecord struct {
	TransactionID string
	Memo          DonationMemo
	DonorEmail    string
	Synthetic     bool
}

// DonationRequest is the POST /donate body.
type DonationRequest struct {
	Charity    string  `json:"charity" validate:"required"`
	CauseID    string  `json:"causeId" validate:"required"`
	Amount     float64 `json:"amount" validate:"required,gt=0"`
	DonorEmail string  `json:"donorEmail" validate:"omitempty,email"`
}

// CharityScore is one row of a charity's precomputed donor feature view.
type CharityScore struct {
	DonorHash string `json:"donorHash"`
	GiftCount int    `json:"giftCount"`
}
