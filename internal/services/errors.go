package services

import "errors"

// Donation pipeline error kinds. Request-level faults (charity, amount, schema,
// sender) surface to HTTP callers as 4xx; decode failures are contained per
// transaction on the ingestion path.
var (
	ErrInvalidCharity    = errors.New("invalid charity")
	ErrInvalidAmount     = errors.New("donation amount must be positive")
	ErrSchemaViolation   = errors.New("memo schema violation")
	ErrDecodeMemo        = errors.New("undecodable memo")
	ErrNoSenderAvailable = errors.New("no sender wallet available")
)
