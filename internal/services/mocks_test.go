package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/eunoia-atlas/backend/internal/models"
	"github.com/eunoia-atlas/backend/internal/xrpl"
)

// MockLedger stands in for the ledger boundary on both the submission and the
// polling side.
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) SubmitPayment(ctx context.Context, senderSeed, senderAddress, destination, issuer string, amount float64, memo []byte) (string, bool, string) {
	args := m.Called(ctx, senderSeed, senderAddress, destination, issuer, amount, memo)
	return args.String(0), args.Bool(1), args.String(2)
}

func (m *MockLedger) AccountTransactions(ctx context.Context, address string, minLedger int64) ([]xrpl.Transaction, error) {
	args := m.Called(ctx, address, minLedger)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]xrpl.Transaction), args.Error(1)
}

func (m *MockLedger) LatestLedgerIndex(ctx context.Context, address string) (int64, error) {
	args := m.Called(ctx, address)
	return args.Get(0).(int64), args.Error(1)
}

type MockInserter struct {
	mock.Mock
}

func (m *MockInserter) Insert(ctx context.Context, rec *models.DonationRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}
