package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"strings"

	"github.com/eunoia-atlas/backend/internal/config"
	"github.com/eunoia-atlas/backend/internal/models"
)

// LedgerSubmitter is the payment side of the ledger boundary. Implementations
// block until the network reports finality or a bounded timeout; ordinary
// rejection and transport failure are both reported via ok=false plus a
// diagnostic, never an error.
type LedgerSubmitter interface {
	SubmitPayment(ctx context.Context, senderSeed, senderAddress, destination, issuer string, amount float64, memo []byte) (txID string, ok bool, diag string)
}

// PaymentService implements the donation issuance path: validate, build the
// memo, attempt a real ledger payment, fall back to a synthetic transaction id
// when the submission does not succeed.
type PaymentService struct {
	cfg    *config.Config
	ledger LedgerSubmitter
	memos  *MemoService
}

// IssueResult is the outcome of one issuance. Synthetic is true when the
// transaction id was generated locally instead of by the ledger: the id is not
// resolvable on the network and callers must not treat it as settled. This is
// the deliberate best-effort demo fallback, exposed explicitly rather than
// left for callers to infer from the id format.
type IssueResult struct {
	TransactionID string
	Memo          *models.DonationMemo
	Synthetic     bool
}

func NewPaymentService(cfg *config.Config, ledger LedgerSubmitter, memos *MemoService) *PaymentService {
	return &PaymentService{cfg: cfg, ledger: ledger, memos: memos}
}

// IssuePayment validates the donation, submits an RLUSD payment to the
// charity's wallet and returns the resulting transaction id and memo. Once
// validation passes it never fails: an unsuccessful submission yields a
// synthetic id. The caller is responsible for persisting the result.
func (p *PaymentService) IssuePayment(ctx context.Context, charity, causeID string, amount float64) (*IssueResult, error) {
	wallet, ok := p.cfg.Charity(charity)
	if !ok || wallet.Address == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCharity, strings.ToUpper(strings.TrimSpace(charity)))
	}

	senders := p.cfg.SenderPreference()
	if len(senders) == 0 {
		return nil, ErrNoSenderAvailable
	}
	sender := senders[0]

	memo, err := p.memos.BuildMemo(causeID, charity, amount)
	if err != nil {
		return nil, err
	}
	memoBytes, err := p.memos.EncodeMemo(memo)
	if err != nil {
		return nil, err
	}

	txID, ok, diag := p.ledger.SubmitPayment(ctx, sender.Seed, sender.Address, wallet.Address, p.cfg.RLUSDIssuer, amount, memoBytes)
	if ok {
		log.Printf("[PAYMENT] Ledger payment validated: %s (%s -> %s, %.2f %s)",
			txID, sender.Name, wallet.Name, amount, memo.Currency)
		return &IssueResult{TransactionID: txID, Memo: memo}, nil
	}

	synthetic := syntheticTxID()
	log.Printf("[PAYMENT] Ledger payment failed (%s), issuing synthetic id %s for %s/%s",
		diag, synthetic, wallet.Name, causeID)
	return &IssueResult{TransactionID: synthetic, Memo: memo, Synthetic: true}, nil
}

// syntheticTxID generates a 64-hex-character opaque identifier shaped like a
// ledger transaction hash.
func syntheticTxID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("reading random bytes: %v", err))
	}
	return strings.ToUpper(hex.EncodeToString(b))
}
