package services

import (
	"context"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/eunoia-atlas/backend/internal/models"
	"github.com/eunoia-atlas/backend/internal/xrpl"
)

// LedgerHistory is the polling side of the ledger boundary.
type LedgerHistory interface {
	AccountTransactions(ctx context.Context, address string, minLedger int64) ([]xrpl.Transaction, error)
	LatestLedgerIndex(ctx context.Context, address string) (int64, error)
}

// DonationInserter is what the listener needs from the record store.
type DonationInserter interface {
	Insert(ctx context.Context, rec *models.DonationRecord) error
}

// ListenerService discovers incoming donation transactions by polling each
// watched charity address and inserting decoded memos idempotently. Watermarks
// (highest processed ledger index per address) live only in memory: a restart
// reseeds them from the network and any reprocessed entries are absorbed by
// insert-or-ignore.
type ListenerService struct {
	history LedgerHistory
	store   DonationInserter
	memos   *MemoService

	watch      map[string]string // address -> charity code
	watermarks map[string]int64

	pollInterval time.Duration
	errorBackoff time.Duration
}

func NewListenerService(history LedgerHistory, store DonationInserter, memos *MemoService, watch map[string]string, pollInterval, errorBackoff time.Duration) *ListenerService {
	return &ListenerService{
		history:      history,
		store:        store,
		memos:        memos,
		watch:        watch,
		watermarks:   make(map[string]int64, len(watch)),
		pollInterval: pollInterval,
		errorBackoff: errorBackoff,
	}
}

// Run polls until ctx is cancelled. With no watchable addresses configured the
// listener stays in a passive heartbeat so the process remains alive for health
// checks; it never exits on its own otherwise.
func (l *ListenerService) Run(ctx context.Context) {
	if len(l.watch) == 0 {
		log.Printf("[LISTENER] No wallet addresses configured, running in heartbeat mode")
		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(l.errorBackoff):
				log.Printf("[LISTENER] Heartbeat (no addresses watched)")
			}
		}
	}

	log.Printf("[LISTENER] Watching %d addresses", len(l.watch))
	l.SeedWatermarks(ctx)

	for {
		interval := l.pollInterval
		if hadError := l.PollRound(ctx); hadError {
			interval = l.errorBackoff
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(interval):
		}
	}
}

// SeedWatermarks initializes each address at its most recent ledger index so a
// restart does not replay full history. A failed probe seeds zero: the address
// replays from the beginning and idempotent insertion absorbs the duplicates.
func (l *ListenerService) SeedWatermarks(ctx context.Context) {
	for _, addr := range l.sortedAddresses() {
		index, err := l.history.LatestLedgerIndex(ctx, addr)
		if err != nil {
			log.Printf("[LISTENER] Seeding %s failed, replaying full history: %v", addr, err)
			l.watermarks[addr] = 0
			continue
		}
		l.watermarks[addr] = index
		log.Printf("[LISTENER] Initialized %s (%s) at ledger %d", addr, l.watch[addr], index)
	}
}

// PollRound processes one batch for every watched address. An error on one
// address is logged and does not block the others; the return value tells the
// caller to back off before the next round.
func (l *ListenerService) PollRound(ctx context.Context) (hadError bool) {
	for _, addr := range l.sortedAddresses() {
		if ctx.Err() != nil {
			return hadError
		}
		if err := l.processAddress(ctx, addr); err != nil {
			log.Printf("[LISTENER] Polling %s failed: %v", addr, err)
			hadError = true
		}
	}
	return hadError
}

// processAddress fetches and ingests transactions above the address watermark.
// Memo-less or undecodable transactions advance the watermark and are never
// retried; a persistence failure stops advancement so the record is refetched
// on the next round rather than silently lost.
func (l *ListenerService) processAddress(ctx context.Context, addr string) error {
	txs, err := l.history.AccountTransactions(ctx, addr, l.watermarks[addr]+1)
	if err != nil {
		return err
	}

	for _, tx := range txs {
		memo, err := l.memos.DecodeMemo(tx.MemoData)
		if err != nil {
			if !errors.Is(err, ErrDecodeMemo) {
				return err
			}
			log.Printf("[LISTENER] Skipping %s at ledger %d: %v", tx.Hash, tx.LedgerIndex, err)
			l.watermarks[addr] = tx.LedgerIndex
			continue
		}

		rec := &models.DonationRecord{TransactionID: tx.Hash, Memo: *memo}
		if err := l.store.Insert(ctx, rec); err != nil {
			return err
		}
		log.Printf("[LISTENER] Processed transaction %s (%s, %.2f %s)",
			tx.Hash, memo.Charity, memo.Amount, memo.Currency)
		l.watermarks[addr] = tx.LedgerIndex
	}
	return nil
}

// Watermark reports the highest processed ledger index for an address.
func (l *ListenerService) Watermark(addr string) int64 {
	return l.watermarks[addr]
}

func (l *ListenerService) sortedAddresses() []string {
	addrs := make([]string, 0, len(l.watch))
	for addr := range l.watch {
		addrs = append(addrs, addr)
	}
	sort.Strings(addrs)
	return addrs
}
