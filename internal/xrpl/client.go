// Package xrpl wraps the rippled JSON-RPC interface behind the three operations
// the platform needs: submitting payments, paging per-account transaction
// history, and a few administrative calls (trustlines, balances, wallet
// creation). Transaction signing is delegated to the rippled endpoint via the
// sign-and-submit form of the submit method; no key material is handled here
// beyond forwarding the wallet secret.
package xrpl

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// RLUSDCurrencyHex is the 160-bit currency code for RLUSD on the XRP Ledger.
const RLUSDCurrencyHex = "524C555344000000000000000000000000000000"

// ErrNetwork marks transport-level failures talking to the ledger endpoint.
// Callers are responsible for retry.
var ErrNetwork = errors.New("xrpl: network error")

type Client struct {
	rpcURL        string
	faucetURL     string
	httpClient    *http.Client
	submitTimeout time.Duration
}

func NewClient(rpcURL, faucetURL string, submitTimeout time.Duration) *Client {
	return &Client{
		rpcURL:        rpcURL,
		faucetURL:     faucetURL,
		httpClient:    &http.Client{Timeout: 20 * time.Second},
		submitTimeout: submitTimeout,
	}
}

// Transaction is one entry of an account's transaction history. MemoData is the
// hex-decoded payload of the first memo, or nil when the transaction carries no
// memo.
type Transaction struct {
	Hash        string
	LedgerIndex int64
	MemoData    []byte
}

// TrustLine is one row of an account_lines response.
type TrustLine struct {
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Limit    string `json:"limit"`
}

// ProposedWallet is a freshly generated keypair, either proposed by the server
// or created and funded by the testnet faucet.
type ProposedWallet struct {
	Address string
	Seed    string
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params,omitempty"`
}

type rpcEnvelope struct {
	Result json.RawMessage `json:"result"`
}

type rpcStatus struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Error        string `json:"error"`
}

// call performs one JSON-RPC request. Transport and malformed-response failures
// wrap ErrNetwork; an error status in the result surfaces as a plain error.
func (c *Client) call(ctx context.Context, method string, params any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: []any{params}})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.rpcURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned HTTP %d", ErrNetwork, method, resp.StatusCode)
	}

	var envelope rpcEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrNetwork, method, err)
	}

	var status rpcStatus
	if err := json.Unmarshal(envelope.Result, &status); err == nil && status.Status == "error" {
		msg := status.ErrorMessage
		if msg == "" {
			msg = status.Error
		}
		return fmt.Errorf("xrpl: %s failed: %s", method, msg)
	}

	return json.Unmarshal(envelope.Result, out)
}

type issuedAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
	Issuer   string `json:"issuer"`
}

type memoField struct {
	MemoData string `json:"MemoData"`
}

type memoWrapper struct {
	Memo memoField `json:"Memo"`
}

type submitResult struct {
	EngineResult        string `json:"engine_result"`
	EngineResultMessage string `json:"engine_result_message"`
	TxJSON              struct {
		Hash string `json:"hash"`
	} `json:"tx_json"`
}

// SubmitPayment submits an RLUSD payment and blocks until the network reports
// the transaction validated or the configured deadline elapses. Ordinary
// rejections (insufficient balance, bad destination, timeout) are reported via
// ok=false plus a diagnostic, never as an error; transport failures are folded
// into the same shape so the caller's fallback policy applies uniformly.
func (c *Client) SubmitPayment(ctx context.Context, senderSeed, senderAddress, destination, issuer string, amount float64, memo []byte) (txID string, ok bool, diag string) {
	rlusd := issuedAmount{
		Currency: RLUSDCurrencyHex,
		Value:    formatAmount(amount),
		Issuer:   issuer,
	}

	txJSON := map[string]any{
		"TransactionType": "Payment",
		"Account":         senderAddress,
		"Destination":     destination,
		"Amount":          rlusd,
		// SendMax is required for issued-currency conversions.
		"SendMax": rlusd,
	}
	if len(memo) > 0 {
		txJSON["Memos"] = []memoWrapper{{Memo: memoField{
			MemoData: strings.ToUpper(hex.EncodeToString(memo)),
		}}}
	}

	params := map[string]any{
		"tx_json": txJSON,
		"secret":  senderSeed,
	}

	deadline := time.Now().Add(c.submitTimeout)
	submitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var result submitResult
	if err := c.call(submitCtx, "submit", params, &result); err != nil {
		return "", false, err.Error()
	}

	if !strings.HasPrefix(result.EngineResult, "tes") {
		msg := result.EngineResultMessage
		if msg == "" {
			msg = result.EngineResult
		}
		return result.TxJSON.Hash, false, msg
	}

	if err := c.waitValidated(submitCtx, result.TxJSON.Hash, deadline); err != nil {
		return result.TxJSON.Hash, false, err.Error()
	}
	return result.TxJSON.Hash, true, ""
}

type txResult struct {
	Validated bool `json:"validated"`
}

func (c *Client) waitValidated(ctx context.Context, hash string, deadline time.Time) error {
	for {
		var result txResult
		err := c.call(ctx, "tx", map[string]any{"transaction": hash}, &result)
		if err == nil && result.Validated {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("transaction %s not validated before deadline", hash)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

type accountTxEntry struct {
	LedgerIndex int64 `json:"ledger_index"`
	Validated   bool  `json:"validated"`
	Tx          struct {
		Hash  string        `json:"hash"`
		Memos []memoWrapper `json:"Memos"`
	} `json:"tx_json"`
}

type accountTxResult struct {
	Transactions []accountTxEntry `json:"transactions"`
}

// AccountTransactions fetches the validated transactions affecting address with
// ledger index >= minLedger, ascending, with no upper bound. Entries from
// ledgers the network has not validated yet are excluded so the ingestion
// watermark never advances past a transaction that could still change.
func (c *Client) AccountTransactions(ctx context.Context, address string, minLedger int64) ([]Transaction, error) {
	params := map[string]any{
		"account":          address,
		"ledger_index_min": minLedger,
		"ledger_index_max": -1,
		"forward":          true,
	}

	var result accountTxResult
	if err := c.call(ctx, "account_tx", params, &result); err != nil {
		return nil, err
	}

	txs := make([]Transaction, 0, len(result.Transactions))
	for _, entry := range result.Transactions {
		if !entry.Validated {
			continue
		}
		tx := Transaction{
			Hash:        entry.Tx.Hash,
			LedgerIndex: entry.LedgerIndex,
		}
		if len(entry.Tx.Memos) > 0 {
			if data, err := hex.DecodeString(entry.Tx.Memos[0].Memo.MemoData); err == nil {
				tx.MemoData = data
			}
		}
		txs = append(txs, tx)
	}
	return txs, nil
}

// LatestLedgerIndex probes the most recent transaction affecting address, used
// to seed ingestion watermarks. Returns 0 when the account has no history.
func (c *Client) LatestLedgerIndex(ctx context.Context, address string) (int64, error) {
	params := map[string]any{
		"account": address,
		"limit":   1,
	}

	var result accountTxResult
	if err := c.call(ctx, "account_tx", params, &result); err != nil {
		return 0, err
	}
	if len(result.Transactions) == 0 {
		return 0, nil
	}
	return result.Transactions[0].LedgerIndex, nil
}

type accountLinesResult struct {
	Lines []TrustLine `json:"lines"`
}

// AccountLines lists the trustlines between address and the given issuer.
func (c *Client) AccountLines(ctx context.Context, address, peer string) ([]TrustLine, error) {
	params := map[string]any{
		"account": address,
		"peer":    peer,
	}

	var result accountLinesResult
	if err := c.call(ctx, "account_lines", params, &result); err != nil {
		return nil, err
	}
	return result.Lines, nil
}

// SubmitTrustSet creates a trustline from the wallet to issuer for the given
// currency code. Same ok/diag contract as SubmitPayment.
func (c *Client) SubmitTrustSet(ctx context.Context, seed, address, issuer, currencyCode, limit string) (txID string, ok bool, diag string) {
	currencyHex, err := CurrencyHex(currencyCode)
	if err != nil {
		return "", false, err.Error()
	}

	params := map[string]any{
		"tx_json": map[string]any{
			"TransactionType": "TrustSet",
			"Account":         address,
			"LimitAmount": issuedAmount{
				Currency: currencyHex,
				Issuer:   issuer,
				Value:    limit,
			},
		},
		"secret": seed,
	}

	deadline := time.Now().Add(c.submitTimeout)
	submitCtx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	var result submitResult
	if err := c.call(submitCtx, "submit", params, &result); err != nil {
		return "", false, err.Error()
	}
	if !strings.HasPrefix(result.EngineResult, "tes") {
		msg := result.EngineResultMessage
		if msg == "" {
			msg = result.EngineResult
		}
		return result.TxJSON.Hash, false, msg
	}
	if err := c.waitValidated(submitCtx, result.TxJSON.Hash, deadline); err != nil {
		return result.TxJSON.Hash, false, err.Error()
	}
	return result.TxJSON.Hash, true, ""
}

type walletProposeResult struct {
	AccountID  string `json:"account_id"`
	MasterSeed string `json:"master_seed"`
}

// WalletPropose asks the endpoint to generate a keypair. The resulting account
// exists only once funded.
func (c *Client) WalletPropose(ctx context.Context) (*ProposedWallet, error) {
	var result walletProposeResult
	if err := c.call(ctx, "wallet_propose", map[string]any{}, &result); err != nil {
		return nil, err
	}
	return &ProposedWallet{Address: result.AccountID, Seed: result.MasterSeed}, nil
}

type faucetResponse struct {
	Account struct {
		Address string `json:"address"`
		Secret  string `json:"secret"`
	} `json:"account"`
	Seed string `json:"seed"`
}

// FundWallet creates and funds a wallet through the testnet faucet.
func (c *Client) FundWallet(ctx context.Context) (*ProposedWallet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.faucetURL, strings.NewReader("{}"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: faucet returned HTTP %d", ErrNetwork, resp.StatusCode)
	}

	var result faucetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding faucet response: %v", ErrNetwork, err)
	}

	seed := result.Account.Secret
	if seed == "" {
		seed = result.Seed
	}
	return &ProposedWallet{Address: result.Account.Address, Seed: seed}, nil
}

// CurrencyHex converts a currency code to the ledger's 160-bit hex form.
// RLUSD uses its registered code; other codes must be 20 ASCII characters or
// fewer and are right-padded with zeros.
func CurrencyHex(code string) (string, error) {
	if code == "RLUSD" {
		return RLUSDCurrencyHex, nil
	}
	if len(code) <= 3 {
		// Three-letter ISO-style codes are used verbatim on the ledger.
		return code, nil
	}
	if len(code) > 20 {
		return "", fmt.Errorf("currency code must be 20 characters or less: %q", code)
	}
	h := strings.ToUpper(hex.EncodeToString([]byte(code)))
	return h + strings.Repeat("0", 40-len(h)), nil
}

func formatAmount(amount float64) string {
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.6f", amount), "0"), ".")
}
