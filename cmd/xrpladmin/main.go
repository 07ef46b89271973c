// Command xrpladmin is the operator tool for wallet and trustline setup on the
// XRP Ledger testnet. It shares the environment configuration of the server and
// listener, so a wallet created here is usable by them once the seed and
// address are exported.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/eunoia-atlas/backend/internal/config"
	"github.com/eunoia-atlas/backend/internal/services"
	"github.com/eunoia-atlas/backend/internal/xrpl"
)

const usage = `Usage: xrpladmin <command> [flags]

Commands:
  create-wallet                create and fund a wallet via the testnet faucet
  propose-wallet               generate an unfunded keypair via wallet_propose
  trustline -wallet NAME       create an RLUSD trustline for a configured wallet
  setup-trustlines             create RLUSD trustlines for every signing wallet
  balance -wallet NAME         show RLUSD trustline balances for a wallet
  send -wallet NAME -to ADDR -amount N [-charity CODE] [-cause ID]
                               send an RLUSD payment with a donation memo
  config                       print the resolved wallet configuration
`

func main() {
	log.SetFlags(0)

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	client := xrpl.NewClient(cfg.RPCURL, cfg.FaucetURL, cfg.SubmitTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "create-wallet":
		err = createWallet(ctx, client)
	case "propose-wallet":
		err = proposeWallet(ctx, client)
	case "trustline":
		err = trustline(ctx, cfg, client, os.Args[2:])
	case "setup-trustlines":
		err = setupTrustlines(ctx, cfg, client)
	case "balance":
		err = balance(ctx, cfg, client, os.Args[2:])
	case "send":
		err = send(ctx, cfg, client, os.Args[2:])
	case "config":
		err = printConfig(cfg)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("xrpladmin: %v", err)
	}
}

func createWallet(ctx context.Context, client *xrpl.Client) error {
	wallet, err := client.FundWallet(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Address: %s\nSeed:    %s\n", wallet.Address, wallet.Seed)
	fmt.Println("Fund arrives with the faucet transaction; export <NAME>_WALLET_SEED and <NAME>_WALLET_ADDRESS to use it.")
	return nil
}

func proposeWallet(ctx context.Context, client *xrpl.Client) error {
	wallet, err := client.WalletPropose(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Address: %s\nSeed:    %s\n", wallet.Address, wallet.Seed)
	fmt.Println("The account does not exist on the ledger until funded.")
	return nil
}

func resolveWallet(cfg *config.Config, name string) (config.Wallet, error) {
	if name == "" {
		return config.Wallet{}, fmt.Errorf("-wallet is required")
	}
	if name == "PLATFORM" || name == "platform" {
		if cfg.Platform.Address == "" {
			return config.Wallet{}, fmt.Errorf("platform wallet is not configured")
		}
		return cfg.Platform, nil
	}
	wallet, ok := cfg.Charity(name)
	if !ok {
		return config.Wallet{}, fmt.Errorf("unknown wallet %q (configured: PLATFORM, %v)", name, cfg.CharityNames())
	}
	if wallet.Address == "" {
		return config.Wallet{}, fmt.Errorf("wallet %s has no address configured", wallet.Name)
	}
	return wallet, nil
}

func trustline(ctx context.Context, cfg *config.Config, client *xrpl.Client, args []string) error {
	fs := flag.NewFlagSet("trustline", flag.ExitOnError)
	name := fs.String("wallet", "", "configured wallet name")
	limit := fs.String("limit", "1000000", "trustline limit")
	fs.Parse(args)

	wallet, err := resolveWallet(cfg, *name)
	if err != nil {
		return err
	}
	if !wallet.CanSign() {
		return fmt.Errorf("wallet %s has no seed configured", wallet.Name)
	}

	txID, ok, diag := client.SubmitTrustSet(ctx, wallet.Seed, wallet.Address, cfg.RLUSDIssuer, "RLUSD", *limit)
	if !ok {
		return fmt.Errorf("trustline for %s failed: %s", wallet.Name, diag)
	}
	fmt.Printf("Trustline created for %s: %s\n", wallet.Name, txID)
	return nil
}

func setupTrustlines(ctx context.Context, cfg *config.Config, client *xrpl.Client) error {
	wallets := cfg.SenderPreference()
	if len(wallets) == 0 {
		return fmt.Errorf("no signing wallets configured")
	}
	for _, wallet := range wallets {
		txID, ok, diag := client.SubmitTrustSet(ctx, wallet.Seed, wallet.Address, cfg.RLUSDIssuer, "RLUSD", "1000000")
		if !ok {
			log.Printf("Trustline for %s failed: %s", wallet.Name, diag)
			continue
		}
		fmt.Printf("Trustline created for %s: %s\n", wallet.Name, txID)
	}
	return nil
}

func balance(ctx context.Context, cfg *config.Config, client *xrpl.Client, args []string) error {
	fs := flag.NewFlagSet("balance", flag.ExitOnError)
	name := fs.String("wallet", "", "configured wallet name")
	fs.Parse(args)

	wallet, err := resolveWallet(cfg, *name)
	if err != nil {
		return err
	}

	lines, err := client.AccountLines(ctx, wallet.Address, cfg.RLUSDIssuer)
	if err != nil {
		return err
	}
	if len(lines) == 0 {
		fmt.Printf("%s (%s): no trustlines with issuer %s\n", wallet.Name, wallet.Address, cfg.RLUSDIssuer)
		return nil
	}
	for _, line := range lines {
		fmt.Printf("%s (%s): %s %s (limit %s)\n", wallet.Name, wallet.Address, line.Balance, line.Currency, line.Limit)
	}
	return nil
}

func send(ctx context.Context, cfg *config.Config, client *xrpl.Client, args []string) error {
	fs := flag.NewFlagSet("send", flag.ExitOnError)
	name := fs.String("wallet", "", "configured sender wallet name")
	to := fs.String("to", "", "destination address")
	amount := fs.Float64("amount", 0, "RLUSD amount")
	charity := fs.String("charity", "", "charity code for the donation memo")
	cause := fs.String("cause", "", "cause id for the donation memo")
	fs.Parse(args)

	wallet, err := resolveWallet(cfg, *name)
	if err != nil {
		return err
	}
	if !wallet.CanSign() {
		return fmt.Errorf("wallet %s has no seed configured", wallet.Name)
	}
	if *to == "" {
		return fmt.Errorf("-to is required")
	}

	var memoBytes []byte
	if *charity != "" {
		memos := services.NewMemoService(cfg.CharityNames())
		memo, err := memos.BuildMemo(*cause, *charity, *amount)
		if err != nil {
			return err
		}
		memoBytes, err = memos.EncodeMemo(memo)
		if err != nil {
			return err
		}
	}

	txID, ok, diag := client.SubmitPayment(ctx, wallet.Seed, wallet.Address, *to, cfg.RLUSDIssuer, *amount, memoBytes)
	if !ok {
		return fmt.Errorf("payment failed: %s", diag)
	}
	fmt.Printf("Payment validated: %s\n%s/%s\n", txID, cfg.TrackingURLBase, txID)
	return nil
}

func printConfig(cfg *config.Config) error {
	fmt.Printf("RPC URL:      %s\n", cfg.RPCURL)
	fmt.Printf("Faucet URL:   %s\n", cfg.FaucetURL)
	fmt.Printf("RLUSD issuer: %s\n", cfg.RLUSDIssuer)
	describe := func(w config.Wallet) string {
		switch {
		case w.Address == "":
			return "not configured"
		case w.CanSign():
			return w.Address + " (signing)"
		default:
			return w.Address + " (watch-only)"
		}
	}
	fmt.Printf("PLATFORM:     %s\n", describe(cfg.Platform))
	for _, w := range cfg.Charities {
		fmt.Printf("%-13s %s\n", w.Name+":", describe(w))
	}
	return nil
}
