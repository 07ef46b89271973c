package config

import (
	"os"
	"sort"
	"strings"
	"time"
)

// Wallet is one signing identity on the ledger. Seed may be empty: the wallet is
// then watchable but unavailable as a payment sender.
type Wallet struct {
	Name    string
	Seed    string
	Address string
}

func (w Wallet) CanSign() bool { return w.Seed != "" }

// Config carries the ledger and listener settings shared by the server, the
// listener and the admin tool.
type Config struct {
	RPCURL          string
	FaucetURL       string
	RLUSDIssuer     string
	TrackingURLBase string

	Platform  Wallet
	Charities []Wallet // sorted by name

	PollInterval  time.Duration
	ErrorBackoff  time.Duration
	SubmitTimeout time.Duration
}

// Load reads the ledger configuration from the environment. Recognized charities
// come from CHARITIES (comma-separated, default "MEDA,TARA"); each charity may
// carry <NAME>_WALLET_SEED and <NAME>_WALLET_ADDRESS. A missing seed or address
// degrades that charity, never the process.
func Load() *Config {
	cfg := &Config{
		RPCURL:          getEnv("XRPL_RPC", "https://s.altnet.rippletest.net:51234"),
		FaucetURL:       getEnv("XRPL_FAUCET_URL", "https://faucet.altnet.rippletest.net/accounts"),
		RLUSDIssuer:     getEnv("RLUSD_ISSUER", "rQhWct2fv4Vc4KRjRgMrxa8xPN9Zx9iLKV"),
		TrackingURLBase: getEnv("TRACKING_URL_BASE", "https://testnet.xrpl.org/transactions"),
		Platform: Wallet{
			Name:    "PLATFORM",
			Seed:    os.Getenv("PLATFORM_WALLET_SEED"),
			Address: os.Getenv("PLATFORM_WALLET_ADDRESS"),
		},
		PollInterval:  getEnvAsDuration("LISTENER_POLL_INTERVAL", 4*time.Second),
		ErrorBackoff:  getEnvAsDuration("LISTENER_ERROR_BACKOFF", 10*time.Second),
		SubmitTimeout: getEnvAsDuration("SUBMIT_TIMEOUT", 30*time.Second),
	}

	for _, name := range strings.Split(getEnv("CHARITIES", "MEDA,TARA"), ",") {
		name = strings.ToUpper(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		cfg.Charities = append(cfg.Charities, Wallet{
			Name:    name,
			Seed:    os.Getenv(name + "_WALLET_SEED"),
			Address: os.Getenv(name + "_WALLET_ADDRESS"),
		})
	}
	sort.Slice(cfg.Charities, func(i, j int) bool {
		return cfg.Charities[i].Name < cfg.Charities[j].Name
	})

	return cfg
}

// CharityNames returns the closed set of recognized charity codes.
func (c *Config) CharityNames() []string {
	names := make([]string, 0, len(c.Charities))
	for _, w := range c.Charities {
		names = append(names, w.Name)
	}
	return names
}

// Charity resolves a (case-insensitive) charity code to its wallet.
func (c *Config) Charity(name string) (Wallet, bool) {
	name = strings.ToUpper(strings.TrimSpace(name))
	for _, w := range c.Charities {
		if w.Name == name {
			return w, true
		}
	}
	return Wallet{}, false
}

// SenderPreference returns the ordered list of wallets eligible to sign outbound
// payments: the platform wallet first when configured, then the charity wallets
// in stable name order. The order is deterministic across restarts.
func (c *Config) SenderPreference() []Wallet {
	var senders []Wallet
	if c.Platform.CanSign() && c.Platform.Address != "" {
		senders = append(senders, c.Platform)
	}
	for _, w := range c.Charities {
		if w.CanSign() && w.Address != "" {
			senders = append(senders, w)
		}
	}
	return senders
}

// WatchedAddresses maps each configured charity address to its charity code for
// the ingestion listener. Charities without an address are simply not watched.
func (c *Config) WatchedAddresses() map[string]string {
	watch := make(map[string]string)
	for _, w := range c.Charities {
		if w.Address != "" {
			watch[w.Address] = w.Name
		}
	}
	return watch
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
