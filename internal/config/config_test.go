package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "https://s.altnet.rippletest.net:51234", cfg.RPCURL)
	assert.Equal(t, "rQhWct2fv4Vc4KRjRgMrxa8xPN9Zx9iLKV", cfg.RLUSDIssuer)
	assert.Equal(t, []string{"MEDA", "TARA"}, cfg.CharityNames())
	assert.Equal(t, 4*time.Second, cfg.PollInterval)
	assert.Equal(t, 10*time.Second, cfg.ErrorBackoff)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("CHARITIES", "zeta, alpha")
	t.Setenv("ALPHA_WALLET_SEED", "sAlpha")
	t.Setenv("ALPHA_WALLET_ADDRESS", "rAlpha")
	t.Setenv("ZETA_WALLET_ADDRESS", "rZeta")
	t.Setenv("PLATFORM_WALLET_SEED", "sPlatform")
	t.Setenv("PLATFORM_WALLET_ADDRESS", "rPlatform")
	t.Setenv("LISTENER_POLL_INTERVAL", "250ms")

	cfg := Load()

	// Charity names are upper-cased, trimmed and sorted.
	assert.Equal(t, []string{"ALPHA", "ZETA"}, cfg.CharityNames())
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)

	alpha, ok := cfg.Charity("alpha")
	assert.True(t, ok)
	assert.Equal(t, "sAlpha", alpha.Seed)
	assert.Equal(t, "rAlpha", alpha.Address)
	assert.True(t, alpha.CanSign())

	zeta, ok := cfg.Charity("ZETA")
	assert.True(t, ok)
	assert.False(t, zeta.CanSign())

	_, ok = cfg.Charity("missing")
	assert.False(t, ok)
}

func TestSenderPreference(t *testing.T) {
	t.Run("platform first, charities in name order", func(t *testing.T) {
		cfg := &Config{
			Platform: Wallet{Name: "PLATFORM", Seed: "s", Address: "r"},
			Charities: []Wallet{
				{Name: "ALPHA", Seed: "sA", Address: "rA"},
				{Name: "ZETA", Seed: "sZ", Address: "rZ"},
			},
		}

		senders := cfg.SenderPreference()
		assert.Len(t, senders, 3)
		assert.Equal(t, "PLATFORM", senders[0].Name)
		assert.Equal(t, "ALPHA", senders[1].Name)
		assert.Equal(t, "ZETA", senders[2].Name)
	})

	t.Run("wallets without seed or address are skipped", func(t *testing.T) {
		cfg := &Config{
			Platform: Wallet{Name: "PLATFORM"},
			Charities: []Wallet{
				{Name: "ALPHA", Address: "rA"},
				{Name: "ZETA", Seed: "sZ", Address: "rZ"},
			},
		}

		senders := cfg.SenderPreference()
		assert.Len(t, senders, 1)
		assert.Equal(t, "ZETA", senders[0].Name)
	})

	t.Run("empty when nothing can sign", func(t *testing.T) {
		cfg := &Config{}
		assert.Empty(t, cfg.SenderPreference())
	})
}

func TestWatchedAddresses(t *testing.T) {
	cfg := &Config{
		Charities: []Wallet{
			{Name: "ALPHA", Address: "rA"},
			{Name: "ZETA"},
		},
	}

	watch := cfg.WatchedAddresses()
	assert.Equal(t, map[string]string{"rA": "ALPHA"}, watch)
}
