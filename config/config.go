// Package config loads the node's TOML configuration and translates it into
// the ledger's typed parameters.
package config

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"cyclechain/core/epoch"
	"cyclechain/native/auction"
)

// Node carries daemon-level settings.
type Node struct {
	DataDir   string `toml:"data_dir"`
	ListenRPC string `toml:"listen_rpc"`
	Env       string `toml:"env"`
	RPCToken  string `toml:"rpc_token"`
}

// Log carries optional file logging settings; empty path keeps stdout.
type Log struct {
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
	MaxAgeDays int    `toml:"max_age_days"`
}

// Auction carries the ledger economics. Big amounts are decimal strings in
// base units (18 decimals).
type Auction struct {
	GenesisTime     uint64 `toml:"genesis_time"`
	EpochSeconds    uint64 `toml:"epoch_seconds"`
	MintQuota       string `toml:"mint_quota"`
	FeeBps          uint32 `toml:"fee_bps"`
	CrossSubsidyBps uint32 `toml:"cross_subsidy_bps"`
	LiquidityBps    uint32 `toml:"liquidity_bps"`
	FeeMode         string `toml:"fee_mode"`
	WalletCap       string `toml:"wallet_cap"`
	MintCap         string `toml:"mint_cap"`
	Beneficiary     string `toml:"beneficiary"`
	Owner           string `toml:"owner"`
	LPToken         string `toml:"lp_token"`
}

// Config is the full on-disk configuration.
type Config struct {
	Node    Node    `toml:"node"`
	Log     Log     `toml:"log"`
	Auction Auction `toml:"auction"`
}

const (
	defaultListenRPC = "127.0.0.1:8645"
	defaultDataDir   = "./cycledata"
)

// Load reads the TOML file at path, applies defaults and validates.
func Load(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if strings.TrimSpace(c.Node.ListenRPC) == "" {
		c.Node.ListenRPC = defaultListenRPC
	}
	if strings.TrimSpace(c.Node.DataDir) == "" {
		c.Node.DataDir = defaultDataDir
	}
	if c.Auction.EpochSeconds == 0 {
		c.Auction.EpochSeconds = epoch.DefaultLength
	}
	if strings.TrimSpace(c.Auction.FeeMode) == "" {
		c.Auction.FeeMode = "deduct"
	}
}

// Validate checks everything Load can check without touching state.
func (c *Config) Validate() error {
	if c.Auction.GenesisTime == 0 {
		return fmt.Errorf("config: auction.genesis_time is required")
	}
	if _, err := c.EpochConfig(); err != nil {
		return err
	}
	if _, err := c.Params(); err != nil {
		return err
	}
	if _, err := c.OwnerAddress(); err != nil {
		return err
	}
	if _, _, err := c.LPTokenAddress(); err != nil {
		return err
	}
	if _, err := c.MintCapAmount(); err != nil {
		return err
	}
	return nil
}

// EpochConfig returns the epoch quantization settings.
func (c *Config) EpochConfig() (epoch.Config, error) {
	cfg := epoch.Config{Genesis: c.Auction.GenesisTime, Length: c.Auction.EpochSeconds}
	if err := cfg.Validate(); err != nil {
		return epoch.Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// Params translates the auction section into engine parameters.
func (c *Config) Params() (auction.Params, error) {
	beneficiary, err := parseAddress(c.Auction.Beneficiary, "auction.beneficiary")
	if err != nil {
		return auction.Params{}, err
	}
	params := auction.DefaultParams(beneficiary)
	if strings.TrimSpace(c.Auction.MintQuota) != "" {
		quota, err := parseAmount(c.Auction.MintQuota, "auction.mint_quota")
		if err != nil {
			return auction.Params{}, err
		}
		params.MintQuota = quota
	}
	params.FeeBps = c.Auction.FeeBps
	params.CrossSubsidyBps = c.Auction.CrossSubsidyBps
	params.LiquidityBps = c.Auction.LiquidityBps
	switch strings.ToLower(strings.TrimSpace(c.Auction.FeeMode)) {
	case "deduct":
		params.FeeMode = auction.FeeModeDeduct
	case "surcharge":
		params.FeeMode = auction.FeeModeSurcharge
	default:
		return auction.Params{}, fmt.Errorf("config: unknown fee_mode %q", c.Auction.FeeMode)
	}
	if strings.TrimSpace(c.Auction.WalletCap) != "" {
		capAmount, err := parseAmount(c.Auction.WalletCap, "auction.wallet_cap")
		if err != nil {
			return auction.Params{}, err
		}
		params.WalletCap = capAmount
	}
	if err := params.Validate(); err != nil {
		return auction.Params{}, fmt.Errorf("config: %w", err)
	}
	return params, nil
}

// OwnerAddress returns the registry administrator address.
func (c *Config) OwnerAddress() ([20]byte, error) {
	return parseAddress(c.Auction.Owner, "auction.owner")
}

// LPTokenAddress returns the optional liquidity-token pair to register; the
// bool reports whether one is configured.
func (c *Config) LPTokenAddress() ([20]byte, bool, error) {
	if strings.TrimSpace(c.Auction.LPToken) == "" {
		return [20]byte{}, false, nil
	}
	addr, err := parseAddress(c.Auction.LPToken, "auction.lp_token")
	if err != nil {
		return [20]byte{}, false, err
	}
	return addr, true, nil
}

// MintCapAmount returns the optional per-mint bound; nil means unbounded.
func (c *Config) MintCapAmount() (*big.Int, error) {
	if strings.TrimSpace(c.Auction.MintCap) == "" {
		return nil, nil
	}
	return parseAmount(c.Auction.MintCap, "auction.mint_cap")
}

func parseAddress(value, field string) ([20]byte, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return [20]byte{}, fmt.Errorf("config: %s must be a hex address", field)
	}
	return [20]byte(common.HexToAddress(trimmed)), nil
}

func parseAmount(value, field string) (*big.Int, error) {
	amount, ok := new(big.Int).SetString(strings.TrimSpace(value), 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: %s must be a non-negative decimal amount", field)
	}
	return amount, nil
}
