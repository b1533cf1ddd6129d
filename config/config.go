package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"pharos/core"
	"pharos/core/state"
	"pharos/crypto"
	"pharos/native/loan"
)

// GenesisAllocation is one initial balance in the genesis block of the
// config file. Amounts are decimal strings in base units.
type GenesisAllocation struct {
	Address string `toml:"Address"`
	Token   string `toml:"Token"`
	Amount  string `toml:"Amount"`
}

// Genesis configures the one-time chain seed. Addresses are bech32.
type Genesis struct {
	Owner          string              `toml:"Owner"`
	Operator       string              `toml:"Operator"`
	StablePool     string              `toml:"StablePool"`
	ReserveBalance string              `toml:"ReserveBalance"`
	Allocations    []GenesisAllocation `toml:"Allocations"`
}

// Config is the daemon configuration.
type Config struct {
	RPCAddress   string      `toml:"RPCAddress"`
	DataDir      string      `toml:"DataDir"`
	NetworkName  string      `toml:"NetworkName"`
	Env          string      `toml:"Env"`
	LogLevel     string      `toml:"LogLevel"`
	RPCAuthToken string      `toml:"RPCAuthToken"`
	RPCRateLimit float64     `toml:"RPCRateLimit"`
	Genesis      Genesis     `toml:"genesis"`
	Loan         loan.Params `toml:"loan"`
}

// Load reads the configuration at path, writing and returning defaults when
// the file does not exist yet.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.RPCAddress) == "" {
		cfg.RPCAddress = ":8080"
	}
	if strings.TrimSpace(cfg.DataDir) == "" {
		cfg.DataDir = "./pharos-data"
	}
	if strings.TrimSpace(cfg.NetworkName) == "" {
		cfg.NetworkName = "pharos-local"
	}
	if strings.TrimSpace(cfg.LogLevel) == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RPCRateLimit <= 0 {
		cfg.RPCRateLimit = 50
	}
	zero := loan.Params{}
	if cfg.Loan == zero {
		cfg.Loan = loan.DefaultParams()
	}
}

// Validate rejects configurations the node would refuse at runtime.
func (cfg *Config) Validate() error {
	if err := cfg.Loan.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(cfg.Genesis.Operator) == "" {
		return fmt.Errorf("config: genesis.Operator is required")
	}
	if _, err := decodeAddr(cfg.Genesis.Operator); err != nil {
		return fmt.Errorf("config: genesis.Operator: %w", err)
	}
	if strings.TrimSpace(cfg.Genesis.Owner) != "" {
		if _, err := decodeAddr(cfg.Genesis.Owner); err != nil {
			return fmt.Errorf("config: genesis.Owner: %w", err)
		}
	}
	for i, alloc := range cfg.Genesis.Allocations {
		if _, err := decodeAddr(alloc.Address); err != nil {
			return fmt.Errorf("config: genesis allocation %d: %w", i, err)
		}
		switch alloc.Token {
		case state.TokenLST, state.TokenPUSD, state.TokenUSD:
		default:
			return fmt.Errorf("config: genesis allocation %d: unknown token %q", i, alloc.Token)
		}
		if _, err := decodeAmount(alloc.Amount); err != nil {
			return fmt.Errorf("config: genesis allocation %d: %w", i, err)
		}
	}
	for _, field := range []string{cfg.Genesis.StablePool, cfg.Genesis.ReserveBalance} {
		if strings.TrimSpace(field) == "" {
			continue
		}
		if _, err := decodeAmount(field); err != nil {
			return err
		}
	}
	return nil
}

// GenesisConfig converts the file representation into the core genesis seed.
func (cfg *Config) GenesisConfig() (core.GenesisConfig, error) {
	if err := cfg.Validate(); err != nil {
		return core.GenesisConfig{}, err
	}
	genesis := core.GenesisConfig{LoanParams: &cfg.Loan}
	var err error
	if genesis.Operator, err = decodeAddr(cfg.Genesis.Operator); err != nil {
		return core.GenesisConfig{}, err
	}
	if strings.TrimSpace(cfg.Genesis.Owner) != "" {
		if genesis.Owner, err = decodeAddr(cfg.Genesis.Owner); err != nil {
			return core.GenesisConfig{}, err
		}
	}
	if strings.TrimSpace(cfg.Genesis.StablePool) != "" {
		if genesis.StablePool, err = decodeAmount(cfg.Genesis.StablePool); err != nil {
			return core.GenesisConfig{}, err
		}
	}
	if strings.TrimSpace(cfg.Genesis.ReserveBalance) != "" {
		if genesis.ReserveBalance, err = decodeAmount(cfg.Genesis.ReserveBalance); err != nil {
			return core.GenesisConfig{}, err
		}
	}
	for _, alloc := range cfg.Genesis.Allocations {
		addr, err := decodeAddr(alloc.Address)
		if err != nil {
			return core.GenesisConfig{}, err
		}
		amount, err := decodeAmount(alloc.Amount)
		if err != nil {
			return core.GenesisConfig{}, err
		}
		genesis.Allocations = append(genesis.Allocations, core.GenesisAllocation{
			Address: addr,
			Token:   alloc.Token,
			Amount:  amount,
		})
	}
	return genesis, nil
}

func decodeAddr(addrStr string) ([20]byte, error) {
	decoded, err := crypto.DecodeAddress(strings.TrimSpace(addrStr))
	if err != nil {
		return [20]byte{}, err
	}
	return decoded.Array(), nil
}

func decodeAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: invalid amount %q", raw)
	}
	return amount, nil
}

// createDefault creates and saves a default configuration file. The genesis
// identities are freshly generated so a first run produces a working local
// network.
func createDefault(path string) (*Config, error) {
	ownerKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}
	operatorKey, err := crypto.GeneratePrivateKey()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		RPCAddress:   ":8080",
		DataDir:      "./pharos-data",
		NetworkName:  "pharos-local",
		LogLevel:     "info",
		RPCRateLimit: 50,
		Genesis: Genesis{
			Owner:          ownerKey.PubKey().Address().String(),
			Operator:       operatorKey.PubKey().Address().String(),
			StablePool:     "1000000000000000000000000",
			ReserveBalance: "1000000000000000000000000",
		},
		Loan: loan.DefaultParams(),
	}

	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func persist(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}
