package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/ethereum/go-ethereum/common"

	"milkfactory/native/itemfactory"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
)

const (
	BackendLevelDB = "leveldb"
	BackendMemory  = "memory"

	AuditSQLite   = "sqlite"
	AuditPostgres = "postgres"
)

// Config is the milkd configuration file.
type Config struct {
	Node        Node        `toml:"node"`
	Ledger      Ledger      `toml:"ledger"`
	ItemFactory ItemFactory `toml:"itemfactory"`
	Roles       Roles       `toml:"roles"`
	Gateway     Gateway     `toml:"gateway"`
	Audit       Audit       `toml:"audit"`
	Webhooks    Webhooks    `toml:"webhooks"`
	Telemetry   Telemetry   `toml:"telemetry"`
	Logging     Logging     `toml:"logging"`
}

// Default returns the configuration written when no file exists.
func Default() *Config {
	rolls := rewards.DefaultRarityRolls
	weights := itemfactory.DefaultTypeWeights
	return &Config{
		Node: Node{
			Environment: "local",
			DataDir:     "./milk-data",
			Backend:     BackendLevelDB,
		},
		Ledger: Ledger{
			Name:     milk.DefaultName,
			Symbol:   milk.DefaultSymbol,
			Decimals: milk.DefaultDecimals,
		},
		ItemFactory: ItemFactory{
			BaseURI: "https://items.example/metadata/",
			Rolls: Rolls{
				Common:    rolls.Common,
				Uncommon:  rolls.Uncommon,
				Rare:      rolls.Rare,
				Epic:      rolls.Epic,
				Legendary: rolls.Legendary,
				MaxRoll:   rolls.MaxRoll,
			},
			Weights: Weights{Items: weights.Items, Milk: weights.Milk, Box: weights.Box},
		},
		Roles: Roles{FactoryContract: true},
		Gateway: Gateway{
			ListenAddress:     ":8090",
			JWTSecretEnv:      "MILK_GATEWAY_JWT_SECRET",
			Issuer:            "milkctl",
			Audience:          "milkd",
			RequestsPerMinute: 120,
			Burst:             20,
			ReadHeaderTimeout: 5,
			ShutdownTimeout:   10,
		},
		Webhooks: Webhooks{
			SecretEnv:   "MILK_WEBHOOK_SECRET",
			MaxAttempts: 5,
		},
		Telemetry: Telemetry{Endpoint: "localhost:4318", Insecure: true},
		Logging: Logging{
			Level:      "info",
			MaxSizeMB:  100,
			MaxBackups: 5,
			MaxAgeDays: 28,
		},
	}
}

// Load loads the configuration from the given path, creating a default file
// when none exists.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}

	cfg := Default()
	// Lists are replaced rather than merged with the defaults.
	cfg.Roles.Grants = nil
	cfg.Webhooks.Events = nil
	meta, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return nil, fmt.Errorf("config file %s has unknown keys: %s", path, strings.Join(keys, ", "))
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Node.Backend = strings.ToLower(strings.TrimSpace(c.Node.Backend))
	if c.Node.Backend == "" {
		c.Node.Backend = BackendLevelDB
	}
	c.Audit.Driver = strings.ToLower(strings.TrimSpace(c.Audit.Driver))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if strings.TrimSpace(c.Node.Environment) == "" {
		c.Node.Environment = "local"
	}
}

// createDefault creates and saves a default configuration file.
func createDefault(path string) (*Config, error) {
	cfg := Default()
	if err := persist(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save validates cfg and writes it to path.
func Save(path string, cfg *Config) error {
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return err
	}
	return persist(path, cfg)
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

// MilkConfig converts the ledger section for milk.NewLedger.
func (c *Config) MilkConfig() milk.Config {
	return milk.Config{
		Name:     c.Ledger.Name,
		Symbol:   c.Ledger.Symbol,
		Decimals: c.Ledger.Decimals,
		Address:  optionalAddress(c.Ledger.Address),
	}
}

// FactoryConfig converts the itemfactory section for itemfactory.NewFactory.
func (c *Config) FactoryConfig() itemfactory.Config {
	return itemfactory.Config{
		BaseURI: c.ItemFactory.BaseURI,
		Address: optionalAddress(c.ItemFactory.Address),
	}
}

// FactoryAddress returns the account the factory operates as.
func (c *Config) FactoryAddress() common.Address {
	if addr := optionalAddress(c.ItemFactory.Address); addr != (common.Address{}) {
		return addr
	}
	return itemfactory.DefaultAddress
}

func (c *Config) RarityRolls() rewards.RarityRolls {
	r := c.ItemFactory.Rolls
	return rewards.RarityRolls{
		Common:    r.Common,
		Uncommon:  r.Uncommon,
		Rare:      r.Rare,
		Epic:      r.Epic,
		Legendary: r.Legendary,
		MaxRoll:   r.MaxRoll,
	}
}

func (c *Config) TypeWeights() itemfactory.TypeWeights {
	w := c.ItemFactory.Weights
	return itemfactory.TypeWeights{Items: w.Items, Milk: w.Milk, Box: w.Box}
}

// Owner returns the bootstrap owner and whether one is configured.
func (c *Config) Owner() (common.Address, bool) {
	addr := optionalAddress(c.Roles.Owner)
	return addr, addr != (common.Address{})
}

// JWTSecret resolves the gateway signing secret, preferring the environment
// variable named by JWTSecretEnv.
func (c *Config) JWTSecret() string {
	if env := strings.TrimSpace(c.Gateway.JWTSecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.Gateway.JWTSecret)
}

// WebhookSecret resolves the webhook signing secret the same way.
func (c *Config) WebhookSecret() string {
	if env := strings.TrimSpace(c.Webhooks.SecretEnv); env != "" {
		if value := strings.TrimSpace(os.Getenv(env)); value != "" {
			return value
		}
	}
	return strings.TrimSpace(c.Webhooks.Secret)
}

// optionalAddress parses a validated hex address; empty input yields the zero
// address.
func optionalAddress(value string) common.Address {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return common.Address{}
	}
	return common.HexToAddress(trimmed)
}
