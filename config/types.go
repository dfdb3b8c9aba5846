package config

// Node controls where state is kept.
type Node struct {
	Environment string `toml:"Environment"`
	DataDir     string `toml:"DataDir"`
	// Backend is "leveldb" or "memory".
	Backend string `toml:"Backend"`
}

// Ledger mirrors the Milk token deployment parameters.
type Ledger struct {
	Name     string `toml:"Name"`
	Symbol   string `toml:"Symbol"`
	Decimals uint8  `toml:"Decimals"`
	Address  string `toml:"Address,omitempty"`
}

// Rolls is the rarity threshold table applied until an admin stores one.
type Rolls struct {
	Common    uint64 `toml:"Common"`
	Uncommon  uint64 `toml:"Uncommon"`
	Rare      uint64 `toml:"Rare"`
	Epic      uint64 `toml:"Epic"`
	Legendary uint64 `toml:"Legendary"`
	MaxRoll   uint64 `toml:"MaxRoll"`
}

// Weights is the reward type weighting applied until an admin stores one.
type Weights struct {
	Items uint64 `toml:"Items"`
	Milk  uint64 `toml:"Milk"`
	Box   uint64 `toml:"Box"`
}

type ItemFactory struct {
	BaseURI string  `toml:"BaseURI"`
	Address string  `toml:"Address,omitempty"`
	Rolls   Rolls   `toml:"rolls"`
	Weights Weights `toml:"weights"`
}

// RoleGrant is applied by the owner at startup. Grants that already exist
// are skipped.
type RoleGrant struct {
	Namespace string `toml:"Namespace"`
	Role      string `toml:"Role"`
	Account   string `toml:"Account"`
}

// Roles bootstraps both role tables. When Owner is empty no bootstrap runs
// and the tables are used as persisted.
type Roles struct {
	Owner string `toml:"Owner"`
	// FactoryContract grants CONTRACT on the Milk ledger to the factory
	// account so MILK rewards can be minted.
	FactoryContract bool        `toml:"FactoryContract"`
	Grants          []RoleGrant `toml:"grants"`
}

// Gateway configures the HTTP surface.
type Gateway struct {
	ListenAddress       string   `toml:"ListenAddress"`
	JWTSecret           string   `toml:"JWTSecret,omitempty"`
	JWTSecretEnv        string   `toml:"JWTSecretEnv"`
	Issuer              string   `toml:"Issuer"`
	Audience            string   `toml:"Audience"`
	RequestsPerMinute   float64  `toml:"RequestsPerMinute"`
	Burst               int      `toml:"Burst"`
	ReadHeaderTimeout   int      `toml:"ReadHeaderTimeout"`
	ShutdownTimeout     int      `toml:"ShutdownTimeout"`
	AllowAnonymousReads bool     `toml:"AllowAnonymousReads"`
	LogRequests         bool     `toml:"LogRequests"`
	AllowedOrigins      []string `toml:"AllowedOrigins,omitempty"`
}

// Audit selects the event sink. An empty Driver disables it.
type Audit struct {
	Driver string `toml:"Driver"`
	DSN    string `toml:"DSN"`
}

// Webhooks forwards selected events to an external endpoint. An empty URL
// disables delivery.
type Webhooks struct {
	URL         string   `toml:"URL"`
	Secret      string   `toml:"Secret,omitempty"`
	SecretEnv   string   `toml:"SecretEnv"`
	Events      []string `toml:"Events,omitempty"`
	MaxAttempts int      `toml:"MaxAttempts"`
}

type Telemetry struct {
	Endpoint string            `toml:"Endpoint"`
	Insecure bool              `toml:"Insecure"`
	Traces   bool              `toml:"Traces"`
	Metrics  bool              `toml:"Metrics"`
	Headers  map[string]string `toml:"Headers,omitempty"`
}

type Logging struct {
	Level      string `toml:"Level"`
	File       string `toml:"File,omitempty"`
	MaxSizeMB  int    `toml:"MaxSizeMB"`
	MaxBackups int    `toml:"MaxBackups"`
	MaxAgeDays int    `toml:"MaxAgeDays"`
}
