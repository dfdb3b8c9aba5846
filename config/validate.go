package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/native/access"
)

var validLogLevels = map[string]struct{}{
	"":      {},
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	switch c.Node.Backend {
	case BackendLevelDB:
		if strings.TrimSpace(c.Node.DataDir) == "" {
			return fmt.Errorf("node: DataDir required for leveldb backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("node: unknown backend %q", c.Node.Backend)
	}

	if err := checkAddress("ledger.Address", c.Ledger.Address); err != nil {
		return err
	}
	if err := checkAddress("itemfactory.Address", c.ItemFactory.Address); err != nil {
		return err
	}
	if err := c.RarityRolls().Validate(); err != nil {
		return fmt.Errorf("itemfactory.rolls: %w", err)
	}
	if err := c.TypeWeights().Validate(); err != nil {
		return fmt.Errorf("itemfactory.weights: %w", err)
	}

	if err := checkAddress("roles.Owner", c.Roles.Owner); err != nil {
		return err
	}
	if _, ok := c.Owner(); !ok && len(c.Roles.Grants) > 0 {
		return fmt.Errorf("roles: grants require an owner")
	}
	for i, grant := range c.Roles.Grants {
		if _, _, _, err := grant.Parse(); err != nil {
			return fmt.Errorf("roles.grants[%d]: %w", i, err)
		}
	}

	if _, _, err := net.SplitHostPort(c.Gateway.ListenAddress); err != nil {
		return fmt.Errorf("gateway: invalid ListenAddress %q: %w", c.Gateway.ListenAddress, err)
	}
	if c.Gateway.RequestsPerMinute < 0 || c.Gateway.Burst < 0 {
		return fmt.Errorf("gateway: rate limits must not be negative")
	}

	switch c.Audit.Driver {
	case "":
	case AuditSQLite, AuditPostgres:
		if strings.TrimSpace(c.Audit.DSN) == "" {
			return fmt.Errorf("audit: DSN required for driver %s", c.Audit.Driver)
		}
	default:
		return fmt.Errorf("audit: unknown driver %q", c.Audit.Driver)
	}

	if raw := strings.TrimSpace(c.Webhooks.URL); raw != "" {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("webhooks: invalid URL %q", raw)
		}
		if c.WebhookSecret() == "" {
			return fmt.Errorf("webhooks: secret required")
		}
		if c.Webhooks.MaxAttempts < 0 {
			return fmt.Errorf("webhooks: MaxAttempts must not be negative")
		}
	}

	if _, ok := validLogLevels[c.Logging.Level]; !ok {
		return fmt.Errorf("logging: unknown level %q", c.Logging.Level)
	}
	return nil
}

// Parse resolves the grant into its namespace, role and account.
func (g RoleGrant) Parse() (string, access.Role, common.Address, error) {
	namespace := strings.ToLower(strings.TrimSpace(g.Namespace))
	switch namespace {
	case access.NamespaceMilk, access.NamespaceItemFactory:
	default:
		return "", access.Role{}, common.Address{}, fmt.Errorf("unknown namespace %q", g.Namespace)
	}
	role, err := access.ParseRole(g.Role)
	if err != nil {
		return "", access.Role{}, common.Address{}, err
	}
	if !common.IsHexAddress(strings.TrimSpace(g.Account)) {
		return "", access.Role{}, common.Address{}, fmt.Errorf("invalid account %q", g.Account)
	}
	return namespace, role, common.HexToAddress(strings.TrimSpace(g.Account)), nil
}

func checkAddress(field, value string) error {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	if !common.IsHexAddress(trimmed) {
		return fmt.Errorf("%s: invalid hex address %q", field, value)
	}
	return nil
}
