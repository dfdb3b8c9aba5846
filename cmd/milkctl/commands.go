package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"milkfactory/config"
	"milkfactory/gateway/middleware"
	"milkfactory/native/access"
	"milkfactory/native/itemfactory"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
)

type command struct {
	summary string
	run     func(args []string, out io.Writer) error
}

var commands = map[string]command{
	"token":         {"issue a gateway bearer token for an address", runToken},
	"deposit":       {"ABI-encode a deposit payload", runDepositPayload},
	"reward":        {"ABI-encode a reward entry payload", runRewardPayload},
	"decode-reward": {"decode a reward entry payload", runDecodeReward},
	"role-id":       {"print the identifier of a role", runRoleID},
	"init-config":   {"write a default milkd configuration", runInitConfig},
}

var commandOrder = []string{"token", "deposit", "reward", "decode-reward", "role-id", "init-config"}

func runToken(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("token", flag.ContinueOnError)
	subject := fs.String("subject", "", "caller address the token authenticates")
	secret := fs.String("secret", "", "HMAC secret shared with milkd")
	secretEnv := fs.String("secret-env", "MILK_GATEWAY_JWT_SECRET", "environment variable holding the secret")
	issuer := fs.String("issuer", "milkctl", "token issuer")
	audience := fs.String("audience", "milkd", "token audience")
	ttl := fs.Duration("ttl", time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if !common.IsHexAddress(strings.TrimSpace(*subject)) {
		return fmt.Errorf("subject must be a hex address")
	}
	key, err := newSecretSource(*secret, *secretEnv).Get()
	if err != nil {
		return err
	}
	token, err := middleware.IssueToken(key, *issuer, *audience, common.HexToAddress(strings.TrimSpace(*subject)), *ttl)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

func runDepositPayload(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("deposit", flag.ContinueOnError)
	amount := fs.String("amount", "", "amount in base units (decimal or 0x hex)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	value, err := itemfactory.ParseUint256(*amount)
	if err != nil {
		return err
	}
	payload, err := milk.EncodeDepositPayload(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hexutil.Encode(payload))
	return err
}

func runRewardPayload(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("reward", flag.ContinueOnError)
	lo := fs.String("min", "", "minimum quantity")
	hi := fs.String("max", "", "maximum quantity")
	ids := fs.String("ids", "", "comma separated token ids")
	if err := fs.Parse(args); err != nil {
		return err
	}
	reward := rewards.Reward{}
	var err error
	if reward.Min, err = itemfactory.ParseUint256(*lo); err != nil {
		return fmt.Errorf("min: %w", err)
	}
	if reward.Max, err = itemfactory.ParseUint256(*hi); err != nil {
		return fmt.Errorf("max: %w", err)
	}
	for _, raw := range strings.Split(*ids, ",") {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		id, err := itemfactory.ParseUint256(raw)
		if err != nil {
			return fmt.Errorf("ids: %w", err)
		}
		reward.IDs = append(reward.IDs, id)
	}
	if err := reward.Validate(); err != nil {
		return err
	}
	payload, err := rewards.EncodeReward(reward)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, hexutil.Encode(payload))
	return err
}

func runDecodeReward(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("decode-reward", flag.ContinueOnError)
	payload := fs.String("payload", "", "hex payload")
	if err := fs.Parse(args); err != nil {
		return err
	}
	raw, err := hexutil.Decode(strings.TrimSpace(*payload))
	if err != nil {
		return err
	}
	reward, err := rewards.DecodeReward(raw)
	if err != nil {
		return err
	}
	ids := make([]string, 0, len(reward.IDs))
	for _, id := range reward.IDs {
		ids = append(ids, id.String())
	}
	_, err = fmt.Fprintf(out, "min=%s max=%s ids=%s\n", reward.Min, reward.Max, strings.Join(ids, ","))
	return err
}

func runRoleID(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("role-id", flag.ContinueOnError)
	name := fs.String("role", "", "role name (owner, admin, master, contract, depositor)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	role, err := access.ParseRole(*name)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s %s\n", role, role.Hex())
	return err
}

func runInitConfig(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("init-config", flag.ContinueOnError)
	path := fs.String("config", "./milkd.toml", "output path")
	owner := fs.String("owner", "", "bootstrap owner address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if _, err := os.Stat(*path); err == nil {
		return fmt.Errorf("%s already exists", *path)
	}
	cfg := config.Default()
	if *owner != "" {
		if !common.IsHexAddress(*owner) {
			return fmt.Errorf("owner must be a hex address")
		}
		cfg.Roles.Owner = common.HexToAddress(*owner).Hex()
	}
	if err := config.Save(*path, cfg); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "wrote %s\n", *path)
	return err
}
