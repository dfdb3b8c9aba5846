package main

import (
	"bytes"
	"math/big"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"milkfactory/config"
	"milkfactory/gateway/middleware"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
)

func runCommand(t *testing.T, name string, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	if err := commands[name].run(args, &out); err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	return strings.TrimSpace(out.String())
}

func TestTokenIsAcceptedByGateway(t *testing.T) {
	subject := common.HexToAddress("0x00000000000000000000000000000000000000ab")
	token := runCommand(t, "token", "-subject", subject.Hex(), "-secret", "s3cret", "-secret-env", "")

	auth := middleware.NewAuthenticator(middleware.AuthConfig{HMACSecret: "s3cret", Issuer: "milkctl", Audience: "milkd"}, nil)
	var seen common.Address
	handler := auth.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = middleware.CallerFromContext(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/v1/milk/transfer", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK || seen != subject {
		t.Fatalf("token rejected: status %d caller %s", res.Code, seen.Hex())
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	var out bytes.Buffer
	err := runToken([]string{"-subject", "0x00000000000000000000000000000000000000ab", "-secret-env", ""}, &out)
	if err == nil {
		t.Fatalf("expected missing secret error")
	}
}

func TestDepositPayload(t *testing.T) {
	encoded := runCommand(t, "deposit", "-amount", "0x64")
	raw, err := hexutil.Decode(encoded)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}
	amount, err := milk.DecodeDepositPayload(raw)
	if err != nil || amount.Cmp(big.NewInt(100)) != 0 {
		t.Fatalf("unexpected amount %v (err=%v)", amount, err)
	}
}

func TestRewardPayloadRoundTrip(t *testing.T) {
	encoded := runCommand(t, "reward", "-min", "1", "-max", "5", "-ids", "7, 8")
	raw, err := hexutil.Decode(encoded)
	if err != nil {
		t.Fatalf("decode hex: %v", err)
	}
	reward, err := rewards.DecodeReward(raw)
	if err != nil {
		t.Fatalf("decode reward: %v", err)
	}
	if reward.Min.Int64() != 1 || reward.Max.Int64() != 5 || len(reward.IDs) != 2 {
		t.Fatalf("unexpected reward %+v", reward)
	}
	if got := runCommand(t, "decode-reward", "-payload", encoded); got != "min=1 max=5 ids=7,8" {
		t.Fatalf("unexpected decode output %q", got)
	}

	var out bytes.Buffer
	if err := runRewardPayload([]string{"-min", "5", "-max", "1", "-ids", "1"}, &out); err == nil {
		t.Fatalf("expected invalid range error")
	}
}

func TestRoleID(t *testing.T) {
	got := runCommand(t, "role-id", "-role", "master")
	if !strings.HasPrefix(got, "MASTER_ROLE 0x") {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestInitConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "milkd.toml")
	runCommand(t, "init-config", "-config", path, "-owner", "0x00000000000000000000000000000000000000cd")
	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if owner, ok := cfg.Owner(); !ok || owner != common.HexToAddress("0x00000000000000000000000000000000000000cd") {
		t.Fatalf("unexpected owner %s", owner.Hex())
	}
	var out bytes.Buffer
	if err := runInitConfig([]string{"-config", path}, &out); err == nil {
		t.Fatalf("expected refusal to overwrite")
	}
}
