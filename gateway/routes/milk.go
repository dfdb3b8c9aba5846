package routes

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	nativecommon "milkfactory/native/common"
	"milkfactory/native/milk"
)

// milkRequest carries the fields of every ledger mutation. Each handler
// reads the subset it needs.
type milkRequest struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Spender string `json:"spender,omitempty"`
	Amount  string `json:"amount,omitempty"`
	// Payload is the hex ABI-encoded deposit amount.
	Payload string `json:"payload,omitempty"`
}

type milkInfo struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Decimals    uint8  `json:"decimals"`
	Address     string `json:"address"`
	TotalSupply string `json:"totalSupply"`
}

func (a *api) mountMilk(r chi.Router) {
	r.Get("/", a.milkInfo)
	r.Get("/balances/{account}", a.milkBalance)
	r.Get("/allowances/{owner}/{spender}", a.milkAllowance)
	r.Get("/interfaces/{id}", a.milkInterface)

	r.Post("/transfer", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.Transfer(caller, args.to, args.amount)
	}, "to", "amount"))
	r.Post("/approve", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.Approve(caller, args.spender, args.amount)
	}, "spender", "amount"))
	r.Post("/transfer-from", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.TransferFrom(caller, args.from, args.to, args.amount)
	}, "from", "to", "amount"))
	r.Post("/deposit", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.Deposit(caller, args.to, args.payload)
	}, "to", "payload"))
	r.Post("/withdraw", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.Withdraw(caller, args.amount)
	}, "amount"))
	r.Post("/game-withdraw", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.GameWithdraw(caller, args.from, args.amount)
	}, "from", "amount"))
	r.Post("/game-transfer-from", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.GameTransferFrom(caller, args.from, args.to, args.amount)
	}, "from", "to", "amount"))
	r.Post("/game-burn", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.GameBurn(caller, args.from, args.amount)
	}, "from", "amount"))
	r.Post("/game-mint", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.GameMint(caller, args.to, args.amount)
	}, "to", "amount"))
	r.Post("/mint", a.milkCall(func(l *milk.Ledger, caller common.Address, args milkArgs) error {
		return l.Mint(caller, args.to, args.amount)
	}, "to", "amount"))
}

type milkArgs struct {
	from, to, spender common.Address
	amount            *big.Int
	payload           []byte
}

func (req milkRequest) parse(required []string) (milkArgs, error) {
	var (
		args milkArgs
		err  error
	)
	for _, field := range required {
		switch field {
		case "from":
			args.from, err = parseAddress("from", req.From)
		case "to":
			args.to, err = parseAddress("to", req.To)
		case "spender":
			args.spender, err = parseAddress("spender", req.Spender)
		case "amount":
			args.amount, err = parseUint("amount", req.Amount)
		case "payload":
			args.payload, err = hexutil.Decode(strings.TrimSpace(req.Payload))
			if err != nil {
				err = badRequest("payload: %v", err)
			}
		}
		if err != nil {
			return milkArgs{}, err
		}
	}
	return args, nil
}

func (a *api) milkCall(apply func(*milk.Ledger, common.Address, milkArgs) error, required ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, err := callerFrom(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		var req milkRequest
		if err := decodeBody(r, &req); err != nil {
			a.writeError(w, r, err)
			return
		}
		args, err := req.parse(required)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if err := apply(a.cfg.Ledger, caller, args); err != nil {
			a.writeError(w, r, err)
			return
		}
		a.ok(w)
	}
}

func (a *api) milkInfo(w http.ResponseWriter, r *http.Request) {
	ledger := a.cfg.Ledger
	supply, err := ledger.TotalSupply()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, milkInfo{
		Name:        ledger.Name(),
		Symbol:      ledger.Symbol(),
		Decimals:    ledger.Decimals(),
		Address:     formatAddress(ledger.Address()),
		TotalSupply: formatInt(supply),
	})
}

func (a *api) milkBalance(w http.ResponseWriter, r *http.Request) {
	account, err := parseAddress("account", chi.URLParam(r, "account"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	balance, err := a.cfg.Ledger.BalanceOf(account)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"account": formatAddress(account),
		"balance": formatInt(balance),
	})
}

func (a *api) milkAllowance(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress("owner", chi.URLParam(r, "owner"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	spender, err := parseAddress("spender", chi.URLParam(r, "spender"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	allowance, err := a.cfg.Ledger.Allowance(owner, spender)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"owner":     formatAddress(owner),
		"spender":   formatAddress(spender),
		"allowance": formatInt(allowance),
	})
}

func (a *api) milkInterface(w http.ResponseWriter, r *http.Request) {
	id, err := nativecommon.ParseInterfaceID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, badRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interface": id.String(),
		"supported": a.cfg.Ledger.SupportsInterface(id),
	})
}
