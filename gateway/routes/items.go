package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type itemRequest struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	ID       string `json:"id,omitempty"`
	Amount   string `json:"amount,omitempty"`
	Operator string `json:"operator,omitempty"`
	Approved bool   `json:"approved,omitempty"`
}

func (a *api) mountItems(r chi.Router) {
	r.Get("/{id}", a.getItem)
	r.Get("/{id}/balances/{account}", a.itemBalance)
	r.Get("/approvals/{owner}/{operator}", a.getApproval)
	r.Put("/approvals", a.setApproval)
	r.Post("/transfer", a.transferItem)
	r.Post("/burn", a.burnItem)
}

func (a *api) getItem(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint("id", chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	store := a.cfg.Factory.Items()
	supply, err := store.TotalSupply(id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"id":          formatInt(id),
		"uri":         a.cfg.Factory.URI(id),
		"totalSupply": formatInt(supply),
		"exists":      supply.Sign() > 0,
	})
}

func (a *api) itemBalance(w http.ResponseWriter, r *http.Request) {
	id, err := parseUint("id", chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	account, err := parseAddress("account", chi.URLParam(r, "account"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	balance, err := a.cfg.Factory.Items().BalanceOf(account, id)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"id":      formatInt(id),
		"account": formatAddress(account),
		"balance": formatInt(balance),
	})
}

func (a *api) getApproval(w http.ResponseWriter, r *http.Request) {
	owner, err := parseAddress("owner", chi.URLParam(r, "owner"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	operator, err := parseAddress("operator", chi.URLParam(r, "operator"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	approved, err := a.cfg.Factory.Items().IsApprovedForAll(owner, operator)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"owner":    formatAddress(owner),
		"operator": formatAddress(operator),
		"approved": approved,
	})
}

func (a *api) setApproval(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	operator, err := parseAddress("operator", req.Operator)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.Items().SetApprovalForAll(caller, operator, req.Approved); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w)
}

func (a *api) transferItem(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	to, err := parseAddress("to", req.To)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := parseUint("id", req.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	amount, err := parseUint("amount", req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.Items().SafeTransferFrom(caller, from, to, id, amount); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w)
}

func (a *api) burnItem(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req itemRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	from, err := parseAddress("from", req.From)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	id, err := parseUint("id", req.ID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	amount, err := parseUint("amount", req.Amount)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.Items().Burn(caller, from, id, amount); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w)
}
