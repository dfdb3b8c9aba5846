package routes

import (
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	"milkfactory/native/access"
)

type roleRequest struct {
	Role      string `json:"role"`
	Account   string `json:"account"`
	AdminRole string `json:"adminRole,omitempty"`
}

type roleResponse struct {
	Namespace string   `json:"namespace"`
	Role      string   `json:"role"`
	RoleID    string   `json:"roleId"`
	Admin     string   `json:"admin"`
	Members   []string `json:"members"`
}

func (a *api) mountRoles(r chi.Router) {
	r.Get("/{ns}/{role}", a.getRole)
	r.Get("/{ns}/{role}/{account}", a.hasRole)
	r.Post("/{ns}/grant", a.changeRole(func(reg *access.Registry, call roleCall) error {
		return reg.GrantRole(call.sender, call.role, call.account)
	}))
	r.Post("/{ns}/revoke", a.changeRole(func(reg *access.Registry, call roleCall) error {
		return reg.RevokeRole(call.sender, call.role, call.account)
	}))
	r.Post("/{ns}/renounce", a.changeRole(func(reg *access.Registry, call roleCall) error {
		return reg.RenounceRole(call.sender, call.role, call.account)
	}))
	r.Put("/{ns}/admin", a.setRoleAdmin)
}

func (a *api) registry(r *http.Request) (*access.Registry, error) {
	switch strings.ToLower(chi.URLParam(r, "ns")) {
	case access.NamespaceMilk:
		return a.cfg.Ledger.Roles(), nil
	case access.NamespaceItemFactory:
		return a.cfg.Factory.Roles(), nil
	}
	return nil, badRequest("unknown namespace %q", chi.URLParam(r, "ns"))
}

func parseRole(value string) (access.Role, error) {
	role, err := access.ParseRole(value)
	if err != nil {
		return access.Role{}, badRequest("%v", err)
	}
	return role, nil
}

func (a *api) getRole(w http.ResponseWriter, r *http.Request) {
	reg, err := a.registry(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	role, err := parseRole(chi.URLParam(r, "role"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	admin, err := reg.RoleAdmin(role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	members, err := reg.Members(role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := roleResponse{
		Namespace: reg.Namespace(),
		Role:      role.String(),
		RoleID:    role.Hex(),
		Admin:     admin.String(),
		Members:   make([]string, 0, len(members)),
	}
	for _, member := range members {
		resp.Members = append(resp.Members, formatAddress(member))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *api) hasRole(w http.ResponseWriter, r *http.Request) {
	reg, err := a.registry(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	role, err := parseRole(chi.URLParam(r, "role"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	account, err := parseAddress("account", chi.URLParam(r, "account"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"namespace": reg.Namespace(),
		"role":      role.String(),
		"account":   formatAddress(account),
		"hasRole":   reg.HasRole(role, account),
	})
}

type roleCall struct {
	sender  common.Address
	role    access.Role
	account common.Address
}

func (a *api) changeRole(apply func(*access.Registry, roleCall) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call, reg, err := a.readRoleCall(r)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		if err := apply(reg, call); err != nil {
			a.writeError(w, r, err)
			return
		}
		a.ok(w)
	}
}

func (a *api) readRoleCall(r *http.Request) (roleCall, *access.Registry, error) {
	sender, err := callerFrom(r)
	if err != nil {
		return roleCall{}, nil, err
	}
	reg, err := a.registry(r)
	if err != nil {
		return roleCall{}, nil, err
	}
	var req roleRequest
	if err := decodeBody(r, &req); err != nil {
		return roleCall{}, nil, err
	}
	role, err := parseRole(req.Role)
	if err != nil {
		return roleCall{}, nil, err
	}
	account, err := parseAddress("account", req.Account)
	if err != nil {
		return roleCall{}, nil, err
	}
	return roleCall{sender: sender, role: role, account: account}, reg, nil
}

func (a *api) setRoleAdmin(w http.ResponseWriter, r *http.Request) {
	sender, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	reg, err := a.registry(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req roleRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	role, err := parseRole(req.Role)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	adminRole, err := parseRole(req.AdminRole)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := reg.SetRoleAdmin(sender, role, adminRole); err != nil {
		a.writeError(w, r, err)
		return
	}
	a.ok(w)
}
