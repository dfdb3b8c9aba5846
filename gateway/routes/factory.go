package routes

import (
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/go-chi/chi/v5"

	nativecommon "milkfactory/native/common"
	"milkfactory/native/itemfactory"
	"milkfactory/native/rewards"
)

type rollsBody struct {
	Common    uint64 `json:"common"`
	Uncommon  uint64 `json:"uncommon"`
	Rare      uint64 `json:"rare"`
	Epic      uint64 `json:"epic"`
	Legendary uint64 `json:"legendary"`
	MaxRoll   uint64 `json:"maxRoll"`
}

type weightsBody struct {
	Items uint64 `json:"items"`
	Milk  uint64 `json:"milk"`
	Box   uint64 `json:"box"`
}

// rewardBody accepts either the raw ABI payload or its decoded fields.
type rewardBody struct {
	Type       string   `json:"type,omitempty"`
	Rarity     string   `json:"rarity,omitempty"`
	Configured bool     `json:"configured"`
	Min        string   `json:"min,omitempty"`
	Max        string   `json:"max,omitempty"`
	IDs        []string `json:"ids,omitempty"`
	Payload    string   `json:"payload,omitempty"`
}

type claimRequest struct {
	Recipient string `json:"recipient"`
	PetID     string `json:"petId"`
	Seed      string `json:"seed"`
}

type claimResponse struct {
	Recipient string `json:"recipient"`
	PetID     string `json:"petId"`
	Type      string `json:"type"`
	Rarity    string `json:"rarity"`
	Roll      uint64 `json:"roll"`
	GrantedID string `json:"grantedId,omitempty"`
	Quantity  string `json:"quantity"`
	ClaimedAt uint64 `json:"claimedAt"`
}

func (a *api) mountFactory(r chi.Router) {
	r.Get("/", a.factoryInfo)
	r.Get("/rolls", a.getRolls)
	r.Put("/rolls", a.putRolls)
	r.Get("/weights", a.getWeights)
	r.Put("/weights", a.putWeights)
	r.Get("/rewards/{type}/{rarity}", a.getReward)
	r.Put("/rewards/{type}/{rarity}", a.putReward)
	r.Post("/claims", a.claim)
	r.Get("/claims/{petId}", a.getClaim)
	r.Get("/interfaces/{id}", a.factoryInterface)
}

func (a *api) factoryInfo(w http.ResponseWriter, r *http.Request) {
	f := a.cfg.Factory
	writeJSON(w, http.StatusOK, map[string]string{
		"address":      formatAddress(f.Address()),
		"milkContract": formatAddress(f.MilkContractAddress()),
		"baseURI":      f.BaseURI(),
	})
}

func (a *api) getRolls(w http.ResponseWriter, r *http.Request) {
	rolls, err := a.cfg.Factory.Catalog().RarityRolls()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rollsBody(rolls))
}

func (a *api) putRolls(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var body rollsBody
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.Catalog().SetRarityRolls(caller, rewards.RarityRolls(body)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *api) getWeights(w http.ResponseWriter, r *http.Request) {
	weights, err := a.cfg.Factory.TypeWeights()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, weightsBody(weights))
}

func (a *api) putWeights(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var body weightsBody
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.SetTypeWeights(caller, itemfactory.TypeWeights(body)); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, body)
}

func rewardKeyParams(r *http.Request) (rewards.RewardType, rewards.RewardRarity, error) {
	t, err := rewards.ParseRewardType(chi.URLParam(r, "type"))
	if err != nil {
		return 0, 0, err
	}
	rarity, err := rewards.ParseRarity(chi.URLParam(r, "rarity"))
	if err != nil {
		return 0, 0, err
	}
	return t, rarity, nil
}

func (a *api) getReward(w http.ResponseWriter, r *http.Request) {
	t, rarity, err := rewardKeyParams(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	catalog := a.cfg.Factory.Catalog()
	raw, err := catalog.RawReward(t, rarity)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	body := rewardBody{Type: t.String(), Rarity: rarity.String()}
	if len(raw) > 0 {
		reward, err := rewards.DecodeReward(raw)
		if err != nil {
			a.writeError(w, r, err)
			return
		}
		body.Configured = reward.Configured()
		body.Min = formatInt(reward.Min)
		body.Max = formatInt(reward.Max)
		body.IDs = formatInts(reward.IDs)
		body.Payload = hexutil.Encode(raw)
	}
	writeJSON(w, http.StatusOK, body)
}

func (a *api) putReward(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	t, rarity, err := rewardKeyParams(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var body rewardBody
	if err := decodeBody(r, &body); err != nil {
		a.writeError(w, r, err)
		return
	}
	payload, err := body.payload()
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	if err := a.cfg.Factory.Catalog().SetReward(caller, t, rarity, payload); err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"type":    t.String(),
		"rarity":  rarity.String(),
		"payload": hexutil.Encode(payload),
	})
}

func (b rewardBody) payload() ([]byte, error) {
	if raw := strings.TrimSpace(b.Payload); raw != "" {
		payload, err := hexutil.Decode(raw)
		if err != nil {
			return nil, badRequest("payload: %v", err)
		}
		return payload, nil
	}
	lo, err := parseUint("min", b.Min)
	if err != nil {
		return nil, err
	}
	hi, err := parseUint("max", b.Max)
	if err != nil {
		return nil, err
	}
	ids := make([]*big.Int, 0, len(b.IDs))
	for _, raw := range b.IDs {
		id, err := parseUint("ids", raw)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return rewards.EncodeReward(rewards.Reward{Min: lo, Max: hi, IDs: ids})
}

func (a *api) claim(w http.ResponseWriter, r *http.Request) {
	caller, err := callerFrom(r)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	var req claimRequest
	if err := decodeBody(r, &req); err != nil {
		a.writeError(w, r, err)
		return
	}
	recipient, err := parseAddress("recipient", req.Recipient)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	petID, err := parseUint("petId", req.PetID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	seed, err := parseUint("seed", req.Seed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	result, err := a.cfg.Factory.Claim(caller, recipient, petID, seed)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	resp := claimResponse{
		Recipient: formatAddress(result.Recipient),
		PetID:     formatInt(result.PetID),
		Type:      result.Type.String(),
		Rarity:    result.Rarity.String(),
		Roll:      result.Roll,
		Quantity:  formatInt(result.Quantity),
		ClaimedAt: result.ClaimedAt,
	}
	if result.GrantedID != nil {
		resp.GrantedID = result.GrantedID.String()
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (a *api) getClaim(w http.ResponseWriter, r *http.Request) {
	petID, err := parseUint("petId", chi.URLParam(r, "petId"))
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	last, found, err := a.cfg.Factory.LastClaim(petID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	next, err := a.cfg.Factory.NextClaimAt(petID)
	if err != nil {
		a.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"petId":       formatInt(petID),
		"claimed":     found,
		"lastClaim":   last,
		"nextClaimAt": next,
	})
}

func (a *api) factoryInterface(w http.ResponseWriter, r *http.Request) {
	id, err := nativecommon.ParseInterfaceID(chi.URLParam(r, "id"))
	if err != nil {
		a.writeError(w, r, badRequest("%v", err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interface": id.String(),
		"supported": a.cfg.Factory.SupportsInterface(id),
	})
}
