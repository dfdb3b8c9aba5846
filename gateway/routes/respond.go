package routes

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"milkfactory/gateway/middleware"
	"milkfactory/native/access"
	nativecommon "milkfactory/native/common"
	"milkfactory/native/itemfactory"
	"milkfactory/native/items"
	"milkfactory/native/milk"
	"milkfactory/native/rewards"
)

const maxBodyBytes = 1 << 20

var (
	errBadRequest      = errors.New("bad request")
	errUnauthenticated = errors.New("authentication required")
)

// unprocessable lists engine errors caused by the request contents rather
// than by the caller's permissions or the factory state.
var unprocessable = []error{
	access.ErrZeroAccount,
	nativecommon.ErrInvalidAmount,
	nativecommon.ErrOverflow,
	milk.ErrInsufficientBalance,
	milk.ErrInsufficientAllowance,
	milk.ErrZeroAddress,
	milk.ErrInvalidAmount,
	milk.ErrSupplyOverflow,
	milk.ErrInvalidPayload,
	items.ErrInsufficientBalance,
	items.ErrNotApproved,
	items.ErrZeroAddress,
	items.ErrSelfApproval,
	items.ErrInvalidAmount,
	items.ErrSupplyOverflow,
	rewards.ErrInvalidThresholds,
	rewards.ErrInvalidRange,
	rewards.ErrEmptyRewardSet,
	rewards.ErrInvalidPayload,
	rewards.ErrInvalidRewardKey,
	rewards.ErrRollOutOfRange,
	itemfactory.ErrInvalidWeights,
	itemfactory.ErrInvalidPetID,
	itemfactory.ErrInvalidSeed,
	itemfactory.ErrZeroRecipient,
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, access.ErrUnauthorized), errors.Is(err, access.ErrRenounceForOther):
		return http.StatusForbidden
	case errors.Is(err, itemfactory.ErrClaimTooSoon):
		return http.StatusConflict
	case errors.Is(err, itemfactory.ErrNoRewardConfigured):
		return http.StatusNotFound
	}
	for _, target := range unprocessable {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, fmt.Errorf("marshal response: %w", err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	message := strings.TrimSpace(err.Error())
	if message == "" || status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	payload, _ := json.Marshal(map[string]string{"error": message})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}

func badRequest(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return badRequest("decode body: %v", err)
	}
	return nil
}

func callerFrom(r *http.Request) (common.Address, error) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		return common.Address{}, errUnauthenticated
	}
	return caller, nil
}

func parseAddress(field, value string) (common.Address, error) {
	trimmed := strings.TrimSpace(value)
	if !common.IsHexAddress(trimmed) {
		return common.Address{}, badRequest("%s must be a hex address", field)
	}
	return common.HexToAddress(trimmed), nil
}

func parseUint(field, value string) (*big.Int, error) {
	if strings.TrimSpace(value) == "" {
		return nil, badRequest("%s required", field)
	}
	n, err := itemfactory.ParseUint256(value)
	if err != nil {
		return nil, badRequest("%s: %v", field, err)
	}
	return n, nil
}

func formatAddress(addr common.Address) string {
	return strings.ToLower(addr.Hex())
}

func formatInt(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

func formatInts(values []*big.Int) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		out = append(out, formatInt(v))
	}
	return out
}
