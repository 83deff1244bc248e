package api

import (
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"

	"github.com/iov-one/blendsafe/errors"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/tendermint/tendermint/libs/log"
)

// bodySlack is the room left in a request body for everything but the hex
// encoded payload: JSON framing, a signature and metadata.
const bodySlack = 16 * 1024

// maxBodySize returns the largest request body accepted when payloads are
// limited to maxPayload bytes. Payloads travel hex encoded.
func maxBodySize(maxPayload int) int64 {
	return 2*int64(maxPayload) + bodySlack
}

// JSONResp write content as JSON encoded response.
func JSONResp(w http.ResponseWriter, code int, content interface{}) {
	b, err := json.MarshalIndent(content, "", "\t")
	if err != nil {
		code = http.StatusInternalServerError
		b = []byte(`{"errors":["internal error"],"code":1}`)
	}
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(b)
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Errors []string `json:"errors"`
	Code   uint32   `json:"code"`
	// Fields names the invalid fields of a rejected request.
	Fields []string `json:"fields,omitempty"`
}

// JSONErr write single error as JSON encoded response.
func JSONErr(w http.ResponseWriter, status int, code uint32, errText string) {
	JSONResp(w, status, ErrorResponse{Errors: []string{errText}, Code: code})
}

// decodeJSON reads a body of at most limit bytes into dest. On failure an
// error response is written and false is returned.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dest interface{}) bool {
	raw, err := ioutil.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		JSONErr(w, http.StatusBadRequest, errors.ErrInput.Code(), "cannot read request body: "+err.Error())
		return false
	}
	if int64(len(raw)) > limit {
		JSONErr(w, http.StatusRequestEntityTooLarge, wallet.ErrInvalidPayload.Code(),
			fmt.Sprintf("request body larger than %d bytes", limit))
		return false
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		JSONErr(w, http.StatusBadRequest, errors.ErrInput.Code(), "invalid request body: "+err.Error())
		return false
	}
	return true
}

// writeErr writes the error with the status that matches its kind.
// Messages of unregistered errors are redacted unless debug is set.
func writeErr(w http.ResponseWriter, logger log.Logger, debug bool, err error) {
	status := httpStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "err", err)
	} else {
		logger.Debug("request rejected", "err", err)
	}
	code, msg := errors.HTTPInfo(err, debug)
	JSONResp(w, status, ErrorResponse{
		Errors: []string{msg},
		Code:   code,
		Fields: errors.Fields(err),
	})
}

func httpStatus(err error) int {
	switch {
	case wallet.ErrWalletNotFound.Is(err),
		wallet.ErrRequestNotFound.Is(err),
		errors.ErrNotFound.Is(err):
		return http.StatusNotFound
	case wallet.ErrWalletExists.Is(err),
		errors.ErrDuplicate.Is(err),
		wallet.ErrThresholdNotMet.Is(err),
		wallet.ErrAlreadySigned.Is(err),
		wallet.ErrSigningInProgress.Is(err),
		errors.ErrState.Is(err):
		return http.StatusConflict
	case wallet.ErrInvalidThreshold.Is(err),
		wallet.ErrInvalidPayload.Is(err),
		errors.ErrInput.Is(err),
		errors.ErrEmpty.Is(err):
		return http.StatusBadRequest
	case wallet.ErrNotASigner.Is(err):
		return http.StatusForbidden
	case errors.ErrUnauthorized.Is(err):
		return http.StatusUnauthorized
	case wallet.ErrSigningGateway.Is(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
