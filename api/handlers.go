package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/tendermint/tendermint/libs/log"
)

type walletHandler struct {
	store   *wallet.Store
	logger  log.Logger
	debug   bool
	maxBody int64
}

type payloadRequest struct {
	Payload blendsafe.HexBytes `json:"payload"`
}

type signResponse struct {
	Signature     blendsafe.HexBytes `json:"signature"`
	AlreadySigned bool               `json:"already_signed"`
}

type verifyRequest struct {
	Payload   blendsafe.HexBytes `json:"payload"`
	Signature blendsafe.HexBytes `json:"signature"`
}

type metadataRequest struct {
	Payload  blendsafe.HexBytes `json:"payload"`
	Metadata string             `json:"metadata"`
}

type empty struct{}

func (h *walletHandler) fail(w http.ResponseWriter, err error) {
	writeErr(w, h.logger, h.debug, err)
}

// queryPayload returns the hex decoded payload query parameter.
func (h *walletHandler) queryPayload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	payload, err := blendsafe.DecodeHex(r.URL.Query().Get("payload"))
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return payload, true
}

func (h *walletHandler) createWallet(w http.ResponseWriter, r *http.Request) {
	var msg wallet.CreateWalletMsg
	if !decodeJSON(w, r, h.maxBody, &msg) {
		return
	}
	if err := h.store.CreateWallet(r.Context(), &msg); err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusCreated, empty{})
}

func (h *walletHandler) getWallet(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := h.store.GetWallet(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	if view == nil {
		h.fail(w, wallet.ErrWalletNotFound)
		return
	}
	JSONResp(w, http.StatusOK, view)
}

func (h *walletHandler) ethAddress(w http.ResponseWriter, r *http.Request) {
	addr, err := h.store.EthAddress(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Address blendsafe.Address `json:"address"`
	}{addr})
}

func (h *walletHandler) propose(w http.ResponseWriter, r *http.Request) {
	var req payloadRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	if err := h.store.Propose(r.Context(), mux.Vars(r)["id"], req.Payload); err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, empty{})
}

func (h *walletHandler) approve(w http.ResponseWriter, r *http.Request) {
	var req payloadRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	if err := h.store.Approve(r.Context(), mux.Vars(r)["id"], req.Payload); err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, empty{})
}

func (h *walletHandler) sign(w http.ResponseWriter, r *http.Request) {
	var req payloadRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	sig, err := h.store.Sign(r.Context(), mux.Vars(r)["id"], req.Payload)
	switch {
	case err == nil:
		JSONResp(w, http.StatusOK, signResponse{Signature: sig})
	case wallet.ErrAlreadySigned.Is(err) && len(sig) != 0:
		JSONResp(w, http.StatusOK, signResponse{Signature: sig, AlreadySigned: true})
	default:
		h.fail(w, err)
	}
}

func (h *walletHandler) verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	ok, err := h.store.VerifySignature(r.Context(), mux.Vars(r)["id"], req.Payload, req.Signature)
	if err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Valid bool `json:"valid"`
	}{ok})
}

func (h *walletHandler) canSign(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.queryPayload(w, r)
	if !ok {
		return
	}
	can, err := h.store.CanSign(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		CanSign bool `json:"can_sign"`
	}{can})
}

func (h *walletHandler) messagesToSign(w http.ResponseWriter, r *http.Request) {
	payloads, err := h.store.MessagesToSign(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	res := make([]blendsafe.HexBytes, len(payloads))
	for i, p := range payloads {
		res[i] = p
	}
	JSONResp(w, http.StatusOK, struct {
		Payloads []blendsafe.HexBytes `json:"payloads"`
	}{res})
}

func (h *walletHandler) addMetadata(w http.ResponseWriter, r *http.Request) {
	var req metadataRequest
	if !decodeJSON(w, r, h.maxBody, &req) {
		return
	}
	if err := h.store.AddMetadata(r.Context(), mux.Vars(r)["id"], req.Payload, req.Metadata); err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, empty{})
}

func (h *walletHandler) metadata(w http.ResponseWriter, r *http.Request) {
	payload, ok := h.queryPayload(w, r)
	if !ok {
		return
	}
	text, err := h.store.Metadata(r.Context(), mux.Vars(r)["id"], payload)
	if err != nil {
		h.fail(w, err)
		return
	}
	JSONResp(w, http.StatusOK, struct {
		Metadata string `json:"metadata"`
	}{text})
}

func infoHandler(w http.ResponseWriter, r *http.Request) {
	JSONResp(w, http.StatusOK, struct {
		Version string `json:"version"`
	}{blendsafe.Version()})
}
