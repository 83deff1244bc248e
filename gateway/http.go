package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/errors"
)

type publicKeyRequest struct {
	KeyName        string               `json:"key_name"`
	DerivationPath []blendsafe.HexBytes `json:"derivation_path"`
}

type publicKeyResponse struct {
	PublicKey blendsafe.HexBytes `json:"public_key"`
}

type signRequest struct {
	KeyName        string               `json:"key_name"`
	DerivationPath []blendsafe.HexBytes `json:"derivation_path"`
	MessageHash    blendsafe.HexBytes   `json:"message_hash"`
}

type signResponse struct {
	Signature blendsafe.HexBytes `json:"signature"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toHexPath(path blendsafe.DerivationPath) []blendsafe.HexBytes {
	res := make([]blendsafe.HexBytes, len(path))
	for i, c := range path {
		res[i] = c
	}
	return res
}

func fromHexPath(path []blendsafe.HexBytes) blendsafe.DerivationPath {
	res := make(blendsafe.DerivationPath, len(path))
	for i, c := range path {
		res[i] = c
	}
	return res
}

// HTTPGateway is a client of a remote signing service.
type HTTPGateway struct {
	url     string
	keyName string
	cli     http.Client
}

var _ blendsafe.SigningGateway = (*HTTPGateway)(nil)

// NewHTTPGateway returns a client of the signing service available at
// the given URL. A zero timeout means that only the request context
// limits a call.
func NewHTTPGateway(url, keyName string, timeout time.Duration) *HTTPGateway {
	return &HTTPGateway{
		url:     strings.TrimRight(url, "/"),
		keyName: keyName,
		cli:     http.Client{Timeout: timeout},
	}
}

// PublicKey requests the public key of the path.
func (g *HTTPGateway) PublicKey(ctx context.Context, path blendsafe.DerivationPath) ([]byte, error) {
	req := publicKeyRequest{
		KeyName:        g.keyName,
		DerivationPath: toHexPath(path),
	}
	var resp publicKeyResponse
	if err := g.post(ctx, "/public_key", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.PublicKey) == 0 {
		return nil, errors.Wrap(errors.ErrNetwork, "empty public key")
	}
	return resp.PublicKey, nil
}

// Sign requests a signature of the hash.
func (g *HTTPGateway) Sign(ctx context.Context, path blendsafe.DerivationPath, hash []byte) ([]byte, error) {
	req := signRequest{
		KeyName:        g.keyName,
		DerivationPath: toHexPath(path),
		MessageHash:    hash,
	}
	var resp signResponse
	if err := g.post(ctx, "/sign", req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Signature) == 0 {
		return nil, errors.Wrap(errors.ErrNetwork, "empty signature")
	}
	return resp.Signature, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, payload, dest interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encode request")
	}
	req, err := http.NewRequest("POST", g.url+path, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "create http request")
	}
	req.Header.Set("Content-Type", "application/json")
	req = req.WithContext(ctx)

	resp, err := g.cli.Do(req)
	if err != nil {
		return errors.Wrapf(errors.ErrNetwork, "do request: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var e errorResponse
		b, _ := ioutil.ReadAll(io.LimitReader(resp.Body, 1e5))
		if json.Unmarshal(b, &e) == nil && e.Error != "" {
			return errors.Wrapf(errors.ErrNetwork, "bad response: %d %s", resp.StatusCode, e.Error)
		}
		return errors.Wrapf(errors.ErrNetwork, "bad response: %d %s", resp.StatusCode, string(b))
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1e6)).Decode(dest); err != nil {
		return errors.Wrapf(errors.ErrNetwork, "decode response: %s", err)
	}
	return nil
}

// NewHTTPHandler exposes the gateway over HTTP, speaking the protocol that
// HTTPGateway expects. Requests for a key name other than keyName are
// rejected.
func NewHTTPHandler(gw blendsafe.SigningGateway, keyName string) http.Handler {
	h := &gatewayHandler{gw: gw, keyName: keyName}
	rt := mux.NewRouter()
	rt.HandleFunc("/public_key", h.publicKey).Methods("POST")
	rt.HandleFunc("/sign", h.sign).Methods("POST")
	return rt
}

type gatewayHandler struct {
	gw      blendsafe.SigningGateway
	keyName string
}

func (h *gatewayHandler) publicKey(w http.ResponseWriter, r *http.Request) {
	var req publicKeyRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.KeyName != h.keyName {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown key name"})
		return
	}
	pub, err := h.gw.PublicKey(r.Context(), fromHexPath(req.DerivationPath))
	if err != nil {
		writeGatewayErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, publicKeyResponse{PublicKey: pub})
}

func (h *gatewayHandler) sign(w http.ResponseWriter, r *http.Request) {
	var req signRequest
	if !h.decode(w, r, &req) {
		return
	}
	if req.KeyName != h.keyName {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "unknown key name"})
		return
	}
	sig, err := h.gw.Sign(r.Context(), fromHexPath(req.DerivationPath), req.MessageHash)
	if err != nil {
		writeGatewayErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, signResponse{Signature: sig})
}

func (h *gatewayHandler) decode(w http.ResponseWriter, r *http.Request, dest interface{}) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, 1e5)).Decode(dest); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request: " + err.Error()})
		return false
	}
	return true
}

func writeGatewayErr(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.ErrInput.Is(err), errors.ErrEmpty.Is(err):
		code = http.StatusBadRequest
	case errors.ErrNetwork.Is(err):
		code = http.StatusServiceUnavailable
	}
	_, msg := errors.HTTPInfo(err, false)
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(payload)
}
