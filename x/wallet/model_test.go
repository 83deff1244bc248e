package wallet

import (
	"bytes"
	"testing"

	"github.com/iov-one/blendsafe/blendsafetest/assert"
	"github.com/iov-one/blendsafe/crypto"
	"github.com/iov-one/blendsafe/errors"
	"github.com/stretchr/testify/require"
)

func TestWalletValidate(t *testing.T) {
	hash := crypto.Keccak256([]byte("x"))

	cases := map[string]struct {
		model    *Wallet
		wantErrs map[string]*errors.Error
	}{
		"valid": {
			model: NewWallet("w", []string{"a", "b"}, 2),
			wantErrs: map[string]*errors.Error{
				"ID":      nil,
				"Signers": nil,
				"Path":    nil,
				"Address": nil,
				"Queue":   nil,
			},
		},
		"valid with address and queue": {
			model: &Wallet{
				ID:        "w",
				Signers:   []string{"a"},
				Threshold: 1,
				Path:      [][]byte{[]byte("p")},
				Address:   bytes.Repeat([]byte{1}, 20),
				Queue:     [][]byte{hash},
			},
			wantErrs: map[string]*errors.Error{
				"Address": nil,
				"Queue":   nil,
			},
		},
		"invalid": {
			model: &Wallet{
				Signers:   []string{"a"},
				Threshold: 2,
				Address:   []byte{1, 2},
				Queue:     [][]byte{[]byte("short")},
			},
			wantErrs: map[string]*errors.Error{
				"ID":      errors.ErrEmpty,
				"Signers": ErrInvalidThreshold,
				"Path":    errors.ErrEmpty,
				"Address": errors.ErrInput,
				"Queue":   errors.ErrModel,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.model.Validate()
			for field, want := range tc.wantErrs {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestWalletMarshal(t *testing.T) {
	w := NewWallet("w", []string{"a", "b"}, 1)
	w.Enqueue(crypto.Keccak256([]byte("x")))

	raw, err := w.Marshal()
	require.NoError(t, err)
	var got Wallet
	require.NoError(t, got.Unmarshal(raw))
	require.Equal(t, w, &got)
}

func TestWalletEnqueue(t *testing.T) {
	w := NewWallet("w", []string{"a"}, 1)
	h1, h2 := crypto.Keccak256([]byte("1")), crypto.Keccak256([]byte("2"))

	require.Equal(t, true, w.Enqueue(h1))
	require.Equal(t, true, w.Enqueue(h2))
	require.Equal(t, false, w.Enqueue(h1))
	require.Equal(t, [][]byte{h1, h2}, w.Queue)
}

func TestWalletDerivationPath(t *testing.T) {
	w := NewWallet("w", []string{"a"}, 1)
	path := w.DerivationPath()
	require.Equal(t, "/626c656e6473616665/77", path.String())

	path[1][0] = 'x'
	require.Equal(t, []byte("w"), w.Path[1])
}

func TestPendingRequestValidate(t *testing.T) {
	cases := map[string]struct {
		model    *PendingRequest
		wantErrs map[string]*errors.Error
	}{
		"valid proposed": {
			model: &PendingRequest{Payload: []byte("x"), Approvals: []string{"a"}, Status: StatusProposed},
			wantErrs: map[string]*errors.Error{
				"Payload":   nil,
				"Approvals": nil,
				"Status":    nil,
				"Signature": nil,
				"Metadata":  nil,
			},
		},
		"valid signed": {
			model: &PendingRequest{Payload: []byte("x"), Approvals: []string{"a"}, Status: StatusSigned, Signature: []byte{1}},
			wantErrs: map[string]*errors.Error{
				"Signature": nil,
			},
		},
		"signed without signature": {
			model: &PendingRequest{Payload: []byte("x"), Approvals: []string{"a"}, Status: StatusSigned},
			wantErrs: map[string]*errors.Error{
				"Signature": errors.ErrEmpty,
			},
		},
		"signature while signing": {
			model: &PendingRequest{Payload: []byte("x"), Approvals: []string{"a"}, Status: StatusSigning, Signature: []byte{1}},
			wantErrs: map[string]*errors.Error{
				"Signature": errors.ErrState,
			},
		},
		"invalid": {
			model: &PendingRequest{
				Approvals: []string{"a", "a"},
				Metadata:  string(make([]byte, MaxMetadataLength+1)),
			},
			wantErrs: map[string]*errors.Error{
				"Payload":   errors.ErrEmpty,
				"Approvals": errors.ErrDuplicate,
				"Status":    errors.ErrState,
				"Metadata":  errors.ErrInput,
			},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			err := tc.model.Validate()
			for field, want := range tc.wantErrs {
				assert.FieldError(t, err, field, want)
			}
		})
	}
}

func TestPendingRequestApprove(t *testing.T) {
	r := &PendingRequest{Payload: []byte("x"), Approvals: []string{"a"}, Status: StatusProposed}
	require.Equal(t, false, r.QuorumReached(2))
	require.Equal(t, true, r.Approve("b"))
	require.Equal(t, false, r.Approve("a"))
	require.Equal(t, []string{"a", "b"}, r.Approvals)
	require.Equal(t, true, r.QuorumReached(2))
}

func TestRequestKey(t *testing.T) {
	hash := crypto.Keccak256([]byte("x"))
	id, got, err := SplitRequestKey(RequestKey("wallet", hash))
	require.NoError(t, err)
	require.Equal(t, "wallet", id)
	require.Equal(t, hash, got)

	_, _, err = SplitRequestKey([]byte("wallet"))
	assert.IsErr(t, errors.ErrInput, err)
	_, _, err = SplitRequestKey(append([]byte("wallet\x00"), 1, 2))
	assert.IsErr(t, errors.ErrInput, err)
}

func TestRequestStatus(t *testing.T) {
	require.Equal(t, "proposed", StatusProposed.String())
	require.Equal(t, "signing", StatusSigning.String())
	require.Equal(t, "signed", StatusSigned.String())
	require.Equal(t, "unknown", RequestStatus(0).String())
	assert.IsErr(t, errors.ErrState, RequestStatus(9).Validate())
}
