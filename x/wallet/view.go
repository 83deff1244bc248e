package wallet

import (
	"github.com/iov-one/blendsafe"
)

// WalletView is a read only snapshot of a wallet and its requests.
type WalletView struct {
	ID           string            `json:"id"`
	Signers      []string          `json:"signers"`
	Threshold    uint32            `json:"threshold"`
	MessageQueue []RequestView     `json:"message_queue"`
	Address      blendsafe.Address `json:"address,omitempty"`
}

// RequestView is a read only snapshot of a pending request.
type RequestView struct {
	Payload   blendsafe.HexBytes `json:"payload"`
	Hash      blendsafe.HexBytes `json:"hash"`
	Approvals []string           `json:"approvals"`
	Status    string             `json:"status"`
	Signature blendsafe.HexBytes `json:"signature,omitempty"`
	Metadata  string             `json:"metadata,omitempty"`
}

func (s *Store) view(db blendsafe.ReadOnlyKVStore, w *Wallet) (*WalletView, error) {
	v := &WalletView{
		ID:           w.ID,
		Signers:      append([]string(nil), w.Signers...),
		Threshold:    w.Threshold,
		MessageQueue: make([]RequestView, 0, len(w.Queue)),
	}
	if len(w.Address) != 0 {
		v.Address = blendsafe.Address(w.Address)
	}
	for _, hash := range w.Queue {
		req, err := s.requests.GetRequest(db, w.ID, hash)
		if err != nil {
			return nil, err
		}
		v.MessageQueue = append(v.MessageQueue, RequestView{
			Payload:   req.Payload,
			Hash:      hash,
			Approvals: append([]string(nil), req.Approvals...),
			Status:    req.Status.String(),
			Signature: req.Signature,
			Metadata:  req.Metadata,
		})
	}
	return v, nil
}
