package types

import (
	"encoding/hex"
	"fmt"

	"github.com/cometbft/cometbft/crypto/tmhash"
)

// Tx is a settlement transaction: an ordered list of msgs authorized by a set
// of signers that commits or aborts as a whole.
type Tx struct {
	Nonce   uint64   `json:"nonce"`
	Signers []string `json:"signers"`
	Msgs    []Msg    `json:"msgs"`
}

// NewTx creates a new Tx
func NewTx(nonce uint64, signers []string, msgs ...Msg) Tx {
	return Tx{Nonce: nonce, Signers: signers, Msgs: msgs}
}

// Bytes returns the canonical encoding of the transaction.
func (tx Tx) Bytes() ([]byte, error) {
	bz, err := amino.MarshalJSON(tx)
	if err != nil {
		return nil, fmt.Errorf("encode tx: %w", err)
	}
	return bz, nil
}

// CorrelationID returns the transaction identity shared by every msg in it.
// It is the same hash the consensus engine uses for transaction ids.
func CorrelationID(txBytes []byte) string {
	return hex.EncodeToString(tmhash.Sum(txBytes))
}

// HasSigner reports whether addr authorized the transaction.
func (tx Tx) HasSigner(addr string) bool {
	for _, s := range tx.Signers {
		if s == addr {
			return true
		}
	}
	return false
}

// ValidateBasic performs stateless checks on every msg and its authorization.
func (tx Tx) ValidateBasic() error {
	if len(tx.Msgs) == 0 {
		return ErrInvalidTx.Wrap("transaction has no msgs")
	}
	for i, msg := range tx.Msgs {
		if msg == nil {
			return ErrInvalidTx.Wrapf("msg %d is nil", i)
		}
		if err := msg.ValidateBasic(); err != nil {
			return fmt.Errorf("msg %d (%s): %w", i, msg.Type(), err)
		}
		if !tx.HasSigner(msg.GetSigner()) {
			return ErrUnauthorized.Wrapf("msg %d (%s) needs a signature from %s", i, msg.Type(), msg.GetSigner())
		}
	}
	return nil
}
