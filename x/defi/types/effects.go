package types

import (
	"fmt"
	"strings"
)

// EffectKind distinguishes outbound effects.
type EffectKind int32

const (
	EffectTransfer EffectKind = iota + 1
	EffectCall
)

// OutboundCall is a message to another module or venue.
type OutboundCall struct {
	Target string   `json:"target"`
	Method string   `json:"method"`
	Args   []string `json:"args"`
}

func (c OutboundCall) String() string {
	return fmt.Sprintf("%s.%s(%s)", c.Target, c.Method, strings.Join(c.Args, ","))
}

// Effect is an outbound transfer or call queued by an entry point. Effects run
// after the entry point returns, in the order they were queued.
type Effect struct {
	Kind      EffectKind   `json:"kind"`
	Recipient string       `json:"recipient,omitempty"`
	Funds     AssetAmount  `json:"funds,omitempty"`
	Memo      string       `json:"memo,omitempty"`
	Call      OutboundCall `json:"call,omitempty"`
}

// NewTransferEffect queues funds for recipient.
func NewTransferEffect(recipient string, funds AssetAmount, memo string) Effect {
	return Effect{Kind: EffectTransfer, Recipient: recipient, Funds: funds, Memo: memo}
}

// NewCallEffect queues a call on target.
func NewCallEffect(target, method string, args ...string) Effect {
	return Effect{Kind: EffectCall, Call: OutboundCall{Target: target, Method: method, Args: args}}
}

func (e Effect) String() string {
	if e.Kind == EffectTransfer {
		return fmt.Sprintf("transfer %s to %s (%s)", e.Funds, e.Recipient, e.Memo)
	}
	return "call " + e.Call.String()
}
