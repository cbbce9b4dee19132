package types

// DepositState tracks a two-leg deposit inside one settlement transaction.
type DepositState int32

const (
	DepositAwaitingSecond DepositState = iota + 1
	DepositReady
	DepositConsumed
)

func (s DepositState) String() string {
	switch s {
	case DepositAwaitingSecond:
		return "awaiting_second"
	case DepositReady:
		return "ready"
	case DepositConsumed:
		return "consumed"
	default:
		return "unknown"
	}
}

// DepositLeg is one inbound transfer staged for a deposit.
type DepositLeg struct {
	Sender string      `json:"sender"`
	Funds  AssetAmount `json:"funds"`
	Memo   string      `json:"memo"`
}

// IsSet reports whether the leg has been filled.
func (l DepositLeg) IsSet() bool {
	return l.Sender != ""
}

// PendingDeposit is the single staging slot. It only ever belongs to the
// transaction named by CorrelationID.
type PendingDeposit struct {
	CorrelationID string       `json:"correlation_id"`
	Leg1          DepositLeg   `json:"leg1"`
	Leg2          DepositLeg   `json:"leg2"`
	State         DepositState `json:"state"`
}

// PoolID returns the pool named by the legs' memo.
func (d PendingDeposit) PoolID() (uint64, error) {
	memo, err := ParseMemo(d.Leg1.Memo)
	if err != nil {
		return 0, err
	}
	if memo.Kind != MemoAddLiquidity {
		return 0, ErrInvalidMemo.Wrapf("staged memo %q is not a deposit", d.Leg1.Memo)
	}
	return memo.PoolID, nil
}

// StagedLegs returns the legs that hold funds not yet credited to a pool.
func (d PendingDeposit) StagedLegs() []DepositLeg {
	if d.State == DepositConsumed {
		return nil
	}
	legs := []DepositLeg{d.Leg1}
	if d.Leg2.IsSet() {
		legs = append(legs, d.Leg2)
	}
	return legs
}
