package simulation

import (
	"context"
	"fmt"

	"cosmossdk.io/math"
	storetypes "cosmossdk.io/store/types"
	sdk "github.com/cosmos/cosmos-sdk/types"
	sdkerrors "github.com/cosmos/cosmos-sdk/types/errors"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"
	banktypes "github.com/cosmos/cosmos-sdk/x/bank/types"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// LedgerStoreKey is the store key the simulated bank and call log live under.
const LedgerStoreKey = "simledger"

var (
	balanceKeyPrefix = []byte{0x01}
	callKeyPrefix    = []byte{0x02}
	callCounterKey   = []byte{0x03}
)

func balanceKey(addr sdk.AccAddress, denom string) []byte {
	key := append([]byte{}, balanceKeyPrefix...)
	key = append(key, byte(len(addr)))
	key = append(key, addr...)
	return append(key, denom...)
}

// Ledger is a minimal bank kept in its own KV store, so balances roll back
// together with the module state when a settlement transaction aborts.
type Ledger struct {
	key      storetypes.StoreKey
	metadata map[string]banktypes.Metadata
}

var _ types.BankKeeper = (*Ledger)(nil)

// NewLedger returns a ledger over key.
func NewLedger(key storetypes.StoreKey) *Ledger {
	return &Ledger{key: key, metadata: make(map[string]banktypes.Metadata)}
}

// RegisterAsset makes ref a recognized asset with the given display exponent.
func (l *Ledger) RegisterAsset(ref types.AssetRef, exponent uint32) {
	denom := ref.Denom()
	display := denom
	units := []*banktypes.DenomUnit{{Denom: denom, Exponent: 0}}
	if exponent > 0 {
		display = ref.Issuer + "/" + ref.Symbol + "-display"
		units = append(units, &banktypes.DenomUnit{Denom: display, Exponent: exponent})
	}
	l.metadata[denom] = banktypes.Metadata{
		Base:       denom,
		Display:    display,
		Name:       ref.Symbol,
		Symbol:     ref.Symbol,
		DenomUnits: units,
	}
}

// GetDenomMetaData implements types.BankKeeper.
func (l *Ledger) GetDenomMetaData(_ context.Context, denom string) (banktypes.Metadata, bool) {
	md, ok := l.metadata[denom]
	return md, ok
}

// GetBalance implements types.BankKeeper.
func (l *Ledger) GetBalance(ctx context.Context, addr sdk.AccAddress, denom string) sdk.Coin {
	bz := l.store(ctx).Get(balanceKey(addr, denom))
	amount := math.ZeroInt()
	if bz != nil {
		if err := amount.Unmarshal(bz); err != nil {
			panic(fmt.Errorf("corrupt balance of %s in %s: %w", addr, denom, err))
		}
	}
	return sdk.NewCoin(denom, amount)
}

func (l *Ledger) setBalance(ctx context.Context, addr sdk.AccAddress, coin sdk.Coin) error {
	store := l.store(ctx)
	key := balanceKey(addr, coin.Denom)
	if coin.Amount.IsZero() {
		store.Delete(key)
		return nil
	}
	bz, err := coin.Amount.Marshal()
	if err != nil {
		return err
	}
	store.Set(key, bz)
	return nil
}

// Mint credits coins to addr out of thin air.
func (l *Ledger) Mint(ctx context.Context, addr sdk.AccAddress, coins sdk.Coins) error {
	for _, coin := range coins {
		cur := l.GetBalance(ctx, addr, coin.Denom)
		if err := l.setBalance(ctx, addr, cur.Add(coin)); err != nil {
			return err
		}
	}
	return nil
}

// Send moves coins between two accounts.
func (l *Ledger) Send(ctx context.Context, from, to sdk.AccAddress, coins sdk.Coins) error {
	for _, coin := range coins {
		have := l.GetBalance(ctx, from, coin.Denom)
		if have.Amount.LT(coin.Amount) {
			return sdkerrors.ErrInsufficientFunds.Wrapf("%s has %s, needs %s", from, have, coin)
		}
		if err := l.setBalance(ctx, from, have.Sub(coin)); err != nil {
			return err
		}
		if err := l.setBalance(ctx, to, l.GetBalance(ctx, to, coin.Denom).Add(coin)); err != nil {
			return err
		}
	}
	return nil
}

// SendCoinsFromAccountToModule implements types.BankKeeper.
func (l *Ledger) SendCoinsFromAccountToModule(ctx context.Context, senderAddr sdk.AccAddress, recipientModule string, amt sdk.Coins) error {
	return l.Send(ctx, senderAddr, authtypes.NewModuleAddress(recipientModule), amt)
}

// SendCoinsFromModuleToAccount implements types.BankKeeper.
func (l *Ledger) SendCoinsFromModuleToAccount(ctx context.Context, senderModule string, recipientAddr sdk.AccAddress, amt sdk.Coins) error {
	return l.Send(ctx, authtypes.NewModuleAddress(senderModule), recipientAddr, amt)
}

func (l *Ledger) store(ctx context.Context) storetypes.KVStore {
	return sdk.UnwrapSDKContext(ctx).KVStore(l.key)
}

// DispatchedCall is an outbound call seen by the Router.
type DispatchedCall struct {
	Sender string
	Call   types.OutboundCall
}

// Router records outbound calls in the ledger store. Calls made by an
// aborted transaction disappear with it.
type Router struct {
	ledger *Ledger
}

var _ types.CallRouter = (*Router)(nil)

// NewRouter returns a router that records into ledger.
func NewRouter(ledger *Ledger) *Router {
	return &Router{ledger: ledger}
}

// Dispatch implements types.CallRouter.
func (r *Router) Dispatch(ctx context.Context, sender string, call types.OutboundCall) error {
	if call.Target == "" || call.Method == "" {
		return fmt.Errorf("call needs a target and a method: %s", call)
	}
	store := r.ledger.store(ctx)
	var n uint64
	if bz := store.Get(callCounterKey); bz != nil {
		n = sdk.BigEndianToUint64(bz)
	}
	n++
	store.Set(callCounterKey, sdk.Uint64ToBigEndian(n))

	bz, err := types.Amino().Marshal(DispatchedCall{Sender: sender, Call: call})
	if err != nil {
		return err
	}
	store.Set(append(append([]byte{}, callKeyPrefix...), sdk.Uint64ToBigEndian(n)...), bz)
	return nil
}

// Calls returns every recorded call, oldest first.
func (r *Router) Calls(ctx context.Context) ([]DispatchedCall, error) {
	iterator := storetypes.KVStorePrefixIterator(r.ledger.store(ctx), callKeyPrefix)
	defer iterator.Close()

	var calls []DispatchedCall
	for ; iterator.Valid(); iterator.Next() {
		var call DispatchedCall
		if err := types.Amino().Unmarshal(iterator.Value(), &call); err != nil {
			return nil, fmt.Errorf("decode call %x: %w", iterator.Key(), err)
		}
		calls = append(calls, call)
	}
	return calls, nil
}
