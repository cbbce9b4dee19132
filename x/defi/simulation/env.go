package simulation

import (
	"fmt"
	"time"

	"cosmossdk.io/log"
	"cosmossdk.io/store"
	"cosmossdk.io/store/metrics"
	storetypes "cosmossdk.io/store/types"
	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	dbm "github.com/cosmos/cosmos-db"
	sdk "github.com/cosmos/cosmos-sdk/types"
	authtypes "github.com/cosmos/cosmos-sdk/x/auth/types"

	"github.com/onesgame/onesdefi/x/defi/keeper"
	"github.com/onesgame/onesdefi/x/defi/types"
)

// DefaultAuthority is the operations identity used when none is configured.
var DefaultAuthority = authtypes.NewModuleAddress("gov").String()

// GenesisTime is the block time of the first simulated block.
var GenesisTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// BlockInterval is the time between simulated blocks.
const BlockInterval = 5 * time.Second

// Env is a single-node ledger running the defi keeper over an in-memory store.
type Env struct {
	Keeper *keeper.Keeper
	Ledger *Ledger
	Router *Router
	Ctx    sdk.Context

	cms    storetypes.CommitMultiStore
	logger log.Logger
	nonce  uint64
}

// NewEnv mounts the module and ledger stores and loads genesis.
func NewEnv(logger log.Logger, authority string, genesis types.GenesisState) (*Env, error) {
	if authority == "" {
		authority = DefaultAuthority
	}
	defiKey := storetypes.NewKVStoreKey(types.StoreKey)
	ledgerKey := storetypes.NewKVStoreKey(LedgerStoreKey)

	db := dbm.NewMemDB()
	cms := store.NewCommitMultiStore(db, logger, metrics.NewNoOpMetrics())
	// a nil db gives each store its own prefix of the root db
	cms.MountStoreWithDB(defiKey, storetypes.StoreTypeIAVL, nil)
	cms.MountStoreWithDB(ledgerKey, storetypes.StoreTypeIAVL, nil)
	if err := cms.LoadLatestVersion(); err != nil {
		return nil, fmt.Errorf("load stores: %w", err)
	}

	ledger := NewLedger(ledgerKey)
	router := NewRouter(ledger)
	k := keeper.NewKeeper(types.Amino(), defiKey, ledger, router, authority)

	env := &Env{
		Keeper: k,
		Ledger: ledger,
		Router: router,
		cms:    cms,
		logger: logger,
	}
	env.Ctx = sdk.NewContext(cms, cmtproto.Header{Height: 1, Time: GenesisTime}, false, logger)

	if err := k.InitGenesis(env.Ctx, genesis); err != nil {
		return nil, err
	}
	return env, nil
}

// Authority returns the operations identity of the keeper.
func (e *Env) Authority() string {
	return e.Keeper.GetAuthority()
}

// Deliver runs msgs as one settlement transaction signed by signers. The
// context's event manager is reset first, so the result only carries this
// transaction's events.
func (e *Env) Deliver(signers []string, msgs ...types.Msg) (*keeper.TxResult, error) {
	e.nonce++
	e.Ctx = e.Ctx.WithEventManager(sdk.NewEventManager())
	return e.Keeper.DeliverTx(e.Ctx, types.NewTx(e.nonce, signers, msgs...))
}

// Commit ends the current block and opens the next one.
func (e *Env) Commit() {
	e.cms.Commit()
	header := e.Ctx.BlockHeader()
	header.Height++
	header.Time = header.Time.Add(BlockInterval)
	e.Ctx = sdk.NewContext(e.cms, header, false, e.logger)
}
