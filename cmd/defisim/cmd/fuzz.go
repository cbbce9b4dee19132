package cmd

import (
	"math/rand"
	"time"

	"github.com/spf13/cobra"

	"github.com/onesgame/onesdefi/x/defi/simulation"
	"github.com/onesgame/onesdefi/x/defi/types"
)

const (
	flagSeed     = "seed"
	flagAccounts = "accounts"
	flagOps      = "ops"
)

// FuzzCmd runs weighted random settlement traffic.
func FuzzCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fuzz",
		Short: "Run random swaps and liquidity changes and check the ledger invariants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags := cmd.Flags()
			seed, err := flags.GetInt64(flagSeed)
			if err != nil {
				return err
			}
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			numAccs, err := flags.GetInt(flagAccounts)
			if err != nil {
				return err
			}
			numOps, err := flags.GetInt(flagOps)
			if err != nil {
				return err
			}

			env, err := simulation.NewEnv(state.logger, "", *types.DefaultGenesis())
			if err != nil {
				return err
			}
			state.logger.Info("starting random run", "seed", seed, "accounts", numAccs, "ops", numOps)

			summary, err := simulation.RunRandom(env, rand.New(rand.NewSource(seed)), numAccs, numOps)
			if err != nil {
				state.logger.Error("random run failed", "seed", seed, "error", err)
				return err
			}
			snapshot, err := env.Keeper.Snapshot(env.Ctx)
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), state.cfg.Output, struct {
				Seed    int64                    `json:"seed"`
				Summary simulation.RandomSummary `json:"summary"`
				Pools   []types.Pool             `json:"pools"`
			}{seed, summary, snapshot.Pools})
		},
	}
	cmd.Flags().Int64(flagSeed, 0, "random seed (0 picks one from the clock)")
	cmd.Flags().Int(flagAccounts, 10, "number of funded accounts")
	cmd.Flags().Int(flagOps, 500, "number of operations")
	return cmd
}
