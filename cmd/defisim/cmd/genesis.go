package cmd

import (
	"github.com/spf13/cobra"

	"github.com/onesgame/onesdefi/x/defi/types"
)

// GenesisCmd prints the default module genesis.
func GenesisCmd(state *rootState) *cobra.Command {
	return &cobra.Command{
		Use:   "genesis",
		Short: "Print the default defi genesis state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			gs := types.DefaultGenesis()
			if err := gs.Validate(); err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), state.cfg.Output, gs)
		},
	}
}
