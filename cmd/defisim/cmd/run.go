package cmd

import (
	"github.com/spf13/cobra"

	"github.com/onesgame/onesdefi/x/defi/simulation"
)

// RunCmd replays a YAML scenario file.
func RunCmd(state *rootState) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [scenario.yaml]",
		Short: "Replay a settlement scenario and print the resulting ledger state",
		Long: `Replay a settlement scenario. Every transaction must end the way its
expect field says and the ledger invariants must hold after each one.
Audit records are relayed to the configured sinks as the scenario runs.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc, err := simulation.LoadScenario(args[0])
			if err != nil {
				return err
			}

			sinks, err := openSinks(cmd.Context(), state.cfg)
			if err != nil {
				return err
			}
			runner := simulation.Runner{Logger: state.logger, Sinks: sinks, RelayRate: state.cfg.RelayRate}
			report, err := runner.Run(cmd.Context(), sc)
			for _, s := range sinks {
				if cerr := s.Close(); cerr != nil {
					state.logger.Error("failed to close audit sink", "error", cerr)
				}
			}
			if report != nil {
				if werr := writeOutput(cmd.OutOrStdout(), state.cfg.Output, report); werr != nil && err == nil {
					err = werr
				}
			}
			return err
		},
	}
	return cmd
}
