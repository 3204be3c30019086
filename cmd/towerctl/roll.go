package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cory-johannsen/questmon/internal/game/dice"
)

func newRollCmd() *cobra.Command {
	var (
		times int
		seed  uint32
	)
	cmd := &cobra.Command{
		Use:   "roll [expression]",
		Short: "Roll a dice expression, e.g. to try a tower.roll_expression value",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr := "1d6"
			if len(args) == 1 {
				expr = args[0]
			}
			if times < 1 {
				return fmt.Errorf("--times must be >= 1, got %d", times)
			}
			var src dice.Source = dice.NewCryptoSource()
			if cmd.Flags().Changed("seed") {
				src = dice.NewMulberry32(seed)
			}
			for i := 0; i < times; i++ {
				r, err := dice.RollExpr(expr, src)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), r.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&times, "times", "n", 1, "number of rolls")
	cmd.Flags().Uint32Var(&seed, "seed", 0, "roll from a seeded deterministic source")
	return cmd
}
