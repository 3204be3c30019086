package main

import (
	"fmt"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

func parseSeed(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: must be an integer in [0, 4294967295]", s)
	}
	return uint32(v), nil
}

func newBoardCmd() *cobra.Command {
	var flags boardFlags
	cmd := &cobra.Command{
		Use:   "board <seed>",
		Short: "Print the ladders, traps and eggs generated for a seed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := parseSeed(args[0])
			if err != nil {
				return err
			}
			gen, err := flags.generator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			l, err := gen.Generate(seed)
			if err != nil {
				return err
			}
			writeLayoutTable(cmd, l)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func writeLayoutTable(cmd *cobra.Command, l *board.Layout) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "seed %d\n", l.Seed)

	table := tablewriter.NewWriter(out)
	table.SetHeader([]string{"Kind", "From", "To", "Delta"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT})
	for _, e := range l.Events() {
		table.Append([]string{string(e.Kind), strconv.Itoa(e.Source), strconv.Itoa(e.Target), strconv.Itoa(e.Delta)})
	}
	table.SetFooter([]string{fmt.Sprintf("Fallbacks %d", l.Fallbacks), "", "", ""})
	table.Render()

	if len(l.Eggs) == 0 {
		return
	}
	eggs := tablewriter.NewWriter(out)
	eggs.SetHeader([]string{"Floor", "Egg"})
	eggs.SetBorder(false)
	eggs.SetCenterSeparator("")
	for _, e := range l.Eggs {
		eggs.Append([]string{strconv.Itoa(e.Floor), e.MonsterID})
	}
	eggs.Render()
}
