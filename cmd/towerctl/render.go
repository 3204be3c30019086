package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

const gridWidth = 10

// Cell markers.
const (
	markLadder = "^"
	markTrap   = "v"
	markEgg    = "*"
)

func newRenderCmd() *cobra.Command {
	var flags boardFlags
	cmd := &cobra.Command{
		Use:   "render <seed>",
		Short: "Draw the board for a seed as a serpentine grid",
		Long: `render draws floors 1-100 bottom to top, alternating direction each row.
Ladder sources are marked ^, trap sources v and egg floors *.`,
		Args: cobra.ExactArgs(1),
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
			fmt.Fprintln(cmd.OutOrStdout(), renderGrid(cmd.OutOrStdout(), l))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

// gridRows returns the floors of each grid row, top row first. Even rows
// (counting from the bottom) run left to right.
func gridRows() [][]int {
	rows := make([][]int, 0, board.BoardMax/gridWidth)
	for r := board.BoardMax/gridWidth - 1; r >= 0; r-- {
		row := make([]int, gridWidth)
		for c := range row {
			if r%2 == 0 {
				row[c] = r*gridWidth + c + 1
			} else {
				row[c] = r*gridWidth + gridWidth - c
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// renderGrid styles the grid for w's color profile; a plain writer gets no
// escape codes.
func renderGrid(w io.Writer, l *board.Layout) string {
	r := lipgloss.NewRenderer(w)
	cell := r.NewStyle().Width(6).Align(lipgloss.Right)
	ladder := cell.Foreground(lipgloss.Color("10")).Bold(true)
	trap := cell.Foreground(lipgloss.Color("9")).Bold(true)
	egg := cell.Foreground(lipgloss.Color("11"))
	title := r.NewStyle().Bold(true).MarginBottom(1)

	lines := make([]string, 0, board.BoardMax/gridWidth)
	for _, row := range gridRows() {
		cells := make([]string, 0, len(row))
		for _, floor := range row {
			label := fmt.Sprintf("%d", floor)
			style := cell
			if e, ok := l.At(floor); ok {
				if e.Kind == board.KindLadder {
					label += markLadder
					style = ladder
				} else {
					label += markTrap
					style = trap
				}
			} else if _, ok := l.EggAt(floor); ok {
				label += markEgg
				style = egg
			}
			cells = append(cells, style.Render(label))
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	legend := make([]string, 0, len(l.Ladders)+len(l.Traps)+len(l.Eggs))
	for _, e := range l.Events() {
		legend = append(legend, fmt.Sprintf("%s %d -> %d", e.Kind, e.Source, e.Target))
	}
	for _, e := range l.Eggs {
		legend = append(legend, fmt.Sprintf("egg %d: %s", e.Floor, e.MonsterID))
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		title.Render(fmt.Sprintf("Tower seed %d", l.Seed)),
		strings.Join(lines, "\n"),
		"",
		strings.Join(legend, "\n"),
	)
}
