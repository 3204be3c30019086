// Package main provides towerctl, an operator CLI for inspecting tower boards
// and administering player state.
package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cory-johannsen/questmon/internal/game/board"
	"github.com/cory-johannsen/questmon/internal/game/monster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// boardFlags are shared by every command that generates layouts.
type boardFlags struct {
	strict   bool
	monsters string
	eggs     bool
}

func (f *boardFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.strict, "strict", false, "fail instead of falling back when a zone has no candidates")
	cmd.Flags().StringVar(&f.monsters, "monsters", "", "monster catalog YAML overriding the embedded one")
	cmd.Flags().BoolVar(&f.eggs, "eggs", true, "place milestone eggs from the monster catalog")
}

// generator builds a board generator that logs placement warnings to w.
func (f *boardFlags) generator(w io.Writer) (*board.Generator, error) {
	cfg := board.DefaultConfig()
	cfg.Strict = f.strict
	if f.eggs {
		catalog := monster.DefaultCatalog()
		if f.monsters != "" {
			var err error
			catalog, err = monster.LoadCatalog(f.monsters)
			if err != nil {
				return nil, err
			}
		}
		cfg.Milestones = board.MilestonesFromCatalog(catalog)
	}
	return board.NewGenerator(cfg, cliLogger(w))
}

// cliLogger writes warnings and above to w in console format.
func cliLogger(w io.Writer) *zap.Logger {
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(enc), zapcore.AddSync(w), zapcore.WarnLevel)
	return zap.New(core)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "towerctl",
		Short: "Inspect tower boards and administer player state",
		Long: `towerctl generates and audits tower board layouts offline, renders them
as a grid, tries dice expressions, credits stars to players and calls a
running tower server.`,
		SilenceUsage: true,
	}
	cmd.AddCommand(
		newBoardCmd(),
		newRenderCmd(),
		newAuditCmd(),
		newRollCmd(),
		newGrantStarsCmd(),
		newCallCmd(),
	)
	return cmd
}
