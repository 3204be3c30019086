package main

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strconv"
	"sync"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/cory-johannsen/questmon/internal/game/board"
)

// auditReport aggregates generation results over a seed range.
type auditReport struct {
	mu           sync.Mutex
	seeds        int
	fallbacks    int
	withFallback []uint32
	exhausted    []uint32
	invalid      map[uint32]error
}

func (r *auditReport) record(seed uint32, l *board.Layout, genErr, verifyErr error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seeds++
	if genErr != nil {
		r.exhausted = append(r.exhausted, seed)
		return
	}
	if l.Fallbacks > 0 {
		r.fallbacks += l.Fallbacks
		r.withFallback = append(r.withFallback, seed)
	}
	if verifyErr != nil {
		r.invalid[seed] = verifyErr
	}
}

// maxListed caps how many offending seeds are printed per category.
const maxListed = 10

func listSeeds(seeds []uint32) string {
	if len(seeds) == 0 {
		return "-"
	}
	out := ""
	for i, s := range seeds {
		if i == maxListed {
			out += fmt.Sprintf(" (+%d more)", len(seeds)-maxListed)
			break
		}
		if i > 0 {
			out += " "
		}
		out += strconv.FormatUint(uint64(s), 10)
	}
	return out
}

func newAuditCmd() *cobra.Command {
	var (
		flags    boardFlags
		start    uint32
		count    int
		parallel int
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Generate many boards and report fallbacks and invariant violations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if count < 1 {
				return fmt.Errorf("--seeds must be >= 1, got %d", count)
			}
			if parallel < 1 {
				return fmt.Errorf("--parallel must be >= 1, got %d", parallel)
			}
			gen, err := flags.generator(cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			report, err := runAudit(cmd, gen, start, count, parallel)
			if err != nil {
				return err
			}
			writeAudit(cmd, report)
			if len(report.invalid) > 0 {
				return fmt.Errorf("%d layouts violate placement invariants", len(report.invalid))
			}
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().Uint32Var(&start, "start", 0, "first seed to generate")
	cmd.Flags().IntVarP(&count, "seeds", "n", 1000, "number of consecutive seeds to generate")
	cmd.Flags().IntVarP(&parallel, "parallel", "p", runtime.GOMAXPROCS(0), "number of parallel workers")
	return cmd
}

func runAudit(cmd *cobra.Command, gen *board.Generator, start uint32, count, parallel int) (*auditReport, error) {
	report := &auditReport{invalid: make(map[uint32]error)}
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(parallel)
	for i := 0; i < count; i++ {
		seed := start + uint32(i)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			l, err := gen.Generate(seed)
			if err != nil && !errors.Is(err, board.ErrPlacementExhausted) {
				return fmt.Errorf("seed %d: %w", seed, err)
			}
			var verifyErr error
			if err == nil {
				verifyErr = board.Verify(l, gen.Config())
			}
			report.record(seed, l, err, verifyErr)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return report, nil
}

func writeAudit(cmd *cobra.Command, r *auditReport) {
	invalid := make([]uint32, 0, len(r.invalid))
	for seed := range r.invalid {
		invalid = append(invalid, seed)
	}
	slices.Sort(r.withFallback)
	slices.Sort(r.exhausted)
	slices.Sort(invalid)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Check", "Count", "Seeds"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.Append([]string{"generated", strconv.Itoa(r.seeds), ""})
	table.Append([]string{"with fallback", strconv.Itoa(len(r.withFallback)), listSeeds(r.withFallback)})
	table.Append([]string{"fallback placements", strconv.Itoa(r.fallbacks), ""})
	table.Append([]string{"exhausted (strict)", strconv.Itoa(len(r.exhausted)), listSeeds(r.exhausted)})
	table.Append([]string{"invalid", strconv.Itoa(len(invalid)), listSeeds(invalid)})
	table.Render()

	for _, seed := range invalid {
		fmt.Fprintf(cmd.ErrOrStderr(), "seed %d: %v\n", seed, r.invalid[seed])
	}
}
