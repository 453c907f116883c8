// Command ivcheck loads a TSV of intervals into an in-memory IntervalTree
// and queries it, for exercising and debugging the library from the
// command line without writing a Go program.
//
// Usage:
//
//	ivcheck <intervals.tsv> <chr:start-end>
//
// Each line of the TSV is "chr\tstart\tend[\tstrand]". Use --local-only for
// trees that never need remote-fetch semantics, and --debug to dump the
// resulting tree shape.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/turivl/ivtree"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		branchingFactor int
		lifeSpan        uint64
		localOnly       bool
		strandFilter    string
		debug           bool
	)

	cmd := &cobra.Command{
		Use:   "ivcheck <intervals.tsv> <chr:start-end>",
		Short: "Load a TSV of intervals into an IntervalTree and query a range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			intervals, chr, err := loadTSV(args[0])
			if err != nil {
				return err
			}
			rng, err := parseRange(chr, args[1])
			if err != nil {
				return err
			}

			opts := []ivtree.Option{ivtree.WithBranchingFactor(branchingFactor)}
			if lifeSpan > 0 {
				opts = append(opts, ivtree.WithLifeSpan(lifeSpan))
			}
			if localOnly {
				opts = append(opts, ivtree.WithLocalOnly())
			}

			coverage := coveringRangeFor(chr, intervals)
			tree, err := ivtree.New(coverage, opts...)
			if err != nil {
				return fmt.Errorf("building tree: %w", err)
			}
			defer tree.Close()

			if err := tree.Insert(intervals, nil, ivtree.InsertProps{}); err != nil {
				return fmt.Errorf("insert: %w", err)
			}

			var filter func(ivtree.Interval) bool
			if strandFilter != "" {
				want := ivtree.Strand(strandFilter[0])
				filter = func(iv ivtree.Interval) bool { return iv.Strand() == want }
			}

			var matches int
			_, err = tree.Traverse(rng, ivtree.TraverseProps{
				AllowNull:  true,
				DataFilter: filter,
				DataCallback: func(iv ivtree.Interval) bool {
					matches++
					fmt.Fprintf(cmd.OutOrStdout(), "%s:%d-%d\n", iv.Chr(), iv.Start(), iv.End())
					return true
				},
			})
			if err != nil {
				return fmt.Errorf("traverse: %w", err)
			}

			uncached := tree.GetUncachedRange(rng, ivtree.UncachedRangeProps{})
			fmt.Fprintf(cmd.ErrOrStderr(), "matches=%d uncached=%v\n", matches, uncached)

			if debug {
				fmt.Fprintln(cmd.ErrOrStderr(), tree.DebugString())
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&branchingFactor, "branching", ivtree.DefaultBranchingFactor, "B+-tree branching factor")
	flags.Uint64Var(&lifeSpan, "life-span", 0, "wither lifespan in generations (0 disables withering)")
	flags.BoolVar(&localOnly, "local-only", false, "build a local-only tree (no Unloaded slots)")
	flags.StringVar(&strandFilter, "strand", "", "restrict matches to a strand ('+' or '-')")
	flags.BoolVar(&debug, "debug", false, "print the tree's shape to stderr")
	return cmd
}

func loadTSV(path string) ([]ivtree.Interval, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var (
		out []ivtree.Interval
		chr string
	)
	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 3 {
			return nil, "", fmt.Errorf("%s:%d: expected at least 3 tab-separated fields", path, lineNo)
		}
		start, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%s:%d: bad start: %w", path, lineNo, err)
		}
		end, err := strconv.ParseInt(fields[2], 10, 64)
		if err != nil {
			return nil, "", fmt.Errorf("%s:%d: bad end: %w", path, lineNo, err)
		}
		gi := ivtree.NewGenomicInterval(fields[0], start, end)
		if len(fields) > 3 && fields[3] != "" {
			gi = gi.WithStrand(ivtree.Strand(fields[3][0]))
		}
		out = append(out, gi)
		chr = fields[0]
	}
	if err := scanner.Err(); err != nil {
		return nil, "", err
	}
	return out, chr, nil
}

func parseRange(chr, spec string) (ivtree.Range, error) {
	parts := strings.SplitN(spec, ":", 2)
	if len(parts) == 2 {
		chr = parts[0]
		spec = parts[1]
	}
	bounds := strings.SplitN(spec, "-", 2)
	if len(bounds) != 2 {
		return ivtree.Range{}, fmt.Errorf("bad range %q, want chr:start-end", spec)
	}
	start, err := strconv.ParseInt(bounds[0], 10, 64)
	if err != nil {
		return ivtree.Range{}, fmt.Errorf("bad start in %q: %w", spec, err)
	}
	end, err := strconv.ParseInt(bounds[1], 10, 64)
	if err != nil {
		return ivtree.Range{}, fmt.Errorf("bad end in %q: %w", spec, err)
	}
	return ivtree.Range{Chr: chr, Start: start, End: end}, nil
}

func coveringRangeFor(chr string, intervals []ivtree.Interval) ivtree.Range {
	var maxEnd int64 = 1
	for _, iv := range intervals {
		if iv.End() > maxEnd {
			maxEnd = iv.End()
		}
	}
	return ivtree.Range{Chr: chr, Start: 0, End: maxEnd}
}
