package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/randalmurphal/trainledger/pkg/trainledger/checkpoint"
	"github.com/randalmurphal/trainledger/pkg/trainledger/family"
	"github.com/randalmurphal/trainledger/pkg/trainledger/lifecycle"
	"github.com/randalmurphal/trainledger/pkg/trainledger/runid"
)

func parseFamily(arg string) (family.Family, error) {
	f, err := family.Parse(arg)
	if err != nil {
		return 0, fmt.Errorf("%w (expected one of A2C, PPO or 1, 2)", err)
	}
	return f, nil
}

func newRunsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "runs FAMILY",
		Short: "List the runs of a model family with their latest checkpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			ledger, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			runs, err := ledger.Registry().ListRuns(f)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "no %s runs\n", f)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "#\tRUN\tID\tLATEST\tCHECKPOINTS")
			for i, run := range runs {
				cps, err := ledger.Registry().Checkpoints(run)
				if err != nil {
					return err
				}
				id := strconv.Itoa(run.ID)
				if !run.Known {
					id = "?"
				}
				latest := "-"
				if len(cps) > 0 {
					latest = stepLabel(cps[len(cps)-1])
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\n", i+1, run.Name(), id, latest, len(cps))
			}
			return tw.Flush()
		},
	}
}

func newLatestCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "latest FAMILY RUN",
		Short: "Print the latest checkpoint of a run",
		Long:  "Print the latest checkpoint of a run. RUN is a number or a directory name such as Run3.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			id, err := parseRunArg(args[1])
			if err != nil {
				return err
			}
			ledger, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			run, err := ledger.Registry().Resolve(f, id)
			if err != nil {
				return err
			}
			cp, err := ledger.Registry().Latest(run)
			if err != nil {
				return err
			}
			if cp == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no checkpoints\n", run.Name())
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), cp.Path)
			return nil
		},
	}
}

func newTopCmd(g *globals) *cobra.Command {
	var n int
	cmd := &cobra.Command{
		Use:   "top FAMILY",
		Short: "List the most recently modified checkpoints across all runs of a family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			ledger, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			cps, err := ledger.Registry().TopN(f, n)
			if err != nil {
				return err
			}
			return printCheckpoints(cmd.OutOrStdout(), cps)
		},
	}
	cmd.Flags().IntVarP(&n, "count", "n", 5, "number of checkpoints; 0 lists all")
	return cmd
}

func newResolveCmd(g *globals) *cobra.Command {
	var (
		resume bool
		runID  int
		index  int
		path   string
	)
	cmd := &cobra.Command{
		Use:   "resolve FAMILY",
		Short: "Decide which run and checkpoint a training session would use",
		Long: `Decide which run and checkpoint a training session would use.

Without --resume a new run is allocated. With --resume the run chosen by
--run or --index (default: the highest numbered run) is resumed from its
latest checkpoint; --path offers an external checkpoint for a family that
has no runs yet. With the counter strategy, allocating consumes a number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			ledger, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			req := lifecycle.Request{Family: f, Resume: resume, CustomPath: path}
			switch {
			case runID > 0:
				req.Select = lifecycle.SelectByID(runID)
			case index > 0:
				req.Select = lifecycle.SelectByIndex(index)
			}

			rc, err := ledger.Resolve(cmd.Context(), req)
			if err != nil {
				return err
			}
			printRunContext(cmd.OutOrStdout(), rc)
			return nil
		},
	}
	cmd.Flags().BoolVar(&resume, "resume", false, "continue from an existing checkpoint")
	cmd.Flags().IntVar(&runID, "run", 0, "resume the run with this identifier")
	cmd.Flags().IntVar(&index, "index", 0, "resume the run at this 1-based position in 'runs' output")
	cmd.Flags().StringVar(&path, "path", "", "external checkpoint used when the family has no runs")
	cmd.MarkFlagsMutuallyExclusive("run", "index")
	return cmd
}

func newNextCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "next FAMILY",
		Short: "Allocate the next run identifier of a family",
		Long: `Allocate the next run identifier of a family and print its directory.

The directory is not created. With the directory-count strategy the same
identifier is returned until the directory exists; with the counter
strategy every call consumes a number.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFamily(args[0])
			if err != nil {
				return err
			}
			ledger, err := g.open(cmd)
			if err != nil {
				return err
			}
			defer ledger.Close()

			run, err := ledger.Registry().Create(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", run.ID, run.Dir)
			return nil
		},
	}
}

// parseRunArg accepts "3" or "Run3".
func parseRunArg(arg string) (int, error) {
	if id, err := strconv.Atoi(arg); err == nil && runid.Valid(id) {
		return id, nil
	}
	if id, ok := runid.Decode(arg); ok {
		return id, nil
	}
	return 0, fmt.Errorf("invalid run %q", arg)
}

func stepLabel(cp checkpoint.Checkpoint) string {
	if !cp.HasStep() {
		return "?"
	}
	return strconv.FormatInt(cp.StepCount, 10)
}

func printCheckpoints(w io.Writer, cps []checkpoint.Checkpoint) error {
	if len(cps) == 0 {
		fmt.Fprintln(w, "no checkpoints")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STEP\tMODIFIED\tSIZE\tPATH")
	for _, cp := range cps {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", stepLabel(cp), cp.ModTime.Format("2006-01-02 15:04:05"), cp.Size, cp.Path)
	}
	return tw.Flush()
}

func printRunContext(w io.Writer, rc lifecycle.RunContext) {
	fmt.Fprintf(w, "state:      %s\n", rc.State)
	fmt.Fprintf(w, "run:        %s (%d)\n", rc.Run.Name(), rc.Run.ID)
	fmt.Fprintf(w, "dir:        %s\n", rc.Run.Dir)
	if rc.Checkpoint != nil {
		fmt.Fprintf(w, "checkpoint: %s\n", rc.Checkpoint.Path)
	}
	fmt.Fprintf(w, "start step: %d\n", rc.StartStep())
	for _, warn := range rc.Warnings {
		fmt.Fprintf(w, "warning:    %v\n", warn)
	}
}
