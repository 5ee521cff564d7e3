// Command loader loads <entity>.csv files from the data directory into the
// creditdesk database.
//
//	loader dictionary
//	loader all --data-dir ./data --on-duplicate skip
//	loader credits --commit row --json
//
// A run that completes exits 0 even when some rows failed; the failures are
// listed in the summary. Fatal errors exit 1.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/creditdesk/internal/admin"
	"github.com/JonMunkholm/creditdesk/internal/core"
	_ "github.com/JonMunkholm/creditdesk/internal/core/tables" // Register all entities
)

var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", core.FormatUserError(err))
		fmt.Fprintln(os.Stderr, "cause:", err)
		os.Exit(1)
	}
}

// options holds flags read by the commands themselves. Loader flags are
// applied to the configuration in applyFlags.
type options struct {
	json bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "loader",
		Short:         "Load CSV files into the creditdesk database",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	pf := root.PersistentFlags()
	pf.String("data-dir", "", "directory holding <entity>.csv files (LOADER_DATA_DIR)")
	pf.String("delimiter", "", `field separator: a character, "tab" or "semicolon" (LOADER_DELIMITER)`)
	pf.String("on-duplicate", "", "existing rows: update or skip (LOADER_ON_DUPLICATE)")
	pf.String("commit", "", "transaction per file or per row (LOADER_COMMIT)")
	pf.Bool("day-first", true, "read 02/01/2006 as 2 January (LOADER_DAY_FIRST)")
	pf.BoolVar(&opts.json, "json", false, "print results as JSON")

	for _, def := range core.All() {
		root.AddCommand(entityCmd(opts, def.Info))
	}
	root.AddCommand(allCmd(opts))
	root.AddCommand(entitiesCmd(opts))
	root.AddCommand(runsCmd(opts))
	root.AddCommand(planTargetsCmd(opts))
	root.AddCommand(resetCmd())

	return root
}

func entityCmd(opts *options, info core.EntityInfo) *cobra.Command {
	return &cobra.Command{
		Use:   info.Key,
		Short: fmt.Sprintf("Load %s into %s", info.FileName, info.Table),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, func(o core.LoaderOptions) error {
				_, _, err := o.DataFile(info.Key)
				return err
			})
			if err != nil {
				return err
			}
			defer a.close()

			res, err := a.service.Load(cmd.Context(), info.Key)
			return reportLoad(cmd.OutOrStdout(), opts.json, res, err)
		},
	}
}

func allCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Load every entity with a data file, parents first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			results, loadErr := a.service.LoadAll(cmd.Context())
			if err := printResults(cmd.OutOrStdout(), opts.json, results); err != nil {
				return err
			}
			return loadErr
		},
	}
}

func entitiesCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "entities",
		Short: "List loadable entities in load order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			infos := make([]core.EntityInfo, 0, len(core.LoadOrder))
			for _, def := range core.All() {
				infos = append(infos, def.Info)
			}
			return printEntities(cmd.OutOrStdout(), opts.json, infos)
		},
	}
}

func runsCmd(opts *options) *cobra.Command {
	var entity string
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Show recent import runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			runs, err := a.service.ImportRuns(cmd.Context(), entity, limit)
			if err != nil {
				return err
			}
			return printRuns(cmd.OutOrStdout(), opts.json, runs)
		},
	}

	cmd.Flags().StringVarP(&entity, "entity", "e", "", "only runs of this entity")
	cmd.Flags().IntVarP(&limit, "limit", "n", core.DefaultRunsLimit, "maximum runs")

	return cmd
}

func planTargetsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "plan-targets <file>",
		Short: "Import monthly plan targets (period, sum, category_id); all rows or none",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("%w: %w", core.ErrFileNotFound, err)
			}
			defer f.Close()

			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.service.ImportPlanTargets(cmd.Context(), f.Name(), f)
			if err != nil {
				return err
			}
			return printTargets(cmd.OutOrStdout(), opts.json, f.Name(), n)
		},
	}
}

func resetCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "reset [entity...]",
		Short: "Delete loaded rows of the given entities, or of everything",
		Args:  cobra.OnlyValidArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errors.New("reset deletes data; pass --yes to confirm")
			}

			a, err := newApp(cmd, nil)
			if err != nil {
				return err
			}
			defer a.close()

			r := &admin.ResetDbs{Pool: a.pool}
			if len(args) == 0 {
				err = r.ResetAll(cmd.Context())
			} else {
				err = r.Reset(cmd.Context(), args...)
			}
			if err != nil {
				return err
			}

			a.logger.Info("reset complete", "entities", args)
			return nil
		},
	}

	cmd.ValidArgs = core.Names()
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deletion")

	return cmd
}
