package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/JonMunkholm/creditdesk/internal/core"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printResults writes one summary block per run, followed by its failed rows.
func printResults(w io.Writer, asJSON bool, results []*core.LoadResult) error {
	if results == nil {
		results = []*core.LoadResult{}
	}
	if asJSON {
		return printJSON(w, results)
	}

	for _, res := range results {
		fmt.Fprintf(w, "%s (%s): read %d, inserted %d, updated %d, unchanged %d, skipped %d, failed %d in %s\n",
			res.Entity, res.FileName, res.TotalRows, res.Inserted, res.Updated,
			res.Unchanged, res.Skipped, res.Failed(), res.Duration.Round(time.Millisecond))
		for _, fr := range res.FailedRows {
			fmt.Fprintf(w, "  line %d: %s\n", fr.LineNumber, fr.Reason)
		}
	}
	return nil
}

// reportLoad prints res, if any, and returns loadErr. A row-commit run that
// stopped on a fatal error still returns the rows it committed.
func reportLoad(w io.Writer, asJSON bool, res *core.LoadResult, loadErr error) error {
	if res != nil {
		if err := printResults(w, asJSON, []*core.LoadResult{res}); err != nil {
			return err
		}
	}
	return loadErr
}

func printEntities(w io.Writer, asJSON bool, infos []core.EntityInfo) error {
	if asJSON {
		return printJSON(w, infos)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ENTITY\tFILE\tTABLE\tKEY\tCOLUMNS")
	for _, info := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			info.Key, info.FileName, info.Table, info.NaturalKey, strings.Join(info.Columns, ","))
	}
	return tw.Flush()
}

func printRuns(w io.Writer, asJSON bool, runs []core.ImportRun) error {
	if runs == nil {
		runs = []core.ImportRun{}
	}
	if asJSON {
		return printJSON(w, runs)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "STARTED\tENTITY\tFILE\tREAD\tINS\tUPD\tSKIP\tFAILED\tERROR")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%s\n",
			r.StartedAt.Format(time.DateTime), r.Entity, r.FileName,
			r.TotalRows, r.Inserted, r.Updated, r.Skipped, r.Failed, r.Error)
	}
	return tw.Flush()
}

func printTargets(w io.Writer, asJSON bool, fileName string, n int) error {
	if asJSON {
		return printJSON(w, map[string]any{"file_name": fileName, "inserted": n})
	}
	_, err := fmt.Fprintf(w, "%s: inserted %d plan targets\n", fileName, n)
	return err
}
