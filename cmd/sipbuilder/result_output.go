package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sipbuilder/internal/builder"
	"sipbuilder/internal/report"
	"sipbuilder/internal/store"
)

func printResult(cmd *cobra.Command, result *builder.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)

	for _, line := range renderSectionHeader("Build " + result.BuildID) {
		fmt.Fprintln(out, line)
	}
	fmt.Fprintf(out, "Status: %s\n", colorizeStatus(result.Status, colorize))
	if result.OutputPath != "" {
		fmt.Fprintf(out, "Output: %s\n", result.OutputPath)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, renderDocumentTable(result.Report.Snapshot()))
}

func renderDocumentTable(snap report.Snapshot) string {
	rows := make([][]string, 0, len(snap.Documents))
	for _, doc := range snap.Documents {
		status := string(doc.Outcome.Status)
		if !doc.Synthesized {
			status = "not synthesized"
		}
		detail := doc.Outcome.SchemaName
		if doc.Error != "" {
			detail = doc.Error
		} else if len(doc.Outcome.Violations) > 0 {
			detail = fmt.Sprintf("%s (%d violations)", doc.Outcome.SchemaName, len(doc.Outcome.Violations))
		}
		rows = append(rows, []string{string(doc.Kind), status, detail})
	}
	return renderTable(
		[]string{"Document", "Status", "Detail"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft},
	)
}

func renderBuildRow(build *store.Build, colorize bool) []string {
	return []string{
		build.ID,
		colorizeStatus(build.Status, colorize),
		build.ProgressStage,
		build.IPPath,
		build.CreatedAt.Local().Format("2006-01-02 15:04:05"),
	}
}
