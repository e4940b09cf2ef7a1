package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <build-id>",
		Short: "Show one build and its report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			build, err := st.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if build == nil {
				return fmt.Errorf("build %s not found", args[0])
			}

			snap, err := build.Report()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				encoder := json.NewEncoder(out)
				encoder.SetIndent("", "  ")
				return encoder.Encode(snap)
			}

			colorize := shouldColorize(out)
			for _, line := range renderSectionHeader("Build " + build.ID) {
				fmt.Fprintln(out, line)
			}
			fmt.Fprintf(out, "Status:  %s\n", colorizeStatus(build.Status, colorize))
			fmt.Fprintf(out, "IP:      %s\n", build.IPPath)
			if build.OutputPath != "" {
				fmt.Fprintf(out, "Output:  %s\n", build.OutputPath)
			}
			if build.ErrorMessage != "" {
				fmt.Fprintf(out, "Error:   %s\n", build.ErrorMessage)
			}
			fmt.Fprintf(out, "Created: %s\n", build.CreatedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Fprintln(out)

			if len(snap.Documents) > 0 {
				fmt.Fprintln(out, renderDocumentTable(snap))
			}
			if len(snap.Entries) > 0 {
				rows := make([][]string, 0, len(snap.Entries))
				for _, entry := range snap.Entries {
					rows = append(rows, []string{
						entry.Time.Local().Format("15:04:05"),
						string(entry.Level),
						entry.Stage,
						entry.Document,
						entry.Message,
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Time", "Level", "Stage", "Document", "Message"},
					rows,
					[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
				))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report snapshot as JSON")
	return cmd
}
