package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/schema"
	"sipbuilder/internal/validate"
)

func newSchemasCommand(ctx *commandContext) *cobra.Command {
	var check bool

	cmd := &cobra.Command{
		Use:   "schemas",
		Short: "Show the configured validation schemas",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			registry := schema.NewRegistry(cfg.Validation)

			var validator *validate.Validator
			if check {
				logger, err := ctx.newLogger()
				if err != nil {
					return err
				}
				if validator, err = ctx.newValidator(logger); err != nil {
					return err
				}
			}

			headers := []string{"Document", "Role", "Schema", "Location", "XSD", "Mandatory"}
			if check {
				headers = append(headers, "Loadable")
			}

			var rows [][]string
			for _, kind := range compile.AllKinds() {
				refs := registry.Resolve(kind)
				if len(refs) == 0 {
					rows = append(rows, []string{string(kind), "-", "validation inactive", "", "", ""})
					continue
				}
				for _, ref := range refs {
					role := "primary"
					if ref.Fallback {
						role = "fallback"
					}
					row := []string{string(kind), role, ref.Name, ref.Location, ref.Version, yesNo(ref.Mandatory)}
					if check {
						row = append(row, checkReference(cmd, validator, ref))
					}
					rows = append(rows, row)
				}
			}

			aligns := make([]columnAlignment, len(headers))
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(headers, rows, aligns))
			return nil
		},
	}

	cmd.Flags().BoolVar(&check, "check", false, "Attempt to load and compile every schema reference")
	return cmd
}

func checkReference(cmd *cobra.Command, validator *validate.Validator, ref schema.Reference) string {
	if err := validator.Load(cmd.Context(), ref); err != nil {
		return "no: " + err.Error()
	}
	return "yes"
}
