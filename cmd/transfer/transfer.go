// Package transfer provides the spreadsheet import and export commands.
package transfer

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/inventory"
	"github.com/tphakala/pcrdb/internal/spreadsheet"
)

// actorFlags registers the flags naming the acting user.
func actorFlags(cmd *cobra.Command, actor *inventory.Actor) {
	cmd.Flags().StringVarP(&actor.Username, "user", "u", "", "Acting username")
	cmd.Flags().StringVar(&actor.Email, "email", "", "Email address of the acting user")
	_ = cmd.MarkFlagRequired("user")
}

// ImportCommand creates the import command.
func ImportCommand(ctx *config.Context) *cobra.Command {
	var (
		actor   inventory.Actor
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Import samples from an xlsx sheet",
		Long: `Import samples from an xlsx sheet laid out like the template.

Rows that fail are reported and skipped; the others are imported. Targets the
sheet names that do not exist yet are created. Use --preview to list them
without importing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[0], err)
			}
			defer f.Close()

			rows, err := spreadsheet.ReadImport(bufio.NewReader(f))
			if err != nil {
				return err
			}

			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if preview {
				targets, err := svc.NewTargets(cmd.Context(), rows)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "rows: %d\n", len(rows))
				if len(targets) > 0 {
					fmt.Fprintf(out, "new targets: %s\n", strings.Join(targets, ", "))
				}
				return nil
			}

			result, err := svc.Import(cmd.Context(), rows, actor)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "imported: %d, errors: %d\n", result.Imported, result.ErrorCount)
			for _, msg := range result.Errors {
				fmt.Fprintf(out, "  %s\n", msg)
			}
			if hidden := result.ErrorCount - len(result.Errors); hidden > 0 {
				fmt.Fprintf(out, "  ... and %d more\n", hidden)
			}
			return nil
		},
	}

	actorFlags(cmd, &actor)
	cmd.Flags().BoolVar(&preview, "preview", false, "Only list the targets the import would create")

	return cmd
}

// ExportCommand creates the export command.
func ExportCommand(ctx *config.Context) *cobra.Command {
	var (
		actor inventory.Actor
		out   string
	)

	cmd := &cobra.Command{
		Use:   "export ID...",
		Short: "Export samples to an xlsx sheet",
		Long:  "Export the given samples to an xlsx sheet. Samples not in use are checked out to the acting user.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}

			rows, err := svc.Export(cmd.Context(), ids, actor)
			if err != nil {
				return err
			}

			if out == "" {
				out = spreadsheet.ExportFilename(time.Now())
			}
			if err := writeFile(out, func(f *os.File) error { return spreadsheet.WriteExport(f, rows) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d samples to %s\n", len(rows), out)
			return nil
		},
	}

	actorFlags(cmd, &actor)
	cmd.Flags().StringVarP(&out, "out", "o", "", "Output file, defaults to a dated name")

	return cmd
}

// TemplateCommand creates the command writing an empty import sheet.
func TemplateCommand() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import sheet",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := writeFile(out, func(f *os.File) error { return spreadsheet.WriteTemplate(f) }); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", spreadsheet.TemplateFilename, "Output file")

	return cmd
}

func writeFile(path string, write func(f *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	return f.Close()
}

func parseIDs(args []string) ([]uint, error) {
	ids := make([]uint, 0, len(args))
	for _, arg := range args {
		id, err := strconv.ParseUint(arg, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("invalid sample id %q", arg)
		}
		ids = append(ids, uint(id))
	}
	return ids, nil
}
