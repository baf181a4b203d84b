// Package lookup provides the commands managing the lookup lists: providers,
// targets, sample types, extractors, cyclers and kits.
package lookup

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/datastore/repository"
)

const kinds = "provider, target, sample_type, extractor, cycler, mikrogen_kit or external_kit"

// Command creates the lookup command and its subcommands.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lookup",
		Short: "Manage lookup lists",
		Long:  "Manage the lookup lists. KIND is one of " + kinds + ".",
	}

	cmd.AddCommand(listCommand(ctx), addCommand(ctx), renameCommand(ctx), deleteCommand(ctx))

	return cmd
}

func parseKind(arg string) (repository.LookupKind, error) {
	kind, err := repository.ParseLookupKind(arg)
	if err != nil {
		return "", fmt.Errorf("%w, expected %s", err, kinds)
	}
	return kind, nil
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", arg)
	}
	return uint(id), nil
}

func listCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "list KIND",
		Short: "List the entries of a lookup",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			entries, err := svc.Lookups(cmd.Context(), kind)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME")
			for _, e := range entries {
				fmt.Fprintf(w, "%d\t%s\n", e.ID, e.Name)
			}
			return w.Flush()
		},
	}
}

func addCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "add KIND NAME",
		Short: "Add a lookup entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			entry, err := svc.AddLookup(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %q with id %d\n", kind, entry.Name, entry.ID)
			return nil
		},
	}
}

func renameCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "rename KIND ID NAME",
		Short: "Rename a lookup entry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			return svc.RenameLookup(cmd.Context(), kind, id, args[2])
		},
	}
}

func deleteCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete KIND ID",
		Short: "Delete an unreferenced lookup entry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			return svc.DeleteLookup(cmd.Context(), kind, id)
		},
	}
}
