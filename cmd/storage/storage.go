// Package storage provides the commands managing the storage hierarchy.
package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tphakala/pcrdb/internal/config"
	"github.com/tphakala/pcrdb/internal/datastore/entities"
)

// Command creates the storage command and its subcommands.
func Command(ctx *config.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "storage",
		Short: "Manage rooms, freezers, drawers and boxes",
	}

	cmd.AddCommand(treeCommand(ctx), addCommand(ctx), moveCommand(ctx), deleteCommand(ctx))

	return cmd
}

func treeCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the storage hierarchy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			tree, err := svc.ListTree(cmd.Context())
			if err != nil {
				return err
			}
			for depth, node := range tree.Walk() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s [%s #%d]\n",
					strings.Repeat("  ", depth), node.Name, node.Type, node.ID)
			}
			return nil
		},
	}
}

func addCommand(ctx *config.Context) *cobra.Command {
	var (
		placeType string
		parent    uint
	)

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add a storage place",
		Long:  "Add a storage place. Rooms have no parent; freezers go in rooms, drawers in freezers and boxes in drawers.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			place, err := svc.AddNode(cmd.Context(), args[0], entities.PlaceType(placeType), optional(parent))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %s %q with id %d\n", place.Type, place.Name, place.ID)
			return nil
		},
	}

	cmd.Flags().StringVarP(&placeType, "type", "t", "", "Place type: room, freezer, drawer or box")
	cmd.Flags().UintVarP(&parent, "parent", "p", 0, "Parent place id")
	_ = cmd.MarkFlagRequired("type")

	return cmd
}

func moveCommand(ctx *config.Context) *cobra.Command {
	var parent uint

	cmd := &cobra.Command{
		Use:   "move ID",
		Short: "Move a storage place under another parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.MoveNode(cmd.Context(), id, optional(parent)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "moved place %d\n", id)
			return nil
		},
	}

	cmd.Flags().UintVarP(&parent, "parent", "p", 0, "New parent place id, omit to detach")

	return cmd
}

func deleteCommand(ctx *config.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete an empty storage place",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, err := ctx.Service(cmd.Context())
			if err != nil {
				return err
			}
			if err := svc.DeleteNode(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted place %d\n", id)
			return nil
		},
	}
}

func optional(id uint) *uint {
	if id == 0 {
		return nil
	}
	return &id
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid place id %q", arg)
	}
	return uint(id), nil
}
