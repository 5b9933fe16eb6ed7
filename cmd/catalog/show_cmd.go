package main

import (
	"github.com/OFFIS-RIT/dramatis/pkg/awards"

	"github.com/spf13/cobra"
)

func newShowCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <id>",
		Short: "Print the show projection of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			gs, svc, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer gs.Close()

			out, err := svc.Show(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newEditCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "edit <kind> <id>",
		Short: "Print the edit form of a record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			gs, svc, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer gs.Close()

			out, err := svc.Edit(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newListCmd(flags *storeFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <kind>",
		Short: "Print the ordered summaries of a kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			gs, svc, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer gs.Close()

			out, err := svc.List(cmd.Context(), kind)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
}

func newAwardsCmd(flags *storeFlags) *cobra.Command {
	var view string
	cmd := &cobra.Command{
		Use:   "awards <kind> <id>",
		Short: "Print the awards a record is exposed to",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			gs, svc, err := flags.open(cmd)
			if err != nil {
				return err
			}
			defer gs.Close()

			out, err := svc.Awards(cmd.Context(), kind, args[1], awards.View(view))
			if err != nil {
				return describe(err)
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&view, "view", string(awards.ViewDirect), "direct, subsequentVersion, sourcing or rightsGrantor")
	return cmd
}
