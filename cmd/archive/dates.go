package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func datesCmd(configPath *string) *cobra.Command {
	var conversation string

	cmd := &cobra.Command{
		Use:   "dates",
		Short: "List dates available in the archive",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			var dates []string
			if conversation != "" {
				dates, err = e.archive.ConversationDates(ctx, conversation)
			} else {
				dates, err = e.archive.AvailableDates(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, d := range dates {
				fmt.Fprintln(out, d)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&conversation, "conversation", "", "Only dates containing this conversation id")

	return cmd
}
