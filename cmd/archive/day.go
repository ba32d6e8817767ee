package main

import (
	"context"
	"errors"
	"fmt"

	"archive-viewer/internal/adapters/exporter"
	"archive-viewer/internal/domain"
	"archive-viewer/internal/pkg/term"

	"github.com/spf13/cobra"
)

const hintText = "Tip: run 'archive day' without a date to pick one, 'archive media' to page through attachments."

func dayCmd(configPath *string) *cobra.Command {
	var conversation string

	cmd := &cobra.Command{
		Use:   "day [date]",
		Short: "Print conversations of a day",
		Long:  `Prints normalized conversations of a day with per-sender colors. Without a date an interactive terminal offers a choice of available dates.`,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			date, err := e.pickDate(ctx, args)
			if err != nil {
				return err
			}
			day, err := e.archive.Day(ctx, date)
			if err != nil {
				return err
			}
			viewer, err := e.archive.AccountOwner(ctx)
			if err != nil {
				return err
			}

			sess, closeSession, err := e.openSession(ctx)
			if err != nil {
				return err
			}
			defer closeSession()

			sess.SetAccount(viewer)
			sess.SetDay(day.Date, day.Conversations)

			if conversation != "" {
				conv, ok := day.Conversation(conversation)
				if !ok {
					return fmt.Errorf("conversation %q not found on %s", conversation, day.Date)
				}
				sess.SelectConversation(conv)
				day = &domain.DayData{
					Date:          day.Date,
					Origin:        day.Origin,
					Stats:         day.Stats,
					Conversations: []domain.Conversation{*conv},
				}
			}

			out := cmd.OutOrStdout()
			exp := exporter.NewConsoleExporter(out, exporter.WithColor(e.term.ColorOutput()))
			if err := exp.Export(day, sess.State().Account); err != nil {
				return err
			}

			if !sess.HintSeen() {
				fmt.Fprintln(out, "\n"+hintText)
				if err := sess.MarkHintSeen(ctx); err != nil {
					e.log.Warn("Не удалось сохранить настройку", "error", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&conversation, "conversation", "", "Print only this conversation id")

	return cmd
}

// pickDate берет дату из аргументов или предлагает выбрать ее в терминале.
func (e *env) pickDate(ctx context.Context, args []string) (string, error) {
	if len(args) > 0 {
		return args[0], nil
	}

	dates, err := e.archive.AvailableDates(ctx)
	if err != nil {
		return "", err
	}
	if len(dates) == 0 {
		return "", errors.New("archive has no dates")
	}

	i, err := e.term.Choose(ctx, "Available dates:", dates)
	if errors.Is(err, term.ErrNotInteractive) {
		return "", errors.New("date argument is required when not running in a terminal")
	}
	if err != nil {
		return "", err
	}
	return dates[i], nil
}
