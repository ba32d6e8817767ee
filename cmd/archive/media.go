package main

import (
	"fmt"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/session"

	"github.com/spf13/cobra"
)

func mediaCmd(configPath *string) *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "media <date> <conversation>",
		Short: "Page through media attachments of a conversation",
		Long:  `Opens the media viewer over a conversation's attachments. Interactive terminals accept n (next), p (previous) or q (quit).`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := setup(ctx, *configPath)
			if err != nil {
				return err
			}

			day, err := e.archive.Day(ctx, args[0])
			if err != nil {
				return err
			}
			conv, ok := day.Conversation(args[1])
			if !ok {
				return fmt.Errorf("conversation %q not found on %s", args[1], day.Date)
			}

			seq := domain.GallerySequence(conv)
			if all {
				seq = domain.AllMediaSequence(conv)
			}
			if len(seq) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No media found.")
				return nil
			}

			sess, closeSession, err := e.openSession(ctx)
			if err != nil {
				return err
			}
			defer closeSession()

			out := cmd.OutOrStdout()
			unsubscribe := sess.Subscribe(func(st session.State) {
				if v := st.Viewer; v.Open {
					fmt.Fprintf(out, "[%d/%d] %s  %s  %s\n", v.Index+1, len(v.Sequence), v.Item.Kind, v.Item.Sender, v.Item.Path)
				}
			})
			defer unsubscribe()

			sess.SetDay(day.Date, day.Conversations)
			sess.SelectConversation(conv)
			sess.OpenViewer(seq[0], seq, 0)

			if !e.term.Interactive() {
				for range len(seq) - 1 {
					sess.NextMedia()
				}
				sess.CloseViewer()
				return nil
			}

			for {
				choice, err := e.term.Choose(ctx, "Viewer:", []string{"next", "previous", "quit"})
				if err != nil {
					return err
				}
				switch choice {
				case 0:
					sess.NextMedia()
				case 1:
					sess.PrevMedia()
				default:
					sess.CloseViewer()
					return nil
				}
			}
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include audio, not only images and videos")

	return cmd
}
