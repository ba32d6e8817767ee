package exporter

import (
	"fmt"
	"io"
	"os"
	"strings"

	"archive-viewer/internal/domain"
	"archive-viewer/internal/palette"
	"archive-viewer/internal/ports"

	"github.com/charmbracelet/lipgloss"
)

// ConsoleOption определяет функциональную опцию для ConsoleExporter.
type ConsoleOption func(*ConsoleExporter)

// WithColor включает раскраску отправителей.
func WithColor(enabled bool) ConsoleOption {
	return func(e *ConsoleExporter) {
		e.color = enabled
	}
}

// ConsoleExporter реализует интерфейс Exporter для вывода дня в консоль.
type ConsoleExporter struct {
	out      io.Writer
	color    bool
	renderer *lipgloss.Renderer
}

var (
	_ ports.Exporter         = (*ConsoleExporter)(nil)
	_ ports.OverviewExporter = (*ConsoleExporter)(nil)
)

// NewConsoleExporter создает новый экземпляр ConsoleExporter. nil out означает stdout.
func NewConsoleExporter(out io.Writer, opts ...ConsoleOption) *ConsoleExporter {
	if out == nil {
		out = os.Stdout
	}
	e := &ConsoleExporter{out: out}
	for _, opt := range opts {
		opt(e)
	}
	e.renderer = lipgloss.NewRenderer(out)
	return e
}

func (e *ConsoleExporter) style(c palette.Color) lipgloss.Style {
	st := e.renderer.NewStyle()
	if e.color {
		st = st.Foreground(lipgloss.Color(c.Hex())).Bold(true)
	}
	return st
}

func (e *ConsoleExporter) dim() lipgloss.Style {
	st := e.renderer.NewStyle()
	if e.color {
		st = st.Foreground(lipgloss.Color("241"))
	}
	return st
}

// Export выводит переписки дня с цветами отправителей.
func (e *ConsoleExporter) Export(day *domain.DayData, viewer string) error {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s (%s) ===\n", day.Date, day.Origin)
	fmt.Fprintf(&b, "%d conversations, %d messages, %d media\n",
		day.Stats.ConversationCount, day.Stats.MessageCount, day.Stats.MediaCount)

	if len(day.Conversations) == 0 {
		b.WriteString("No conversations found.\n")
	}

	for _, conv := range day.Conversations {
		names := make(map[string]string, len(conv.Participants))
		for _, p := range conv.Participants {
			names[p.Username] = p.DisplayName
		}
		pal := palette.New(viewer, conv.ID)

		fmt.Fprintf(&b, "\n## %s [%s] (%d messages)\n", conv.Name, conv.Type, conv.Stats.MessageCount)
		for _, msg := range conv.Messages {
			sender := names[msg.From]
			if sender == "" || sender == domain.UnknownContactName {
				sender = msg.From
			}

			stamp := msg.Created
			if !msg.Time.IsZero() {
				stamp = msg.Time.Format("15:04")
			}

			line := fmt.Sprintf("%s  %s: %s",
				e.dim().Render(stamp),
				e.style(pal.For(msg.From)).Render(sender),
				messageText(&msg),
			)
			b.WriteString(line + "\n")
		}
	}

	if len(day.OrphanedMedia) > 0 {
		b.WriteString("\n## Orphaned media\n")
		for _, item := range day.OrphanedMedia {
			fmt.Fprintf(&b, "- [%s] %s\n", item.Kind, item.Path)
		}
	}

	_, err := io.WriteString(e.out, b.String())
	return err
}

func messageText(msg *domain.Message) string {
	parts := make([]string, 0, 1+len(msg.Media))
	if msg.Content != "" {
		parts = append(parts, msg.Content)
	}
	for _, ref := range msg.Media {
		parts = append(parts, fmt.Sprintf("[%s: %s]", ref.Kind, ref.Path))
	}
	if len(parts) == 0 {
		return fmt.Sprintf("<%s>", msg.Kind)
	}
	return strings.Join(parts, " ")
}

// ExportOverview выводит сводку по архиву.
func (e *ConsoleExporter) ExportOverview(ov *domain.Overview) error {
	var b strings.Builder

	fmt.Fprintf(&b, "--- Archive Overview (%s) ---\n", ov.Origin)
	fmt.Fprintf(&b, "Days:          %d (%s .. %s)\n", ov.TotalDays, ov.FirstDate, ov.LastDate)
	fmt.Fprintf(&b, "Conversations: %d\n", ov.TotalConversations)
	fmt.Fprintf(&b, "Messages:      %d\n", ov.TotalMessages)
	fmt.Fprintf(&b, "Media:         %d (%d images, %d videos, %d audio)\n",
		ov.TotalMedia, ov.TotalImages, ov.TotalVideos, ov.TotalAudio)
	if ov.MostActive != nil {
		fmt.Fprintf(&b, "Most active:   %s (%d messages)\n", ov.MostActive.Date, ov.MostActive.MessageCount)
	}

	for _, d := range ov.Days {
		if !d.HasData {
			b.WriteString(e.dim().Render(fmt.Sprintf("  %s  no data", d.Date)) + "\n")
			continue
		}
		fmt.Fprintf(&b, "  %s  %4d messages  %3d conversations\n", d.Date, d.MessageCount, d.ConversationCount)
	}

	_, err := io.WriteString(e.out, b.String())
	return err
}
