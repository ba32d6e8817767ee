// Package term содержит интерактивные помощники командной строки.
package term

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// ErrNotInteractive возвращается, когда ввод не является терминалом и спросить пользователя нельзя.
var ErrNotInteractive = xerrors.New("stdin is not a terminal")

// Terminal обеспечивает взаимодействие с пользователем через терминал.
type Terminal struct {
	in       *bufio.Reader
	out      io.Writer
	stdinfd  int
	stdoutfd int
	// isTerminal подменяется в тестах
	isTerminal func(fd int) bool
}

// NewTerminal создает новый экземпляр Terminal поверх stdin/stdout процесса.
func NewTerminal() *Terminal {
	return &Terminal{
		in:         bufio.NewReader(os.Stdin),
		out:        os.Stdout,
		stdinfd:    int(os.Stdin.Fd()),
		stdoutfd:   int(os.Stdout.Fd()),
		isTerminal: term.IsTerminal,
	}
}

// Interactive сообщает, подключен ли ввод к терминалу.
func (t *Terminal) Interactive() bool {
	return t.isTerminal(t.stdinfd)
}

// ColorOutput сообщает, стоит ли раскрашивать вывод.
func (t *Terminal) ColorOutput() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return t.isTerminal(t.stdoutfd)
}

// Width возвращает ширину терминала или fallback, если ее не удалось определить.
func (t *Terminal) Width(fallback int) int {
	if !t.isTerminal(t.stdoutfd) {
		return fallback
	}
	w, _, err := term.GetSize(t.stdoutfd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// Confirm задает вопрос с ответом да/нет. Пустой ответ означает "нет".
func (t *Terminal) Confirm(ctx context.Context, question string) (bool, error) {
	answer, err := t.ask(ctx, question+" [y/N]: ")
	if err != nil {
		return false, err
	}
	switch strings.ToLower(answer) {
	case "y", "yes", "д", "да":
		return true, nil
	default:
		return false, nil
	}
}

// Choose предлагает выбрать один из вариантов по номеру и возвращает его индекс.
func (t *Terminal) Choose(ctx context.Context, title string, options []string) (int, error) {
	if len(options) == 0 {
		return 0, xerrors.New("nothing to choose from")
	}
	if !t.Interactive() {
		return 0, ErrNotInteractive
	}

	fmt.Fprintln(t.out, title)
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, opt)
	}

	answer, err := t.ask(ctx, fmt.Sprintf("Choose 1-%d: ", len(options)))
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(options) {
		return 0, xerrors.Errorf("invalid choice %q", answer)
	}
	return n - 1, nil
}

func (t *Terminal) ask(ctx context.Context, prompt string) (string, error) {
	if !t.Interactive() {
		return "", ErrNotInteractive
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fmt.Fprint(t.out, prompt)
	line, err := t.in.ReadString('\n')
	if err != nil && !(xerrors.Is(err, io.EOF) && line != "") {
		return "", xerrors.Errorf("failed to read answer: %w", err)
	}
	return strings.TrimSpace(line), nil
}
