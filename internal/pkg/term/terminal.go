// Package term обеспечивает интерактивный ввод в терминале: запрос пароля
// владельца документа без эха и подтверждения пользователя.
package term

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
	"golang.org/x/xerrors"
)

// Terminal читает интерактивный ввод пользователя.
type Terminal struct {
	in      *bufio.Reader
	out     io.Writer
	stdinfd int
}

// NewTerminal создает новый экземпляр Terminal поверх стандартных потоков.
func NewTerminal() *Terminal {
	return &Terminal{
		in:      bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		stdinfd: int(os.Stdin.Fd()),
	}
}

// OwnerPassword запрашивает пароль владельца документа без эха ввода.
// Пароль запрашивается дважды; при несовпадении возвращается ошибка.
func (t *Terminal) OwnerPassword() (string, error) {
	fmt.Fprint(t.out, "Enter owner password: ")
	first, err := term.ReadPassword(t.stdinfd)
	if err != nil {
		return "", xerrors.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(t.out) // Новая строка после ввода

	fmt.Fprint(t.out, "Repeat owner password: ")
	second, err := term.ReadPassword(t.stdinfd)
	if err != nil {
		return "", xerrors.Errorf("failed to read password: %w", err)
	}
	fmt.Fprintln(t.out)

	if string(first) != string(second) {
		return "", xerrors.New("passwords do not match")
	}
	return string(first), nil
}

// Confirm задает вопрос и возвращает true для ответов y/yes.
func (t *Terminal) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(t.out, "%s [y/N]: ", prompt)
	answer, err := t.in.ReadString('\n')
	if err != nil {
		return false, xerrors.Errorf("failed to read answer: %w", err)
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes", nil
}
