package hubctl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/term"
)

// Terminal helpers are variables so tests can run without a tty.
var (
	readPassword = term.ReadPassword
	isTerminal   = term.IsTerminal
)

// getPassword reads a password without echo when in is a terminal, and
// the first line of in otherwise (for piping from a secret store).
func getPassword(in io.Reader, fd int, w io.Writer) (string, error) {
	if isTerminal(fd) {
		if _, err := fmt.Fprint(w, "Enter password: "); err != nil {
			return "", err
		}
		pw, err := readPassword(fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		return string(pw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && len(line) > 0) {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
