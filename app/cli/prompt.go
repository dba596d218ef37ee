package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// prompter reads answers line by line from the command's input.
type prompter struct {
	in  *bufio.Scanner
	out io.Writer
	tty *os.File
}

func newPrompter(cmd *cobra.Command) *prompter {
	input := cmd.InOrStdin()
	p := &prompter{in: bufio.NewScanner(input), out: cmd.ErrOrStderr()}
	if f, ok := input.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.tty = f
	}
	return p
}

// ask prints label and returns the next line of input, trimmed.
func (p *prompter) ask(label string) (string, error) {
	fmt.Fprintf(p.out, "%s: ", label)
	if !p.in.Scan() {
		if err := p.in.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(p.in.Text()), nil
}

// value returns current if set, otherwise asks for it.
func (p *prompter) value(current, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	return p.ask(label)
}

// secret asks for a value without echoing it when input is a terminal.
func (p *prompter) secret(label string) (string, error) {
	if p.tty == nil {
		return p.ask(label)
	}
	fmt.Fprintf(p.out, "%s: ", label)
	data, err := term.ReadPassword(int(p.tty.Fd()))
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// secretValue returns current if set, otherwise asks for it with secret.
func (p *prompter) secretValue(current, label string) (string, error) {
	if current != "" {
		return current, nil
	}
	return p.secret(label)
}
