package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/pdfseal/pdfseal/config"
)

var errPasswordMismatch = errors.New("passwords do not match")

// passwordReader prompts for passwords. Input from a terminal is read
// without echo, any other input line by line.
type passwordReader struct {
	in     io.Reader
	prompt io.Writer
	lines  *bufio.Reader
}

func newPasswordReader(in io.Reader, prompt io.Writer) *passwordReader {
	return &passwordReader{in: in, prompt: prompt}
}

func (p *passwordReader) read(label string) ([]byte, error) {
	fmt.Fprint(p.prompt, label)

	if f, ok := p.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		pw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(p.prompt)
		if err != nil {
			return nil, fmt.Errorf("failed to read password: %w", err)
		}
		return pw, nil
	}

	if p.lines == nil {
		p.lines = bufio.NewReader(p.in)
	}
	line, err := p.lines.ReadString('\n')
	if err != nil && (!errors.Is(err, io.EOF) || line == "") {
		return nil, fmt.Errorf("failed to read password: %w", err)
	}
	return []byte(strings.TrimRight(line, "\r\n")), nil
}

// newPassword asks for a password twice and applies the policy.
func (p *passwordReader) newPassword(policy config.Password) ([]byte, error) {
	pw, err := p.read("New password: ")
	if err != nil {
		return nil, err
	}
	if err := checkPassword(pw, policy); err != nil {
		return nil, err
	}
	confirm, err := p.read("Confirm password: ")
	if err != nil {
		return nil, err
	}
	if string(pw) != string(confirm) {
		return nil, errPasswordMismatch
	}
	return pw, nil
}

// checkPassword enforces the minimum length in characters.
func checkPassword(pw []byte, policy config.Password) error {
	if n := utf8.RuneCount(pw); n < policy.MinLength {
		return fmt.Errorf("password must be at least %d characters long", policy.MinLength)
	}
	return nil
}

func wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
