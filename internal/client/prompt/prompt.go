// Package prompt reads shell input and credential forms from the terminal.
package prompt

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"

	"github.com/atinyakov/rollcall/internal/models"
)

// ErrAborted is returned when input ends before a form is complete.
var ErrAborted = errors.New("input closed")

// Prompter reads lines from one input stream. The shell and the forms share
// it so that buffered input is never lost between them.
type Prompter struct {
	scanner *bufio.Scanner
	out     io.Writer
	// readPassword reads a line without echo; nil when input is not a terminal.
	readPassword func() ([]byte, error)
}

// New returns a Prompter over in. Passwords are read without echo when in is
// a terminal.
func New(in *os.File, out io.Writer) *Prompter {
	p := NewFromReader(in, out)
	fd := in.Fd()
	if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
		p.readPassword = func() ([]byte, error) { return term.ReadPassword(int(fd)) }
	}
	return p
}

// NewFromReader returns a Prompter that echoes everything, for pipes and tests.
func NewFromReader(in io.Reader, out io.Writer) *Prompter {
	return &Prompter{scanner: bufio.NewScanner(in), out: out}
}

// Line prints label and returns the next trimmed line. ok is false once the
// input is exhausted.
func (p *Prompter) Line(label string) (line string, ok bool) {
	fmt.Fprint(p.out, label)
	if !p.scanner.Scan() {
		return "", false
	}
	return strings.TrimSpace(p.scanner.Text()), true
}

// Password prints label and reads a secret line.
func (p *Prompter) Password(label string) (string, bool) {
	if p.readPassword == nil {
		return p.Line(label)
	}
	fmt.Fprint(p.out, label)
	b, err := p.readPassword()
	fmt.Fprintln(p.out)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// Credentials runs the username/password form. Each answer produces a new
// Credentials value; nothing is kept after the caller is done with it.
func (p *Prompter) Credentials() (models.Credentials, error) {
	creds := models.Credentials{}

	username, ok := p.Line("Username: ")
	if !ok {
		return models.Credentials{}, ErrAborted
	}
	creds = creds.WithUsername(username)

	password, ok := p.Password("Password: ")
	if !ok {
		return models.Credentials{}, ErrAborted
	}
	creds = creds.WithPassword(password)

	if creds.Username == "" || creds.Password == "" {
		return models.Credentials{}, errors.New("username and password are required")
	}
	return creds, nil
}
