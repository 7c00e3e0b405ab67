package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"

	"booktrack/library"
)

var errInputClosed = errors.New("input closed")

// prompter reads answers line by line. Passwords are read without echo when
// stdin is a terminal.
type prompter struct {
	sc  *bufio.Scanner
	out io.Writer
	fd  int
}

func newPrompter(in io.Reader, out io.Writer) *prompter {
	fd := -1
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fd = int(f.Fd())
	}
	return &prompter{sc: bufio.NewScanner(in), out: out, fd: fd}
}

func (p *prompter) line(label string) (string, error) {
	fmt.Fprint(p.out, label)
	if !p.sc.Scan() {
		if err := p.sc.Err(); err != nil {
			return "", err
		}
		return "", errInputClosed
	}
	return strings.TrimSpace(p.sc.Text()), nil
}

// lineDefault shows the current value and keeps it on an empty answer.
func (p *prompter) lineDefault(label, current string) (string, error) {
	if current != "" {
		label = fmt.Sprintf("%s [%s]: ", label, current)
	} else {
		label += ": "
	}
	v, err := p.line(label)
	if err != nil || v != "" {
		return v, err
	}
	return current, nil
}

// readPassword securely reads a password with masking
func (p *prompter) readPassword(label string) (string, error) {
	if p.fd < 0 {
		return p.line(label)
	}
	fmt.Fprint(p.out, label)
	bytePassword, err := term.ReadPassword(p.fd)
	fmt.Fprintln(p.out)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(bytePassword)), nil
}

// bookForm asks for every field of a book. Every field is required, with
// the values of current offered as defaults.
func (p *prompter) bookForm(current library.BookFields) (library.BookFields, error) {
	var (
		f   library.BookFields
		err error
	)
	if f.Title, err = p.lineDefault("Title", current.Title); err != nil {
		return f, err
	}
	if f.Author, err = p.lineDefault("Author", current.Author); err != nil {
		return f, err
	}
	if f.Genre, err = p.lineDefault("Genre", current.Genre); err != nil {
		return f, err
	}
	if f.Description, err = p.lineDefault("Description", current.Description); err != nil {
		return f, err
	}
	pagesDefault := ""
	if current.TotalPages > 0 {
		pagesDefault = strconv.Itoa(current.TotalPages)
	}
	pages, err := p.lineDefault("Total pages", pagesDefault)
	if err != nil {
		return f, err
	}
	if f.TotalPages, err = parsePages(pages); err != nil {
		return f, err
	}
	if f.Title == "" || f.Author == "" || f.Genre == "" || f.Description == "" {
		return f, &library.ValidationError{Message: "All fields are required."}
	}
	return f, nil
}

func parsePages(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, &library.ValidationError{
			Message: "All fields are required.",
			Fields:  map[string]string{"totalPages": fmt.Sprintf("%q is not a valid page count", s)},
		}
	}
	return n, nil
}

func (p *prompter) profileForm(current library.User) (library.ProfileFields, error) {
	var (
		f   library.ProfileFields
		err error
	)
	if f.Username, err = p.lineDefault("Username", current.Username); err != nil {
		return f, err
	}
	if f.Email, err = p.lineDefault("Email", current.Email); err != nil {
		return f, err
	}
	if f.Username == "" || f.Email == "" {
		return f, &library.ValidationError{Message: "All fields are required."}
	}
	return f, nil
}
