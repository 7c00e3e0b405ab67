package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"booktrack/library"
)

const reloginHint = "Your session is missing or has expired. Run 'booktrack login' to log in again."

// describeError renders err the way the login dialog did: the message,
// followed by the password or else the username field error. Remaining
// field errors go on their own lines.
func describeError(err error) string {
	var se *library.StorageError
	if errors.As(err, &se) {
		return fmt.Sprintf("Session store error: %v", se)
	}
	var ne *library.NetworkError
	if errors.As(err, &ne) {
		return ne.Error()
	}
	var nf *library.NotFoundError
	if errors.As(err, &nf) {
		return nf.Message
	}
	var de *library.DecodeError
	if errors.As(err, &de) {
		return fmt.Sprintf("Unexpected server response: %v", de.Err)
	}

	msg, fields := headline(err)
	if msg == "" {
		msg = "Something went wrong"
	}
	shown := ""
	switch {
	case fields["password"] != "":
		shown = "password"
	case fields["username"] != "":
		shown = "username"
	}
	var b strings.Builder
	b.WriteString(msg)
	if shown != "" {
		b.WriteString(": " + fields[shown])
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		if k != shown {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\n  %s: %s", k, fields[k])
	}

	var ue *library.UnauthorizedError
	if errors.As(err, &ue) {
		b.WriteString("\n" + reloginHint)
	}
	return b.String()
}

func headline(err error) (string, map[string]string) {
	var ve *library.ValidationError
	if errors.As(err, &ve) {
		return ve.Message, ve.Fields
	}
	var ue *library.UnauthorizedError
	if errors.As(err, &ue) {
		return ue.Message, ue.Fields
	}
	var se *library.ServerError
	if errors.As(err, &se) {
		return fmt.Sprintf("%s (status %d)", se.Message, se.StatusCode), se.Fields
	}
	return err.Error(), nil
}

func printBooks(w io.Writer, books []library.Book) {
	if len(books) == 0 {
		fmt.Fprintln(w, "No books in library.")
		return
	}
	fmt.Fprintf(w, "%-24s %-30s %-25s %-15s %6s\n", "ID", "Title", "Author", "Genre", "Pages")
	fmt.Fprintln(w, strings.Repeat("-", 104))
	for _, b := range books {
		b.Title = truncateString(b.Title, 30)
		b.Author = truncateString(b.Author, 25)
		b.Genre = truncateString(b.Genre, 15)
		fmt.Fprintln(w, library.PrettyBook(&b))
	}
}

func printBook(w io.Writer, b library.Book) {
	fmt.Fprintf(w, "ID:          %s\n", b.ID)
	fmt.Fprintf(w, "Title:       %s\n", b.Title)
	fmt.Fprintf(w, "Author:      %s\n", b.Author)
	fmt.Fprintf(w, "Genre:       %s\n", b.Genre)
	fmt.Fprintf(w, "Pages:       %d\n", b.TotalPages)
	if b.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", b.Description)
	}
	if !b.UpdatedAt.IsZero() {
		fmt.Fprintf(w, "Updated:     %s\n", b.UpdatedAt.Local().Format(time.DateTime))
	}
}

func printUser(w io.Writer, u library.User) {
	fmt.Fprintf(w, "Username: %s\n", u.Username)
	fmt.Fprintf(w, "Email:    %s\n", u.Email)
	if !u.CreatedAt.IsZero() {
		fmt.Fprintf(w, "Joined:   %s\n", u.CreatedAt.Local().Format(time.DateOnly))
	}
}

func printStatus(w io.Writer, st library.SessionStatus, now time.Time) {
	if !st.LoggedIn {
		fmt.Fprintln(w, "Not logged in.")
		return
	}
	fmt.Fprintln(w, "Logged in.")
	if !st.Token.JWT {
		return
	}
	if !st.Token.ExpiresAt.IsZero() {
		state := "valid until"
		if st.Token.Expired(now) {
			state = "expired at"
		}
		fmt.Fprintf(w, "Token %s %s\n", state, st.Token.ExpiresAt.Local().Format(time.DateTime))
	}
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}
