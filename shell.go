package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"booktrack/library"
)

func (a *app) printShellHelp() {
	fmt.Fprintln(a.out, "Available commands:")
	fmt.Fprintln(a.out, "  Account: login, register, logout, status")
	fmt.Fprintln(a.out, "  Profile: profile, edit profile")
	fmt.Fprintln(a.out, "  Books: list books, show book, add book, edit book, delete book")
	fmt.Fprintln(a.out, "  System: help, exit")
	fmt.Fprintln(a.out)
	fmt.Fprintln(a.out, "Tips:")
	fmt.Fprintln(a.out, "  • For 'list books': press Enter at each filter prompt to skip it")
	fmt.Fprintln(a.out, "  • For 'edit book': press Enter to keep the current value of a field")
}

// runShell reads commands until exit or end of input. Command errors are
// printed and the loop goes on.
func (a *app) runShell(ctx context.Context) error {
	fmt.Fprintln(a.out, "Welcome to BookTrack!")
	a.printShellHelp()
	if st, err := a.mgr.Status(ctx); err == nil && !st.LoggedIn {
		fmt.Fprintln(a.out, "\nYou are not logged in. Type 'login' or 'register' to start.")
	}

	for {
		if ctx.Err() != nil {
			return nil
		}
		cmd, err := a.prompt.line("\n> ")
		if errors.Is(err, errInputClosed) {
			return nil
		}
		if err != nil {
			return err
		}

		switch cmd {
		case "":
			continue
		case "exit", "quit":
			fmt.Fprintln(a.out, "Goodbye!")
			return nil
		case "help":
			a.printShellHelp()
			continue
		}

		handler, ok := a.shellCommands()[cmd]
		if !ok {
			fmt.Fprintln(a.out, "Unknown command. Type 'help' to see the available commands.")
			continue
		}
		if err := handler(ctx); err != nil {
			if errors.Is(err, errInputClosed) {
				return nil
			}
			fmt.Fprintf(a.out, "Error: %s\n", describeError(err))
		}
	}
}

func (a *app) shellCommands() map[string]func(context.Context) error {
	return map[string]func(context.Context) error{
		"login":        a.login,
		"register":     a.register,
		"logout":       a.logout,
		"status":       a.status,
		"profile":      a.showProfile,
		"edit profile": a.editProfile,
		"list books":   a.handleListBooks,
		"show book":    a.withBookID(a.showBook),
		"add book":     a.addBook,
		"edit book":    a.withBookID(a.editBook),
		"delete book":  a.withBookID(a.deleteBook),
	}
}

func (a *app) withBookID(fn func(context.Context, string) error) func(context.Context) error {
	return func(ctx context.Context) error {
		id, err := a.prompt.line("Book ID: ")
		if err != nil {
			return err
		}
		if id == "" {
			return &library.ValidationError{Message: "Book ID cannot be empty"}
		}
		return fn(ctx, id)
	}
}

func (a *app) handleListBooks(ctx context.Context) error {
	var filter library.BookFilter
	var err error
	if filter.Genre, err = a.prompt.line("Genre (optional): "); err != nil {
		return err
	}
	if filter.Author, err = a.prompt.line("Author (optional): "); err != nil {
		return err
	}
	limit, err := a.prompt.line("Page size (optional): ")
	if err != nil {
		return err
	}
	if limit == "" {
		return a.listBooks(ctx, &filter)
	}
	if filter.Limit, err = strconv.Atoi(limit); err != nil || filter.Limit < 0 {
		return &library.ValidationError{Message: fmt.Sprintf("Invalid page size: %s", limit)}
	}
	page, err := a.prompt.line("Page (default 1): ")
	if err != nil {
		return err
	}
	if page = strings.TrimSpace(page); page != "" {
		if filter.Page, err = strconv.Atoi(page); err != nil || filter.Page < 1 {
			return &library.ValidationError{Message: fmt.Sprintf("Invalid page: %s", page)}
		}
	}
	return a.listBooks(ctx, &filter)
}
