package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"booktrack/library"
)

// ------------------ Actions ------------------
//
// Each action backs both a sub-command and a shell command.

func (a *app) login(ctx context.Context) error {
	username, err := a.prompt.line("Username: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := a.mgr.Login(ctx, username, password); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s!\n", username)
	return nil
}

func (a *app) register(ctx context.Context) error {
	username, err := a.prompt.line("Username: ")
	if err != nil {
		return err
	}
	email, err := a.prompt.line("Email: ")
	if err != nil {
		return err
	}
	password, err := a.prompt.readPassword("Password: ")
	if err != nil {
		return err
	}
	if err := a.mgr.Register(ctx, username, password, email); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Registration successful! You are now logged in.")
	return nil
}

func (a *app) logout(ctx context.Context) error {
	if err := a.mgr.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Logged out.")
	return nil
}

func (a *app) status(ctx context.Context) error {
	st, err := a.mgr.Status(ctx)
	if err != nil {
		return err
	}
	printStatus(a.out, st, time.Now())
	return nil
}

func (a *app) showProfile(ctx context.Context) error {
	user, err := a.mgr.Profile(ctx)
	if err != nil {
		return err
	}
	printUser(a.out, user)
	return nil
}

func (a *app) editProfile(ctx context.Context) error {
	user, err := a.mgr.Profile(ctx)
	if err != nil {
		return err
	}
	fields, err := a.prompt.profileForm(user)
	if err != nil {
		return err
	}
	updated, err := a.mgr.EditProfile(ctx, user.ID, fields)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Profile updated successfully.")
	printUser(a.out, updated)
	return nil
}

func (a *app) listBooks(ctx context.Context, filter *library.BookFilter) error {
	books, err := a.mgr.GetAllBooks(ctx, filter)
	if err != nil {
		return err
	}
	printBooks(a.out, books)
	return nil
}

func (a *app) showBook(ctx context.Context, id string) error {
	book, err := a.mgr.GetBook(ctx, id)
	if err != nil {
		return err
	}
	printBook(a.out, book)
	return nil
}

func (a *app) addBook(ctx context.Context) error {
	fields, err := a.prompt.bookForm(library.BookFields{})
	if err != nil {
		return err
	}
	book, err := a.mgr.AddBook(ctx, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Added book '%s' with ID %s\n", book.Title, book.ID)
	return nil
}

// editBook loads the book first so its values can be kept by pressing Enter.
func (a *app) editBook(ctx context.Context, id string) error {
	book, err := a.mgr.GetBook(ctx, id)
	if err != nil {
		return err
	}
	fields, err := a.prompt.bookForm(book.Fields())
	if err != nil {
		return err
	}
	updated, err := a.mgr.UpdateBook(ctx, id, fields)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Book '%s' updated\n", updated.Title)
	return nil
}

func (a *app) deleteBook(ctx context.Context, id string) error {
	if err := a.mgr.DeleteBook(ctx, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Book %s deleted\n", id)
	return nil
}

// ------------------ Commands ------------------

func newLoginCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.login(cmd.Context())
		},
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.register(cmd.Context())
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.logout(cmd.Context())
		},
	}
}

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether a session token is stored and when it expires",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.status(cmd.Context())
		},
	}
}

func newProfileCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.showProfile(cmd.Context())
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Change your username and email",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.editProfile(cmd.Context())
		},
	})
	return cmd
}

func newBooksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "books",
		Short: "Manage your books",
	}

	var filter library.BookFilter
	list := &cobra.Command{
		Use:   "list",
		Short: "List your books",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.listBooks(cmd.Context(), &filter)
		},
	}
	list.Flags().StringVar(&filter.Genre, "genre", "", "only books of this genre")
	list.Flags().StringVar(&filter.Author, "author", "", "only books whose author matches")
	list.Flags().IntVar(&filter.Limit, "limit", 0, "page size (0 lists everything)")
	list.Flags().IntVar(&filter.Page, "page", 0, "page number, starting at 1")

	cmd.AddCommand(
		list,
		&cobra.Command{
			Use:   "show <id>",
			Short: "Show one book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.showBook(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "add",
			Short: "Add a book",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.addBook(cmd.Context())
			},
		},
		&cobra.Command{
			Use:   "edit <id>",
			Short: "Edit a book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.editBook(cmd.Context(), args[0])
			},
		},
		&cobra.Command{
			Use:   "delete <id>",
			Short: "Delete a book",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.deleteBook(cmd.Context(), args[0])
			},
		},
	)
	return cmd
}

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Start the interactive shell (the default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context())
		},
	}
}
