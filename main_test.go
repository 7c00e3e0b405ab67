package main

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktrack/library"
	"booktrack/mockapi"
)

func TestDescribeError(t *testing.T) {
	testCases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "password_first",
			err: &library.ValidationError{Message: "Invalid credentials", Fields: map[string]string{
				"password": "Incorrect password", "username": "ignored first",
			}},
			want: "Invalid credentials: Incorrect password\n  username: ignored first",
		},
		{
			name: "username_when_no_password",
			err:  &library.ValidationError{Message: "Invalid credentials", Fields: map[string]string{"username": "User not found"}},
			want: "Invalid credentials: User not found",
		},
		{
			name: "other_fields_listed",
			err: &library.ValidationError{Message: "Validation failed", Fields: map[string]string{
				"title": "title is required", "author": "author is required",
			}},
			want: "Validation failed\n  author: author is required\n  title: title is required",
		},
		{
			name: "unauthorized_hint",
			err:  &library.UnauthorizedError{StatusCode: 401, Message: "Token is not valid"},
			want: "Token is not valid\n" + reloginHint,
		},
		{
			name: "not_found",
			err:  &library.NotFoundError{Message: "Book not found"},
			want: "Book not found",
		},
		{
			name: "server_error",
			err:  &library.ServerError{StatusCode: 500, Message: "Server error"},
			want: "Server error (status 500)",
		},
		{
			name: "network",
			err:  &library.NetworkError{StatusCode: 502},
			want: "Network error (status 502)",
		},
		{
			name: "storage",
			err:  &library.StorageError{Op: "read", Err: errors.New("disk I/O error")},
			want: "Session store error: session store read: disk I/O error",
		},
		{
			name: "plain",
			err:  errors.New("boom"),
			want: "boom",
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, describeError(tc.err))
		})
	}
}

func TestTruncateString(t *testing.T) {
	assert.Equal(t, "short", truncateString("short", 10))
	assert.Equal(t, "abcdefg...", truncateString("abcdefghijklmnop", 10))
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(mockapi.NewServer(mockapi.Options{}).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func runCLI(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := &app{out: &out, prompt: newPrompter(strings.NewReader(input), &out)}
	root := newRootCmd(a)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	a.close()
	return out.String(), err
}

func TestShellSession(t *testing.T) {
	srv := newTestServer(t)
	t.Setenv("BOOKTRACK_SESSION_BACKEND", "memory")

	input := strings.Join([]string{
		"list books",
		"", "", "",
		"register",
		"alice", "alice@example.com", "secret1",
		"add book",
		"Dune", "Frank Herbert", "SF", "Desert planet", "412",
		"add book",
		"Emma", "Jane Austen", "Novel", "Matchmaking", "474",
		"add book",
		"Untitled", "Nobody", "Novel", "", "1",
		"list books",
		"SF", "", "",
		"status",
		"bogus",
		"exit",
	}, "\n") + "\n"

	out, err := runCLI(t, input, "--api-url", srv.URL)
	require.NoError(t, err)

	assert.Contains(t, out, "You are not logged in.")
	assert.Contains(t, out, "No token, authorization denied\n"+reloginHint)
	assert.Contains(t, out, "Registration successful!")
	assert.Contains(t, out, "Added book 'Dune' with ID")
	assert.Contains(t, out, "Error: All fields are required.")
	assert.Contains(t, out, "Frank Herbert")
	assert.Contains(t, out, "Added book 'Emma' with ID")
	assert.NotContains(t, out, "Jane Austen")
	assert.Contains(t, out, "Logged in.")
	assert.Contains(t, out, "Unknown command.")
	assert.Contains(t, out, "Goodbye!")
}

func TestShellStopsAtEndOfInput(t *testing.T) {
	srv := newTestServer(t)
	t.Setenv("BOOKTRACK_SESSION_BACKEND", "memory")

	out, err := runCLI(t, "login\nalice\n", "--api-url", srv.URL)
	require.NoError(t, err)
	assert.NotContains(t, out, "Welcome back")
}

func TestStatusCommand(t *testing.T) {
	srv := newTestServer(t)
	out, err := runCLI(t, "", "--api-url", srv.URL, "--session-backend", "memory", "status")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", out)
}

func TestBooksListRequiresLogin(t *testing.T) {
	srv := newTestServer(t)
	_, err := runCLI(t, "", "--api-url", srv.URL, "--session-backend", "memory", "books", "list", "--genre", "SF")
	var ue *library.UnauthorizedError
	require.ErrorAs(t, err, &ue)
}

func TestInvalidBackendFlag(t *testing.T) {
	_, err := runCLI(t, "", "--session-backend", "floppy", "status")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown session backend")
}

func TestLoginCommandStoresSession(t *testing.T) {
	srv := newTestServer(t)
	db := t.TempDir() + "/session.db"

	_, err := runCLI(t, "alice\nalice@example.com\nsecret1\n",
		"--api-url", srv.URL, "--db", db, "--session-backend", "sqlite", "register")
	require.NoError(t, err)

	out, err := runCLI(t, "", "--api-url", srv.URL, "--db", db, "--session-backend", "sqlite", "profile")
	require.NoError(t, err)
	assert.Contains(t, out, "Username: alice")

	_, err = runCLI(t, "", "--db", db, "--session-backend", "sqlite", "logout")
	require.NoError(t, err)
	out, err = runCLI(t, "", "--db", db, "--session-backend", "sqlite", "status")
	require.NoError(t, err)
	assert.Equal(t, "Not logged in.\n", out)
}
