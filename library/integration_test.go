package library

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"booktrack/mockapi"
)

func newMockAPIClient(t *testing.T) (*Client, SessionStore) {
	t.Helper()
	srv := httptest.NewServer(mockapi.NewServer(mockapi.Options{Secret: "test-secret"}).Handler())
	t.Cleanup(srv.Close)
	session := NewMemorySession()
	return NewClient(srv.URL, session, srv.Client(), nil), session
}

func TestLoginStoresToken(t *testing.T) {
	ctx := context.Background()
	client, session := newMockAPIClient(t)

	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))
	_, err = session.GetToken(ctx)
	require.ErrorIs(t, err, ErrNoToken)

	token, err := client.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	stored, err := session.GetToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, token, stored)

	info := InspectToken(token)
	assert.True(t, info.JWT)
	assert.NotEmpty(t, info.Subject)
}

func TestLoginFailureCarriesFieldErrors(t *testing.T) {
	ctx := context.Background()
	client, session := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)
	require.NoError(t, client.Logout(ctx))

	_, err = client.Login(ctx, "alice", "wrong-password")
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Invalid credentials", ve.Message)
	assert.Contains(t, ve.Fields, "password")

	_, err = session.GetToken(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestUnauthenticatedCallIsSentAndRejected(t *testing.T) {
	client, _ := newMockAPIClient(t)
	_, err := client.FetchUserProfile(context.Background())
	var ue *UnauthorizedError
	require.ErrorAs(t, err, &ue)
}

func TestCreateBookEchoesFields(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	in := BookFields{Title: "T", Author: "A", Genre: "G", Description: "D", TotalPages: 100}
	book, err := client.CreateBook(ctx, in)
	require.NoError(t, err)
	assert.NotEmpty(t, book.ID)
	assert.Equal(t, in, book.Fields())
	assert.False(t, book.CreatedAt.IsZero())
}

func TestCreateBookValidation(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	_, err = client.CreateBook(ctx, BookFields{Author: "A", TotalPages: -1})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "title")
	assert.Contains(t, ve.Fields, "totalPages")
}

func TestDeleteThenFetchIsNotFound(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	book, err := client.CreateBook(ctx, BookFields{Title: "T", Author: "A"})
	require.NoError(t, err)
	require.NoError(t, client.DeleteBook(ctx, book.ID))

	_, err = client.FetchBook(ctx, book.ID)
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)

	err = client.DeleteBook(ctx, book.ID)
	require.ErrorAs(t, err, &nf)
}

func TestUpdateBookIsIdempotent(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	book, err := client.CreateBook(ctx, BookFields{Title: "T", Author: "A"})
	require.NoError(t, err)

	fields := BookFields{Title: "T2", Author: "A2", Genre: "G", Description: "D", TotalPages: 12}
	first, err := client.UpdateBook(ctx, book.ID, fields)
	require.NoError(t, err)
	second, err := client.UpdateBook(ctx, book.ID, fields)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, fields, second.Fields())
	assert.Equal(t, book.ID, second.ID)
}

func TestFetchBooksPreservesOrderAndFilters(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	seed := []BookFields{
		{Title: "Dune", Author: "Frank Herbert", Genre: "SF", TotalPages: 412},
		{Title: "Emma", Author: "Jane Austen", Genre: "Novel", TotalPages: 474},
		{Title: "Hyperion", Author: "Dan Simmons", Genre: "SF", TotalPages: 482},
	}
	var ids []string
	for _, f := range seed {
		b, err := client.CreateBook(ctx, f)
		require.NoError(t, err)
		ids = append(ids, b.ID)
	}

	books, err := client.FetchBooks(ctx, nil)
	require.NoError(t, err)
	require.Len(t, books, 3)
	for i, b := range books {
		assert.Equal(t, ids[i], b.ID)
		assert.Equal(t, seed[i], b.Fields())
	}

	sf, err := client.FetchBooks(ctx, &BookFilter{Genre: "SF"})
	require.NoError(t, err)
	assert.Equal(t, []string{ids[0], ids[2]}, []string{sf[0].ID, sf[1].ID})

	byAuthor, err := client.FetchBooks(ctx, &BookFilter{Author: "austen"})
	require.NoError(t, err)
	require.Len(t, byAuthor, 1)
	assert.Equal(t, "Emma", byAuthor[0].Title)

	page, err := client.FetchBooks(ctx, &BookFilter{Limit: 2, Page: 2})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, ids[2], page[0].ID)
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, _ := newMockAPIClient(t)
	_, err := client.Register(ctx, "alice", "secret1", "alice@example.com")
	require.NoError(t, err)

	me, err := client.FetchUserProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, "alice", me.Username)
	assert.Equal(t, "alice@example.com", me.Email)
	assert.NotEmpty(t, me.ID)

	updated, err := client.EditProfile(ctx, me.ID, ProfileFields{Username: "alicia", Email: "alicia@example.com"})
	require.NoError(t, err)
	assert.Equal(t, me.ID, updated.ID)
	assert.Equal(t, "alicia", updated.Username)

	_, err = client.EditProfile(ctx, me.ID, ProfileFields{Username: "alicia", Email: "broken"})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Fields, "email")
}
