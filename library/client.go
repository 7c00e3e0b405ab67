package library

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultBaseURL is the production API.
const DefaultBaseURL = "https://backendbooktrack-production.up.railway.app/api"

const userAgent = "booktrack-cli/1.0"

// Client talks to the book tracking API. Each exported method performs
// exactly one HTTP request; nothing is retried or cached. The only state
// read at call time is the session token.
type Client struct {
	baseURL string
	session SessionStore
	http    *http.Client
	logger  *zap.Logger
}

// NewClient builds a client for baseURL. A nil httpClient means a client
// without timeout; a nil logger discards logs.
func NewClient(baseURL string, session SessionStore, httpClient *http.Client, logger *zap.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		session: session,
		http:    httpClient,
		logger:  logger,
	}
}

// Session returns the store the client reads its token from.
func (c *Client) Session() SessionStore { return c.session }

// ------------------ Auth ------------------

// Login exchanges credentials for a token and stores it in the session.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	fields := map[string]string{}
	if strings.TrimSpace(username) == "" {
		fields["username"] = "Username is required"
	}
	if password == "" {
		fields["password"] = "Password is required"
	}
	if len(fields) > 0 {
		return "", &ValidationError{Message: "Please fill in all fields", Fields: fields}
	}
	return c.authenticate(ctx, "login", "/auth/login", credentials{Username: username, Password: password})
}

// Register creates an account and stores the returned token.
func (c *Client) Register(ctx context.Context, username, password, email string) (string, error) {
	return c.authenticate(ctx, "register", "/auth/register", credentials{Username: username, Password: password, Email: email})
}

func (c *Client) authenticate(ctx context.Context, op, path string, creds credentials) (string, error) {
	body, err := c.do(ctx, op, http.MethodPost, path, nil, creds)
	if err != nil {
		return "", err
	}
	token, err := decodeToken(op, body)
	if err != nil {
		c.logger.Warn(op+" response rejected", zap.Error(err))
		return "", err
	}
	if err := c.session.SetToken(ctx, token); err != nil {
		return "", err
	}
	return token, nil
}

// Logout forgets the stored token. The server is not contacted.
func (c *Client) Logout(ctx context.Context) error {
	return c.session.ClearToken(ctx)
}

// ------------------ Profile ------------------

func (c *Client) FetchUserProfile(ctx context.Context) (User, error) {
	body, err := c.do(ctx, "fetch profile", http.MethodGet, "/profile", nil, nil)
	if err != nil {
		return User{}, err
	}
	return decodeUser("fetch profile", body)
}

// EditProfile updates the current user's username and email. The endpoint
// addresses the user through the token; id only tags the log entry.
func (c *Client) EditProfile(ctx context.Context, id string, fields ProfileFields) (User, error) {
	body, err := c.do(ctx, "edit profile", http.MethodPut, "/profile", nil, fields)
	if err != nil {
		c.logger.Debug("profile edit failed", zap.String("user_id", id))
		return User{}, err
	}
	return decodeUser("edit profile", body)
}

// ------------------ Books ------------------

// FetchBooks lists the user's books in server order. filter may be nil.
func (c *Client) FetchBooks(ctx context.Context, filter *BookFilter) ([]Book, error) {
	body, err := c.do(ctx, "fetch books", http.MethodGet, "/books", filter.query(), nil)
	if err != nil {
		return nil, err
	}
	return decodeBooks("fetch books", body)
}

func (c *Client) FetchBook(ctx context.Context, id string) (Book, error) {
	body, err := c.do(ctx, "fetch book", http.MethodGet, bookPath(id), nil, nil)
	if err != nil {
		return Book{}, err
	}
	return decodeBook("fetch book", body)
}

func (c *Client) CreateBook(ctx context.Context, fields BookFields) (Book, error) {
	body, err := c.do(ctx, "create book", http.MethodPost, "/books", nil, fields)
	if err != nil {
		c.logger.Debug("rejected book payload", zap.Any("book", fields))
		return Book{}, err
	}
	return decodeBook("create book", body)
}

func (c *Client) UpdateBook(ctx context.Context, id string, fields BookFields) (Book, error) {
	body, err := c.do(ctx, "update book", http.MethodPut, bookPath(id), nil, fields)
	if err != nil {
		return Book{}, err
	}
	return decodeBook("update book", body)
}

func (c *Client) DeleteBook(ctx context.Context, id string) error {
	_, err := c.do(ctx, "delete book", http.MethodDelete, bookPath(id), nil, nil)
	return err
}

func bookPath(id string) string { return "/books/" + url.PathEscape(id) }

func (f *BookFilter) query() url.Values {
	if f == nil {
		return nil
	}
	q := url.Values{}
	if f.Genre != "" {
		q.Set("genre", f.Genre)
	}
	if f.Author != "" {
		q.Set("author", f.Author)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

// ------------------ Transport ------------------

// newRequest builds a request with the JSON headers, a request id and,
// when a token is stored, the bearer credential.
func (c *Client) newRequest(ctx context.Context, method, path string, query url.Values, payload any) (*http.Request, error) {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("X-Request-ID", uuid.NewString())

	token, err := c.session.GetToken(ctx)
	switch {
	case errors.Is(err, ErrNoToken):
	case err != nil:
		return nil, err
	default:
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends one request and returns the body of a 2xx response. Every other
// outcome is normalized into an APIError, except session store failures.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, payload any) ([]byte, error) {
	req, err := c.newRequest(ctx, method, path, query, payload)
	if err != nil {
		var se *StorageError
		if errors.As(err, &se) {
			return nil, err
		}
		return nil, &NetworkError{Err: err}
	}
	log := c.logger.With(
		zap.String("op", op),
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", req.Header.Get("X-Request-ID")),
	)

	resp, err := c.http.Do(req)
	if err != nil {
		log.Warn("request failed", zap.Error(err))
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Warn("read response failed", zap.Int("status", resp.StatusCode), zap.Error(err))
		return nil, &NetworkError{StatusCode: resp.StatusCode, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := errorFromResponse(resp.StatusCode, body)
		log.Warn("request rejected", zap.Int("status", resp.StatusCode), zap.Error(apiErr))
		return nil, apiErr
	}
	log.Debug("request done", zap.Int("status", resp.StatusCode))
	return body, nil
}
