package library

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"booktrack/config"
)

// LibraryManager is a thin façade over the Client and its session store,
// keeping CLI code simple.
type LibraryManager struct {
	client  *Client
	session SessionStore
	closers []func() error
}

// NewLibraryManager opens the configured session backend and builds the
// API client on top of it.
func NewLibraryManager(cfg *config.Config, logger *zap.Logger) (*LibraryManager, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	lm := &LibraryManager{}
	session, err := lm.openSession(cfg)
	if err != nil {
		lm.Close()
		return nil, err
	}
	if cfg.SessionPassphrase != "" {
		session = NewSealedSession(session, cfg.SessionPassphrase)
	}
	lm.session = session
	lm.client = NewClient(cfg.APIURL, session, &http.Client{Timeout: cfg.HTTPTimeout}, logger)
	logger.Debug("library manager ready",
		zap.String("api_url", cfg.APIURL),
		zap.String("session_backend", cfg.SessionBackend))
	return lm, nil
}

func (lm *LibraryManager) openSession(cfg *config.Config) (SessionStore, error) {
	switch cfg.SessionBackend {
	case config.BackendMemory:
		return NewMemorySession(), nil
	case config.BackendRedis:
		rc := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		lm.closers = append(lm.closers, rc.Close)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rc.Ping(ctx).Err(); err != nil {
			return nil, &StorageError{Op: "connect", Err: err}
		}
		return NewRedisSession(rc), nil
	default:
		db, err := NewDatabase(cfg.DBPath)
		if err != nil {
			return nil, &StorageError{Op: "open", Err: err}
		}
		lm.closers = append(lm.closers, db.Close)
		return db, nil
	}
}

// Close releases the session backend.
func (lm *LibraryManager) Close() error {
	var errs []error
	for i := len(lm.closers) - 1; i >= 0; i-- {
		if err := lm.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	lm.closers = nil
	return errors.Join(errs...)
}

func (lm *LibraryManager) Client() *Client { return lm.client }

// ------------------ Session helpers ------------------

func (lm *LibraryManager) Login(ctx context.Context, username, password string) error {
	_, err := lm.client.Login(ctx, username, password)
	return err
}

func (lm *LibraryManager) Register(ctx context.Context, username, password, email string) error {
	_, err := lm.client.Register(ctx, username, password, email)
	return err
}

func (lm *LibraryManager) Logout(ctx context.Context) error { return lm.client.Logout(ctx) }

// SessionStatus describes the stored token without contacting the server.
type SessionStatus struct {
	LoggedIn bool
	Token    TokenInfo
}

func (lm *LibraryManager) Status(ctx context.Context) (SessionStatus, error) {
	token, err := lm.session.GetToken(ctx)
	if errors.Is(err, ErrNoToken) {
		return SessionStatus{}, nil
	}
	if err != nil {
		return SessionStatus{}, err
	}
	return SessionStatus{LoggedIn: true, Token: InspectToken(token)}, nil
}

// ------------------ Profile helpers ------------------

func (lm *LibraryManager) Profile(ctx context.Context) (User, error) {
	return lm.client.FetchUserProfile(ctx)
}

func (lm *LibraryManager) EditProfile(ctx context.Context, id string, fields ProfileFields) (User, error) {
	return lm.client.EditProfile(ctx, id, fields)
}

// ------------------ Book helpers ------------------

func (lm *LibraryManager) GetAllBooks(ctx context.Context, filter *BookFilter) ([]Book, error) {
	return lm.client.FetchBooks(ctx, filter)
}

func (lm *LibraryManager) GetBook(ctx context.Context, id string) (Book, error) {
	return lm.client.FetchBook(ctx, id)
}

func (lm *LibraryManager) AddBook(ctx context.Context, fields BookFields) (Book, error) {
	return lm.client.CreateBook(ctx, fields)
}

func (lm *LibraryManager) UpdateBook(ctx context.Context, id string, fields BookFields) (Book, error) {
	return lm.client.UpdateBook(ctx, id, fields)
}

func (lm *LibraryManager) DeleteBook(ctx context.Context, id string) error {
	return lm.client.DeleteBook(ctx, id)
}

// ------------------ Import ------------------

// ImportResult is the outcome of creating one imported entry.
type ImportResult struct {
	Fields BookFields
	Book   Book
	Err    error
}

// ImportBooks decodes a JSON array of book fields from r and creates each
// entry with its own request. A failed entry does not stop the others.
func (lm *LibraryManager) ImportBooks(ctx context.Context, r io.Reader) ([]ImportResult, error) {
	var entries []BookFields
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode import file: %w", err)
	}
	results := make([]ImportResult, 0, len(entries))
	for _, fields := range entries {
		book, err := lm.client.CreateBook(ctx, fields)
		results = append(results, ImportResult{Fields: fields, Book: book, Err: err})
	}
	return results, nil
}

// ImportBooksFromFile reads the file at path (relative paths resolve from cwd).
func (lm *LibraryManager) ImportBooksFromFile(ctx context.Context, path string) ([]ImportResult, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("file path cannot be empty")
	}
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return lm.ImportBooks(ctx, f)
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-24s %-30s %-25s %-15s %6d", b.ID, b.Title, b.Author, b.Genre, b.TotalPages)
}
