// Package mockapi serves the book tracking REST contract from memory. It
// backs the client tests and can be run locally through cmd/mockapi.
package mockapi

import (
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Book is the stored document; it goes over the wire with `_id`.
type Book struct {
	ID          string    `json:"_id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	TotalPages  int       `json:"totalPages"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// User is the public part of an account.
type User struct {
	ID        string    `json:"_id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type account struct {
	User
	passwordHash []byte
}

// Options tune a Server. Zero values fall back to defaults.
type Options struct {
	Secret    string
	TokenTTL  time.Duration
	AuthRPS   float64
	AuthBurst int
	Logger    *zap.Logger
}

// Server holds every account and book in memory.
type Server struct {
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
	limiter  *ipRateLimiter
	validate *validator.Validate

	mu        sync.RWMutex
	accounts  map[string]*account // by id
	usernames map[string]string   // lower-cased username -> id
	books     map[string]*Book
	order     []string // book ids in insertion order
}

func NewServer(opts Options) *Server {
	if opts.Secret == "" {
		opts.Secret = "dev-secret-change-me"
	}
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 24 * time.Hour
	}
	if opts.AuthRPS <= 0 {
		opts.AuthRPS = 5
	}
	if opts.AuthBurst <= 0 {
		opts.AuthBurst = 20
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Server{
		secret:    []byte(opts.Secret),
		tokenTTL:  opts.TokenTTL,
		logger:    opts.Logger,
		limiter:   newIPRateLimiter(opts.AuthRPS, opts.AuthBurst),
		validate:  v,
		accounts:  make(map[string]*account),
		usernames: make(map[string]string),
		books:     make(map[string]*Book),
	}
}

// Handler returns the routes mounted at the root; callers add any prefix.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.accessLog)

	r.Group(func(r chi.Router) {
		r.Use(s.limiter.middleware)
		r.Post("/auth/register", s.handleRegister)
		r.Post("/auth/login", s.handleLogin)
	})

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handleUpdateProfile)

		r.Get("/books", s.handleListBooks)
		r.Post("/books", s.handleCreateBook)
		r.Get("/books/{id}", s.handleGetBook)
		r.Put("/books/{id}", s.handleUpdateBook)
		r.Delete("/books/{id}", s.handleDeleteBook)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Route not found", nil)
	})
	return r
}
