package mockapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type registerRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Password string `json:"password" validate:"required,min=6"`
	Email    string `json:"email" validate:"required,email"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type profileRequest struct {
	Username string `json:"username" validate:"required,min=3,max=30"`
	Email    string `json:"email" validate:"required,email"`
}

type bookRequest struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author" validate:"required"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	TotalPages  int    `json:"totalPages" validate:"gte=0"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

type dataResponse struct {
	Data any `json:"data"`
}

type errorResponse struct {
	Message string            `json:"message"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorResponse{Message: msg, Errors: fields})
}

// decode reads the JSON body into dst and validates it. It writes the error
// response itself and reports whether the handler may go on.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", nil)
		return false
	}
	if fields := s.fieldErrors(dst); len(fields) > 0 {
		writeError(w, http.StatusBadRequest, "Validation failed", fields)
		return false
	}
	return true
}

func (s *Server) fieldErrors(v any) map[string]string {
	err := s.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		switch fe.Tag() {
		case "required":
			fields[field] = fmt.Sprintf("%s is required", field)
		case "email":
			fields[field] = fmt.Sprintf("%s must be a valid email address", field)
		case "min":
			fields[field] = fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
		case "max":
			fields[field] = fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
		case "gte":
			fields[field] = fmt.Sprintf("%s must be %s or more", field, fe.Param())
		default:
			fields[field] = fmt.Sprintf("%s is invalid", field)
		}
	}
	return fields
}

// ------------------ Auth ------------------

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !s.decode(w, r, &req) {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.MinCost)
	if err != nil {
		s.logger.Error("hash password", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Server error", nil)
		return
	}

	s.mu.Lock()
	if _, taken := s.usernames[strings.ToLower(req.Username)]; taken {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists", map[string]string{"username": "Username is already taken"})
		return
	}
	if s.emailTakenLocked(req.Email, "") {
		s.mu.Unlock()
		writeError(w, http.StatusConflict, "User already exists", map[string]string{"email": "Email is already registered"})
		return
	}
	acc := &account{
		User:         User{ID: uuid.NewString(), Username: req.Username, Email: req.Email, CreatedAt: time.Now().UTC()},
		passwordHash: hash,
	}
	s.accounts[acc.ID] = acc
	s.usernames[strings.ToLower(req.Username)] = acc.ID
	s.mu.Unlock()

	token, err := s.issueToken(acc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", nil)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !s.decode(w, r, &req) {
		return
	}

	s.mu.RLock()
	acc, ok := s.accounts[s.usernames[strings.ToLower(req.Username)]]
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid credentials", map[string]string{"username": "User not found"})
		return
	}
	if bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		writeError(w, http.StatusBadRequest, "Invalid credentials", map[string]string{"password": "Incorrect password"})
		return
	}

	token, err := s.issueToken(acc.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Server error", nil)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token})
}

func (s *Server) emailTakenLocked(email, exceptID string) bool {
	for id, acc := range s.accounts {
		if id != exceptID && strings.EqualFold(acc.Email, email) {
			return true
		}
	}
	return false
}

// ------------------ Profile ------------------

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	acc := s.accounts[userIDFrom(r.Context())]
	user := acc.User
	s.mu.RUnlock()
	writeJSON(w, http.StatusOK, dataResponse{Data: user})
}

// handleUpdateProfile answers with the bare user, unlike every other
// read endpoint.
func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if !s.decode(w, r, &req) {
		return
	}
	userID := userIDFrom(r.Context())

	s.mu.Lock()
	defer s.mu.Unlock()
	acc := s.accounts[userID]
	newKey := strings.ToLower(req.Username)
	if owner, taken := s.usernames[newKey]; taken && owner != userID {
		writeError(w, http.StatusConflict, "Username already taken", map[string]string{"username": "Username is already taken"})
		return
	}
	if s.emailTakenLocked(req.Email, userID) {
		writeError(w, http.StatusConflict, "Email already in use", map[string]string{"email": "Email is already registered"})
		return
	}
	delete(s.usernames, strings.ToLower(acc.Username))
	s.usernames[newKey] = userID
	acc.Username = req.Username
	acc.Email = req.Email
	writeJSON(w, http.StatusOK, acc.User)
}

// ------------------ Books ------------------

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{"limit": "limit must be a non-negative integer"})
		return
	}
	page, err := intParam(q.Get("page"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", map[string]string{"page": "page must be a non-negative integer"})
		return
	}
	genre, author := q.Get("genre"), strings.ToLower(q.Get("author"))
	userID := userIDFrom(r.Context())

	s.mu.RLock()
	books := make([]Book, 0)
	for _, id := range s.order {
		b := s.books[id]
		if b.UserID != userID {
			continue
		}
		if genre != "" && !strings.EqualFold(b.Genre, genre) {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(b.Author), author) {
			continue
		}
		books = append(books, *b)
	}
	s.mu.RUnlock()

	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start > len(books) {
			start = len(books)
		}
		end := min(start+limit, len(books))
		books = books[start:end]
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: books})
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %q", v)
	}
	return n, nil
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !s.decode(w, r, &req) {
		return
	}
	now := time.Now().UTC()
	b := &Book{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Author:      req.Author,
		Genre:       req.Genre,
		Description: req.Description,
		TotalPages:  req.TotalPages,
		UserID:      userIDFrom(r.Context()),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.mu.Lock()
	s.books[b.ID] = b
	s.order = append(s.order, b.ID)
	out := *b
	s.mu.Unlock()
	writeJSON(w, http.StatusCreated, dataResponse{Data: out})
}

// ownedBookLocked returns the book only when the caller owns it, so other
// users' books look missing.
func (s *Server) ownedBookLocked(r *http.Request) (*Book, bool) {
	b, ok := s.books[chi.URLParam(r, "id")]
	if !ok || b.UserID != userIDFrom(r.Context()) {
		return nil, false
	}
	return b, true
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	b, ok := s.ownedBookLocked(r)
	var out Book
	if ok {
		out = *b
	}
	s.mu.RUnlock()
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: out})
}

// handleUpdateBook only moves updatedAt when a field actually changes, so
// repeating the same update returns the same document.
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if !s.decode(w, r, &req) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.ownedBookLocked(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}
	changed := b.Title != req.Title || b.Author != req.Author || b.Genre != req.Genre ||
		b.Description != req.Description || b.TotalPages != req.TotalPages
	if changed {
		b.Title, b.Author, b.Genre = req.Title, req.Author, req.Genre
		b.Description, b.TotalPages = req.Description, req.TotalPages
		b.UpdatedAt = time.Now().UTC()
	}
	writeJSON(w, http.StatusOK, dataResponse{Data: *b})
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.ownedBookLocked(r)
	if !ok {
		writeError(w, http.StatusNotFound, "Book not found", nil)
		return
	}
	delete(s.books, b.ID)
	for i, id := range s.order {
		if id == b.ID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	w.WriteHeader(http.StatusNoContent)
}
