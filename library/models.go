package library

import "time"

// Book is a single record of the user's collection as the API returns it.
type Book struct {
	ID          string    `json:"id" validate:"required"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	TotalPages  int       `json:"totalPages" validate:"gte=0"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Fields returns the editable part of the book.
func (b *Book) Fields() BookFields {
	return BookFields{
		Title:       b.Title,
		Author:      b.Author,
		Genre:       b.Genre,
		Description: b.Description,
		TotalPages:  b.TotalPages,
	}
}

// BookFields is the payload of create and update.
type BookFields struct {
	Title       string `json:"title"`
	Author      string `json:"author"`
	Genre       string `json:"genre"`
	Description string `json:"description"`
	TotalPages  int    `json:"totalPages"`
}

// BookFilter narrows a book listing. Zero values are not sent.
type BookFilter struct {
	Genre  string
	Author string
	Limit  int
	Page   int
}

// User is the profile of the logged in account.
type User struct {
	ID        string    `json:"id" validate:"required"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileFields is the payload of a profile edit.
type ProfileFields struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// wireBook is a book as the server sends it. Documents carry `_id`; some
// responses already use `id`.
type wireBook struct {
	MongoID     string    `json:"_id"`
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author"`
	Genre       string    `json:"genre"`
	Description string    `json:"description"`
	TotalPages  int       `json:"totalPages"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func (w wireBook) book() Book {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	return Book{
		ID:          id,
		Title:       w.Title,
		Author:      w.Author,
		Genre:       w.Genre,
		Description: w.Description,
		TotalPages:  w.TotalPages,
		UserID:      w.UserID,
		CreatedAt:   w.CreatedAt,
		UpdatedAt:   w.UpdatedAt,
	}
}

type wireUser struct {
	MongoID   string    `json:"_id"`
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

func (w wireUser) user() User {
	id := w.MongoID
	if id == "" {
		id = w.ID
	}
	return User{ID: id, Username: w.Username, Email: w.Email, CreatedAt: w.CreatedAt}
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}
