package library

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type envelope[T any] struct {
	Data *T `json:"data"`
}

type tokenResponse struct {
	Token string `json:"token"`
	Data  *struct {
		Token string `json:"token"`
	} `json:"data"`
}

// checkSchema validates a decoded value and flattens validator output into
// one readable error.
func checkSchema(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", fe.Field()))
		case "gte":
			msgs = append(msgs, fmt.Sprintf("%s must be >= %s", fe.Field(), fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", fe.Field()))
		}
	}
	return errors.New(strings.Join(msgs, "; "))
}

func decodeToken(op string, body []byte) (string, error) {
	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", &DecodeError{Op: op, Err: err}
	}
	token := tr.Token
	if token == "" && tr.Data != nil {
		token = tr.Data.Token
	}
	if token == "" {
		return "", &DecodeError{Op: op, Err: errors.New("token is missing")}
	}
	return token, nil
}

func decodeBook(op string, body []byte) (Book, error) {
	var env envelope[wireBook]
	if err := json.Unmarshal(body, &env); err != nil {
		return Book{}, &DecodeError{Op: op, Err: err}
	}
	if env.Data == nil {
		return Book{}, &DecodeError{Op: op, Err: errors.New("data is missing")}
	}
	b := env.Data.book()
	if err := checkSchema(&b); err != nil {
		return Book{}, &DecodeError{Op: op, Err: err}
	}
	return b, nil
}

func decodeBooks(op string, body []byte) ([]Book, error) {
	var env envelope[[]wireBook]
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &DecodeError{Op: op, Err: err}
	}
	if env.Data == nil {
		return nil, &DecodeError{Op: op, Err: errors.New("data is missing")}
	}
	books := make([]Book, 0, len(*env.Data))
	for i, w := range *env.Data {
		b := w.book()
		if err := checkSchema(&b); err != nil {
			return nil, &DecodeError{Op: op, Err: fmt.Errorf("book %d: %w", i, err)}
		}
		books = append(books, b)
	}
	return books, nil
}

// decodeUser accepts {data: User} as well as a bare User; the profile
// update endpoint answers with the latter.
func decodeUser(op string, body []byte) (User, error) {
	var env envelope[wireUser]
	if err := json.Unmarshal(body, &env); err != nil {
		return User{}, &DecodeError{Op: op, Err: err}
	}
	var w wireUser
	if env.Data != nil {
		w = *env.Data
	} else if err := json.Unmarshal(body, &w); err != nil {
		return User{}, &DecodeError{Op: op, Err: err}
	}
	u := w.user()
	if err := checkSchema(&u); err != nil {
		return User{}, &DecodeError{Op: op, Err: err}
	}
	return u, nil
}
