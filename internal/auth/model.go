package auth

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User is the account record. FilmlyID is the numeric id used as the join
// key for ratings and recommendations; it comes from the sequence allocator,
// not from Mongo's object id.
type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"-"`
	FilmlyID     int64         `bson:"filmlyId" json:"filmlyId"`
	Email        string        `bson:"email" json:"email"`
	Username     string        `bson:"username" json:"username"`
	PasswordHash string        `bson:"password" json:"-"`
}

var (
	ErrUserAlreadyExists  = errors.New("auth: user already exists")
	ErrUsernameTaken      = errors.New("auth: username already taken")
	ErrUserNotFound       = errors.New("auth: user not found")
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)

// Repository defines the persistence operations auth needs.
type Repository interface {
	CreateUser(ctx context.Context, u *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
}

// Service is the business logic exposed to the handlers.
type Service interface {
	Register(ctx context.Context, email, username, password string) (filmlyID int64, token string, err error)
	Login(ctx context.Context, email, password string) (filmlyID int64, token string, err error)
}

// TokenManager issues and validates session tokens for numeric filmly ids.
type TokenManager interface {
	GenerateToken(filmlyID int64) (string, error)
	ValidateToken(token string) (int64, error)
}
