package auth

import (
	"context"
	"fmt"

	"filmly/internal/sequence"
	"filmly/pkg/logger"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type service struct {
	repo   Repository
	tokens TokenManager
	seq    *sequence.Allocator
}

// NewService builds the authentication service. New accounts take their
// numeric filmlyId from the userId sequence.
func NewService(repo Repository, tokens TokenManager, seq *sequence.Allocator) Service {
	return &service{
		repo:   repo,
		tokens: tokens,
		seq:    seq,
	}
}

func (s *service) Register(ctx context.Context, email, username, password string) (int64, string, error) {
	if _, err := s.repo.GetByEmail(ctx, email); err == nil {
		return 0, "", ErrUserAlreadyExists
	} else if err != ErrUserNotFound {
		return 0, "", err
	}

	if _, err := s.repo.GetByUsername(ctx, username); err == nil {
		return 0, "", ErrUsernameTaken
	} else if err != ErrUserNotFound {
		return 0, "", err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, "", err
	}

	filmlyID, err := s.seq.Next(ctx, sequence.UserIDKey)
	if err != nil {
		return 0, "", fmt.Errorf("allocating filmly id: %w", err)
	}

	u := &User{
		FilmlyID:     filmlyID,
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		return 0, "", err
	}

	token, err := s.tokens.GenerateToken(u.FilmlyID)
	if err != nil {
		return 0, "", err
	}

	logger.Info("user registered", zap.Int64("filmlyId", u.FilmlyID))
	return u.FilmlyID, token, nil
}

func (s *service) Login(ctx context.Context, email, password string) (int64, string, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if err == ErrUserNotFound {
			return 0, "", ErrInvalidCredentials
		}
		return 0, "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return 0, "", ErrInvalidCredentials
	}

	token, err := s.tokens.GenerateToken(u.FilmlyID)
	if err != nil {
		return 0, "", err
	}

	return u.FilmlyID, token, nil
}
