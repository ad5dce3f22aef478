package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"yamdb/database"
	"yamdb/internal/logging"
	"yamdb/internal/mailer"
	"yamdb/internal/metrics"
	"yamdb/internal/middleware/auth"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

// MailQueue accepts outbound mail for asynchronous delivery.
type MailQueue interface {
	Enqueue(msg mailer.Message) error
}

type AuthService interface {
	// Signup registers (or re-registers) a user and mails a fresh confirmation code.
	Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error)
	// ExchangeToken trades a confirmation code for an access token.
	ExchangeToken(ctx context.Context, req dto.TokenRequest) (string, error)
	// Authenticate resolves a bearer token to the current user row.
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	users    repository.UserRepository
	tokens   *TokenIssuer
	mail     MailQueue
	mailFrom string
}

func NewAuthService(users repository.UserRepository, tokens *TokenIssuer, mail MailQueue, mailFrom string) AuthService {
	return &authService{
		users:    users,
		tokens:   tokens,
		mail:     mail,
		mailFrom: mailFrom,
	}
}

// lookupUser returns nil, nil when no row matches.
func lookupUser(ctx context.Context, find func(context.Context, string) (*models.User, error), key string) (*models.User, error) {
	u, err := find(ctx, key)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return u, err
}

func (s *authService) Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error) {
	if req.Username == models.ReservedUsername {
		metrics.Signups.WithLabelValues("rejected").Inc()
		return nil, ErrReservedUsername
	}

	byName, err := lookupUser(ctx, s.users.FindByUsername, req.Username)
	if err != nil {
		return nil, err
	}
	byEmail, err := lookupUser(ctx, s.users.FindByEmail, req.Email)
	if err != nil {
		return nil, err
	}

	if byName != nil && byName.Email != req.Email {
		metrics.Signups.WithLabelValues("rejected").Inc()
		return nil, ErrUsernameTaken
	}
	if byEmail != nil && byEmail.Username != req.Username {
		metrics.Signups.WithLabelValues("rejected").Inc()
		return nil, ErrEmailTaken
	}

	code := auth.NewConfirmationCode()
	hashed, err := auth.HashConfirmationCode(code)
	if err != nil {
		return nil, fmt.Errorf("hash confirmation code: %w", err)
	}

	user := byName
	if user == nil {
		user = &models.User{
			Username:         req.Username,
			Email:            req.Email,
			Role:             models.RoleUser,
			ConfirmationCode: hashed,
		}
		err := s.users.Create(ctx, user)
		if err == nil {
			metrics.Signups.WithLabelValues("created").Inc()
			s.sendCode(ctx, user, code)
			return user, nil
		}
		if !database.IsUniqueViolation(err) {
			return nil, err
		}
		// another signup inserted first; reuse its row when it is the same account
		if user, err = s.signupWinner(ctx, req); err != nil {
			return nil, err
		}
	}

	// replaying signup rotates the code
	if err := s.users.UpdateConfirmationCode(ctx, user.ID, hashed); err != nil {
		return nil, err
	}
	user.ConfirmationCode = hashed
	metrics.Signups.WithLabelValues("reused").Inc()
	s.sendCode(ctx, user, code)
	return user, nil
}

// signupWinner re-reads the row that beat Create to the unique index.
func (s *authService) signupWinner(ctx context.Context, req dto.SignupRequest) (*models.User, error) {
	existing, err := lookupUser(ctx, s.users.FindByUsername, req.Username)
	if err != nil {
		return nil, err
	}
	switch {
	case existing == nil:
		// the username is free so the email collided
		metrics.Signups.WithLabelValues("rejected").Inc()
		return nil, ErrEmailTaken
	case existing.Email != req.Email:
		metrics.Signups.WithLabelValues("rejected").Inc()
		return nil, ErrUsernameTaken
	}
	return existing, nil
}

func (s *authService) sendCode(ctx context.Context, user *models.User, code string) {
	if err := s.mail.Enqueue(mailer.ConfirmationMessage(s.mailFrom, user.Email, code)); err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("username", user.Username).Msg("confirmation mail not queued")
	}
}

func (s *authService) ExchangeToken(ctx context.Context, req dto.TokenRequest) (string, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.TokenExchanges.WithLabelValues("unknown_user").Inc()
		}
		return "", notFound(err, ErrUserNotFound)
	}

	if !auth.VerifyConfirmationCode(user.ConfirmationCode, req.ConfirmationCode) {
		metrics.TokenExchanges.WithLabelValues("bad_code").Inc()
		return "", ErrInvalidCode
	}

	// codes are single-use
	if err := s.users.UpdateConfirmationCode(ctx, user.ID, ""); err != nil {
		return "", err
	}
	user.ConfirmationCode = ""

	token, err := s.tokens.Issue(user)
	if err != nil {
		return "", err
	}
	metrics.TokenExchanges.WithLabelValues("issued").Inc()
	return token, nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return nil, notFound(err, ErrInvalidToken)
	}
	return user, nil
}
