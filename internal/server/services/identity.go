// Package services contains server-side business logic. IdentityService
// handles account creation, password sign-in, access tokens and email
// verification.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/dbx"
	"github.com/dmitrijs2005/authkeeper/internal/server/auth"
	"github.com/dmitrijs2005/authkeeper/internal/server/config"
	"github.com/dmitrijs2005/authkeeper/internal/server/mail"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
	"github.com/dmitrijs2005/authkeeper/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Input errors, reported to clients as invalid arguments.
var (
	ErrInvalidEmail             = errors.New("invalid email format")
	ErrEmptyPassword            = errors.New("password must not be empty")
	ErrInvalidVerificationToken = errors.New("invalid or expired verification token")
)

// MsgInvalidCredentials is the only text a failed sign-in reveals.
const MsgInvalidCredentials = "invalid email or password"

const verificationTokenSize = 16

// Session is a signed-in user with its access token.
type Session struct {
	User        *models.User
	AccessToken string
}

type IdentityService struct {
	db                    *sql.DB
	repomanager           repomanager.RepositoryManager
	outbox                mail.Outbox
	jwtSecret             []byte
	accessTokenValidity   time.Duration
	verificationValidity  time.Duration
	now                   func() time.Time
	hashPassword          func(string) (string, error)
	makeVerificationToken func() (string, error)
}

func NewIdentityService(db *sql.DB, m repomanager.RepositoryManager, outbox mail.Outbox, cfg *config.Config) *IdentityService {
	return &IdentityService{
		db:                   db,
		repomanager:          m,
		outbox:               outbox,
		jwtSecret:            []byte(cfg.SecretKey),
		accessTokenValidity:  cfg.AccessTokenValidityDuration,
		verificationValidity: cfg.VerificationTokenValidityDuration,
		now:                  time.Now,
		hashPassword:         auth.HashPassword,
		makeVerificationToken: func() (string, error) {
			return common.MakeRandHexString(verificationTokenSize)
		},
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates an unverified account and signs it in.
// A taken email yields common.ErrorAlreadyExists.
func (s *IdentityService) SignUp(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !common.ValidEmail(email) {
		return nil, ErrInvalidEmail
	}
	if password == "" {
		return nil, ErrEmptyPassword
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		Role:         common.DefaultRole,
	}
	created, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	return s.newSession(created)
}

// SignIn checks the password and returns a fresh session. Unknown emails and
// wrong passwords both yield common.ErrorUnauthorized.
func (s *IdentityService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	ok, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrorUnauthorized
	}
	return s.newSession(user)
}

// GetUser returns the account behind an access token. A token whose user no
// longer exists is unauthorized.
func (s *IdentityService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// SendEmailVerification replaces the user's pending verification tokens with
// a new one and mails it. Already verified users get no mail.
func (s *IdentityService) SendEmailVerification(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.EmailVerified {
		return nil
	}

	token, err := s.makeVerificationToken()
	if err != nil {
		return common.ErrorInternal
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.VerificationTokens(tx)
		if err := repo.DeleteByUser(ctx, user.ID); err != nil {
			return err
		}
		return repo.Create(ctx, user.ID, token, s.verificationValidity)
	}); err != nil {
		return fmt.Errorf("error storing verification token: %w", err)
	}

	if err := s.outbox.Send(ctx, mail.VerificationMessage(user.Email, token, s.verificationValidity)); err != nil {
		return fmt.Errorf("error sending verification mail: %w", err)
	}
	return nil
}

// VerifyEmail consumes token and marks its user verified. Unknown and expired
// tokens yield ErrInvalidVerificationToken.
func (s *IdentityService) VerifyEmail(ctx context.Context, token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidVerificationToken
	}

	vt, err := s.repomanager.VerificationTokens(s.db).Find(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return ErrInvalidVerificationToken
		}
		return common.ErrorInternal
	}
	if vt.Expires.Before(s.now()) {
		return ErrInvalidVerificationToken
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Users(tx).MarkEmailVerified(ctx, vt.UserID); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrInvalidVerificationToken
			}
			return fmt.Errorf("error marking email verified: %w", err)
		}
		return s.repomanager.VerificationTokens(tx).DeleteByUser(ctx, vt.UserID)
	})
}

// UserIDFromToken validates an access token.
func (s *IdentityService) UserIDFromToken(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

func (s *IdentityService) newSession(user *models.User) (*Session, error) {
	token, err := auth.GenerateToken(user.ID, s.jwtSecret, s.accessTokenValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &Session{User: user, AccessToken: token}, nil
}
