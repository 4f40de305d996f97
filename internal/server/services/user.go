package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dmitrijs2005/listings/internal/apperr"
	"github.com/dmitrijs2005/listings/internal/common"
	"github.com/dmitrijs2005/listings/internal/logging"
	"github.com/dmitrijs2005/listings/internal/server/auth"
	"github.com/dmitrijs2005/listings/internal/server/config"
	"github.com/dmitrijs2005/listings/internal/server/models"
	"github.com/dmitrijs2005/listings/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/listings/internal/server/validation"
)

// AuthData is the result of a successful login.
type AuthData struct {
	Token  string
	UserID string
}

// UserService registers users and logs them in.
type UserService struct {
	repomanager                 repomanager.RepositoryManager
	log                         logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
	bcryptCost                  int
	clock                       *clock
}

// NewUserService returns a UserService that signs tokens with cfg.SecretKey.
func NewUserService(m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger) *UserService {
	return &UserService{
		repomanager:                 m,
		log:                         log,
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
		bcryptCost:                  cfg.BcryptCost,
		clock:                       newClock(nil),
	}
}

// Register creates a user. The email is lowercased before validation and
// lookup, so registrations differing only in case collide.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*models.User, error) {
	email = strings.ToLower(email)

	if details := validation.ValidateSignup(email, name, password); details != nil {
		return nil, apperr.Validation(details)
	}

	repo := s.repomanager.Users()

	_, err := repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, apperr.Conflict("That user already exists")
	case !errors.Is(err, common.ErrorNotFound):
		return nil, internalError(ctx, s.log, "lookup user", err)
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return nil, internalError(ctx, s.log, "hash password", err)
	}

	now := s.clock.stamp()
	user, err := repo.Create(ctx, &models.User{
		ID:           newID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		ProductIDs:   []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, apperr.Conflict("That user already exists")
		}
		return nil, internalError(ctx, s.log, "create user", err)
	}

	s.log.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and issues a session token.
//
// Unknown email and wrong password are reported differently, which lets a
// caller find out which addresses are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthData, error) {
	email = strings.ToLower(email)

	user, err := s.repomanager.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.Unauthorized("No user found.")
		}
		return nil, internalError(ctx, s.log, "lookup user", err)
	}

	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, internalError(ctx, s.log, "check password", err)
	}
	if !ok {
		return nil, apperr.Unauthorized("Password is incorrect.")
	}

	token, err := auth.GenerateToken(auth.Identity{UserID: user.ID, Email: user.Email}, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, internalError(ctx, s.log, "generate token", err)
	}

	return &AuthData{Token: token, UserID: user.ID}, nil
}

// GetByID loads a user for nested resolution.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repomanager.Users().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, apperr.NotFound("No user found.")
		}
		return nil, internalError(ctx, s.log, "get user", err)
	}
	return user, nil
}
