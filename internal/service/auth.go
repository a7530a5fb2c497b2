package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/book-lending/internal/model"
	"github.com/iliyamo/book-lending/internal/repository"
	"github.com/iliyamo/book-lending/internal/utils"
	"github.com/iliyamo/book-lending/internal/validation"
)

// LoginInput identifies a wallet.  No signature is checked.
type LoginInput struct {
	WalletAddress string `json:"walletAddress" validate:"required,ethaddr" msg:"Invalid wallet address format"`
}

// LoginResult is a signed session token and its user.
type LoginResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// AuthService issues and verifies wallet session tokens.
type AuthService struct {
	users  UserStore
	secret string
	ttl    time.Duration
	v      *validation.Validator
	log    logrus.FieldLogger
}

func NewAuthService(s Stores, secret string, ttl time.Duration, v *validation.Validator, log logrus.FieldLogger) *AuthService {
	return &AuthService{users: s.Users, secret: secret, ttl: ttl, v: v, log: log}
}

// Login finds or creates the user for the wallet and signs a token.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.WalletAddress = model.NormalizeAddress(in.WalletAddress)
	if fields := s.v.Check(&in); fields != nil {
		return nil, invalidFields(fields)
	}
	if s.secret == "" {
		return nil, &Error{Kind: KindInternal, Message: "Server configuration error", Err: errors.New("JWT_SECRET is not set")}
	}

	u, err := s.findOrCreate(ctx, in.WalletAddress)
	if err != nil {
		return nil, err
	}
	tok, err := utils.NewAccessToken(s.secret, u.ID, u.WalletAddress, s.ttl)
	if err != nil {
		return nil, &Error{Kind: KindInternal, Message: "Login failed", Err: err}
	}
	return &LoginResult{Token: tok.Token, User: *u}, nil
}

func (s *AuthService) findOrCreate(ctx context.Context, wallet string) (*model.User, error) {
	u, err := s.users.GetByWallet(ctx, wallet)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storage("Login failed", err)
	}

	u = &model.User{ID: uuid.NewString(), WalletAddress: wallet, CreatedAt: now()}
	if err := s.users.Create(ctx, u); err != nil {
		if !errors.Is(err, repository.ErrDuplicate) {
			return nil, storage("Login failed", err)
		}
		// Lost a race with a concurrent first login for the same wallet.
		if u, err = s.users.GetByWallet(ctx, wallet); err != nil {
			return nil, storage("Login failed", err)
		}
		return u, nil
	}
	s.log.WithField("user_id", u.ID).Info("user created")
	return u, nil
}

// Verify checks a raw token and returns the user it belongs to.
func (s *AuthService) Verify(ctx context.Context, raw string) (*model.User, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, &Error{Kind: KindUnauthorized, Message: "Token required"}
	}
	if s.secret == "" {
		return nil, &Error{Kind: KindInternal, Message: "Server configuration error", Err: errors.New("JWT_SECRET is not set")}
	}
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return nil, &Error{Kind: KindForbidden, Message: "Invalid token", Err: err}
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, notFound("User not found")
	}
	if err != nil {
		return nil, storage("Token verification failed", err)
	}
	return u, nil
}
