package service

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/cardvault/card-service/internal/apperrors"
	"github.com/cardvault/card-service/internal/config"
	"github.com/cardvault/card-service/internal/models"
	"github.com/cardvault/card-service/internal/vault"
)

// Service handles business logic
type Service struct {
	store    Store
	vault    *vault.Vault
	log      *logrus.Logger
	config   *config.Config
	clock    Clock
	notifier Notifier
}

// NewService initializes a new service
func NewService(store Store, v *vault.Vault, log *logrus.Logger, cfg *config.Config, clock Clock, notifier Notifier) *Service {
	if clock == nil {
		clock = RealClock{}
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{store: store, vault: v, log: log, config: cfg, clock: clock, notifier: notifier}
}

// Claims are the JWT claims issued at login.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Register creates a new user with hashed password
func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	if email == "" || password == "" {
		return nil, apperrors.New(apperrors.KindValidation, "email and password are required")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.log.Infof("User registered: %s", user.Email)
	return user, nil
}

// Login authenticates a user and returns a JWT token
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindUserByEmail(ctx, email)
	if err != nil {
		return "", apperrors.New(apperrors.KindForbidden, "invalid credentials")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", apperrors.New(apperrors.KindForbidden, "invalid credentials")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.Email,
			ExpiresAt: jwt.NewNumericDate(s.clock.Now().Add(24 * time.Hour)),
		},
	})
	tokenString, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	s.log.Infof("User logged in: %s", user.Email)
	return tokenString, nil
}

// resolveUser maps an acting user's email to the stored user record.
func (s *Service) resolveUser(ctx context.Context, email string) (*models.User, error) {
	if email == "" {
		return nil, apperrors.New(apperrors.KindValidation, "user email is required")
	}
	return s.store.FindUserByEmail(ctx, email)
}
