package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/fdg312/nutrition-hub/internal/config"
	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DefaultUserID is the acting user when AUTH_MODE=none or no token was sent
// to an endpoint that does not require one.
const DefaultUserID = "default"

const (
	devUserID                = "dev-user"
	devTTL                   = 30 * 24 * time.Hour
	defaultMinPasswordLength = 8
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountInactive    = errors.New("account is deactivated")
	ErrWrongPassword      = errors.New("current password is incorrect")
)

// Service - сервис авторизации
type Service struct {
	config *config.Config
	users  storage.UsersStorage
	now    func() time.Time
}

func NewService(cfg *config.Config, users storage.UsersStorage) *Service {
	return &Service{
		config: cfg,
		users:  users,
		now:    time.Now,
	}
}

// Register creates a password account and signs it in.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		return nil, fmt.Errorf("%w: email is invalid", ErrInvalidInput)
	}
	if err := s.checkPassword(req.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &storage.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: string(hash),
		Name:         strings.TrimSpace(req.Name),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user.ID, s.ttl())
}

// Login checks the password with bcrypt and issues a token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*TokenResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}

	return s.issue(user.ID, s.ttl())
}

// Refresh issues a fresh token for an already authenticated account.
func (s *Service) Refresh(ctx context.Context, userID string) (*TokenResponse, error) {
	if _, err := s.activeUser(ctx, userID); err != nil {
		return nil, err
	}
	if userID == devUserID {
		return s.issue(userID, devTTL)
	}
	return s.issue(userID, s.ttl())
}

// ChangePassword replaces the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, userID string, req ChangePasswordRequest) error {
	user, err := s.activeUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)) != nil {
		return ErrWrongPassword
	}
	if err := s.checkPassword(req.NewPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return nil
}

// DeactivateAccount - мягкое удаление: данные остаются, вход и токены перестают работать
func (s *Service) DeactivateAccount(ctx context.Context, userID string) error {
	if userID == DefaultUserID {
		return ErrUserNotFound
	}
	if err := s.users.DeactivateUser(ctx, userID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("deactivate user: %w", err)
	}
	return nil
}

// Authorize confirms that a token subject still belongs to an active account.
func (s *Service) Authorize(ctx context.Context, userID string) error {
	_, err := s.activeUser(ctx, userID)
	return err
}

func (s *Service) activeUser(ctx context.Context, userID string) (*storage.User, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	if !user.Active() {
		return nil, ErrAccountInactive
	}
	return user, nil
}

// checkPassword требует минимальную длину, заглавную и строчную буквы и цифру
func (s *Service) checkPassword(password string) error {
	minLen := s.config.PasswordMinLength
	if minLen <= 0 {
		minLen = defaultMinPasswordLength
	}
	if len(password) < minLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidInput, minLen)
	}

	var upper, lower, digit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	switch {
	case !upper:
		return fmt.Errorf("%w: password must contain an uppercase letter", ErrInvalidInput)
	case !lower:
		return fmt.Errorf("%w: password must contain a lowercase letter", ErrInvalidInput)
	case !digit:
		return fmt.Errorf("%w: password must contain a digit", ErrInvalidInput)
	}
	return nil
}

// SignInDev - dev-авторизация без пароля, выдает JWT на 30 дней
func (s *Service) SignInDev(ctx context.Context) (*TokenResponse, error) {
	if user, err := s.users.GetUser(ctx, devUserID); errors.Is(err, storage.ErrNotFound) {
		err := s.users.CreateUser(ctx, &storage.User{
			ID:    devUserID,
			Email: "dev@localhost",
			Name:  "Developer",
		})
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return nil, fmt.Errorf("create dev user: %w", err)
		}
	} else if err != nil {
		return nil, fmt.Errorf("get dev user: %w", err)
	} else if !user.Active() {
		return nil, ErrAccountInactive
	}

	return s.issue(devUserID, devTTL)
}

// CurrentUser returns the account behind userID. The default user of
// AUTH_MODE=none may have no row and is then returned as a bare record.
func (s *Service) CurrentUser(ctx context.Context, userID string) (*UserDTO, error) {
	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			if userID == DefaultUserID {
				return &UserDTO{ID: DefaultUserID}, nil
			}
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		Name:      user.Name,
		CreatedAt: user.CreatedAt,
	}, nil
}

func (s *Service) ttl() time.Duration {
	return time.Duration(s.config.JWTTTLMinutes) * time.Minute
}

func (s *Service) issue(userID string, ttl time.Duration) (*TokenResponse, error) {
	token, err := s.generateJWTWithTTL(userID, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to generate JWT: %w", err)
	}
	return &TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      userID,
	}, nil
}

func (s *Service) generateJWTWithTTL(userID string, ttl time.Duration) (string, error) {
	now := s.now()
	exp := now.Add(ttl)

	claims := jwt.MapClaims{
		"sub": userID,
		"iss": s.config.JWTIssuer,
		"exp": exp.Unix(),
		"iat": now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// VerifyJWT - проверка JWT токена, возвращает sub
func (s *Service) VerifyJWT(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.JWTIssuer))

	if err != nil {
		return "", ErrInvalidToken
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		sub, ok := claims["sub"].(string)
		if !ok || sub == "" {
			return "", ErrInvalidToken
		}
		return sub, nil
	}

	return "", ErrInvalidToken
}
