package profiles

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/fdg312/nutrition-hub/internal/storage"
	"github.com/fdg312/nutrition-hub/internal/userctx"
)

const defaultUserID = "default"

var (
	ErrNotFound       = errors.New("profile not found")
	ErrInvalidProfile = errors.New("invalid profile")
)

var (
	genders        = map[string]bool{"male": true, "female": true, "other": true}
	activityLevels = map[string]bool{
		"sedentary":         true,
		"lightly_active":    true,
		"moderately_active": true,
		"very_active":       true,
		"extremely_active":  true,
	}
)

// Service содержит бизнес-логику профиля
type Service struct {
	users storage.UsersStorage
}

// NewService создаёт новый сервис
func NewService(users storage.UsersStorage) *Service {
	return &Service{users: users}
}

// GetProfile возвращает профиль текущего пользователя
func (s *Service) GetProfile(ctx context.Context) (*ProfileDTO, error) {
	user, err := s.ownUser(ctx)
	if err != nil {
		return nil, err
	}
	dto := toDTO(user)
	return &dto, nil
}

// UpdateProfile валидирует и применяет только переданные поля
func (s *Service) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*ProfileDTO, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	user, err := s.ownUser(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := s.users.UpdateUserProfile(ctx, user.ID, storage.UserProfileUpdate{
		FirstName:     trimmed(req.FirstName),
		LastName:      trimmed(req.LastName),
		Age:           req.Age,
		Gender:        req.Gender,
		WeightKg:      req.WeightKg,
		HeightCm:      req.HeightCm,
		ActivityLevel: req.ActivityLevel,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}

	dto := toDTO(updated)
	return &dto, nil
}

func validate(req UpdateProfileRequest) error {
	if req.Age != nil && (*req.Age < 0 || *req.Age > 120) {
		return fmt.Errorf("%w: age must be between 0 and 120", ErrInvalidProfile)
	}
	if req.Gender != nil && !genders[*req.Gender] {
		return fmt.Errorf("%w: gender must be male, female or other", ErrInvalidProfile)
	}
	if req.WeightKg != nil && (math.IsNaN(*req.WeightKg) || *req.WeightKg < 0 || *req.WeightKg > 500) {
		return fmt.Errorf("%w: weight_kg must be between 0 and 500", ErrInvalidProfile)
	}
	if req.HeightCm != nil && (math.IsNaN(*req.HeightCm) || *req.HeightCm < 0 || *req.HeightCm > 300) {
		return fmt.Errorf("%w: height_cm must be between 0 and 300", ErrInvalidProfile)
	}
	if req.ActivityLevel != nil && !activityLevels[*req.ActivityLevel] {
		return fmt.Errorf("%w: unknown activity_level %q", ErrInvalidProfile, *req.ActivityLevel)
	}
	return nil
}

// BMI - индекс массы тела с точностью до сотых; nil, пока вес или рост не заданы
func BMI(weightKg, heightCm *float64) *float64 {
	if weightKg == nil || heightCm == nil || *weightKg <= 0 || *heightCm <= 0 {
		return nil
	}
	m := *heightCm / 100
	v := math.Round(*weightKg/(m*m)*100) / 100
	return &v
}

func toDTO(u *storage.User) ProfileDTO {
	return ProfileDTO{
		ID:            u.ID,
		Email:         u.Email,
		Name:          u.Name,
		FirstName:     u.FirstName,
		LastName:      u.LastName,
		Age:           u.Age,
		Gender:        u.Gender,
		WeightKg:      u.WeightKg,
		HeightCm:      u.HeightCm,
		ActivityLevel: u.ActivityLevel,
		BMI:           BMI(u.WeightKg, u.HeightCm),
		CreatedAt:     u.CreatedAt,
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	return &v
}

func userIDFromContext(ctx context.Context) string {
	if userID, ok := userctx.GetUserID(ctx); ok && strings.TrimSpace(userID) != "" {
		return userID
	}
	return defaultUserID
}

// ownUser загружает пользователя из контекста. Для default-пользователя
// (AUTH_MODE=none) запись создаётся при первом обращении.
func (s *Service) ownUser(ctx context.Context) (*storage.User, error) {
	userID := userIDFromContext(ctx)

	user, err := s.users.GetUser(ctx, userID)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if userID != defaultUserID {
		return nil, ErrNotFound
	}

	err = s.users.CreateUser(ctx, &storage.User{ID: defaultUserID, Email: "default@localhost"})
	if err != nil && !errors.Is(err, storage.ErrDuplicate) {
		return nil, fmt.Errorf("create default user: %w", err)
	}
	user, err = s.users.GetUser(ctx, defaultUserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}
