package profiles

import "time"

// ProfileDTO - профиль пользователя для API (GET/PUT /v1/users/profile)
type ProfileDTO struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	Name          string    `json:"name,omitempty"`
	FirstName     *string   `json:"first_name"`
	LastName      *string   `json:"last_name"`
	Age           *int      `json:"age"`
	Gender        *string   `json:"gender"`
	WeightKg      *float64  `json:"weight_kg"`
	HeightCm      *float64  `json:"height_cm"`
	ActivityLevel *string   `json:"activity_level"`
	BMI           *float64  `json:"bmi"`
	CreatedAt     time.Time `json:"created_at"`
}

// UpdateProfileRequest - запрос для PUT /v1/users/profile. Отсутствующие поля не меняются.
type UpdateProfileRequest struct {
	FirstName     *string  `json:"first_name"`
	LastName      *string  `json:"last_name"`
	Age           *int     `json:"age"`
	Gender        *string  `json:"gender"`
	WeightKg      *float64 `json:"weight_kg"`
	HeightCm      *float64 `json:"height_cm"`
	ActivityLevel *string  `json:"activity_level"`
}

// ErrorResponse - формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
