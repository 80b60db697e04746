package storage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound возвращается, когда запись отсутствует или принадлежит другому пользователю.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate возвращается при нарушении уникальности (email, (user_id, date) и т.п.).
	ErrDuplicate = errors.New("duplicate")
)

// Storage - корневой интерфейс хранилища. Конкретные части доступны через геттеры.
type Storage interface {
	GetUsersStorage() UsersStorage
	GetFoodsStorage() FoodsStorage
	GetFoodLogsStorage() FoodLogsStorage
	GetGoalsStorage() GoalsStorage
	GetSummariesStorage() SummariesStorage
	GetReportsStorage() ReportsStorage

	// Close закрывает соединение (для Postgres)
	Close() error
}

// ---------- Users ----------

// User - учётная запись. ID используется как subject JWT.
type User struct {
	ID           string
	Email        string // lower-case
	PasswordHash string
	Name         string

	// Профиль. nil означает "не заполнено".
	FirstName     *string
	LastName      *string
	Age           *int
	Gender        *string
	WeightKg      *float64
	HeightCm      *float64
	ActivityLevel *string

	// DeactivatedAt выставляется при удалении аккаунта; такой пользователь не может войти.
	DeactivatedAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Active сообщает, что аккаунт не был деактивирован.
func (u *User) Active() bool {
	return u.DeactivatedAt == nil
}

// UserProfileUpdate - изменяемые поля профиля. nil-поля не трогаются.
// Email, пароль и статус аккаунта сюда намеренно не входят.
type UserProfileUpdate struct {
	FirstName     *string
	LastName      *string
	Age           *int
	Gender        *string
	WeightKg      *float64
	HeightCm      *float64
	ActivityLevel *string
}

type UsersStorage interface {
	// CreateUser возвращает ErrDuplicate, если email уже занят
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByEmail(ctx context.Context, email string) (*User, error)
	// UpdateUserProfile применяет только непустые поля update и возвращает итоговую запись
	UpdateUserProfile(ctx context.Context, id string, update UserProfileUpdate) (*User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
	// DeactivateUser повторно не меняет время деактивации
	DeactivateUser(ctx context.Context, id string) error
}

// ---------- Foods ----------

const (
	FoodSourceUserCreated    = "user_created"
	FoodSourceExternalSource = "external_source"
)

// Food - запись каталога продуктов. Значения нутриентов указаны на 100 г.
type Food struct {
	ID                 uuid.UUID
	Name               string
	Brand              *string
	Calories           *float64
	ProteinG           *float64
	CarbsG             *float64
	FatG               *float64
	FiberG             *float64
	SugarG             *float64
	SodiumMg           *float64
	ServingSize        *string
	ServingWeightGrams *float64
	Category           *string
	Source             string // user_created | external_source
	ExternalID         *string
	CreatedAt          time.Time
}

type FoodsStorage interface {
	CreateFood(ctx context.Context, food *Food) error
	GetFood(ctx context.Context, id uuid.UUID) (*Food, error)

	// FindFoodByName ищет сначала точное совпадение без учёта регистра, затем подстроку
	FindFoodByName(ctx context.Context, name string) (*Food, error)

	// GetFoodByExternalID ищет продукт, ранее импортированный из внешней базы
	GetFoodByExternalID(ctx context.Context, externalID string) (*Food, error)

	// SearchFoods ищет по подстроке в имени или бренде, сортировка по имени
	SearchFoods(ctx context.Context, query string, limit int) ([]Food, error)
}

// ---------- Food logs ----------

// Nutrients - семь отслеживаемых нутриентов (кэш на записи журнала, суммы в сводке).
type Nutrients struct {
	Calories float64
	ProteinG float64
	CarbsG   float64
	FatG     float64
	FiberG   float64
	SugarG   float64
	SodiumMg float64
}

// FoodLog - запись журнала питания с моментальным снимком нутриентов.
type FoodLog struct {
	ID          uuid.UUID
	UserID      string
	FoodID      uuid.UUID
	Quantity    float64
	Unit        string
	WeightGrams float64
	MealType    string // breakfast | lunch | dinner | snack | other
	MealTime    time.Time
	Notes       *string
	Nutrients   Nutrients
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// FoodLogFilter выбирает записи с MealTime в полуинтервале [From, To).
type FoodLogFilter struct {
	From     *time.Time
	To       *time.Time
	MealType string
}

type FoodLogsStorage interface {
	CreateFoodLog(ctx context.Context, log *FoodLog) error
	GetFoodLog(ctx context.Context, userID string, id uuid.UUID) (*FoodLog, error)
	UpdateFoodLog(ctx context.Context, log *FoodLog) error
	DeleteFoodLog(ctx context.Context, userID string, id uuid.UUID) error

	// ListFoodLogs возвращает записи пользователя, сортировка meal_time DESC
	ListFoodLogs(ctx context.Context, userID string, filter FoodLogFilter) ([]FoodLog, error)
}

// ---------- Goals ----------

// GoalTargets - перезаписываемые поля цели.
type GoalTargets struct {
	DailyCalories        int
	DailyProteinG        float64
	DailyCarbsG          float64
	DailyFatG            float64
	DailyFiberG          *float64
	DailySugarG          *float64
	DailySodiumMg        *float64
	TargetWeightKg       *float64
	WeeklyWeightChangeKg *float64
	DailyWaterMl         *int
	DailySteps           *int
	Description          *string
	GoalType             string
	EndDate              *string // YYYY-MM-DD
}

// Goal - версия цели пользователя. Активной может быть не более одной.
type Goal struct {
	ID        uuid.UUID
	UserID    string
	StartDate string // YYYY-MM-DD
	IsActive  bool
	GoalTargets
	CreatedAt time.Time
	UpdatedAt time.Time
}

type GoalsStorage interface {
	// CreateActiveGoal атомарно деактивирует все цели пользователя и вставляет новую активную
	CreateActiveGoal(ctx context.Context, userID string, startDate string, targets GoalTargets) (*Goal, error)

	// ActivateGoal атомарно деактивирует остальные цели и активирует указанную
	ActivateGoal(ctx context.Context, userID string, id uuid.UUID) error

	DeactivateGoal(ctx context.Context, userID string, id uuid.UUID) error
	UpdateGoal(ctx context.Context, userID string, id uuid.UUID, targets GoalTargets) (*Goal, error)
	GetGoal(ctx context.Context, userID string, id uuid.UUID) (*Goal, error)

	// GetActiveGoal возвращает ErrNotFound, если активной цели нет
	GetActiveGoal(ctx context.Context, userID string) (*Goal, error)

	// ListGoals возвращает историю, сортировка created_at DESC
	ListGoals(ctx context.Context, userID string) ([]Goal, error)
}

// ---------- Daily summaries ----------

// DailySummary - материализованная сводка за календарный день.
type DailySummary struct {
	ID               uuid.UUID
	UserID           string
	Date             string // YYYY-MM-DD
	Totals           Nutrients
	CaloriesGoal     *float64
	ProteinGoal      *float64
	CarbsGoal        *float64
	FatGoal          *float64
	CaloriesProgress *float64
	ProteinProgress  *float64
	CarbsProgress    *float64
	FatProgress      *float64
	TotalMeals       int
	TotalSnacks      int
	CreatedAt        time.Time
}

type SummariesStorage interface {
	GetSummary(ctx context.Context, userID string, date string) (*DailySummary, error)

	// InsertSummary возвращает ErrDuplicate, если сводка за (user_id, date) уже есть
	InsertSummary(ctx context.Context, summary *DailySummary) error

	// DeleteSummary удаляет устаревшую сводку; отсутствие строки не ошибка
	DeleteSummary(ctx context.Context, userID string, date string) error

	// ListSummaries возвращает сводки за [from, to] по возрастанию даты
	ListSummaries(ctx context.Context, userID string, from, to string) ([]DailySummary, error)
}

// ---------- Reports ----------

// ReportsStorage - интерфейс для работы с отчётами
type ReportsStorage interface {
	// CreateReport сохраняет метаданные; сам файл лежит в blob.Store под ObjectKey
	CreateReport(ctx context.Context, report *ReportMeta) error

	// GetReport возвращает отчёт пользователя по ID
	GetReport(ctx context.Context, userID string, id uuid.UUID) (*ReportMeta, error)

	// ListReports возвращает список отчётов пользователя с пагинацией
	ListReports(ctx context.Context, userID string, limit, offset int) ([]ReportMeta, error)

	// DeleteReport удаляет отчёт (metadata и данные)
	DeleteReport(ctx context.Context, userID string, id uuid.UUID) error
}

// ReportMeta - метаданные отчёта
type ReportMeta struct {
	ID        uuid.UUID
	UserID    string
	Format    string  // "pdf" or "csv"
	FromDate  string  // YYYY-MM-DD
	ToDate    string  // YYYY-MM-DD
	ObjectKey *string // ключ в blob.Store (NULL, если генерация не удалась)
	SizeBytes int64
	Status    string // "ready" or "failed"
	Error     *string
	CreatedAt time.Time
}
