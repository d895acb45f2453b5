package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// GormStorage persists to sqlite or postgres through GORM.
type GormStorage struct {
	db *gorm.DB
}

func NewGormStorage(driver, dsn string) (*GormStorage, error) {
	var dialector gorm.Dialector
	switch driver {
	case "postgres", "postgrespool":
		dialector = postgres.Open(dsn)
	case "sqlite":
		if dsn == "" {
			dsn = "npahowtopay.db"
		}
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}
	return &GormStorage{db: db}, nil
}

// DB exposes the underlying connection for goose migrations.
func (s *GormStorage) DB() (*sql.DB, error) {
	return s.db.DB()
}

// Dialect reports "postgres" or "sqlite".
func (s *GormStorage) Dialect() string {
	return s.db.Dialector.Name()
}

// Migrate creates or updates every table with AutoMigrate.
func (s *GormStorage) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(
		&Analysis{},
		&ScenarioResult{},
		&Setting{},
		&User{},
		&Token{},
		&CasbinRule{},
		&EmailConfig{},
		&ScheduledJob{},
	)
}

func first[T any](tx *gorm.DB, conds ...any) (*T, error) {
	var out T
	if err := tx.First(&out, conds...).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &out, nil
}

// Analyses

func (s *GormStorage) CreateAnalysis(ctx context.Context, a Analysis) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	return s.db.WithContext(ctx).Create(&a).Error
}

func (s *GormStorage) UpdateAnalysis(ctx context.Context, a Analysis) error {
	res := s.db.WithContext(ctx).Model(&Analysis{}).Where("id = ?", a.ID).Updates(map[string]any{
		"status":       a.Status,
		"error":        a.Error,
		"deltas":       a.Deltas,
		"completed_at": a.CompletedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("analysis %s not found", a.ID)
	}
	return nil
}

func (s *GormStorage) GetAnalysis(ctx context.Context, id string) (*Analysis, error) {
	return first[Analysis](s.db.WithContext(ctx), "id = ?", id)
}

func (s *GormStorage) ListAnalyses(ctx context.Context, limit int) ([]Analysis, error) {
	var out []Analysis
	tx := s.db.WithContext(ctx).Omit("request", "deltas").Order("created_at desc")
	if limit > 0 {
		tx = tx.Limit(limit)
	}
	return out, tx.Find(&out).Error
}

func (s *GormStorage) SaveScenarioResults(ctx context.Context, results []ScenarioResult) error {
	if len(results) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "analysis_id"}, {Name: "scenario_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload"}),
	}).Create(&results).Error
}

func (s *GormStorage) GetScenarioResults(ctx context.Context, analysisID string) ([]ScenarioResult, error) {
	var out []ScenarioResult
	err := s.db.WithContext(ctx).Where("analysis_id = ?", analysisID).Order("scenario_id").Find(&out).Error
	return out, err
}

// Settings

func (s *GormStorage) GetSetting(ctx context.Context, key string) (string, error) {
	setting, err := first[Setting](s.db.WithContext(ctx), "key = ?", key)
	if err != nil || setting == nil {
		return "", err
	}
	return setting.Value, nil
}

func (s *GormStorage) SetSetting(ctx context.Context, key, value string) error {
	setting := Setting{Key: key, Value: value, UpdatedAt: time.Now()}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		UpdateAll: true,
	}).Create(&setting).Error
}

// Users

func (s *GormStorage) CreateUser(ctx context.Context, user User) error {
	return s.db.WithContext(ctx).Create(&user).Error
}

func (s *GormStorage) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return first[User](s.db.WithContext(ctx), "username = ?", username)
}

func (s *GormStorage) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	return users, s.db.WithContext(ctx).Order("username").Find(&users).Error
}

// Tokens

func (s *GormStorage) CreateToken(ctx context.Context, token Token) error {
	return s.db.WithContext(ctx).Create(&token).Error
}

func (s *GormStorage) GetTokenByHash(ctx context.Context, hash string) (*Token, error) {
	return first[Token](s.db.WithContext(ctx), "token_hash = ?", hash)
}

func (s *GormStorage) ListTokens(ctx context.Context, userID string) ([]Token, error) {
	var tokens []Token
	return tokens, s.db.WithContext(ctx).Find(&tokens, "user_id = ?", userID).Error
}

func (s *GormStorage) DeleteToken(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Delete(&Token{}, "id = ?", id).Error
}

func (s *GormStorage) UpdateTokenLastUsed(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Model(&Token{}).Where("id = ?", id).Update("last_used_at", time.Now()).Error
}

// Casbin rules

func (s *GormStorage) LoadCasbinRules(ctx context.Context) ([]CasbinRule, error) {
	var rules []CasbinRule
	return rules, s.db.WithContext(ctx).Order("id").Find(&rules).Error
}

func (s *GormStorage) AddCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Create(&rule).Error
}

func (s *GormStorage) RemoveCasbinRule(ctx context.Context, rule CasbinRule) error {
	return s.db.WithContext(ctx).Where(map[string]any{
		"ptype": rule.PType,
		"v0":    rule.V0, "v1": rule.V1, "v2": rule.V2,
		"v3": rule.V3, "v4": rule.V4, "v5": rule.V5,
	}).Delete(&CasbinRule{}).Error
}

// Email config

func (s *GormStorage) GetEmailConfig(ctx context.Context) (*EmailConfig, error) {
	return first[EmailConfig](s.db.WithContext(ctx))
}

func (s *GormStorage) SaveEmailConfig(ctx context.Context, cfg EmailConfig) error {
	if cfg.ID == "" {
		cfg.ID = "default"
	}
	cfg.UpdatedAt = time.Now()
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = cfg.UpdatedAt
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&cfg).Error
}

// Scheduled jobs & locking

func (s *GormStorage) UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error {
	job := ScheduledJob{
		Name:           name,
		LastRunAt:      started,
		LastDurationMs: dur.Milliseconds(),
		LastSuccess:    success,
		LastError:      errMsg,
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		UpdateAll: true,
	}).Create(&job).Error
}

func (s *GormStorage) GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error) {
	return first[ScheduledJob](s.db.WithContext(ctx), "name = ?", name)
}

// AcquireAdvisoryLock always succeeds: sqlite deployments run a single
// worker. PostgresPoolStorage overrides this with a session lock.
func (s *GormStorage) AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

func (s *GormStorage) ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error) {
	return true, nil
}

// Close & Ping

func (s *GormStorage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStorage) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
