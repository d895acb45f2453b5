package storage

import (
	"context"
	"time"
)

// Storage abstracts persistence for analyses, their scenario results and the
// accounts that may access them. Getters return (nil, nil) when nothing matches.
type Storage interface {
	// Analyses
	CreateAnalysis(ctx context.Context, a Analysis) error
	UpdateAnalysis(ctx context.Context, a Analysis) error
	GetAnalysis(ctx context.Context, id string) (*Analysis, error)
	// ListAnalyses returns the most recent analyses first; limit <= 0 means all.
	ListAnalyses(ctx context.Context, limit int) ([]Analysis, error)
	SaveScenarioResults(ctx context.Context, results []ScenarioResult) error
	GetScenarioResults(ctx context.Context, analysisID string) ([]ScenarioResult, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Users
	CreateUser(ctx context.Context, user User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)

	// Tokens
	CreateToken(ctx context.Context, token Token) error
	GetTokenByHash(ctx context.Context, hash string) (*Token, error)
	ListTokens(ctx context.Context, userID string) ([]Token, error)
	DeleteToken(ctx context.Context, id string) error
	UpdateTokenLastUsed(ctx context.Context, id string) error

	// Casbin rules
	LoadCasbinRules(ctx context.Context) ([]CasbinRule, error)
	AddCasbinRule(ctx context.Context, rule CasbinRule) error
	RemoveCasbinRule(ctx context.Context, rule CasbinRule) error

	// Email config
	GetEmailConfig(ctx context.Context) (*EmailConfig, error)
	SaveEmailConfig(ctx context.Context, cfg EmailConfig) error

	// Scheduled jobs
	UpdateScheduledJob(ctx context.Context, name string, started time.Time, dur time.Duration, success bool, errMsg string) error
	GetScheduledJob(ctx context.Context, name string) (*ScheduledJob, error)

	Ping(ctx context.Context) error
	// Close releases any resources (no-op for in-memory).
	Close() error
}

// Locker is implemented by backends that can take a cluster-wide lock so
// only one worker runs a scheduled job at a time.
type Locker interface {
	AcquireAdvisoryLock(ctx context.Context, key int64) (bool, error)
	ReleaseAdvisoryLock(ctx context.Context, key int64) (bool, error)
}
