package storage

import "time"

// Analysis status values.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Analysis is one execution of every scenario over a parameter set.
// Request holds the submitted parameters as JSON so the run can be repeated;
// Deltas holds the BAU delta table as JSON.
type Analysis struct {
	ID          string     `json:"id" gorm:"primaryKey;column:id"`
	RunName     string     `json:"run_name" gorm:"column:run_name;index"`
	Source      string     `json:"source" gorm:"column:source"`
	StartYear   int        `json:"start_year" gorm:"column:start_year"`
	EndYear     int        `json:"end_year" gorm:"column:end_year"`
	Status      string     `json:"status" gorm:"column:status"`
	Error       string     `json:"error,omitempty" gorm:"column:error"`
	Request     []byte     `json:"-" gorm:"column:request"`
	Deltas      []byte     `json:"-" gorm:"column:deltas"`
	CreatedAt   time.Time  `json:"created_at" gorm:"column:created_at;index"`
	CompletedAt *time.Time `json:"completed_at,omitempty" gorm:"column:completed_at"`
}

// ScenarioResult stores the per-year table of one scenario of an analysis as JSON.
type ScenarioResult struct {
	ID         uint   `json:"-" gorm:"primaryKey;column:id"`
	AnalysisID string `json:"analysis_id" gorm:"column:analysis_id;uniqueIndex:idx_result_scenario"`
	ScenarioID string `json:"scenario_id" gorm:"column:scenario_id;uniqueIndex:idx_result_scenario"`
	Rows       []byte `json:"rows" gorm:"column:payload"`
}

// User represents a registered user in the system.
type User struct {
	ID           string    `json:"id" gorm:"primaryKey;column:id"`
	Username     string    `json:"username" gorm:"unique;column:username"`
	Email        string    `json:"email" gorm:"column:email"`
	PasswordHash string    `json:"-" gorm:"column:password_hash"`
	Role         string    `json:"role" gorm:"column:role"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Token represents an API access token.
type Token struct {
	ID         string     `json:"id" gorm:"primaryKey;column:id"`
	UserID     string     `json:"user_id" gorm:"column:user_id"`
	Name       string     `json:"name" gorm:"column:name"`
	TokenHash  string     `json:"-" gorm:"column:token_hash;index"`
	Role       string     `json:"role" gorm:"column:role"`
	CreatedAt  time.Time  `json:"created_at" gorm:"column:created_at"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty" gorm:"column:expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty" gorm:"column:last_used_at"`
}

// CasbinRule represents a policy rule for RBAC.
type CasbinRule struct {
	ID    uint   `gorm:"primaryKey"`
	PType string `json:"ptype" gorm:"column:ptype"`
	V0    string `json:"v0" gorm:"column:v0"`
	V1    string `json:"v1" gorm:"column:v1"`
	V2    string `json:"v2" gorm:"column:v2"`
	V3    string `json:"v3" gorm:"column:v3"`
	V4    string `json:"v4" gorm:"column:v4"`
	V5    string `json:"v5" gorm:"column:v5"`
}

// Fields returns the non-empty rule values in order.
func (r CasbinRule) Fields() []string {
	out := make([]string, 0, 6)
	for _, v := range []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5} {
		if v == "" {
			break
		}
		out = append(out, v)
	}
	return out
}

// NewCasbinRule builds a rule row from a policy line.
func NewCasbinRule(ptype string, rule []string) CasbinRule {
	r := CasbinRule{PType: ptype}
	slots := []*string{&r.V0, &r.V1, &r.V2, &r.V3, &r.V4, &r.V5}
	for i, v := range rule {
		if i >= len(slots) {
			break
		}
		*slots[i] = v
	}
	return r
}

// EmailConfig holds configuration for analysis summary emails.
type EmailConfig struct {
	ID          string    `json:"id" gorm:"primaryKey;column:id"`
	Provider    string    `json:"provider" gorm:"column:provider"` // "smtp" or "sendgrid"
	Host        string    `json:"host,omitempty" gorm:"column:host"`
	Port        int       `json:"port,omitempty" gorm:"column:port"`
	Username    string    `json:"username,omitempty" gorm:"column:username"`
	Password    string    `json:"password,omitempty" gorm:"column:password"`
	Encryption  string    `json:"encryption,omitempty" gorm:"column:encryption"` // "none", "tls" or "ssl"
	FromAddress string    `json:"from_address" gorm:"column:from_address"`
	FromName    string    `json:"from_name" gorm:"column:from_name"`
	APIKey      string    `json:"api_key,omitempty" gorm:"column:api_key"`
	Recipients  string    `json:"recipients" gorm:"column:recipients"` // comma separated
	Enabled     bool      `json:"enabled" gorm:"column:enabled"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

// Setting is a key/value runtime setting.
type Setting struct {
	Key       string    `gorm:"primaryKey;column:key"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// ScheduledJob records the last execution of a scheduled job.
type ScheduledJob struct {
	Name           string    `json:"name" gorm:"primaryKey;column:name"`
	LastRunAt      time.Time `json:"last_run_at" gorm:"column:last_run_at"`
	LastDurationMs int64     `json:"last_duration_ms" gorm:"column:last_duration_ms"`
	LastSuccess    bool      `json:"last_success" gorm:"column:last_success"`
	LastError      string    `json:"last_error,omitempty" gorm:"column:last_error"`
}
