package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/bher20/npahowtopay/internal/storage"
)

// Roles.
const (
	RoleAdmin   = "admin"
	RoleAnalyst = "analyst"
	RoleViewer  = "viewer"
)

// Objects and actions checked by RequirePermission.
const (
	ObjAnalyses = "analyses"
	ObjSettings = "settings"
	ObjTokens   = "tokens"

	ActRead  = "read"
	ActWrite = "write"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrUnknownRole        = errors.New("unknown role")
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (r.obj == p.obj || p.obj == "*") && (r.act == p.act || p.act == "*")
`

var defaultPolicies = [][]string{
	{RoleAdmin, "*", "*"},
	{RoleAnalyst, ObjAnalyses, ActRead},
	{RoleAnalyst, ObjAnalyses, ActWrite},
	{RoleAnalyst, ObjSettings, ActRead},
	{RoleViewer, ObjAnalyses, ActRead},
}

type Service struct {
	storage  storage.Storage
	enforcer *casbin.Enforcer
}

// NewService builds the casbin enforcer on top of the stored policy rules,
// seeding the default role policies into an empty store.
func NewService(s storage.Storage) (*Service, error) {
	m, err := model.NewModelFromString(rbacModel)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m, NewAdapter(s))
	if err != nil {
		return nil, fmt.Errorf("casbin enforcer: %w", err)
	}

	policies, err := e.GetPolicy()
	if err != nil {
		return nil, err
	}
	if len(policies) == 0 {
		log.Printf("auth: seeding default role policies")
		if _, err := e.AddPolicies(defaultPolicies); err != nil {
			return nil, fmt.Errorf("seed policies: %w", err)
		}
	}

	return &Service{storage: s, enforcer: e}, nil
}

// ValidRole reports whether role is one of the built-in roles.
func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

func (s *Service) Authenticate(ctx context.Context, username, password string) (*storage.User, error) {
	u, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Service) Register(ctx context.Context, username, email, password, role string) (*storage.User, error) {
	if !ValidRole(role) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	existing, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	u := storage.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.storage.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	if _, err := s.enforcer.AddGroupingPolicy(u.ID, role); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}
	return &u, nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CreateToken issues a new API token. The raw value is returned once; only
// its hash is stored.
func (s *Service) CreateToken(ctx context.Context, userID, name, role string, expiresAt *time.Time) (*storage.Token, string, error) {
	if !ValidRole(role) {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	raw := uuid.NewString() + uuid.NewString()

	t := storage.Token{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		TokenHash: hashToken(raw),
		Role:      role,
		CreatedAt: time.Now(),
		ExpiresAt: expiresAt,
	}
	if err := s.storage.CreateToken(ctx, t); err != nil {
		return nil, "", err
	}
	return &t, raw, nil
}

func (s *Service) ValidateToken(ctx context.Context, raw string) (*storage.Token, error) {
	t, err := s.storage.GetTokenByHash(ctx, hashToken(raw))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrInvalidToken
	}
	if t.ExpiresAt != nil && t.ExpiresAt.Before(time.Now()) {
		return nil, ErrTokenExpired
	}
	if err := s.storage.UpdateTokenLastUsed(ctx, t.ID); err != nil {
		log.Printf("auth: update token last used: %v", err)
	}
	return t, nil
}

func (s *Service) Enforce(sub, obj, act string) (bool, error) {
	return s.enforcer.Enforce(sub, obj, act)
}

// LoadPolicy reloads the policy rules from storage.
func (s *Service) LoadPolicy() error {
	return s.enforcer.LoadPolicy()
}
