package auth

import (
	"context"
	"errors"

	"github.com/casbin/casbin/v2/model"
	"github.com/casbin/casbin/v2/persist"

	"github.com/bher20/npahowtopay/internal/storage"
)

// Adapter implements the Casbin persist.Adapter interface using storage.Storage.
type Adapter struct {
	storage storage.Storage
}

// NewAdapter returns a new Casbin adapter.
func NewAdapter(s storage.Storage) *Adapter {
	return &Adapter{storage: s}
}

// LoadPolicy loads all policy rules from the storage.
func (a *Adapter) LoadPolicy(m model.Model) error {
	rules, err := a.storage.LoadCasbinRules(context.Background())
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if err := persist.LoadPolicyArray(append([]string{rule.PType}, rule.Fields()...), m); err != nil {
			return err
		}
	}
	return nil
}

// SavePolicy is unsupported; policies are persisted incrementally through
// AddPolicy and RemovePolicy.
func (a *Adapter) SavePolicy(m model.Model) error {
	return errors.New("not implemented")
}

// AddPolicy adds a policy rule to the storage.
func (a *Adapter) AddPolicy(sec string, ptype string, rule []string) error {
	return a.storage.AddCasbinRule(context.Background(), storage.NewCasbinRule(ptype, rule))
}

// RemovePolicy removes a policy rule from the storage.
func (a *Adapter) RemovePolicy(sec string, ptype string, rule []string) error {
	return a.storage.RemoveCasbinRule(context.Background(), storage.NewCasbinRule(ptype, rule))
}

// RemoveFilteredPolicy removes every rule of ptype whose fields starting at
// fieldIndex equal fieldValues. Empty filter values match anything.
func (a *Adapter) RemoveFilteredPolicy(sec string, ptype string, fieldIndex int, fieldValues ...string) error {
	ctx := context.Background()
	rules, err := a.storage.LoadCasbinRules(ctx)
	if err != nil {
		return err
	}
	for _, rule := range rules {
		if rule.PType != ptype || !matchesFilter(rule, fieldIndex, fieldValues) {
			continue
		}
		if err := a.storage.RemoveCasbinRule(ctx, rule); err != nil {
			return err
		}
	}
	return nil
}

func matchesFilter(rule storage.CasbinRule, fieldIndex int, fieldValues []string) bool {
	vals := []string{rule.V0, rule.V1, rule.V2, rule.V3, rule.V4, rule.V5}
	for i, want := range fieldValues {
		idx := fieldIndex + i
		if idx >= len(vals) {
			return false
		}
		if want != "" && vals[idx] != want {
			return false
		}
	}
	return true
}
