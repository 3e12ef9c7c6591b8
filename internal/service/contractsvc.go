package service

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"contractdesk/internal/domain"
)

type ContractsStore interface {
	Create(ctx context.Context, fields []domain.Field) (domain.Contract, error)
	Update(ctx context.Context, id int64, fields []domain.Field) (domain.Contract, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, id int64) (domain.Contract, error)
	List(ctx context.Context, limit, offset int) ([]domain.Contract, error)
}

// LookupResolver turns a human-readable name into a surrogate id. A miss
// is (0, false, nil), not an error.
type LookupResolver interface {
	ResolveName(ctx context.Context, name string) (int64, bool, error)
}

type ContractService struct {
	Contracts  ContractsStore
	Categories LookupResolver
	Statuses   LookupResolver
	Now        func() time.Time
}

func (s *ContractService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

const (
	listLimitDefault = 200
	listLimitMax     = 1000
)

type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindBool
	kindDate
)

// contractFields is the mutable-column whitelist, in statement order.
// Keys outside this list (other than the name-resolution keys below) are
// ignored entirely.
var contractFields = []struct {
	name string
	kind fieldKind
}{
	{"title", kindString},
	{"description", kindString},
	{"vendor", kindString},
	{"contract_number", kindString},
	{"value_cents", kindInt},
	{"renewal_notice_days", kindInt},
	{"auto_renew", kindBool},
	{"starts_on", kindDate},
	{"expires_on", kindDate},
	{"category_id", kindInt},
	{"status_id", kindInt},
	{"created_by", kindInt},
	{"updated_by", kindInt},
}

// Name-resolution keys: accepted in payloads but never stored as columns.
var lookupNameKeys = map[string]string{
	"category": "category_id",
	"status":   "status_id",
}

// Create sanitizes the payload, resolves lookup names, stamps the acting
// account into the audit columns and inserts the row.
func (s *ContractService) Create(ctx context.Context, actor *domain.Account, payload map[string]any) (domain.Contract, error) {
	fields, err := sanitizeContract(payload)
	if err != nil {
		return domain.Contract{}, err
	}

	if v, ok := fieldValue(fields, "title"); !ok || v == nil {
		return domain.Contract{}, domain.NewValidationError(map[string]string{"title": "required"})
	}

	fields, err = s.resolveNames(ctx, payload, fields)
	if err != nil {
		return domain.Contract{}, err
	}

	if actor != nil {
		if _, ok := fieldValue(fields, "created_by"); !ok {
			fields = append(fields, domain.Field{Column: "created_by", Value: actor.ID})
		}
		if _, ok := fieldValue(fields, "updated_by"); !ok {
			fields = append(fields, domain.Field{Column: "updated_by", Value: actor.ID})
		}
	}

	return s.Contracts.Create(ctx, fields)
}

// Patch applies the keys present in the payload (explicit null clears a
// column) and always refreshes updated_at, plus updated_by when an acting
// account is known.
func (s *ContractService) Patch(ctx context.Context, actor *domain.Account, id int64, payload map[string]any) (domain.Contract, error) {
	fields, err := sanitizeContract(payload)
	if err != nil {
		return domain.Contract{}, err
	}

	fields, err = s.resolveNames(ctx, payload, fields)
	if err != nil {
		return domain.Contract{}, err
	}

	if len(fields) == 0 {
		return domain.Contract{}, domain.NewValidationError(map[string]string{"body": "at least one updatable field required"})
	}

	fields = append(fields, domain.Field{Column: "updated_at", Value: s.now()})
	if actor != nil {
		fields = setField(fields, "updated_by", actor.ID)
	}

	return s.Contracts.Update(ctx, id, fields)
}

func (s *ContractService) Delete(ctx context.Context, id int64) error {
	return s.Contracts.Delete(ctx, id)
}

func (s *ContractService) Get(ctx context.Context, id int64) (domain.Contract, error) {
	return s.Contracts.Get(ctx, id)
}

// List clamps pagination into [1, listLimitMax] / offset >= 0 before
// hitting the store.
func (s *ContractService) List(ctx context.Context, limit, offset int) ([]domain.Contract, error) {
	if limit == 0 {
		limit = listLimitDefault
	}
	if limit < 1 {
		limit = 1
	}
	if limit > listLimitMax {
		limit = listLimitMax
	}
	if offset < 0 {
		offset = 0
	}
	return s.Contracts.List(ctx, limit, offset)
}

// sanitizeContract walks the whitelist in order. Absent keys are omitted
// entirely; any present key (including explicit null) produces a field,
// which is what lets a patch distinguish "untouched" from "cleared".
// Coercion failures on date fields are collected into one validation
// error.
func sanitizeContract(payload map[string]any) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(contractFields))
	invalid := map[string]string{}

	for _, col := range contractFields {
		raw, present := payload[col.name]
		if !present {
			continue
		}

		var value any
		switch col.kind {
		case kindString:
			value = coerceString(raw)
		case kindInt:
			value = coerceInt(raw)
		case kindBool:
			value = coerceBool(raw)
		case kindDate:
			v, err := coerceDate(raw)
			if err != nil {
				invalid[col.name] = err.Error()
				continue
			}
			value = v
		}

		fields = append(fields, domain.Field{Column: col.name, Value: value})
	}

	if len(invalid) > 0 {
		return nil, domain.NewValidationError(invalid)
	}
	return fields, nil
}

// resolveNames substitutes category/status names for ids when the numeric
// id is absent. Unresolved names are dropped silently; callers relying on
// name-only input get a null foreign key if the name doesn't exist.
func (s *ContractService) resolveNames(ctx context.Context, payload map[string]any, fields []domain.Field) ([]domain.Field, error) {
	resolvers := map[string]LookupResolver{
		"category": s.Categories,
		"status":   s.Statuses,
	}

	for nameKey, idColumn := range lookupNameKeys {
		if v, ok := fieldValue(fields, idColumn); ok && v != nil {
			continue
		}
		raw, ok := payload[nameKey].(string)
		if !ok {
			continue
		}
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		resolver := resolvers[nameKey]
		if resolver == nil {
			continue
		}
		id, found, err := resolver.ResolveName(ctx, name)
		if err != nil {
			return nil, err
		}
		if found {
			fields = setField(fields, idColumn, id)
		}
	}
	return fields, nil
}

func fieldValue(fields []domain.Field, column string) (any, bool) {
	for _, f := range fields {
		if f.Column == column {
			return f.Value, true
		}
	}
	return nil, false
}

func setField(fields []domain.Field, column string, value any) []domain.Field {
	for i, f := range fields {
		if f.Column == column {
			fields[i].Value = value
			return fields
		}
	}
	return append(fields, domain.Field{Column: column, Value: value})
}

// coerceString trims and nulls empty strings. Non-string scalars are
// stringified rather than rejected.
func coerceString(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil
		}
		return s
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return nil
	}
}

// coerceInt parses numerically; non-finite results become null.
func coerceInt(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return nil
		}
		return int64(t)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil
		}
		return int64(f)
	case bool:
		return nil
	default:
		return nil
	}
}

// coerceBool accepts the fixed vocabulary and nulls everything else.
func coerceBool(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case bool:
		return t
	case float64:
		switch t {
		case 1:
			return true
		case 0:
			return false
		}
		return nil
	case string:
		switch strings.ToLower(strings.TrimSpace(t)) {
		case "true", "1", "yes", "y", "on":
			return true
		case "false", "0", "no", "n", "off":
			return false
		}
		return nil
	default:
		return nil
	}
}

// coerceDate accepts YYYY-MM-DD or RFC 3339. Malformed input is the one
// coercion that fails loudly, with a descriptive message.
func coerceDate(v any) (any, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		if d, err := time.Parse("2006-01-02", s); err == nil {
			return d, nil
		}
		if d, err := time.Parse(time.RFC3339, s); err == nil {
			return d, nil
		}
		return nil, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	default:
		return nil, fmt.Errorf("invalid date value: want a string in YYYY-MM-DD or RFC 3339 form")
	}
}
