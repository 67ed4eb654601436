package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Actions recorded by the performance handlers.
const (
	ActionTemplateCreate = "performance.template.create"
	ActionTemplateUpdate = "performance.template.update"
	ActionTemplateDelete = "performance.template.delete"
	ActionCycleCreate    = "performance.cycle.create"
	ActionCycleActivate  = "performance.cycle.activate"
	ActionCyclePublish   = "performance.cycle.publish"
	ActionCycleClose     = "performance.cycle.close"
	ActionCycleArchive   = "performance.cycle.archive"
	ActionRecordUpsert   = "performance.record.upsert"
	ActionRecordSubmit   = "performance.record.submit"
	ActionDisputeCreate  = "performance.dispute.create"
	ActionDisputeResolve = "performance.dispute.resolve"
)

type Event struct {
	ID         string          `json:"id"`
	ActorID    string          `json:"actorId"`
	Action     string          `json:"action"`
	EntityType string          `json:"entityType"`
	EntityID   string          `json:"entityId"`
	RequestID  string          `json:"requestId"`
	IP         string          `json:"ip"`
	CreatedAt  time.Time       `json:"createdAt"`
	Before     json.RawMessage `json:"before,omitempty"`
	After      json.RawMessage `json:"after,omitempty"`
}

// Recorder is what handlers depend on, so tests can swap in a fake.
type Recorder interface {
	Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error
}

type Service struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Service {
	return &Service{DB: db}
}

func (s *Service) Record(ctx context.Context, tenantID, actorID, action, entityType, entityID, requestID, ip string, before, after any) error {
	beforeJSON, err := payload(before)
	if err != nil {
		return fmt.Errorf("audit before: %w", err)
	}
	afterJSON, err := payload(after)
	if err != nil {
		return fmt.Errorf("audit after: %w", err)
	}

	_, err = s.DB.Exec(ctx, `
    INSERT INTO audit_events (tenant_id, actor_user_id, action, entity_type, entity_id, before_json, after_json, request_id, ip)
    VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
  `, tenantID, actorID, action, entityType, entityID, beforeJSON, afterJSON, requestID, ip)
	return err
}

// Filter narrows an event listing. Empty fields match everything.
type Filter struct {
	Action     string
	EntityType string
	EntityID   string
	ActorUser  string
}

const maxExportRows = 10000

// List returns events newest first. Before/after snapshots are only loaded
// when includeDetails is set.
func (s *Service) List(ctx context.Context, tenantID string, filter Filter, includeDetails bool, limit, offset int) ([]Event, error) {
	where, args := filterClause(tenantID, filter)
	columns := "id, actor_user_id, action, entity_type, entity_id, request_id, ip, created_at"
	if includeDetails {
		columns += ", before_json, after_json"
	}
	args = append(args, limit, offset)
	query := "SELECT " + columns + " FROM audit_events WHERE " + where +
		" ORDER BY created_at DESC LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	rows, err := s.DB.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var evt Event
		dest := []any{&evt.ID, &evt.ActorID, &evt.Action, &evt.EntityType, &evt.EntityID, &evt.RequestID, &evt.IP, &evt.CreatedAt}
		if includeDetails {
			dest = append(dest, &evt.Before, &evt.After)
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		out = append(out, evt)
	}
	return out, rows.Err()
}

func (s *Service) Count(ctx context.Context, tenantID string, filter Filter) (int, error) {
	where, args := filterClause(tenantID, filter)
	var total int
	err := s.DB.QueryRow(ctx, "SELECT COUNT(1) FROM audit_events WHERE "+where, args...).Scan(&total)
	return total, err
}

// ListExport returns up to maxExportRows events for a CSV download.
func (s *Service) ListExport(ctx context.Context, tenantID string, filter Filter) ([]Event, error) {
	return s.List(ctx, tenantID, filter, false, maxExportRows, 0)
}

func filterClause(tenantID string, filter Filter) (string, []any) {
	clause := "tenant_id = $1"
	args := []any{tenantID}
	add := func(column, value string) {
		value = strings.TrimSpace(value)
		if value == "" {
			return
		}
		args = append(args, value)
		clause += " AND " + column + " = $" + strconv.Itoa(len(args))
	}
	add("action", filter.Action)
	add("entity_type", filter.EntityType)
	add("entity_id", filter.EntityID)
	add("actor_user_id", filter.ActorUser)
	return clause, args
}

// payload marshals v for a jsonb column; nil stays SQL NULL.
func payload(v any) ([]byte, error) {
	if v == nil {
		return nil, nil
	}
	return json.Marshal(v)
}
