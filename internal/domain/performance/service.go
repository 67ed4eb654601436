package performance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Notifier delivers an in-app notification to a user.
type Notifier interface {
	Create(ctx context.Context, tenantID, userID, ntype, title, body string) error
}

// Dispatcher runs fn off the request path. The jobs service satisfies it.
type Dispatcher interface {
	Enqueue(jobType, tenantID string, run func(context.Context) (any, error))
}

type Service struct {
	store    StoreAPI
	log      *zap.Logger
	notifier Notifier
	dispatch Dispatcher

	now   func() time.Time
	newID func() string
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithDispatcher(d Dispatcher) Option {
	return func(s *Service) { s.dispatch = d }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store StoreAPI, log *zap.Logger, opts ...Option) *Service {
	s := &Service{
		store: store,
		log:   log.Named("performance.service"),
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) EmployeeIDByUserID(ctx context.Context, tenantID, userID string) (string, error) {
	return s.store.EmployeeIDByUserID(ctx, tenantID, userID)
}

type notice struct {
	ntype string
	title string
	body  string
}

// notifyEmployees resolves each employee's user account and sends n. Failures
// are logged; a lost notification never fails the operation that caused it.
func (s *Service) notifyEmployees(tenantID string, employeeIDs []string, n notice) {
	if s.notifier == nil || len(employeeIDs) == 0 {
		return
	}
	ids := uniqueStrings(employeeIDs)
	run := func(ctx context.Context) (any, error) {
		sent := 0
		for _, employeeID := range ids {
			userID, err := s.store.EmployeeUserID(ctx, tenantID, employeeID)
			if err != nil || userID == "" {
				s.log.Debug("notification skipped, no user account", zap.String("employeeId", employeeID), zap.Error(err))
				continue
			}
			if err := s.notifier.Create(ctx, tenantID, userID, n.ntype, n.title, n.body); err != nil {
				s.log.Warn("notification create failed", zap.String("type", n.ntype), zap.String("userId", userID), zap.Error(err))
				continue
			}
			sent++
		}
		return map[string]any{"type": n.ntype, "sent": sent}, nil
	}
	if s.dispatch != nil {
		s.dispatch.Enqueue(JobNotify, tenantID, run)
		return
	}
	_, _ = run(context.Background())
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
