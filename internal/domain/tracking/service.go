package tracking

import (
	"time"

	"github.com/google/uuid"

	"leadtrack/internal/domain/auth"
	"leadtrack/internal/domain/policy"
)

type Service struct {
	store  Store
	policy *policy.Policy
	scope  ManagerScope
	now    func() time.Time
	newID  func() string
}

type Option func(*Service)

func WithManagerScope(scope ManagerScope) Option {
	return func(s *Service) {
		if scope != "" {
			s.scope = scope
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func NewService(store Store, pol *policy.Policy, opts ...Option) *Service {
	s := &Service{
		store:  store,
		policy: pol,
		scope:  ManagerScopeAll,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Policy() *policy.Policy {
	return s.policy
}

func (s *Service) authorize(actor auth.Identity, resource, action string) error {
	if !s.policy.Allows(actor.Role, resource, action) {
		return forbidden(actor.Role, action+" "+resource)
	}
	return nil
}
