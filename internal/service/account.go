package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jask/webforge/internal/builder"
	"github.com/jask/webforge/internal/ctxlog"
	"github.com/jask/webforge/internal/model"
)

const (
	demoPassword = "demo123"
	demoName     = "Demo User"
	demoDomain   = "demo.local"
)

// Accounts is the unauthenticated part of the builder service.
type Accounts interface {
	Register(ctx context.Context, req builder.RegisterRequest) (builder.User, error)
	Login(ctx context.Context, email, password string) (string, error)
}

// SessionSlot is where a confirmed token is kept.
type SessionSlot interface {
	Set(token string) error
	Clear() error
	Current() model.Session
}

// AccountService runs the account flows. The session is only written after
// the service confirms a login; every failure leaves it untouched.
type AccountService struct {
	Remote  Accounts
	Session SessionSlot
	// OnChange, when set, is called after the session token changes.
	OnChange func(ctx context.Context, sess model.Session)
}

// Register creates an account without logging in.
func (s *AccountService) Register(ctx context.Context, name, email, password string, plan model.Plan) (builder.User, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return builder.User{}, model.Invalid("email and password are required")
	}
	if _, err := model.ParsePlan(string(plan)); err != nil {
		return builder.User{}, err
	}
	u, err := s.Remote.Register(ctx, builder.RegisterRequest{Name: name, Email: email, Password: password, Plan: plan})
	if err != nil {
		return builder.User{}, fmt.Errorf("register %s: %w", email, err)
	}
	return u, nil
}

// Login exchanges credentials for a token and stores it.
func (s *AccountService) Login(ctx context.Context, email, password string) error {
	if strings.TrimSpace(email) == "" || password == "" {
		return model.Invalid("email and password are required")
	}
	token, err := s.Remote.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login %s: %w", email, err)
	}
	if err := s.Session.Set(token); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	ctxlog.FromContext(ctx).Info("logged in", "email", email)
	s.changed(ctx)
	return nil
}

// DemoLogin registers a throwaway account on plan and logs into it. It
// returns the generated email.
func (s *AccountService) DemoLogin(ctx context.Context, plan model.Plan) (string, error) {
	email := DemoEmail()
	if _, err := s.Register(ctx, demoName, email, demoPassword, plan); err != nil {
		return "", err
	}
	if err := s.Login(ctx, email, demoPassword); err != nil {
		return "", err
	}
	return email, nil
}

// Logout forgets the token. Logging out twice is fine.
func (s *AccountService) Logout(ctx context.Context) error {
	if err := s.Session.Clear(); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	ctxlog.FromContext(ctx).Info("logged out")
	s.changed(ctx)
	return nil
}

func (s *AccountService) changed(ctx context.Context) {
	if s.OnChange != nil {
		s.OnChange(ctx, s.Session.Current())
	}
}

// DemoEmail returns a fresh address on the demo domain.
func DemoEmail() string {
	id := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "user_" + id[:11] + "@" + demoDomain
}
