package model

// Session holds the current authentication token. A zero Session is the
// absent session.
type Session struct {
	Token string
}

// Present reports whether the session carries a token.
func (s Session) Present() bool { return s.Token != "" }

// Plan is a subscription tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanPremium Plan = "premium"
	PlanAdmin   Plan = "admin"
)

// ParsePlan validates a plan name. Matching is exact.
func ParsePlan(s string) (Plan, error) {
	switch p := Plan(s); p {
	case PlanFree, PlanPremium, PlanAdmin:
		return p, nil
	}
	return "", Invalid("unknown plan %q", s)
}

// Identity is the server's view of the logged-in user. A nil *Identity
// means "not resolved" or "not logged in".
type Identity struct {
	Email string `json:"email"`
	Plan  Plan   `json:"plan"`
}
