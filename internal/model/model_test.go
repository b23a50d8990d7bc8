package model

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewGenerationRequest(t *testing.T) {
	t.Parallel()

	req, err := NewGenerationRequest("blog site", "react", "sqlite", "blog")
	require.NoError(t, err)
	require.Equal(t, GenerationRequest{Prompt: "blog site", Framework: FrameworkReact, Database: DatabaseSQLite, Template: TemplateBlog}, req)

	cases := []struct {
		name                        string
		prompt, framework, db, tmpl string
	}{
		{"empty prompt", "", "react", "sqlite", "blog"},
		{"blank prompt", "   \n", "next", "mysql", "saas"},
		{"bad framework", "x", "vue", "sqlite", "blog"},
		{"bad database", "x", "react", "oracle", "blog"},
		{"bad template", "x", "react", "sqlite", "wiki"},
	}
	for _, tc := range cases {
		_, err := NewGenerationRequest(tc.prompt, tc.framework, tc.db, tc.tmpl)
		require.ErrorIs(t, err, ErrInvalidRequest, tc.name)
	}
}

func TestParsePlan(t *testing.T) {
	t.Parallel()

	p, err := ParsePlan("admin")
	require.NoError(t, err)
	require.Equal(t, PlanAdmin, p)

	_, err = ParsePlan("Premium")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestRemoteErrorMatchesRemoteFailure(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("generate: %w", &RemoteError{Op: "generate", Status: 402, Body: "upgrade required"})
	require.ErrorIs(t, err, ErrRemoteFailure)
	require.Contains(t, err.Error(), "upgrade required")

	var re *RemoteError
	require.True(t, errors.As(err, &re))
	require.Equal(t, 402, re.Status)

	cause := errors.New("connection refused")
	netErr := &RemoteError{Op: "whoami", Err: cause}
	require.ErrorIs(t, netErr, cause)
	require.ErrorIs(t, netErr, ErrRemoteFailure)
	require.NotErrorIs(t, netErr, ErrUnauthenticated)
}

func TestProjectSummary(t *testing.T) {
	t.Parallel()

	p := Project{ID: "p1", Prompt: "shop", Framework: FrameworkNext, Database: DatabasePostgres, Version: 3, Premium: true,
		Files: Files{Frontend: []File{{Path: "a.js", Content: "x"}}}}
	require.Equal(t, ProjectSummary{ID: "p1", Prompt: "shop", Framework: FrameworkNext, Database: DatabasePostgres, Version: 3, Premium: true}, p.Summary())
}
