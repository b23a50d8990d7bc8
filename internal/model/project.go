package model

import "strings"

type Framework string

const (
	FrameworkReact Framework = "react"
	FrameworkNext  Framework = "next"
)

type Database string

const (
	DatabaseMongoDB  Database = "mongodb"
	DatabasePostgres Database = "postgres"
	DatabaseMySQL    Database = "mysql"
	DatabaseSQLite   Database = "sqlite"
	DatabaseFirebase Database = "firebase"
	DatabaseSupabase Database = "supabase"
)

type Template string

const (
	TemplateBasic     Template = "basic"
	TemplateSaaS      Template = "saas"
	TemplateEcommerce Template = "ecommerce"
	TemplateDashboard Template = "dashboard"
	TemplateBlog      Template = "blog"
	TemplatePortfolio Template = "portfolio"
)

// Option lists in the order the builder form presents them.
var (
	Frameworks = []Framework{FrameworkReact, FrameworkNext}
	Databases  = []Database{DatabaseMongoDB, DatabasePostgres, DatabaseMySQL, DatabaseSQLite, DatabaseFirebase, DatabaseSupabase}
	Templates  = []Template{TemplateBasic, TemplateSaaS, TemplateEcommerce, TemplateDashboard, TemplateBlog, TemplatePortfolio}
)

func ParseFramework(s string) (Framework, error) {
	for _, f := range Frameworks {
		if string(f) == s {
			return f, nil
		}
	}
	return "", Invalid("unknown framework %q", s)
}

func ParseDatabase(s string) (Database, error) {
	for _, d := range Databases {
		if string(d) == s {
			return d, nil
		}
	}
	return "", Invalid("unknown database %q", s)
}

func ParseTemplate(s string) (Template, error) {
	for _, t := range Templates {
		if string(t) == s {
			return t, nil
		}
	}
	return "", Invalid("unknown template %q", s)
}

// GenerationRequest is built from the form state at submission time and
// is never modified afterwards.
type GenerationRequest struct {
	Prompt    string    `json:"prompt"`
	Framework Framework `json:"framework"`
	Database  Database  `json:"database"`
	Template  Template  `json:"template"`
}

// NewGenerationRequest parses raw form values into a validated request.
func NewGenerationRequest(prompt, framework, database, template string) (GenerationRequest, error) {
	req := GenerationRequest{Prompt: prompt}
	var err error
	if req.Framework, err = ParseFramework(framework); err != nil {
		return GenerationRequest{}, err
	}
	if req.Database, err = ParseDatabase(database); err != nil {
		return GenerationRequest{}, err
	}
	if req.Template, err = ParseTemplate(template); err != nil {
		return GenerationRequest{}, err
	}
	return req, req.Validate()
}

// Validate checks the prompt and every enum value.
func (r GenerationRequest) Validate() error {
	if strings.TrimSpace(r.Prompt) == "" {
		return Invalid("prompt is required")
	}
	if _, err := ParseFramework(string(r.Framework)); err != nil {
		return err
	}
	if _, err := ParseDatabase(string(r.Database)); err != nil {
		return err
	}
	if _, err := ParseTemplate(string(r.Template)); err != nil {
		return err
	}
	return nil
}

// File is one generated source file.
type File struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Files groups generated sources by target.
type Files struct {
	Frontend []File `json:"frontend"`
}

// Project is a generated site as last reported by the builder service.
type Project struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Framework Framework `json:"framework"`
	Database  Database  `json:"database"`
	Version   int       `json:"version"`
	Premium   bool      `json:"premium"`
	Files     Files     `json:"files"`
}

// Summary projects p onto a catalog entry.
func (p Project) Summary() ProjectSummary {
	return ProjectSummary{
		ID:        p.ID,
		Prompt:    p.Prompt,
		Framework: p.Framework,
		Database:  p.Database,
		Version:   p.Version,
		Premium:   p.Premium,
	}
}

// ProjectSummary is a catalog entry as returned by the list endpoint.
type ProjectSummary struct {
	ID        string    `json:"id"`
	Prompt    string    `json:"prompt"`
	Framework Framework `json:"framework"`
	Database  Database  `json:"database"`
	Version   int       `json:"version"`
	Premium   bool      `json:"premium"`
}
