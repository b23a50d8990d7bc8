package present

import "github.com/jask/webforge/internal/model"

var frameworkLabels = map[model.Framework]string{
	model.FrameworkReact: "React",
	model.FrameworkNext:  "Next.js",
}

var databaseLabels = map[model.Database]string{
	model.DatabaseMongoDB:  "MongoDB",
	model.DatabasePostgres: "PostgreSQL",
	model.DatabaseMySQL:    "MySQL",
	model.DatabaseSQLite:   "SQLite",
	model.DatabaseFirebase: "Firebase",
	model.DatabaseSupabase: "Supabase",
}

var templateLabels = map[model.Template]string{
	model.TemplateBasic:     "Basic",
	model.TemplateSaaS:      "SaaS",
	model.TemplateEcommerce: "E-commerce",
	model.TemplateDashboard: "Dashboard",
	model.TemplateBlog:      "Blog",
	model.TemplatePortfolio: "Portfolio",
}

func FrameworkLabel(f model.Framework) string { return label(frameworkLabels, f) }
func DatabaseLabel(d model.Database) string   { return label(databaseLabels, d) }
func TemplateLabel(t model.Template) string   { return label(templateLabels, t) }

func label[K ~string](m map[K]string, k K) string {
	if l, ok := m[k]; ok {
		return l
	}
	return string(k)
}
