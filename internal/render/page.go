package render

import (
	"embed"
	"html/template"

	"storefront/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page templates
const (
	TemplateGrid  = "grid.html"
	TemplateAdmin = "admin.html"
)

// PageView is everything the storefront page template needs
type PageView struct {
	Grid  GridView
	Badge BadgeView
	Query string
	User  *models.Identity
	Admin bool
}

// Templates parses the embedded page templates
func Templates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}
