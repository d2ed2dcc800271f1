package http

import (
	"embed"
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// registerPages serves the embedded HTML pages. "/" renders index.html and
// any other single-segment GET renders <page>.html when it exists.
func (s *Server) registerPages() {
	s.engine.SetHTMLTemplate(pageTemplates)
	s.engine.GET("/", func(c *gin.Context) {
		c.HTML(http.StatusOK, "index.html", nil)
	})
	s.engine.NoRoute(s.handlePage)
}

func (s *Server) handlePage(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	name, ok := pageName(c.Request.URL.Path)
	if !ok || pageTemplates.Lookup(name) == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "page not found"})
		return
	}
	c.HTML(http.StatusOK, name, nil)
}

// pageName maps "/dashboard" to "dashboard.html". Nested paths are not pages.
func pageName(path string) (string, bool) {
	page := strings.TrimPrefix(path, "/")
	if page == "" || strings.ContainsAny(page, "/.") {
		return "", false
	}
	return page + ".html", true
}
