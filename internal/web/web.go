// Package web serves the public server-rendered pages.
package web

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates.
func Templates() *template.Template {
	return template.Must(template.ParseFS(templateFS, "templates/*.html"))
}

type page struct {
	name  string
	title string
}

var pages = map[string]page{
	"/":         {"index.html", "Atlas"},
	"/about":    {"about.html", "About Atlas"},
	"/features": {"features.html", "Atlas features"},
}

// Register mounts the public pages on r, which must have Templates installed.
func Register(r gin.IRoutes) {
	for path, p := range pages {
		r.GET(path, render(p))
	}
}

func render(p page) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.HTML(http.StatusOK, p.name, gin.H{"Title": p.title})
	}
}
