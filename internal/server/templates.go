package server

import (
	"bytes"
	_ "embed"
	"html/template"
	"log/slog"
	"net/http"

	jsonwriter "github.com/save2win/save2win-front/internal/json"
	"github.com/save2win/save2win-front/internal/log"
)

//go:embed templates/signin.html
var signInPageTemplateHTML string

//go:embed templates/finish.html
var finishPageTemplateHTML string

var signInPageTemplate = template.Must(template.New("signin").Parse(signInPageTemplateHTML))
var finishPageTemplate = template.Must(template.New("finish").Parse(finishPageTemplateHTML))

// SignInPageData represents the data for the sign-in shell page
type SignInPageData struct{}

// FinishPageData represents the data for the finishing page
type FinishPageData struct {
	State string
}

func renderPage(w http.ResponseWriter, r *http.Request, tmpl *template.Template, data any) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		log.LogCtx(r.Context(), slog.LevelError, "server", "Failed to render page", map[string]any{
			"template": tmpl.Name(),
			"error":    err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to render page")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Referrer-Policy", "no-referrer")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
