package http

import (
	"html/template"
	"net/http"

	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/domain"
	"github.com/16AA-Milsim/discourse-recruit-tracker/internal/httpx"
)

var shellPage = template.Must(template.New("shell").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Recruit Tracker</title></head>
<body>
<div id="recruit-tracker" data-can-manage="{{.CanManage}}" data-overview-url="/overview"{{if .CanManage}} data-audit-url="/audit"{{end}}>
<ol>
{{- range .Columns}}
<li data-status="{{.ID}}">{{.Name}}</li>
{{- end}}
</ol>
</div>
</body>
</html>
`))

// shell renders the page the front end mounts onto. Data is fetched
// separately from /overview.
func (h *handler) shell(w http.ResponseWriter, r *http.Request) {
	actor := actorFrom(r)
	if !h.svc.CanView(r.Context(), actor) {
		h.fail(w, r, "shell", domain.ErrUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := shellPage.Execute(w, map[string]any{
		"CanManage": h.svc.CanManage(r.Context(), actor),
		"Columns":   h.svc.Labels().Options(),
	}); err != nil {
		httpx.WriteError(w, r, err)
	}
}
