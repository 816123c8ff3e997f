package server

import (
	_ "embed"
	"html/template"
	"net/http"

	"github.com/matzehuels/flowmap/pkg/flow"
)

//go:embed page.html.tmpl
var pageSource string

var pageTemplate = template.Must(template.New("page").Parse(pageSource))

type pageData struct {
	Locations  []locationResponse
	Selection  flow.Selection
	Directions []flow.Direction
	Displays   []flow.Display
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeError(w, errNotReady)
		return
	}
	sess, err := s.session(w, r, ds)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.logger.Warn("save session", "id", sess.ID, "error", err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err = pageTemplate.Execute(w, pageData{
		Locations:  locations(ds),
		Selection:  sess.Selection,
		Directions: flow.Directions,
		Displays:   flow.Displays,
	})
	if err != nil {
		s.logger.Error("render page", "error", err)
	}
}
