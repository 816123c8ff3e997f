package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/matzehuels/flowmap/pkg/buildinfo"
	ferrors "github.com/matzehuels/flowmap/pkg/errors"
	"github.com/matzehuels/flowmap/pkg/flow"
	"github.com/matzehuels/flowmap/pkg/observability"
	"github.com/matzehuels/flowmap/pkg/pipeline"
	"github.com/matzehuels/flowmap/pkg/session"
)

var errNotReady = ferrors.New(ferrors.ErrCodeInternal, "dataset not loaded")

// =============================================================================
// Sessions
// =============================================================================

// session returns the session named by the request cookie, or starts a new
// one with the configured selection and sets the cookie. A session whose
// location is missing from ds (after a reload dropped it) moves back to the
// configured location.
func (s *Server) session(w http.ResponseWriter, r *http.Request, ds *pipeline.Dataset) (*session.Session, error) {
	if c, err := r.Cookie(cookieName); err == nil && session.ValidID(c.Value) {
		sess, err := s.sessions.Get(r.Context(), c.Value)
		if err != nil {
			return nil, err
		}
		if sess != nil {
			if _, ok := ds.Graph.Location(sess.Selection.Location); !ok {
				s.logger.Warn("session location gone, using default",
					"id", sess.ID, "location", sess.Selection.Location)
				sess.Selection.Location = s.initialSelection(ds).Location
			}
			sess.Touch(s.opts.SessionTTL)
			return sess, nil
		}
	}

	sess := session.New(s.initialSelection(ds), s.opts.SessionTTL)
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    sess.ID,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	observability.Session().OnSessionStart(r.Context())
	s.logger.Debug("new session", "id", sess.ID)
	return sess, nil
}

// initialSelection is the configured selection with its location (id,
// abbreviation or name) resolved to an id of ds, so the page's selector
// matches the scene.
func (s *Server) initialSelection(ds *pipeline.Dataset) flow.Selection {
	sel := s.opts.Pipeline.Selection
	if loc, err := ds.Graph.Resolve(sel.Location); err == nil {
		sel.Location = loc.ID
	}
	return sel
}

// =============================================================================
// Scene
// =============================================================================

func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeError(w, errNotReady)
		return
	}
	width, err := parseWidth(r.URL.Query().Get("width"), s.opts.Pipeline.Width)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.session(w, r, ds)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := s.opts.Pipeline
	opts.Selection = sess.Selection
	opts.Width = width
	opts.Formats = []string{pipeline.FormatSVG}
	opts.Tooltips = true
	opts.Legend = true
	// A resized viewport redraws everything without a transition.
	if sess.Keys != nil && sess.Width == width {
		opts.Previous = sess.Keys
	}

	result, err := s.runner.Run(r.Context(), ds, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	sess.Rendered(result.Scene.Keys(), width)
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.logger.Warn("save session", "id", sess.ID, "error", err)
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(result.Artifacts[pipeline.FormatSVG])
}

// =============================================================================
// Selection
// =============================================================================

// selectionRequest holds the controls' values; empty fields keep the
// current value.
type selectionRequest struct {
	Location  string `json:"location"`
	Direction string `json:"direction"`
	Display   string `json:"display"`
}

func decodeSelection(r *http.Request) (selectionRequest, error) {
	var req selectionRequest
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return req, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "decode selection")
		}
		return req, nil
	}
	if err := r.ParseForm(); err != nil {
		return req, ferrors.Wrap(ferrors.ErrCodeInvalidInput, err, "parse form")
	}
	req.Location = r.PostForm.Get("location")
	req.Direction = r.PostForm.Get("direction")
	req.Display = r.PostForm.Get("display")
	return req, nil
}

// apply resolves req against the dataset and merges it into sel.
func (req selectionRequest) apply(ds *pipeline.Dataset, sel flow.Selection) (flow.Selection, error) {
	if req.Location != "" {
		loc, err := ds.Graph.Resolve(req.Location)
		if err != nil {
			return sel, err
		}
		sel.Location = loc.ID
	}
	if req.Direction != "" {
		d, err := flow.ParseDirection(req.Direction)
		if err != nil {
			return sel, err
		}
		sel.Direction = d
	}
	if req.Display != "" {
		d, err := flow.ParseDisplay(req.Display)
		if err != nil {
			return sel, err
		}
		sel.Display = d
	}
	return sel, nil
}

func (s *Server) handleSelection(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeError(w, errNotReady)
		return
	}
	req, err := decodeSelection(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.session(w, r, ds)
	if err != nil {
		writeError(w, err)
		return
	}
	sel, err := req.apply(ds, sess.Selection)
	if err != nil {
		writeError(w, err)
		return
	}
	for _, control := range changedControls(sess.Selection, sel) {
		observability.Session().OnSelectionChange(r.Context(), control)
	}
	sess.Selection = sel
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		writeError(w, err)
		return
	}
	s.logger.Debug("selection changed", "session", sess.ID, "selection", sel.Key())
	writeJSON(w, http.StatusOK, map[string]any{"selection": sel})
}

func changedControls(prev, next flow.Selection) []string {
	var out []string
	if prev.Location != next.Location {
		out = append(out, "location")
	}
	if prev.Direction != next.Direction {
		out = append(out, "direction")
	}
	if prev.Display != next.Display {
		out = append(out, "display")
	}
	return out
}

// =============================================================================
// API
// =============================================================================

type locationResponse struct {
	ID            string  `json:"id"`
	Abbr          string  `json:"abbr"`
	Name          string  `json:"name"`
	OutboundTotal float64 `json:"outbound_total"`
	InboundTotal  float64 `json:"inbound_total"`
}

func (s *Server) handleLocations(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeError(w, errNotReady)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"locations": locations(ds)})
}

func locations(ds *pipeline.Dataset) []locationResponse {
	out := make([]locationResponse, 0, len(ds.Graph.Locations()))
	for _, l := range ds.Graph.Locations() {
		out = append(out, locationResponse{
			ID:            l.ID,
			Abbr:          l.Abbr,
			Name:          l.Name,
			OutboundTotal: l.OutboundTotal,
			InboundTotal:  l.InboundTotal,
		})
	}
	slices.SortFunc(out, func(a, b locationResponse) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// handleFlows returns the JSON export of a selection. Query parameters
// override the session's selection without changing it.
func (s *Server) handleFlows(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeError(w, errNotReady)
		return
	}
	q := r.URL.Query()
	width, err := parseWidth(q.Get("width"), s.opts.Pipeline.Width)
	if err != nil {
		writeError(w, err)
		return
	}
	sess, err := s.session(w, r, ds)
	if err != nil {
		writeError(w, err)
		return
	}
	req := selectionRequest{Location: q.Get("location"), Direction: q.Get("direction"), Display: q.Get("display")}
	sel, err := req.apply(ds, sess.Selection)
	if err != nil {
		writeError(w, err)
		return
	}

	opts := s.opts.Pipeline
	opts.Selection = sel
	opts.Width = width
	opts.Formats = []string{pipeline.FormatJSON}
	result, err := s.runner.Run(r.Context(), ds, opts)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(result.Artifacts[pipeline.FormatJSON])
}

// =============================================================================
// Health
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "build": buildinfo.Get()})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ds := s.Dataset()
	if ds == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "loading"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ready",
		"dataset":   ds.Hash,
		"loaded_at": ds.LoadedAt,
	})
}

// =============================================================================
// Helpers
// =============================================================================

func parseWidth(s string, def float64) (float64, error) {
	if s == "" {
		return def, nil
	}
	w, err := strconv.ParseFloat(s, 64)
	if err != nil || w <= 0 || w > maxWidth {
		return 0, ferrors.New(ferrors.ErrCodeInvalidInput, "width must be a number in (0, %d], got %q", maxWidth, s)
	}
	return w, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// statusCode maps error codes to HTTP status codes.
func statusCode(err error) int {
	if errors.Is(err, errNotReady) {
		return http.StatusServiceUnavailable
	}
	switch ferrors.KindOf(err) {
	case ferrors.KindInvalid:
		return http.StatusBadRequest
	case ferrors.KindNotFound:
		return http.StatusNotFound
	case ferrors.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, err error) {
	code := ferrors.GetCode(err)
	if code == "" {
		code = ferrors.ErrCodeInternal
	}
	writeJSON(w, statusCode(err), map[string]string{
		"error":   string(code),
		"message": ferrors.UserMessage(err),
	})
}
