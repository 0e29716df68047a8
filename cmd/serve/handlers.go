package serve

import (
	"bufio"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gigurra/strobe/cmd/show"
	"github.com/google/uuid"
)

//go:embed templates/*.html
var templatesFS embed.FS

var indexTmpl = template.Must(template.ParseFS(templatesFS, "templates/index.html"))

const flashCookie = "strobe_flash"

// Stop and skip wait for device release; a stuck device must not hang the
// request forever.
const controlTimeout = 10 * time.Second

type server struct {
	ctl *Control
	log *slog.Logger
}

// NewHandler returns the HTML control page, the JSON API and the websocket
// event stream.
func NewHandler(ctl *Control, logger *slog.Logger) http.Handler {
	s := &server{ctl: ctl, log: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /{$}", s.handleForm)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/songs", s.handleSongs)
	mux.HandleFunc("POST /api/queue", s.handleQueue)
	mux.HandleFunc("POST /api/{action}", s.handleAction)
	mux.HandleFunc("GET /ws", s.handleWS)
	return s.logRequests(mux)
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		s.log.Debug("http request", "status", rw.status, "method", r.Method, "path", r.URL.Path, "duration", time.Since(start))
	})
}

type indexView struct {
	Flashes []Flash
	Status  show.Status
	Songs   []show.Song
}

func (s *server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view := indexView{
		Flashes: takeFlashes(w, r),
		Status:  s.ctl.Status(),
		Songs:   s.ctl.Songs(),
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, view); err != nil {
		s.log.Error("failed to render index", "error", err)
	}
}

var actionMessages = map[string]string{
	ActionPlay: "Played song",
	ActionStop: "Stopped song",
	ActionSkip: "Skipped song",
}

// handleForm applies the posted action or song selection and redirects back
// to the index with a flash message.
func (s *server) handleForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	switch {
	case r.PostForm.Has("action"):
		action := r.PostForm.Get("action")
		ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
		err := s.ctl.Do(ctx, action)
		cancel()
		switch {
		case errors.Is(err, ErrUnknownAction):
			addFlash(w, Flash{Level: "error", Message: "Invalid action: " + action})
		case err != nil:
			s.log.Warn("control action failed", "action", action, "error", err)
			addFlash(w, Flash{Level: "error", Message: fmt.Sprintf("Failed to %s: %v", action, err)})
		default:
			addFlash(w, Flash{Level: "info", Message: actionMessages[action]})
		}
	case r.PostForm.Has("song-id"):
		song, err := s.enqueueForm(r.PostForm.Get("song-id"))
		if err != nil {
			addFlash(w, Flash{Level: "error", Message: "Invalid song."})
		} else {
			addFlash(w, Flash{Level: "info", Message: fmt.Sprintf("Added %s to queue.", song.Name)})
		}
	}

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *server) enqueueForm(raw string) (show.Song, error) {
	id, err := strconv.Atoi(raw)
	if err != nil {
		return show.Song{}, fmt.Errorf("%w: %q", show.ErrInvalidSelection, raw)
	}
	return s.ctl.Enqueue(id)
}

func (s *server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Status())
}

func (s *server) handleSongs(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.ctl.Songs())
}

type queueRequest struct {
	ID int `json:"id"`
}

type queueResponse struct {
	Ticket string    `json:"ticket"`
	Song   show.Song `json:"song"`
}

func (s *server) handleQueue(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	song, err := s.ctl.Enqueue(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	ticket := uuid.New().String()
	s.log.Info("song queued", "ticket", ticket, "song_id", song.ID, "song", song.Name)
	writeJSON(w, http.StatusAccepted, queueResponse{Ticket: ticket, Song: song})
}

func (s *server) handleAction(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), controlTimeout)
	defer cancel()

	err := s.ctl.Do(ctx, r.PathValue("action"))
	switch {
	case errors.Is(err, ErrUnknownAction):
		writeError(w, http.StatusNotFound, err)
	case err != nil:
		writeError(w, http.StatusGatewayTimeout, err)
	default:
		writeJSON(w, http.StatusOK, s.ctl.Status())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// Flash is a one-shot message shown on the next page load.
type Flash struct {
	Level   string
	Message string
}

func addFlash(w http.ResponseWriter, f Flash) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    url.QueryEscape(f.Level + ":" + f.Message),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// takeFlashes reads and clears the pending flash message.
func takeFlashes(w http.ResponseWriter, r *http.Request) []Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	raw, err := url.QueryUnescape(c.Value)
	if err != nil {
		return nil
	}
	level, msg, ok := strings.Cut(raw, ":")
	if !ok || msg == "" {
		return nil
	}
	return []Flash{{Level: level, Message: msg}}
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rw.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rw.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
