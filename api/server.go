// Package api serves the editing session over HTTP for a browser front end.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/project"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/timemap"
	"github.com/robmorgan/beatwarp/transport"
)

// Server exposes a session, and optionally the transport and metronome following it.
type Server struct {
	session   *project.Session
	transport transport.Transport
	metronome *rhythm.Metronome
	origins   []string
	log       *logrus.Entry
}

// Option configures a Server.
type Option func(*Server)

// WithTransport adds the /transport routes.
func WithTransport(t transport.Transport) Option {
	return func(s *Server) { s.transport = t }
}

// WithMetronome adds the /metronome routes.
func WithMetronome(m *rhythm.Metronome) Option {
	return func(s *Server) { s.metronome = m }
}

// WithAllowedOrigins sets the origins allowed by CORS.
func WithAllowedOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// NewServer creates a server for sess.
func NewServer(sess *project.Session, opts ...Option) *Server {
	s := &Server{
		session: sess,
		origins: []string{"*"},
		log:     logger.ForComponent("api"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routes wrapped in CORS handling.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	router.Use(s.logRequests)

	router.HandleFunc("/project", s.handleGetProject).Methods(http.MethodGet)
	router.HandleFunc("/project", s.handleReplaceProject).Methods(http.MethodPut)
	router.HandleFunc("/project/save", s.handleSave).Methods(http.MethodPost)

	router.HandleFunc("/layout", s.handleLayout).Methods(http.MethodGet)
	router.HandleFunc("/locate", s.handleLocate).Methods(http.MethodGet)
	router.HandleFunc("/beats", s.handleBeats).Methods(http.MethodGet)
	router.HandleFunc("/beats/next", s.handleNextBeat).Methods(http.MethodGet)

	router.HandleFunc("/measures", s.handleInsertMeasure).Methods(http.MethodPost)
	router.HandleFunc("/measures/append", s.handleAppendMeasures).Methods(http.MethodPost)
	router.HandleFunc("/measures/{index:[0-9]+}", s.handleUpdateMeasure).Methods(http.MethodPatch)
	router.HandleFunc("/measures/{index:[0-9]+}", s.handleRemoveMeasure).Methods(http.MethodDelete)
	router.HandleFunc("/measures/{index:[0-9]+}/following", s.handleRemoveFollowing).Methods(http.MethodDelete)
	router.HandleFunc("/measures/{index:[0-9]+}/time-signature", s.handleTimeSignature).Methods(http.MethodPut)
	router.HandleFunc("/measures/{index:[0-9]+}/downbeat", s.handlePinDownbeat).Methods(http.MethodPut)

	router.HandleFunc("/offset", s.handleOffset).Methods(http.MethodPut)
	router.HandleFunc("/markers", s.handleAddMarker).Methods(http.MethodPost)
	router.HandleFunc("/markers/{id}", s.handleMoveMarker).Methods(http.MethodPut)
	router.HandleFunc("/markers/{id}", s.handleRemoveMarker).Methods(http.MethodDelete)

	router.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	router.HandleFunc("/history/undo", s.handleUndo).Methods(http.MethodPost)
	router.HandleFunc("/history/redo", s.handleRedo).Methods(http.MethodPost)

	if s.metronome != nil {
		router.HandleFunc("/metronome", s.handleGetMetronome).Methods(http.MethodGet)
		router.HandleFunc("/metronome", s.handleSetMetronome).Methods(http.MethodPut)
	}
	if s.transport != nil {
		router.HandleFunc("/transport", s.handleGetTransport).Methods(http.MethodGet)
		router.HandleFunc("/transport/play", s.handlePlay).Methods(http.MethodPost)
		router.HandleFunc("/transport/pause", s.handlePause).Methods(http.MethodPost)
		router.HandleFunc("/transport/seek", s.handleSeek).Methods(http.MethodPost)
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type"},
	})
	return c.Handler(router)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.log.WithFields(logrus.Fields{"method": r.Method, "path": r.URL.Path}).Debug("Request")
		next.ServeHTTP(w, r)
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.WithError(err).Warn("Failed to write response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, errorResponse{Error: msg})
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func queryFloat(r *http.Request, key string, fallback float64) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseFloat(raw, 64)
}

func pathIndex(r *http.Request) int {
	// the route pattern only matches digits
	i, _ := strconv.Atoi(mux.Vars(r)["index"])
	return i
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.Document())
}

func (s *Server) handleReplaceProject(w http.ResponseWriter, r *http.Request) {
	d, err := project.Decode(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.session.Replace(d.Score(), d.Audio())
	s.log.WithField("measures", len(d.Measures)).Info("Project replaced")
	s.writeJSON(w, http.StatusOK, s.session.Document())
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Save(); err != nil {
		s.log.WithError(err).Error("Save failed")
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"path": s.session.Path()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	zoom, err := queryFloat(r, "zoom", timemap.DefaultZoom)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid zoom")
		return
	}
	s.writeJSON(w, http.StatusOK, s.session.TimeMap().Layout(timemap.ClampZoom(zoom)))
}

type locateResponse struct {
	timemap.Position
	Marker string `json:"marker"`
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	ms, err := queryFloat(r, "ms", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ms")
		return
	}
	pos := s.session.TimeMap().Locate(ms)
	s.writeJSON(w, http.StatusOK, locateResponse{Position: pos, Marker: pos.Marker()})
}

func (s *Server) handleBeats(w http.ResponseWriter, r *http.Request) {
	tm := s.session.TimeMap()
	from, err := queryFloat(r, "from", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid from")
		return
	}
	to, err := queryFloat(r, "to", tm.EndMs())
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid to")
		return
	}
	s.writeJSON(w, http.StatusOK, tm.Beats(from, to))
}

func (s *Server) handleNextBeat(w http.ResponseWriter, r *http.Request) {
	ms, err := queryFloat(r, "ms", 0)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid ms")
		return
	}
	tm := s.session.TimeMap()
	next := tm.NextBeat
	if r.URL.Query().Get("strict") == "true" {
		next = tm.BeatAfter
	}
	b, ok := next(ms)
	if !ok {
		s.writeError(w, http.StatusNotFound, "no further beats")
		return
	}
	s.writeJSON(w, http.StatusOK, b)
}
