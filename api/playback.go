package api

import (
	"net/http"
)

type metronomeRequest struct {
	Enabled *bool    `json:"enabled"`
	Volume  *float64 `json:"volume"`
}

func (s *Server) handleGetMetronome(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.metronome.GetSnapshot())
}

func (s *Server) handleSetMetronome(w http.ResponseWriter, r *http.Request) {
	var req metronomeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Volume != nil {
		s.metronome.SetVolume(*req.Volume)
	}
	if req.Enabled != nil {
		s.metronome.SetEnabled(*req.Enabled)
	}
	s.writeJSON(w, http.StatusOK, s.metronome.GetSnapshot())
}

type transportResponse struct {
	Playing    bool    `json:"playing"`
	TimeMs     float64 `json:"timeMs"`
	DurationMs float64 `json:"durationMs"`
	Marker     string  `json:"marker"`
}

func (s *Server) transportState() transportResponse {
	ms := s.transport.CurrentTimeMs()
	return transportResponse{
		Playing:    s.transport.IsPlaying(),
		TimeMs:     ms,
		DurationMs: s.transport.DurationMs(),
		Marker:     s.session.TimeMap().Locate(ms).Marker(),
	}
}

func (s *Server) handleGetTransport(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.transportState())
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	s.transport.Play()
	s.writeJSON(w, http.StatusOK, s.transportState())
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.transport.Pause()
	s.writeJSON(w, http.StatusOK, s.transportState())
}

func (s *Server) handleSeek(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ms float64 `json:"ms"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.transport.Seek(req.Ms)
	s.writeJSON(w, http.StatusOK, s.transportState())
}
