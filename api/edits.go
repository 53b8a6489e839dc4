package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/robmorgan/beatwarp/score"
)

type editResponse struct {
	Label    string `json:"label"`
	Applied  bool   `json:"applied"`
	Revision uint64 `json:"revision"`
}

// apply runs cmd on the session. Rejected edits leave the score untouched and answer
// 409 with the same body.
func (s *Server) apply(w http.ResponseWriter, cmd score.Command) {
	label, applied := s.session.Apply(cmd)
	status := http.StatusOK
	if !applied {
		status = http.StatusConflict
	}
	s.writeJSON(w, status, editResponse{Label: label, Applied: applied, Revision: s.session.Revision()})
}

func (s *Server) handleInsertMeasure(w http.ResponseWriter, r *http.Request) {
	var req struct {
		At int `json:"at"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.InsertMeasure{At: req.At})
}

func (s *Server) handleAppendMeasures(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Count int `json:"count"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.AppendMeasures{Count: req.Count})
}

func (s *Server) handleRemoveMeasure(w http.ResponseWriter, r *http.Request) {
	s.apply(w, score.RemoveMeasure{At: pathIndex(r)})
}

func (s *Server) handleRemoveFollowing(w http.ResponseWriter, r *http.Request) {
	s.apply(w, score.RemoveMeasuresAfter{At: pathIndex(r)})
}

func (s *Server) handleTimeSignature(w http.ResponseWriter, r *http.Request) {
	var sig score.TimeSignature
	if err := decodeBody(r, &sig); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.UpdateTimeSignature{From: pathIndex(r), TimeSignature: sig})
}

func (s *Server) handleUpdateMeasure(w http.ResponseWriter, r *http.Request) {
	var fields map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	patch, err := decodePatch(fields)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.UpdateMeasure{At: pathIndex(r), Patch: patch})
}

var null = []byte("null")

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), null)
}

// decodePatch reads a partial measure. An absent key leaves the field alone; an
// explicit null removes tempo, tempoChange and fermataDurationMs, and clears section
// and annotations.
func decodePatch(fields map[string]json.RawMessage) (score.MeasurePatch, error) {
	var p score.MeasurePatch
	for key, raw := range fields {
		var err error
		switch key {
		case "timeSignature":
			if isNull(raw) {
				return p, fmt.Errorf("timeSignature cannot be removed")
			}
			p.TimeSignature = new(score.TimeSignature)
			err = json.Unmarshal(raw, p.TimeSignature)
		case "tempo":
			if isNull(raw) {
				p.RemoveTempo = true
				continue
			}
			p.Tempo = new(score.TempoInfo)
			err = json.Unmarshal(raw, p.Tempo)
		case "tempoChange":
			if isNull(raw) {
				p.RemoveTempoChange = true
				continue
			}
			p.TempoChange = new(score.TempoChange)
			err = json.Unmarshal(raw, p.TempoChange)
		case "fermataDurationMs":
			if isNull(raw) {
				p.RemoveFermata = true
				continue
			}
			p.FermataMs = new(float64)
			err = json.Unmarshal(raw, p.FermataMs)
		case "section":
			p.Section = new(string)
			if !isNull(raw) {
				err = json.Unmarshal(raw, p.Section)
			}
		case "annotations":
			annotations := []string{}
			if !isNull(raw) {
				err = json.Unmarshal(raw, &annotations)
			}
			p.Annotations = &annotations
		default:
			return p, fmt.Errorf("unknown measure field %q", key)
		}
		if err != nil {
			return p, fmt.Errorf("invalid %s: %w", key, err)
		}
	}
	return p, nil
}

func (s *Server) handleOffset(w http.ResponseWriter, r *http.Request) {
	var req struct {
		OffsetMs float64 `json:"offsetMs"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.SetOffset{OffsetMs: req.OffsetMs})
}

func (s *Server) handlePinDownbeat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioTimeMs float64 `json:"audioTimeMs"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.PinDownbeat{MeasureIndex: pathIndex(r), AudioTimeMs: req.AudioTimeMs})
}

func (s *Server) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	var marker score.WarpMarker
	if err := decodeBody(r, &marker); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.AddWarpMarker{Marker: marker})
}

func (s *Server) handleMoveMarker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AudioTimeMs float64 `json:"audioTimeMs"`
	}
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, score.MoveWarpMarker{ID: mux.Vars(r)["id"], AudioTimeMs: req.AudioTimeMs})
}

func (s *Server) handleRemoveMarker(w http.ResponseWriter, r *http.Request) {
	s.apply(w, score.RemoveWarpMarker{ID: mux.Vars(r)["id"]})
}

type stepsRequest struct {
	Steps int `json:"steps"`
}

type historyResponse struct {
	Steps    int    `json:"steps"`
	Revision uint64 `json:"revision"`
}

func (s *Server) decodeSteps(r *http.Request) (int, error) {
	req := stepsRequest{Steps: 1}
	if r.ContentLength == 0 {
		return req.Steps, nil
	}
	if err := decodeBody(r, &req); err != nil {
		return 0, err
	}
	return req.Steps, nil
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.History())
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	steps, err := s.decodeSteps(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := s.session.Undo(steps)
	s.writeJSON(w, http.StatusOK, historyResponse{Steps: n, Revision: s.session.Revision()})
}

func (s *Server) handleRedo(w http.ResponseWriter, r *http.Request) {
	steps, err := s.decodeSteps(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	n := s.session.Redo(steps)
	s.writeJSON(w, http.StatusOK, historyResponse{Steps: n, Revision: s.session.Revision()})
}
