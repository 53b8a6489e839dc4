package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/robmorgan/beatwarp/project"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/score"
	"github.com/robmorgan/beatwarp/timemap"
	"github.com/robmorgan/beatwarp/transport"
)

func newTestServer(opts ...Option) (*project.Session, http.Handler) {
	sess := project.NewSession(score.Default(4, 120), "song.wav", project.DefaultOptions())
	return sess, NewServer(sess, opts...).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestLayoutAndLocate(t *testing.T) {
	t.Parallel()

	_, h := newTestServer()
	rec := do(t, h, http.MethodPut, "/offset", `{"offsetMs": 1000}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/layout?zoom=1000", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var layout []timemap.MeasureLayout
	decode(t, rec, &layout)
	require.Len(t, layout, 4)
	assert.Equal(t, 1000.0, layout[0].StartMs)
	assert.Equal(t, 3000.0, layout[0].EndMs)
	assert.Equal(t, 300.0, layout[0].X, "zoom is clamped")

	rec = do(t, h, http.MethodGet, "/locate?ms=3600", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var loc locateResponse
	decode(t, rec, &loc)
	assert.Equal(t, 1, loc.MeasureIndex)
	assert.Equal(t, "2.2", loc.Marker)

	rec = do(t, h, http.MethodGet, "/locate?ms=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBeats(t *testing.T) {
	t.Parallel()

	_, h := newTestServer()
	rec := do(t, h, http.MethodGet, "/beats/next?ms=2600", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var b timemap.Beat
	decode(t, rec, &b)
	assert.Equal(t, timemap.Beat{MeasureIndex: 1, Index: 2, TimeMs: 3000}, b)

	rec = do(t, h, http.MethodGet, "/beats/next?ms=3000&strict=true", "")
	decode(t, rec, &b)
	assert.Equal(t, 3500.0, b.TimeMs)

	rec = do(t, h, http.MethodGet, "/beats/next?ms=9000", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/beats?from=0&to=2000", "")
	var beats []timemap.Beat
	decode(t, rec, &beats)
	assert.Len(t, beats, 4)
}

func TestMeasureEdits(t *testing.T) {
	t.Parallel()

	sess, h := newTestServer()

	rec := do(t, h, http.MethodPost, "/measures", `{"at": 1}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var edit editResponse
	decode(t, rec, &edit)
	assert.Equal(t, editResponse{Label: score.LabelInsertMeasure, Applied: true, Revision: 1}, edit)
	assert.Len(t, sess.Score().Measures, 5)

	rec = do(t, h, http.MethodPost, "/measures/append", `{"count": 3}`)
	decode(t, rec, &edit)
	assert.Equal(t, "Add 3 measures", edit.Label)

	rec = do(t, h, http.MethodPut, "/measures/2/time-signature", `{"num": 3, "den": 4}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, score.TimeSignature{Num: 3, Den: 4}, sess.Score().Measures[7].TimeSignature)

	rec = do(t, h, http.MethodDelete, "/measures/5/following", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, sess.Score().Measures, 6)

	rec = do(t, h, http.MethodDelete, "/measures/40", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	decode(t, rec, &edit)
	assert.False(t, edit.Applied)
	assert.Equal(t, score.LabelRemoveMeasure, edit.Label)

	rec = do(t, h, http.MethodPost, "/measures", `{"at": 1, "bogus": true}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPatchMeasureNullRemoves(t *testing.T) {
	t.Parallel()

	sess, h := newTestServer()

	rec := do(t, h, http.MethodPatch, "/measures/1", `{"tempo": {"baseNote": "eighth", "bpm": 140}, "fermataDurationMs": 500, "section": "Bridge", "annotations": ["a tempo"]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	m := sess.Score().Measures[1]
	require.NotNil(t, m.Tempo)
	assert.Equal(t, score.TempoInfo{BaseNote: score.Eighth, BPM: 140}, *m.Tempo)
	require.NotNil(t, m.FermataMs)
	assert.Equal(t, 500.0, *m.FermataMs)
	assert.Equal(t, "Bridge", m.Section)
	assert.Equal(t, []string{score.ATempo}, m.Annotations)

	rec = do(t, h, http.MethodPatch, "/measures/1", `{"tempo": null, "fermataDurationMs": null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	m = sess.Score().Measures[1]
	assert.Nil(t, m.Tempo)
	assert.Nil(t, m.FermataMs)
	assert.Equal(t, "Bridge", m.Section, "absent keys are left alone")

	rec = do(t, h, http.MethodPatch, "/measures/1", `{"timeSignature": null}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodPatch, "/measures/1", `{"tempo": {"baseNote": "quarter", "bpm": -1}}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec = do(t, h, http.MethodPatch, "/measures/1", `{"colour": "red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkersAndHistory(t *testing.T) {
	t.Parallel()

	sess, h := newTestServer()

	rec := do(t, h, http.MethodPost, "/markers", `{"id": "w1", "measureIndex": 2, "beatOffset": 0, "audioTimeMs": 4200}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4200.0, sess.TimeMap().Spans()[1].EndMs)

	rec = do(t, h, http.MethodPut, "/markers/w1", `{"audioTimeMs": 4400}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 4400.0, sess.TimeMap().Spans()[1].EndMs)

	rec = do(t, h, http.MethodPut, "/measures/0/downbeat", `{"audioTimeMs": 250}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 250.0, sess.Score().OffsetMs)

	rec = do(t, h, http.MethodDelete, "/markers/nope", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodGet, "/history", "")
	var view project.HistoryView
	decode(t, rec, &view)
	require.Len(t, view.Past, 3)
	assert.Equal(t, "", view.Past[0].Label)
	assert.Equal(t, score.LabelAddMarker, view.Past[1].Label)
	assert.Equal(t, 1, view.Past[1].Markers)

	rec = do(t, h, http.MethodPost, "/history/undo", `{"steps": 2}`)
	var hr historyResponse
	decode(t, rec, &hr)
	assert.Equal(t, 2, hr.Steps)
	assert.Equal(t, 4200.0, sess.TimeMap().Spans()[1].EndMs)

	rec = do(t, h, http.MethodPost, "/history/redo", "")
	decode(t, rec, &hr)
	assert.Equal(t, 1, hr.Steps)
	assert.Equal(t, []string{score.LabelOffset}, sess.FutureLabels())
}

func TestReplaceProject(t *testing.T) {
	t.Parallel()

	sess, h := newTestServer()
	rec := do(t, h, http.MethodPut, "/project", `{"audioFileName": "other.mp3", "offsetMs": 80, "measures": [{"id": "m1", "index": 0, "timeSignature": {"num": 7, "den": 8}}], "warpMarkers": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "other.mp3", sess.AudioFileName())
	assert.Len(t, sess.Score().Measures, 1)

	rec = do(t, h, http.MethodPut, "/project", `{"measures": [{"id": "m1", "index": 0, "timeSignature": {"num": 7, "den": 5}}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/project", "")
	var doc project.Document
	decode(t, rec, &doc)
	assert.Equal(t, 80.0, doc.OffsetMs)

	rec = do(t, h, http.MethodPost, "/project/save", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code, "unsaved sessions have no path")
}

type nopSink struct{}

func (nopSink) OutputTime() time.Duration { return 0 }
func (nopSink) ScheduleClick(time.Duration, bool, float64) {}

func TestTransportAndMetronome(t *testing.T) {
	t.Parallel()

	clk := clocktesting.NewFakeClock(time.Now())
	tr := transport.NewClocked(clk, time.Minute)
	sess := project.NewSession(score.Default(4, 120), "", project.DefaultOptions())
	m := rhythm.NewMetronome(clk, tr, nopSink{}, sess, rhythm.DefaultConfig())
	h := NewServer(sess, WithTransport(tr), WithMetronome(m)).Handler()

	rec := do(t, h, http.MethodPost, "/transport/seek", `{"ms": 2500}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var state transportResponse
	decode(t, rec, &state)
	assert.Equal(t, transportResponse{TimeMs: 2500, DurationMs: 60000, Marker: "2.2"}, state)

	rec = do(t, h, http.MethodPost, "/transport/play", "")
	decode(t, rec, &state)
	assert.True(t, state.Playing)

	rec = do(t, h, http.MethodPut, "/metronome", `{"enabled": true, "volume": 2}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var snap struct {
		Enabled bool    `json:"enabled"`
		Volume  float64 `json:"volume"`
	}
	decode(t, rec, &snap)
	assert.True(t, snap.Enabled)
	assert.Equal(t, 1.0, snap.Volume)

	rec = do(t, h, http.MethodGet, "/metronome", "")
	assert.Contains(t, rec.Body.String(), `"state":"idle"`)
}

func TestCORS(t *testing.T) {
	t.Parallel()

	_, h := newTestServer(WithAllowedOrigins("http://localhost:5173"))
	req := httptest.NewRequest(http.MethodOptions, "/offset", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}
