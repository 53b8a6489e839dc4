package ui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	clocktesting "k8s.io/utils/clock/testing"

	"github.com/robmorgan/beatwarp/project"
	"github.com/robmorgan/beatwarp/score"
	"github.com/robmorgan/beatwarp/transport"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m tea.Model, keys ...string) tea.Model {
	t.Helper()
	for _, k := range keys {
		m, _ = m.Update(key(k))
	}
	return m
}

func newTestModel() (*project.Session, *transport.Clocked, *clocktesting.FakeClock, tea.Model) {
	clk := clocktesting.NewFakeClock(time.Now())
	tr := transport.NewClocked(clk, time.Minute)
	sess := project.NewSession(score.Default(8, 120), "song.wav", project.DefaultOptions())
	return sess, tr, clk, New(sess, tr, nil, Options{})
}

func TestPlayPauseAndSeek(t *testing.T) {
	t.Parallel()

	_, tr, clk, m := newTestModel()

	m = press(t, m, "p")
	assert.True(t, tr.IsPlaying())
	clk.Step(2500 * time.Millisecond)
	m = press(t, m, "p")
	assert.False(t, tr.IsPlaying())

	m = press(t, m, "right")
	assert.Equal(t, 4000.0, tr.CurrentTimeMs())
	m = press(t, m, "left", "left")
	assert.Equal(t, 0.0, tr.CurrentTimeMs())

	m, _ = m.Update(tickMsg(time.Now()))
	assert.Contains(t, m.View(), "1.1")
}

func TestPinDownbeat(t *testing.T) {
	t.Parallel()

	sess, tr, _, m := newTestModel()

	tr.Seek(3800)
	m = press(t, m, "d")
	assert.Equal(t, 3800.0, sess.TimeMap().Spans()[2].StartMs, "late in measure 2 pins measure 3")

	tr.Seek(250)
	m = press(t, m, "d")
	assert.Equal(t, 250.0, sess.Score().OffsetMs, "early in measure 1 moves the offset")

	m = press(t, m, "u")
	assert.Equal(t, 0.0, sess.Score().OffsetMs)
	assert.Contains(t, m.View(), "Undone")
}

func TestViewPastTheEndOfTheScore(t *testing.T) {
	t.Parallel()

	_, tr, _, m := newTestModel()

	// 8 measures of 4/4 at 120bpm end at 16s
	for _, ms := range []float64{15000, 16000, 30000, 59000} {
		tr.Seek(ms)
		m, _ = m.Update(tickMsg(time.Now()))
		var view string
		require.NotPanics(t, func() { view = m.View() })
		assert.Contains(t, view, " 8 4/4 ")
		assert.NotContains(t, view, " 9 4/4 ")
	}
}

func TestZoomKeys(t *testing.T) {
	t.Parallel()

	_, _, _, m := newTestModel()
	assert.Contains(t, m.View(), "zoom 100px/s")

	m = press(t, m, "]", "]")
	assert.Contains(t, m.View(), "zoom 140px/s")

	m = press(t, m, "[", "[", "[", "[", "[", "[", "[", "[")
	assert.Contains(t, m.View(), "zoom 20px/s")
}

func TestProgressFraction(t *testing.T) {
	t.Parallel()

	_, tr, _, m := newTestModel()
	tr.Seek(30000)
	m, _ = m.Update(tickMsg(time.Now()))
	assert.Equal(t, 0.5, m.(model).fraction())

	sess := project.NewSession(score.Default(8, 120), "", project.DefaultOptions())
	free := New(sess, transport.NewClocked(clocktesting.NewFakeClock(time.Now()), 0), nil, Options{}).(model)
	free.nowMs = 8000
	assert.Equal(t, 0.5, free.fraction(), "without a length the score end is used")
}

func TestQuit(t *testing.T) {
	t.Parallel()

	_, _, _, m := newTestModel()
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestFormatMs(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1:02.500", formatMs(62500))
	assert.Equal(t, "-0:00.250", formatMs(-250))
}
