package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/robmorgan/beatwarp/score"
	"github.com/robmorgan/beatwarp/timemap"
)

const volumeStep = 0.1

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tickMsg:
		m.nowMs = m.transport.CurrentTimeMs()
		return m, tickCmd()
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		m.quitting = true
		return m, tea.Quit
	case " ", "p":
		if m.transport.IsPlaying() {
			m.transport.Pause()
		} else {
			m.transport.Play()
		}
	case "left":
		m.seekMeasure(-1)
	case "right":
		m.seekMeasure(1)
	case "m":
		if m.metronome != nil {
			m.metronome.SetEnabled(!m.metronome.Enabled())
		}
	case "+", "=":
		if m.metronome != nil {
			m.metronome.SetVolume(m.metronome.Volume() + volumeStep)
		}
	case "-":
		if m.metronome != nil {
			m.metronome.SetVolume(m.metronome.Volume() - volumeStep)
		}
	case "[":
		m.zoom = timemap.StepZoom(m.zoom, -1)
	case "]":
		m.zoom = timemap.StepZoom(m.zoom, 1)
	case "d":
		m.pinDownbeat()
	case "u":
		if m.session.Undo(1) == 0 {
			m.status = "Nothing to undo"
		} else {
			m.status = "Undone"
		}
	case "r":
		if m.session.Redo(1) == 0 {
			m.status = "Nothing to redo"
		} else {
			m.status = "Redone"
		}
	case "s":
		if err := m.session.Save(); err != nil {
			m.status = fmt.Sprintf("Save failed: %v", err)
		} else {
			m.status = "Saved " + m.session.Path()
		}
	}
	m.nowMs = m.transport.CurrentTimeMs()
	return m, nil
}

// seekMeasure jumps to the downbeat delta measures away from the current one.
func (m *model) seekMeasure(delta int) {
	tm := m.session.TimeMap()
	pos := tm.Locate(m.transport.CurrentTimeMs())

	target := pos.MeasureIndex + delta
	if pos.PreRoll {
		target = 0
		if delta < 0 {
			m.transport.Seek(0)
			return
		}
	}
	if target < 0 {
		target = 0
	}
	if target >= tm.Len() {
		target = tm.Len() - 1
	}
	span, _ := tm.Span(target)
	m.transport.Seek(span.StartMs)
}

// pinDownbeat anchors the downbeat nearest to the playhead at the playhead, so markers
// can be tapped in while listening.
func (m *model) pinDownbeat() {
	now := m.transport.CurrentTimeMs()
	tm := m.session.TimeMap()
	pos := tm.Locate(now)

	index := pos.MeasureIndex
	switch {
	case pos.PreRoll:
		index = 0
	case !pos.Beyond:
		if span, ok := tm.Span(index); ok && pos.Beat >= float64(span.BeatCount())/2 {
			index++
		}
	}

	label, ok := m.session.Apply(score.PinDownbeat{MeasureIndex: index, AudioTimeMs: now})
	if !ok {
		m.status = label + " rejected"
		return
	}
	m.status = fmt.Sprintf("%s: measure %d at %.0fms", label, index+1, now)
}
