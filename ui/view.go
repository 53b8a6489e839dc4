package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robmorgan/beatwarp/timemap"
	"github.com/robmorgan/beatwarp/utils"
)

const (
	// stripMeasures is how many measures the strip shows around the current one.
	stripMeasures = 8

	// pxPerColumn is how many timeline pixels one terminal column stands for.
	pxPerColumn = 25.0
)

func (m model) View() string {
	var b strings.Builder

	title := m.session.AudioFileName()
	if title == "" {
		title = "untitled"
	}
	b.WriteString(titleStyle.Render("beatwarp · "+title) + "\n\n")

	tm := m.session.TimeMap()
	pos := tm.Locate(m.nowMs)
	state := "paused"
	if m.transport.IsPlaying() {
		state = m.spinner.View() + " playing"
	}
	fmt.Fprintf(&b, "%s  %s  %s  zoom %.0fpx/s\n\n", markerStyle.Render(pos.Marker()), formatMs(m.nowMs), state, m.zoom)

	b.WriteString(m.progress.ViewAs(m.fraction()) + "\n\n")
	b.WriteString(m.strip(tm, pos) + "\n\n")

	if m.metronome != nil {
		snap := m.metronome.GetSnapshot()
		beat := "○"
		if snap.IsDownBeat() {
			beat = "●"
		}
		onOff := "off"
		if snap.Enabled {
			onOff = "on"
		}
		fmt.Fprintf(&b, "Metronome %s (%s) volume %.0f%% %s\n", onOff, snap.State, snap.Volume*100, beat)
	}
	if labels := m.session.PastLabels(); len(labels) > 0 {
		fmt.Fprintf(&b, "Last edit: %s\n", labels[len(labels)-1])
	}
	if m.status != "" {
		b.WriteString(statusStyle.Render(m.status) + "\n")
	}

	b.WriteString(helpStyle.Render("space play/pause · ←/→ measure · [/] zoom · d pin downbeat · m metronome · +/- volume\nu undo · r redo · s save · q quit"))
	if m.quitting {
		b.WriteString("\n")
	}
	return appStyle.Render(b.String())
}

func (m model) fraction() float64 {
	total := m.transport.DurationMs()
	if total <= 0 {
		total = m.session.TimeMap().EndMs()
	}
	return utils.ToUnitClamp(0, total)(m.nowMs)
}

// strip draws the measures around the cursor, coloured by section, with the current
// measure highlighted.
func (m model) strip(tm *timemap.Map, pos timemap.Position) string {
	sc := m.session.Score()
	layout := tm.Layout(m.zoom)
	first := pos.MeasureIndex - stripMeasures/2
	if pos.Beyond || first > tm.Len()-stripMeasures {
		first = tm.Len() - stripMeasures
	}
	if first < 0 || pos.PreRoll {
		first = 0
	}
	last := first + stripMeasures
	if last > tm.Len() {
		last = tm.Len()
	}

	cells := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		l := layout[i]
		label := fmt.Sprintf(" %d %d/%d ", i+1, l.TimeSignature.Num, l.TimeSignature.Den)
		if l.Warped {
			label += "~"
		}
		if cols := int(math.Round(l.Width / pxPerColumn)); cols > len(label) {
			label += strings.Repeat(" ", cols-len(label))
		}
		style := lipgloss.NewStyle()
		if section := sc.Measures[i].Section; section != "" {
			style = style.Foreground(lipgloss.Color(utils.SectionColor(section, m.opts.SectionColors).Hex()))
		}
		if i == pos.MeasureIndex && !pos.PreRoll && !pos.Beyond {
			style = style.Reverse(true)
		}
		cells = append(cells, style.Render(label))
	}
	return strings.Join(cells, "│")
}

func formatMs(ms float64) string {
	sign := ""
	if ms < 0 {
		sign, ms = "-", -ms
	}
	total := int(ms)
	return fmt.Sprintf("%s%d:%02d.%03d", sign, total/60000, (total/1000)%60, total%1000)
}
