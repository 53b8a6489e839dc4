// Package midiexport writes the beat map of a score as a standard MIDI file: a tempo
// track whose tempo changes reproduce every measure's resolved length, and a BEAT
// track with a note on every click (C-1 on downbeats, C#-1 on other beats) so a DAW
// can line the score up with the recording.
package midiexport

import (
	"io"
	"math"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/robmorgan/beatwarp/score"
	"github.com/robmorgan/beatwarp/timemap"
)

const (
	// TicksPerQuarter is the resolution of exported files.
	TicksPerQuarter = 960

	DownbeatKey uint8 = 12
	BeatKey     uint8 = 13

	BeatTrackName = "BEAT"

	velocity = 100

	// maxLeadInQuarterMs keeps the lead-in tempo at 60bpm or faster.
	maxLeadInQuarterMs = 1000.0
	maxMeterNum        = 255
)

// segment is a stretch of the file with one meter and one tempo.
type segment struct {
	ticks  uint32
	meter  score.TimeSignature
	bpm    float64
	beats  int
	leadIn bool
}

func quarterTicks(quarters float64) uint32 {
	return uint32(math.Round(quarters * TicksPerQuarter))
}

// leadIn covers the audio before measure 0 with silent quarter notes.
func leadIn(offsetMs float64) (segment, bool) {
	if offsetMs <= 0 {
		return segment{}, false
	}
	n := int(math.Ceil(offsetMs / maxLeadInQuarterMs))
	if n > maxMeterNum {
		n = maxMeterNum
	}
	return segment{
		ticks:  quarterTicks(float64(n)),
		meter:  score.TimeSignature{Num: n, Den: 4},
		bpm:    60000 * float64(n) / offsetMs,
		leadIn: true,
	}, true
}

func measure(span timemap.Span) segment {
	sig := span.TimeSignature
	if !sig.Valid() {
		sig = score.CommonTime
	}
	quarters := sig.QuarterNotes()
	bpm := score.DefaultBPM
	if d := span.DurationMs(); d > 0 {
		bpm = 60000 * quarters / d
	}
	return segment{
		ticks: quarterTicks(quarters),
		meter: sig,
		bpm:   bpm,
		beats: sig.Num,
	}
}

func segments(tm *timemap.Map) []segment {
	out := make([]segment, 0, tm.Len()+1)
	if s, ok := leadIn(tm.OffsetMs()); ok {
		out = append(out, s)
	}
	for _, span := range tm.Spans() {
		out = append(out, measure(span))
	}
	return out
}

// meterMessage writes a time signature. SMF stores the numerator in one byte, so longer
// measures are written as 255 beats; their beat notes are still all written.
func meterMessage(sig score.TimeSignature) smf.Message {
	num := sig.Num
	if num > maxMeterNum {
		num = maxMeterNum
	}
	return smf.MetaMeter(uint8(num), uint8(sig.Den))
}

// Export builds the MIDI file for a time map.
func Export(tm *timemap.Map, title string) (*smf.SMF, error) {
	file := smf.New()
	file.TimeFormat = smf.MetricTicks(TicksPerQuarter)

	segs := segments(tm)

	var tempo smf.Track
	tempo.Add(0, smf.MetaTrackSequenceName(title))
	var delta uint32
	var last score.TimeSignature
	for _, s := range segs {
		if s.meter != last {
			tempo.Add(delta, meterMessage(s.meter))
			delta = 0
			last = s.meter
		}
		tempo.Add(delta, smf.MetaTempo(s.bpm))
		delta = s.ticks
	}
	tempo.Close(delta)
	if err := file.Add(tempo); err != nil {
		return nil, errors.WithStackTrace(err)
	}

	var beats smf.Track
	beats.Add(0, smf.MetaTrackSequenceName(BeatTrackName))
	delta = 0
	for _, s := range segs {
		if s.leadIn {
			delta += s.ticks
			continue
		}
		beatTicks := s.ticks / uint32(s.beats)
		noteTicks := beatTicks / 4
		for k := 0; k < s.beats; k++ {
			key := BeatKey
			if k == 0 {
				key = DownbeatKey
			}
			beats.Add(delta, midi.NoteOn(0, key, velocity))
			beats.Add(noteTicks, midi.NoteOff(0, key))
			delta = beatTicks - noteTicks
		}
	}
	beats.Close(delta)
	if err := file.Add(beats); err != nil {
		return nil, errors.WithStackTrace(err)
	}
	return file, nil
}

// Write exports the time map to w.
func Write(w io.Writer, tm *timemap.Map, title string) error {
	file, err := Export(tm, title)
	if err != nil {
		return err
	}
	if _, err := file.WriteTo(w); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// WriteFile exports the time map to path.
func WriteFile(path string, tm *timemap.Map, title string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.WithStackTrace(err)
	}
	if err := Write(f, tm, title); err != nil {
		f.Close()
		return err
	}
	return errors.WithStackTrace(f.Close())
}
