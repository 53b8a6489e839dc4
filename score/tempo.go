package score

// DefaultBPM is the tempo assumed until a measure sets one.
const DefaultBPM = 120.0

// BaseNote is the note value a BPM figure counts.
type BaseNote string

const (
	Quarter       BaseNote = "quarter"
	Eighth        BaseNote = "eighth"
	DottedQuarter BaseNote = "dot-quarter"
)

// QuarterMultiplier returns the length of the base note in quarter notes.
func (b BaseNote) QuarterMultiplier() float64 {
	switch b {
	case Eighth:
		return 0.5
	case DottedQuarter:
		return 1.5
	}
	return 1
}

// TempoInfo is a tempo mark: bpm beats of baseNote per minute.
type TempoInfo struct {
	BaseNote BaseNote `json:"baseNote"`
	BPM      float64  `json:"bpm"`
}

// Valid reports whether the tempo can drive the time map.
func (t TempoInfo) Valid() bool {
	return t.BPM > 0
}

// MsPerQuarterNote converts the tempo to the length of one quarter note.
func MsPerQuarterNote(bpm float64, base BaseNote) float64 {
	return beatsToMilliseconds(1, bpm) / base.QuarterMultiplier()
}

// QuarterBPM expresses the tempo as quarter notes per minute.
func (t TempoInfo) QuarterBPM() float64 {
	return t.BPM * t.BaseNote.QuarterMultiplier()
}

// beatsToMilliseconds calculates milliseconds for given beats and tempo
func beatsToMilliseconds(beats float64, tempo float64) float64 {
	return (60000.0 / tempo) * beats
}
