package score

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScore(count int) Score {
	s := Default(count, DefaultBPM)
	s.WarpMarkers = []WarpMarker{
		{ID: "w1", MeasureIndex: 1, AudioTimeMs: 2100},
		{ID: "w2", MeasureIndex: 2, AudioTimeMs: 4200},
		{ID: "w3", MeasureIndex: 3, BeatOffset: 2, AudioTimeMs: 7000},
	}
	return s
}

func requireIndexed(t *testing.T, s Score) {
	for i, m := range s.Measures {
		require.Equal(t, i, m.Index)
	}
}

func markerIndexes(s Score) map[string]int {
	out := make(map[string]int)
	for _, w := range s.WarpMarkers {
		out[w.ID] = w.MeasureIndex
	}
	return out
}

func TestInsertMeasureShiftsMarkers(t *testing.T) {
	t.Parallel()

	s := newTestScore(4)
	next, label, applied := InsertMeasure{At: 2}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelInsertMeasure, label)

	require.Len(t, next.Measures, 5)
	requireIndexed(t, next)
	assert.Equal(t, map[string]int{"w1": 1, "w2": 3, "w3": 4}, markerIndexes(next))

	// the input score is untouched
	assert.Len(t, s.Measures, 4)
	assert.Equal(t, map[string]int{"w1": 1, "w2": 2, "w3": 3}, markerIndexes(s))
}

func TestInsertMeasureInheritsTimeSignature(t *testing.T) {
	t.Parallel()

	s := Default(2, DefaultBPM)
	s.Measures[1].TimeSignature = TimeSignature{Num: 6, Den: 8}

	next, _, applied := InsertMeasure{At: 2}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, TimeSignature{Num: 6, Den: 8}, next.Measures[2].TimeSignature)
	assert.Nil(t, next.Measures[2].Tempo)

	s.Measures[0].TimeSignature = TimeSignature{Num: 3, Den: 4}
	next, _, applied = InsertMeasure{At: 0}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, CommonTime, next.Measures[0].TimeSignature)
}

func TestInsertMeasureOutOfRange(t *testing.T) {
	t.Parallel()

	s := newTestScore(3)
	_, _, applied := InsertMeasure{At: 4}.Apply(s)
	assert.False(t, applied)
	_, _, applied = InsertMeasure{At: -1}.Apply(s)
	assert.False(t, applied)
}

func TestRemoveMeasurePrunesAndShiftsMarkers(t *testing.T) {
	t.Parallel()

	s := newTestScore(4)
	next, label, applied := RemoveMeasure{At: 2}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelRemoveMeasure, label)

	require.Len(t, next.Measures, 3)
	requireIndexed(t, next)
	assert.Equal(t, map[string]int{"w1": 1, "w3": 2}, markerIndexes(next))
}

func TestRemoveMeasureKeepsLastMeasure(t *testing.T) {
	t.Parallel()

	s := Default(1, DefaultBPM)
	next, _, applied := RemoveMeasure{At: 0}.Apply(s)
	assert.False(t, applied)
	assert.Equal(t, s, next)
}

func TestRemoveMeasuresAfter(t *testing.T) {
	t.Parallel()

	s := newTestScore(4)
	next, label, applied := RemoveMeasuresAfter{At: 1}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelRemoveMeasuresAfter, label)
	require.Len(t, next.Measures, 2)
	assert.Equal(t, map[string]int{"w1": 1}, markerIndexes(next))

	_, _, applied = RemoveMeasuresAfter{At: 3}.Apply(s)
	assert.False(t, applied, "removing after the last index is a no-op")
}

func TestUpdateTimeSignaturePropagatesUntilOverride(t *testing.T) {
	t.Parallel()

	s := Default(6, DefaultBPM)
	s.Measures[4].TimeSignature = TimeSignature{Num: 3, Den: 4}

	next, label, applied := UpdateTimeSignature{From: 1, TimeSignature: TimeSignature{Num: 7, Den: 8}}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelTimeSignature, label)

	expected := []TimeSignature{
		CommonTime,
		{Num: 7, Den: 8},
		{Num: 7, Den: 8},
		{Num: 7, Den: 8},
		{Num: 3, Den: 4},
		CommonTime,
	}
	for i, m := range next.Measures {
		assert.Equal(t, expected[i], m.TimeSignature, "measure %d", i)
	}
}

func TestUpdateTimeSignatureRejectsInvalid(t *testing.T) {
	t.Parallel()

	s := Default(2, DefaultBPM)
	for _, sig := range []TimeSignature{{Num: 0, Den: 4}, {Num: 4, Den: 3}, {Num: 4, Den: 32}} {
		_, _, applied := UpdateTimeSignature{From: 0, TimeSignature: sig}.Apply(s)
		assert.False(t, applied, "%v", sig)
	}
}

func TestUpdateMeasureRemovesOptionalFields(t *testing.T) {
	t.Parallel()

	s := Default(3, DefaultBPM)
	fermata := 750.0
	tempo := TempoInfo{BaseNote: Eighth, BPM: 180}
	section := "[Intro]"

	next, label, applied := UpdateMeasure{At: 1, Patch: MeasurePatch{
		Tempo:     &tempo,
		FermataMs: &fermata,
		Section:   &section,
	}}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelEditMeasure, label)
	require.NotNil(t, next.Measures[1].Tempo)
	assert.Equal(t, tempo, *next.Measures[1].Tempo)
	assert.Equal(t, 750.0, next.Measures[1].Fermata())
	assert.Equal(t, "[Intro]", next.Measures[1].Section)

	next, _, applied = UpdateMeasure{At: 1, Patch: MeasurePatch{RemoveTempo: true, RemoveFermata: true}}.Apply(next)
	require.True(t, applied)
	assert.Nil(t, next.Measures[1].Tempo)
	assert.Nil(t, next.Measures[1].FermataMs)
	assert.Equal(t, "[Intro]", next.Measures[1].Section)
}

func TestUpdateMeasureRejectsInvalidPatch(t *testing.T) {
	t.Parallel()

	s := Default(2, DefaultBPM)
	negative := -1.0
	_, _, applied := UpdateMeasure{At: 0, Patch: MeasurePatch{FermataMs: &negative}}.Apply(s)
	assert.False(t, applied)

	_, _, applied = UpdateMeasure{At: 0, Patch: MeasurePatch{Tempo: &TempoInfo{BaseNote: Quarter}}}.Apply(s)
	assert.False(t, applied)

	_, _, applied = UpdateMeasure{At: 2}.Apply(s)
	assert.False(t, applied)
}

func TestWarpMarkerCommands(t *testing.T) {
	t.Parallel()

	s := Default(4, DefaultBPM)

	next, label, applied := AddWarpMarker{Marker: WarpMarker{MeasureIndex: 2, AudioTimeMs: 4100}}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelAddMarker, label)
	require.Len(t, next.WarpMarkers, 1)
	id := next.WarpMarkers[0].ID
	assert.NotEmpty(t, id)

	next, label, applied = MoveWarpMarker{ID: id, AudioTimeMs: 4300}.Apply(next)
	require.True(t, applied)
	assert.Equal(t, LabelMoveMarker, label)
	assert.Equal(t, 4300.0, next.WarpMarkers[0].AudioTimeMs)

	_, _, applied = MoveWarpMarker{ID: "missing", AudioTimeMs: 1}.Apply(next)
	assert.False(t, applied)

	next, label, applied = RemoveWarpMarker{ID: id}.Apply(next)
	require.True(t, applied)
	assert.Equal(t, LabelRemoveMarker, label)
	assert.Empty(t, next.WarpMarkers)

	_, _, applied = AddWarpMarker{Marker: WarpMarker{MeasureIndex: 5, AudioTimeMs: 1}}.Apply(s)
	assert.False(t, applied, "marker past the end of the score")
	_, _, applied = AddWarpMarker{Marker: WarpMarker{MeasureIndex: 4, AudioTimeMs: 9000}}.Apply(s)
	assert.True(t, applied, "marker pinning the end of the last measure")
}

func TestPinDownbeat(t *testing.T) {
	t.Parallel()

	s := Default(4, DefaultBPM)

	next, label, applied := PinDownbeat{MeasureIndex: 0, AudioTimeMs: 800}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, LabelOffset, label)
	assert.Equal(t, 800.0, next.OffsetMs)
	assert.Empty(t, next.WarpMarkers)

	next, label, _ = PinDownbeat{MeasureIndex: 2, AudioTimeMs: 4000}.Apply(next)
	assert.Equal(t, LabelAddMarker, label)
	next, label, _ = PinDownbeat{MeasureIndex: 2, AudioTimeMs: 4250}.Apply(next)
	assert.Equal(t, LabelMoveMarker, label)

	require.Len(t, next.WarpMarkers, 1)
	assert.Equal(t, 4250.0, next.WarpMarkers[0].AudioTimeMs)
}

func TestAppendMeasures(t *testing.T) {
	t.Parallel()

	s := Default(2, DefaultBPM)
	s.Measures[1].TimeSignature = TimeSignature{Num: 5, Den: 4}

	next, label, applied := AppendMeasures{Count: 3}.Apply(s)
	require.True(t, applied)
	assert.Equal(t, "Add 3 measures", label)
	require.Len(t, next.Measures, 5)
	requireIndexed(t, next)
	assert.Equal(t, TimeSignature{Num: 5, Den: 4}, next.Measures[4].TimeSignature)
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	s := Score{
		OffsetMs: -5,
		Measures: []Measure{
			{Index: 7, TimeSignature: CommonTime},
			{Index: 7, TimeSignature: CommonTime},
		},
		WarpMarkers: []WarpMarker{
			{ID: "ok", MeasureIndex: 2, AudioTimeMs: 100},
			{ID: "dangling", MeasureIndex: 3, AudioTimeMs: 100},
		},
	}

	n := Normalize(s)
	requireIndexed(t, n)
	assert.Equal(t, 0.0, n.OffsetMs)
	assert.NotEmpty(t, n.Measures[0].ID)
	assert.Equal(t, map[string]int{"ok": 2}, markerIndexes(n))

	assert.Len(t, Normalize(Score{}).Measures, 1)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	s := Default(2, DefaultBPM)
	require.NoError(t, Validate(s))

	s.Measures[1].TimeSignature = TimeSignature{Num: 4, Den: 5}
	var sigErr InvalidTimeSignature
	require.ErrorAs(t, Validate(s), &sigErr)
	assert.Equal(t, 1, sigErr.Index)

	s = Default(2, DefaultBPM)
	s.Measures[0].Tempo.BPM = 0
	var tempoErr InvalidTempo
	require.ErrorAs(t, Validate(s), &tempoErr)
}
