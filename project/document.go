// Package project stores scores as .beat files and owns the editing session around one.
package project

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"

	"github.com/robmorgan/beatwarp/score"
)

// Extension is the file extension of project files.
const Extension = ".beat"

// AudioExtensions are tried, in order, when looking for the audio of a project.
var AudioExtensions = []string{".wav", ".mp3", ".flac", ".ogg"}

// Document is the persisted form of a project.
type Document struct {
	AudioFileName *string            `json:"audioFileName"`
	OffsetMs      float64            `json:"offsetMs"`
	Measures      []score.Measure    `json:"measures"`
	WarpMarkers   []score.WarpMarker `json:"warpMarkers"`
}

// NewDocument captures a score. An empty audioFileName is stored as null.
func NewDocument(s score.Score, audioFileName string) Document {
	d := Document{
		OffsetMs:    s.OffsetMs,
		Measures:    s.Clone().Measures,
		WarpMarkers: s.Clone().WarpMarkers,
	}
	if audioFileName != "" {
		d.AudioFileName = &audioFileName
	}
	if d.Measures == nil {
		d.Measures = []score.Measure{}
	}
	if d.WarpMarkers == nil {
		d.WarpMarkers = []score.WarpMarker{}
	}
	return d
}

// Score returns the document's score with structural invariants restored.
func (d Document) Score() score.Score {
	return score.Normalize(score.Score{
		OffsetMs:    d.OffsetMs,
		Measures:    d.Measures,
		WarpMarkers: d.WarpMarkers,
	})
}

// Audio returns the audio file name, or "" when there is none.
func (d Document) Audio() string {
	if d.AudioFileName == nil {
		return ""
	}
	return *d.AudioFileName
}

// ProjectNotFound is returned when a project file does not exist.
type ProjectNotFound struct {
	Path string
}

func (err ProjectNotFound) Error() string {
	return fmt.Sprintf("project file %s does not exist", err.Path)
}

// InvalidProject is returned when a project file cannot be decoded.
type InvalidProject struct {
	Path   string
	Reason error
}

func (err InvalidProject) Error() string {
	return fmt.Sprintf("project file %s is invalid: %v", err.Path, err.Reason)
}

// Decode reads a document and validates its score.
func Decode(r io.Reader) (Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return d, err
	}
	if err := score.Validate(d.Score()); err != nil {
		return d, err
	}
	return d, nil
}

// Encode writes a document as indented JSON.
func Encode(w io.Writer, d Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(d)
}

// Load reads a project file.
func Load(path string) (Document, error) {
	if !files.FileExists(path) {
		return Document{}, errors.WithStackTrace(ProjectNotFound{Path: path})
	}

	f, err := os.Open(path)
	if err != nil {
		return Document{}, errors.WithStackTrace(err)
	}
	defer f.Close()

	d, err := Decode(f)
	if err != nil {
		return Document{}, errors.WithStackTrace(InvalidProject{Path: path, Reason: err})
	}
	return d, nil
}

// Save writes a project file, replacing it atomically.
func Save(path string, d Document) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return errors.WithStackTrace(err)
	}
	defer os.Remove(tmp.Name())

	if err := Encode(tmp, d); err != nil {
		tmp.Close()
		return errors.WithStackTrace(err)
	}
	if err := tmp.Close(); err != nil {
		return errors.WithStackTrace(err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

func baseName(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// BeatPath returns where the project for an audio file lives: "<name>.beat" in beatDir,
// or next to the audio file when beatDir is empty.
func BeatPath(audioPath, beatDir string) string {
	if beatDir == "" {
		beatDir = filepath.Dir(audioPath)
	}
	return filepath.Join(beatDir, baseName(audioPath)+Extension)
}

// FindAudio looks for the audio of a project in audioDir: first the file named in the
// document, then a file sharing the project's base name with a supported extension.
func FindAudio(projectPath string, d Document, audioDir string) (string, bool) {
	if audioDir == "" {
		audioDir = filepath.Dir(projectPath)
	}
	if name := d.Audio(); name != "" {
		candidate := filepath.Join(audioDir, filepath.Base(name))
		if files.FileExists(candidate) {
			return candidate, true
		}
	}
	for _, ext := range AudioExtensions {
		candidate := filepath.Join(audioDir, baseName(projectPath)+ext)
		if files.FileExists(candidate) {
			return candidate, true
		}
	}
	return "", false
}
