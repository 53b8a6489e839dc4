package project

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/beatwarp/history"
	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/score"
	"github.com/robmorgan/beatwarp/timemap"
)

// Options configure a session.
type Options struct {
	DefaultMeasures int
	DefaultBPM      float64
	HistoryLimit    int

	// BeatDir is where projects for audio files are looked up. Empty means next to
	// the audio file.
	BeatDir string

	// AutosaveDelay is how long the session waits after the last edit before saving.
	// Zero disables autosave.
	AutosaveDelay time.Duration
}

// DefaultOptions match a new project in the editor: 20 bars of 4/4 at 120bpm.
func DefaultOptions() Options {
	return Options{
		DefaultMeasures: 20,
		DefaultBPM:      score.DefaultBPM,
		HistoryLimit:    history.DefaultLimit,
	}
}

// Session is one open project: the current score, its undo history and where it is
// saved. It is safe for concurrent use.
type Session struct {
	mu     sync.RWMutex
	saveMu sync.Mutex

	history  *history.History[score.Score]
	audio    string
	path     string
	revision uint64
	saved    uint64

	tm    *timemap.Map
	tmRev uint64

	autosave func(func())
	log      *logrus.Entry
}

// NewSession starts an unsaved session on s.
func NewSession(s score.Score, audioFileName string, opts Options) *Session {
	sess := &Session{
		history: history.New(score.Normalize(s), opts.HistoryLimit),
		audio:   audioFileName,
		log:     logger.ForComponent("session"),
	}
	if opts.AutosaveDelay > 0 {
		sess.autosave = debounce.New(opts.AutosaveDelay)
	}
	return sess
}

// NewDefaultSession starts a session on the default score.
func NewDefaultSession(audioFileName string, opts Options) *Session {
	return NewSession(score.Default(opts.DefaultMeasures, opts.DefaultBPM), audioFileName, opts)
}

// OpenProject loads a project file into a session saved back to the same file.
func OpenProject(path string, opts Options) (*Session, error) {
	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	sess := NewSession(d.Score(), d.Audio(), opts)
	sess.path = path
	sess.log.WithField("path", path).Info("Opened project")
	return sess, nil
}

// OpenAudio starts a session for an audio file. The matching .beat file is loaded when
// one exists; otherwise the session starts on the default score and will be saved to
// that path.
func OpenAudio(audioPath string, opts Options) (*Session, error) {
	path := BeatPath(audioPath, opts.BeatDir)
	name := filepath.Base(audioPath)

	if !files.FileExists(path) {
		sess := NewDefaultSession(name, opts)
		sess.path = path
		sess.log.WithFields(logrus.Fields{"audio": name, "measures": opts.DefaultMeasures}).Info("No project for audio, starting a new score")
		return sess, nil
	}

	d, err := Load(path)
	if err != nil {
		return nil, err
	}
	if d.Audio() != "" {
		name = d.Audio()
	}
	sess := NewSession(d.Score(), name, opts)
	sess.path = path
	sess.log.WithFields(logrus.Fields{"audio": name, "path": path}).Info("Loaded matching project")
	return sess, nil
}

// Score returns the current score.
func (s *Session) Score() score.Score {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.history.Present().Clone()
}

// Revision increases on every change to the current score.
func (s *Session) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// AudioFileName returns the name of the audio file the project belongs to.
func (s *Session) AudioFileName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.audio
}

// Path returns where the project is saved, or "" for an unsaved session.
func (s *Session) Path() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}

// TimeMap returns the time map of the current score. The same pointer is returned
// until the score changes.
func (s *Session) TimeMap() *timemap.Map {
	s.mu.RLock()
	tm, fresh := s.tm, s.tmRev == s.revision
	s.mu.RUnlock()
	if tm != nil && fresh {
		return tm
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tm == nil || s.tmRev != s.revision {
		s.tm = timemap.Build(s.history.Present())
		s.tmRev = s.revision
	}
	return s.tm
}

// Apply runs an edit command on the current score and records it in the history. It
// returns false, leaving everything unchanged, when the command was rejected.
func (s *Session) Apply(cmd score.Command) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, label, applied := cmd.Apply(s.history.Present())
	if !applied {
		s.log.WithField("action", label).Debug("Edit rejected")
		return label, false
	}
	s.history.Commit(next, label)
	s.changed()
	s.log.WithFields(logrus.Fields{"action": label, "revision": s.revision}).Debug("Edit applied")
	return label, true
}

// Undo reverts up to steps edits and returns how many were reverted.
func (s *Session) Undo(steps int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.history.Undo(steps)
	if n > 0 {
		s.changed()
	}
	return n
}

// Redo re-applies up to steps reverted edits and returns how many were re-applied.
func (s *Session) Redo(steps int) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.history.Redo(steps)
	if n > 0 {
		s.changed()
	}
	return n
}

// Replace swaps in a whole new score and clears the history, as when a project file
// is imported over the open one.
func (s *Session) Replace(sc score.Score, audioFileName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.history.Reset(score.Normalize(sc))
	s.audio = audioFileName
	s.changed()
}

// changed must be called with the write lock held.
func (s *Session) changed() {
	s.revision++
	if s.autosave != nil && s.path != "" {
		s.autosave(s.autosaveNow)
	}
}

func (s *Session) autosaveNow() {
	if err := s.Save(); err != nil {
		s.log.WithError(err).Error("Autosave failed")
	}
}

// Dirty reports whether there are changes that were not saved.
func (s *Session) Dirty() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision != s.saved
}

// Document captures the current state for saving.
func (s *Session) Document() Document {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return NewDocument(s.history.Present(), s.audio)
}

// NoProjectPath is returned when saving a session that was never given a file.
type NoProjectPath struct{}

func (err NoProjectPath) Error() string {
	return "the project has no file to save to"
}

// Save writes the project to its file.
func (s *Session) Save() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.RLock()
	path, rev := s.path, s.revision
	doc := NewDocument(s.history.Present(), s.audio)
	s.mu.RUnlock()

	if path == "" {
		return errors.WithStackTrace(NoProjectPath{})
	}
	if err := Save(path, doc); err != nil {
		return err
	}

	s.mu.Lock()
	if rev > s.saved {
		s.saved = rev
	}
	s.mu.Unlock()
	s.log.WithFields(logrus.Fields{"path": path, "revision": rev}).Debug("Project saved")
	return nil
}

// SaveAs writes the project to path and keeps saving there.
func (s *Session) SaveAs(path string) error {
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	return s.Save()
}

// Close saves pending changes of a session that has a file.
func (s *Session) Close() error {
	if s.Path() == "" || !s.Dirty() {
		return nil
	}
	return s.Save()
}
