package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/flac"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/speaker"
	"github.com/faiface/beep/vorbis"
	"github.com/faiface/beep/wav"
	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/files"
	"github.com/sirupsen/logrus"

	"github.com/robmorgan/beatwarp/logger"
)

// UnsupportedFormat is returned for audio files no decoder can read.
type UnsupportedFormat struct {
	Path string
}

func (err UnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported audio format: %s", err.Path)
}

// AudioFile is a decoded, seekable audio stream.
type AudioFile struct {
	Path     string
	Streamer beep.StreamSeekCloser
	Format   beep.Format
}

// Duration is the length of the file.
func (a *AudioFile) Duration() time.Duration {
	return a.Format.SampleRate.D(a.Streamer.Len())
}

// Close releases the decoder and the file.
func (a *AudioFile) Close() error {
	return a.Streamer.Close()
}

// Decode opens an audio file, picking the decoder from its extension.
func Decode(path string) (*AudioFile, error) {
	if !files.FileExists(path) {
		return nil, errors.WithStackTrace(os.ErrNotExist)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.WithStackTrace(err)
	}

	var (
		streamer beep.StreamSeekCloser
		format   beep.Format
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		streamer, format, err = wav.Decode(f)
	case ".mp3":
		streamer, format, err = mp3.Decode(f)
	case ".flac":
		streamer, format, err = flac.Decode(f)
	case ".ogg":
		streamer, format, err = vorbis.Decode(f)
	default:
		f.Close()
		return nil, errors.WithStackTrace(UnsupportedFormat{Path: path})
	}
	if err != nil {
		f.Close()
		return nil, errors.WithStackTrace(err)
	}
	return &AudioFile{Path: path, Streamer: streamer, Format: format}, nil
}

// InitSpeaker opens the audio device. It must be called once before any Player or
// click synth is started.
func InitSpeaker(rate beep.SampleRate, buffer time.Duration) error {
	if err := speaker.Init(rate, rate.N(buffer)); err != nil {
		return errors.WithStackTrace(err)
	}
	return nil
}

// Player plays an audio file through the speaker.
type Player struct {
	mu sync.Mutex

	file *AudioFile
	ctrl *beep.Ctrl
	log  *logrus.Entry
}

// NewPlayer queues the file on the speaker, paused at the start.
func NewPlayer(file *AudioFile) *Player {
	p := &Player{
		file: file,
		ctrl: &beep.Ctrl{Streamer: file.Streamer, Paused: true},
		log:  logger.ForComponent("player").WithField("file", filepath.Base(file.Path)),
	}
	speaker.Play(p.ctrl)
	p.log.WithField("duration", file.Duration()).Info("Audio loaded")
	return p
}

func (p *Player) CurrentTimeMs() float64 {
	speaker.Lock()
	pos := p.file.Streamer.Position()
	speaker.Unlock()
	return durationToMs(p.file.Format.SampleRate.D(pos))
}

func (p *Player) IsPlaying() bool {
	speaker.Lock()
	defer speaker.Unlock()
	return !p.ctrl.Paused && p.file.Streamer.Position() < p.file.Streamer.Len()
}

func (p *Player) Play() {
	speaker.Lock()
	if p.file.Streamer.Position() >= p.file.Streamer.Len() {
		speaker.Unlock()
		return
	}
	p.ctrl.Paused = false
	speaker.Unlock()
	p.log.Debug("Play")
}

func (p *Player) Pause() {
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
	p.log.Debug("Pause")
}

// Seek moves playback to ms, clamped to the file.
func (p *Player) Seek(ms float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := p.file.Format.SampleRate.N(msToDuration(ms))
	if n < 0 {
		n = 0
	}
	speaker.Lock()
	if l := p.file.Streamer.Len(); n > l {
		n = l
	}
	err := p.file.Streamer.Seek(n)
	speaker.Unlock()

	if err != nil {
		p.log.WithError(err).WithField("ms", ms).Error("Seek failed")
		return
	}
	p.log.WithField("ms", ms).Debug("Seek")
}

func (p *Player) DurationMs() float64 {
	return durationToMs(p.file.Duration())
}

// Close stops playback and releases the file.
func (p *Player) Close() error {
	p.Pause()
	return p.file.Close()
}

// Mix adds a stream, such as the click synth, to the speaker output.
func Mix(s beep.Streamer) {
	speaker.Play(s)
}
