package cmd

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/click"
	"github.com/robmorgan/beatwarp/effect"
	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/transport"
	"github.com/robmorgan/beatwarp/ui"
)

const speakerBuffer = 100 * time.Millisecond

func init() {
	rootCmd.AddCommand(playCmd)
}

var playCmd = &cobra.Command{
	Use:   "play <project|audio>",
	Short: "Play the audio with the metronome following the score",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return play(cmd.Context(), args[0])
	},
}

func play(ctx context.Context, path string) error {
	log := logger.GetProjectLogger()

	sess, err := openSession(path)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.WithError(err).Error("Failed to save the project")
		}
	}()

	rate := beep.SampleRate(cfg.Click.SampleRate)
	var audio *transport.AudioFile
	if audioPath, ok := audioFor(path, sess); ok {
		if audio, err = transport.Decode(audioPath); err != nil {
			return err
		}
		rate = audio.Format.SampleRate
	} else {
		log.Warn("No audio found, playing the score on its own")
	}

	if err := transport.InitSpeaker(rate, speakerBuffer); err != nil {
		return err
	}
	synth := click.NewSynth(rate, effect.Envelope{Attack: cfg.Click.Attack, Decay: cfg.Click.Decay}, cfg.Click.DownbeatHz, cfg.Click.BeatHz)
	transport.Mix(synth)

	var tr transport.Transport
	if audio != nil {
		player := transport.NewPlayer(audio)
		defer player.Close()
		tr = player
	} else {
		tr = transport.NewClocked(clock.RealClock{}, 0)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	wg := &sync.WaitGroup{}
	sinks := append([]rhythm.ClickSink{synth}, extraSinks(ctx, wg)...)
	metronome := newMetronome(tr, sess, sinks)
	wg.Add(1)
	go metronome.Run(ctx, wg)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return ui.Run(ui.New(sess, tr, metronome, ui.Options{Width: cfg.UI.Width, Zoom: cfg.UI.Zoom, SectionColors: cfg.UI.Sections}))
	})
	g.Go(func() error {
		<-ctx.Done()
		tr.Pause()
		return nil
	})

	err = g.Wait()
	cancel()
	wg.Wait()
	return err
}
