package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/api"
	"github.com/robmorgan/beatwarp/click"
	"github.com/robmorgan/beatwarp/effect"
	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/transport"
)

var (
	serveAddress string
	serveSpeaker bool
)

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address (default from config)")
	serveCmd.Flags().BoolVar(&serveSpeaker, "speaker", false, "play the audio and clicks on this machine")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve <project|audio>",
	Short: "Serve the editing API for a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), args[0])
	},
}

func serve(ctx context.Context, path string) error {
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

	var audio *transport.AudioFile
	if audioPath, ok := audioFor(path, sess); ok {
		if audio, err = transport.Decode(audioPath); err != nil {
			return err
		}
		defer audio.Close()
	}

	var (
		tr    transport.Transport
		sinks []rhythm.ClickSink
	)
	switch {
	case serveSpeaker:
		rate := beep.SampleRate(cfg.Click.SampleRate)
		if audio != nil {
			rate = audio.Format.SampleRate
		}
		if err := transport.InitSpeaker(rate, speakerBuffer); err != nil {
			return err
		}
		synth := click.NewSynth(rate, effect.Envelope{Attack: cfg.Click.Attack, Decay: cfg.Click.Decay}, cfg.Click.DownbeatHz, cfg.Click.BeatHz)
		transport.Mix(synth)
		sinks = append(sinks, synth)
		if audio != nil {
			tr = transport.NewPlayer(audio)
		} else {
			tr = transport.NewClocked(clock.RealClock{}, 0)
		}
	case audio != nil:
		tr = transport.NewClocked(clock.RealClock{}, audio.Duration())
	default:
		tr = transport.NewClocked(clock.RealClock{}, 0)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	wg := &sync.WaitGroup{}
	sinks = append(sinks, extraSinks(ctx, wg)...)
	opts := []api.Option{api.WithTransport(tr), api.WithAllowedOrigins(cfg.Server.AllowedOrigins...)}
	if metronome := newMetronome(tr, sess, sinks); metronome != nil {
		wg.Add(1)
		go metronome.Run(ctx, wg)
		opts = append(opts, api.WithMetronome(metronome))
	}

	addr := cfg.Server.Address
	if serveAddress != "" {
		addr = serveAddress
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewServer(sess, opts...).Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("address", addr).Info("Serving the editing API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	wg.Wait()
	return err
}
