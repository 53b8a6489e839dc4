package cmd

import (
	"context"
	"errors"
	"sync"

	"github.com/nickysemenza/gola"
	"github.com/sirupsen/logrus"
	"k8s.io/utils/clock"

	"github.com/robmorgan/beatwarp/click"
	"github.com/robmorgan/beatwarp/fixture"
	"github.com/robmorgan/beatwarp/logger"
	"github.com/robmorgan/beatwarp/rhythm"
	"github.com/robmorgan/beatwarp/utils"
)

// extraSinks connects the OSC and DMX click outputs enabled in the config. DMX needs a
// worker, which is started on wg and stops with ctx.
func extraSinks(ctx context.Context, wg *sync.WaitGroup) []rhythm.ClickSink {
	log := logger.GetProjectLogger()
	var sinks []rhythm.ClickSink

	if cfg.OSC.Enabled {
		sinks = append(sinks, click.NewOSCClientSink(cfg.OSC.Host, cfg.OSC.Port, cfg.OSC.Address))
		log.WithFields(logrus.Fields{"host": cfg.OSC.Host, "port": cfg.OSC.Port}).Info("Sending clicks over OSC")
	}

	if cfg.DMX.Enabled {
		light, err := beatLight()
		if err != nil {
			log.WithError(err).Error("Invalid beat light colours")
			return sinks
		}
		client, err := gola.New(cfg.DMX.OLAAddress)
		if err != nil {
			log.Errorf("could not connect to OLA: %v", err)
			return sinks
		}
		wg.Add(1)
		go func() {
			err := fixture.SendDMXWorker(ctx, clock.RealClock{}, client, cfg.DMX.Tick, light, wg)
			if err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("DMX worker stopped")
			}
		}()
		sinks = append(sinks, light)
		log.WithField("fixtures", len(cfg.DMX.BeatLights)).Info("Flashing beat lights over DMX")
	}
	return sinks
}

func beatLight() (*fixture.BeatLight, error) {
	downbeat, err := utils.ParseColor(cfg.DMX.DownbeatColor)
	if err != nil {
		return nil, err
	}
	beat, err := utils.ParseColor(cfg.DMX.BeatColor)
	if err != nil {
		return nil, err
	}

	var fixtures []fixture.Fixture
	for _, f := range cfg.DMX.BeatLights {
		p, ok := cfg.Profile(f)
		if !ok {
			logger.GetProjectLogger().WithField("profile", f.Profile).Warn("Unknown fixture profile")
			continue
		}
		fixtures = append(fixtures, fixture.Fixture{Name: f.Name, Address: f.Address, Universe: f.Universe, Profile: p})
	}
	return fixture.NewBeatLight(clock.RealClock{}, fixtures, downbeat, beat, cfg.DMX.Flash, cfg.DMX.Tick), nil
}

// newMetronome builds the metronome over the first sink, fanning clicks out to the rest.
func newMetronome(t rhythm.Transport, maps rhythm.MapSource, sinks []rhythm.ClickSink) *rhythm.Metronome {
	if len(sinks) == 0 {
		return nil
	}
	m := rhythm.NewMetronome(clock.RealClock{}, t, click.NewFanout(sinks[0], sinks[1:]...), maps, cfg.RhythmConfig())
	m.SetEnabled(cfg.Metronome.Enabled)
	return m
}
