// Package fixture flashes DMX lights on the beat through OLA.
package fixture

import (
	"fmt"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/robmorgan/beatwarp/profile"
	"github.com/robmorgan/beatwarp/utils"
)

// Fixture is a patched light: a profile at a start address in a universe.
type Fixture struct {
	Name     string
	Address  int
	Universe int
	Profile  profile.Profile
}

// channel returns the absolute DMX channel of a channel type.
func (f Fixture) channel(channelType string) (int, bool) {
	offset, ok := f.Profile.Channel(channelType)
	if !ok {
		return 0, false
	}
	return f.Address + offset - 1, true
}

// operations returns the channel values that show c at level. Colour fixtures keep the
// master intensity open and mix the level into RGB; plain dimmers only get the level.
func (f Fixture) operations(c colorful.Color, level float64) []dmxOperation {
	var ops []dmxOperation
	add := func(channelType string, value byte) {
		if ch, ok := f.channel(channelType); ok {
			ops = append(ops, dmxOperation{universe: f.Universe, channel: ch, value: int(value)})
		}
	}

	if !f.Profile.HasColor() {
		add(profile.ChannelTypeIntensity, utils.ToDMX(level))
		return ops
	}

	r, g, b := utils.ScaleColor(c, level)
	add(profile.ChannelTypeIntensity, 255)
	add(profile.ChannelTypeRed, r)
	add(profile.ChannelTypeGreen, g)
	add(profile.ChannelTypeBlue, b)
	return ops
}

// Validate checks that the fixture fits in a universe.
func (f Fixture) Validate() error {
	if f.Address < 1 {
		return fmt.Errorf("fixture %s has an invalid address %d", f.Name, f.Address)
	}
	for channelType := range f.Profile.Channels {
		if ch, _ := f.channel(channelType); ch > UniverseChannels {
			return fmt.Errorf("fixture %s does not fit in the universe: %s is on channel %d", f.Name, channelType, ch)
		}
	}
	return nil
}
