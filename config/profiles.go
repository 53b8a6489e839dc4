package config

import "github.com/robmorgan/beatwarp/profile"

func initializeFixtureProfiles() map[string]profile.Profile {
	out := map[string]profile.Profile{
		"shehds-par": {
			Name: "Shehds LED Flat PAR 12x3W RGBW",
			Channels: map[string]int{
				profile.ChannelTypeIntensity: 1,
				profile.ChannelTypeRed:       2,
				profile.ChannelTypeGreen:     3,
				profile.ChannelTypeBlue:      4,
				profile.ChannelTypeWhite:     5,
				profile.ChannelTypeStrobe:    6,
			},
		},
		"dimmer": {
			Name: "Single channel dimmer",
			Channels: map[string]int{
				profile.ChannelTypeIntensity: 1,
			},
		},
	}

	return out
}
