package profile

const (
	ChannelTypeIntensity = "channel:type:intensity"
	ChannelTypeStrobe    = "channel:type:strobe"

	ChannelTypeRed   = "channel:type:red"
	ChannelTypeGreen = "channel:type:green"
	ChannelTypeBlue  = "channel:type:blue"
	ChannelTypeWhite = "channel:type:white"

	ChannelTypeUnknown = "channel:type:unknown"
)

// Profile holds info for a fixture profile including the channel mappings. Channels maps
// a channel type to its offset from the fixture's start address, counted from 1.
type Profile struct {
	Name     string         `yaml:"name"`
	Channels map[string]int `yaml:"channels"`
}

// Channel returns the offset of the given channel type.
func (p Profile) Channel(channelType string) (int, bool) {
	offset, ok := p.Channels[channelType]
	return offset, ok
}

// HasColor reports whether the fixture mixes RGB.
func (p Profile) HasColor() bool {
	_, r := p.Channels[ChannelTypeRed]
	_, g := p.Channels[ChannelTypeGreen]
	_, b := p.Channels[ChannelTypeBlue]
	return r && g && b
}
