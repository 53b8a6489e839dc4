package config

// PatchedFixture stores config info for a dmx fixture that flashes on the beat
type PatchedFixture struct {
	Name     string `yaml:"name"`
	Address  int    `yaml:"address"`
	Universe int    `yaml:"universe"`
	Profile  string `yaml:"profile"`
}

// PatchBeatLights returns the default beat light patch: one PAR on the first address.
func PatchBeatLights() []PatchedFixture {
	return []PatchedFixture{
		{
			Name:     "beat_par",
			Address:  1,
			Universe: 1,
			Profile:  "shehds-par",
		},
	}
}
