package config

import "sort"

// Profiles are named run settings layered over a scene.
var Profiles = map[string]*Config{
	"quick": {
		Scene: "solar", G: DefaultG, Dt: 0.1, Steps: 1000, Seed: DefaultSeed,
		Scheme: "kdk", MinSeparation: DefaultMinSeparation, Workers: 1, SampleEvery: 10,
	},
	"orbit": {
		Scene: "sun-earth", G: DefaultG, Dt: 0.1, Steps: 62832, Seed: DefaultSeed,
		Scheme: "kdk", MinSeparation: DefaultMinSeparation, Workers: 1, SampleEvery: 100,
	},
	"precise": {
		Scene: "solar", G: DefaultG, Dt: 0.01, Steps: 20000, Seed: DefaultSeed,
		Scheme: "verlet", MinSeparation: DefaultMinSeparation, Workers: 1, SampleEvery: 100,
	},
	"stress": {
		Scene: "solar", G: DefaultG, Dt: 0.1, Steps: 5000, Seed: DefaultSeed,
		Scheme: "kdk", MinSeparation: DefaultMinSeparation, Workers: 4, SampleEvery: 500,
	},
	"binary": {
		Scene: "binary", G: DefaultG, Dt: 0.5, Steps: 20000, Seed: DefaultSeed,
		Scheme: "verlet", MinSeparation: DefaultMinSeparation, Workers: 1, SampleEvery: 50,
	},
}

// GetProfile returns a copy of the named profile with the remaining fields
// filled from DefaultConfig, or nil.
func GetProfile(name string) *Config {
	p, ok := Profiles[name]
	if !ok {
		return nil
	}
	cfg := *p
	def := DefaultConfig()
	cfg.DataDir = def.DataDir
	cfg.LogLevel = def.LogLevel
	return &cfg
}

func ListProfiles() []string {
	names := make([]string, 0, len(Profiles))
	for name := range Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
