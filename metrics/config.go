package metrics

// Config contains the configuration for build and crack timing.
type Config struct {
	Enabled bool `toml:",omitempty"`
	CPUTime bool `toml:",omitempty"`
}

// DefaultConfig is the default metrics config used by the attack driver.
var DefaultConfig = Config{
	Enabled: true,
	CPUTime: true,
}
