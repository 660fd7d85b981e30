package config

// Environment overlay. STILLMASTER_* variables fill the gap between built-in
// defaults and explicit flags, which is handy for the fleet machines where
// the tool runs from a wrapper script: the wrapper exports the site policy
// (quality, log destination, camera set) and operators only pass paths.

import "github.com/caarlos0/env/v11"

// FromEnv overlays STILLMASTER_* environment variables onto cfg. Fields whose
// variable is unset keep their current value, so calling this between
// [DefaultConfig] and [ParseFlags] yields defaults < env < flags precedence.
func FromEnv(cfg *Config) error {
	return env.Parse(cfg)
}
