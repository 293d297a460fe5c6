// Package config provides server configuration for the chess lobby.
//
// The config package handles:
//   - Loading settings from CHESSLOBBY_* environment variables
//   - Defaults for every setting
//   - Validation of ports, limits and the username policy
//
// Usage:
//
//	cfg, err := config.Load()
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	addr := cfg.Addr()
//
// Command line flags are applied on top of the loaded values by the caller
// before Validate is run again.
package config
