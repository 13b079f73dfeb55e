// Package config loads Pantry's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/pantry/config.toml (default)
//  3. If the config file doesn't exist, fall back to Default()
//  4. If the file exists but fields are missing or blank, use defaults
//
// # TOML Format
//
//	api_base_url     = "https://www.themealdb.com/api/json/v1/1/"
//	data_dir         = "~/.local/share/pantry"
//	popular_category = "Seafood"
//	request_timeout  = "10s"
//	rate_limit       = 5.0
//	refresh_interval = "0s"        # >0 rotates the random meal
//	log_level        = "info"      # debug, info, warn, error
//	log_format       = "json"      # json or pretty
//	ordering         = "completion" # completion or issue
//
// Every field is optional. Tilde expansion is applied to data_dir.
//
// # Derived Paths
//
//   - DatabasePath: <data_dir>/pantry.db
//   - LogPath: <data_dir>/pantry.log
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML syntax or duration errors ("parse config: ...")
//   - Values that fail validation ("invalid config: rate_limit must be
//     greater than 0")
//
// Validation uses go-playground/validator struct tags and reports fields by
// their TOML names.
package config
