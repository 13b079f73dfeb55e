// Package app is Pantry's composition root.
//
// # Overview
//
// Run builds a samber/do container, asks it for the services a session
// needs, starts the background goroutines and hands control to the TUI. Every
// service is constructed once and shared by reference:
//
//	*config.Config   config.toml, defaults when missing
//	*LoggerHandle    slog logger writing to <data_dir>/pantry.log
//	*mealdb.Client   rate limited TheMealDB client
//	*favorites.Store SQLite favorites at <data_dir>/pantry.db
//	*search.Index    in-memory bleve index of the favorites
//	*state.Store     observable slots behind the screens
//
// # Startup
//
//  1. Load the config and open the log file
//  2. Open the favorites database and build the search index
//  3. Start search.Follow so the index tracks the favorites list
//  4. Request categories, popular items and a random meal
//  5. Start the rotation poller when refresh_interval is positive
//  6. Run the TUI until the user quits
//
// Config, log and database failures are fatal and returned from Run. Request
// failures after startup are not; they surface in the Problems view.
//
// # Rotation
//
// StartRotation refreshes the random meal on a timer and waits for each
// refresh to finish before choosing the next delay. After consecutive
// failures the delay doubles, capped at 30 seconds (or the interval itself
// when that is longer), and drops back once a request succeeds.
//
// # Shutdown
//
// When the TUI exits the background goroutines are cancelled and joined,
// then the container shuts services down in reverse dependency order: the
// state store first, then the favorites database and the log file.
package app
