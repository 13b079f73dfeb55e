// Package ui implements Pantry's terminal interface with Bubble Tea.
//
// # Views
//
//   - Home: random meal card, categories list and the popular meals row
//   - Category: meals of the selected category
//   - Detail: full recipe with ingredients, instructions and links
//   - Favorites: saved meals, searchable with "/"
//   - Problems: request health plus warnings and errors from the log file
//
// tab and shift+tab cycle the views in that order; esc goes back.
//
// # Data Flow
//
// The Model never calls the network. Key handlers issue requests on the
// state store and return at once. Values come back through slot
// subscriptions:
//
//	state.Store slot ──→ Subscription.C() ──→ waitFor cmd ──→ *Msg ──→ Update
//	                                             ↑                       │
//	                                             └──── re-armed ─────────┘
//
// Each subscription keeps only the newest value, so a slow frame never
// queues stale data. A closed subscription ends its chain.
//
// A tick every PollTick refreshes the diagnostics snapshot and, while the
// Problems view is open, re-reads the log tail.
//
// # Preferences
//
// The theme (T) and the last opened category are written to prefs.toml when
// they change and restored on the next start.
package ui
