// Package state owns the observable data behind Pantry's screens.
//
// # Overview
//
// A Store is created once per session. It holds five independent slots and
// the requests that fill them:
//
//	RandomMeal     <- RequestRandomMeal()          (random.php)
//	MealDetail     <- RequestMealDetail(id)        (lookup.php)
//	CategoryMeals  <- RequestMealsByCategory(name) (filter.php)
//	Categories     <- RequestCategories()          (categories.php)
//	PopularItems   <- RequestPopularItems()        (filter.php, configured category)
//
// Every slot starts with no value. The UI subscribes to the slots it renders
// and receives each new value on the subscription channel.
//
// # Request Flow
//
//	UI ── Request*() ──→ goroutine ── mealdb.Service ──→ result
//	                                                      │
//	          slot consumer loop ←── Post / PostIf ───────┘
//	                 │
//	                 └──→ subscribers (latest value only)
//
// Requests never block the caller. The network call runs on its own
// goroutine and hands the result to the slot's single consumer loop, which is
// the only place slot values change.
//
// # Result Handling
//
//   - payload: published to the slot
//   - empty payload: random meal and detail keep their previous value;
//     category meals, categories and popular items become an empty slice
//   - failure: the slot is untouched; the error goes to the diagnostics
//     snapshot and the log
//
// # Overlapping Requests
//
// Two requests for the same slot may be in flight at once. With
// OrderByCompletion (the default) each result is published as it arrives,
// so the request that completes last wins even if it was issued first.
// OrderByIssue tags each request with a generation number and drops a result
// whose number is no longer the newest when it reaches the slot.
//
// # Favorites
//
// Save and Remove forward to the favorites store on a background goroutine.
// They do not touch the fetch slots. The live favorites list comes from
// Favorites(), which subscribes to the favorites store directly.
//
// # Diagnostics
//
// Snapshot reports the last failure, the number of consecutive failures and
// the number of requests in flight. FetchFailures counts API failures only,
// and IsOffline is true after two of them in a row. A request cut short by
// Close is not counted.
//
// # Lifecycle
//
//	store := state.New(client, favorites, state.Options{Logger: logger})
//	defer store.Close()
//
//	sub := store.RandomMeal().Subscribe()
//	defer sub.Cancel()
//	store.RequestRandomMeal()
//	meal := <-sub.C()
//
// Close cancels in-flight requests, waits for background work and closes all
// slot subscriptions. Requests issued after Close are ignored.
package state
