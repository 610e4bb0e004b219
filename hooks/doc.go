// Package hooks provides lifecycle observers for diagnostics and testing.
//
// Observers receive construction, copy, retain, release, and destruction
// events from an ownership.Arena. They are strictly side-effect-only:
// nothing an observer does can influence object lifetime or call binding.
//
//	arena.Subscribe(hooks.NewLogObserver(logger))
//
//	rec := hooks.NewRecorder()
//	arena.Subscribe(rec)
//	// ... exercise the arena ...
//	events := rec.Events()
package hooks
