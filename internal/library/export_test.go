// Test-only exports so the external test package can reach unexported
// identifiers without importing testutil from inside the package.

package library

import "time"

func (w *Watcher) SetDebounceDelay(d time.Duration) { w.debounceDelay = d }
