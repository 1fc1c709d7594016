package pixeldust

import "fmt"

// ErrSuperseded is returned by Navigator.Navigate when a newer navigation
// started while this one was in flight. Its result was discarded.
type ErrSuperseded struct {
	ID     uint64
	Latest uint64
}

func (e *ErrSuperseded) Error() string {
	return fmt.Sprintf("navigation %d superseded by navigation %d", e.ID, e.Latest)
}
