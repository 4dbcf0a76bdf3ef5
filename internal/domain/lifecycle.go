package domain

import "time"

// Lifecycle is the shared soft-delete state embedded in catalog entities.
// Queries default to active rows only.
type Lifecycle struct {
	Active        bool
	DeactivatedAt *time.Time
}

func ActiveLifecycle() Lifecycle {
	return Lifecycle{Active: true}
}

func (l *Lifecycle) Deactivate(at time.Time) {
	l.Active = false
	l.DeactivatedAt = &at
}
