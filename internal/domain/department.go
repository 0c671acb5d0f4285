package domain

import "time"

// Department represents an organizational unit users can belong to.
type Department struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
