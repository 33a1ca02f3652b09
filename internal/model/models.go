package model

import (
	"time"
)

// Profile is a saved share-link.
type Profile struct {
	ID        uint   `gorm:"primaryKey"`
	Hash      string `gorm:"uniqueIndex"`
	Raw       string
	Protocol  string
	Remark    string
	CreatedAt time.Time

	// Server we connect to
	Address string
	Port    int

	// Filled from the GeoIP databases when available
	Country string
	ISP     string

	// At most one profile is active
	Active bool `gorm:"index"`
}
