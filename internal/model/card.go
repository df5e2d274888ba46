package model

import (
	"strings"
	"time"
)

// CardLink binds an external badge identifier to one person.
type CardLink struct {
	CardID     string    `json:"card_id"`
	PersonName string    `json:"person_name"`
	Active     bool      `json:"active"`
	LinkedAt   time.Time `json:"linked_at"`
}

// NormalizeCardID trims the identifier and upper-cases it, matching the
// AA:BB:CC:DD form reported by the reader.
func NormalizeCardID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}
