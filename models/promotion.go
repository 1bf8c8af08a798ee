package models

import "time"

// Promotion attaches a discount token to a product for a time window.
// Token format: "(<amount>%)" for a percentage, "(<amount>)" for a flat
// discount in the same currency unit as the price.
type Promotion struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ProductID uint      `gorm:"index" json:"productId"`
	Token     string    `gorm:"not null" json:"token"`
	StartDate time.Time `json:"startDate"`
	EndDate   time.Time `json:"endDate"`
}

// ActiveAt reports whether the promotion window covers t.
func (p Promotion) ActiveAt(t time.Time) bool {
	return !t.Before(p.StartDate) && !t.After(p.EndDate)
}
