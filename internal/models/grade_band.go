package models

import "time"

// GradeBand maps a percentage range to a letter grade.
// Ranges are closed at MinPercentage and open at MaxPercentage, except a band ending at 100 which includes 100.
type GradeBand struct {
	ID            string    `db:"id" json:"id"`
	Letter        string    `db:"letter" json:"letter"`
	MinPercentage float64   `db:"min_percentage" json:"min_percentage"`
	MaxPercentage float64   `db:"max_percentage" json:"max_percentage"`
	Description   string    `db:"description" json:"description"`
	IsActive      bool      `db:"is_active" json:"is_active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
