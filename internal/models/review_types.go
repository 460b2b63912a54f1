package models

import "time"

// Review is the model for the 'reviews' table.
type Review struct {
	ID         int64     `json:"id" db:"id"`
	UserID     int64     `json:"userId" db:"user_id"`
	ProductID  int64     `json:"productId" db:"product_id"`
	Rating     int       `json:"rating" db:"rating"`
	Comment    string    `json:"comment" db:"comment"`
	IsApproved bool      `json:"isApproved" db:"is_approved"`
	CreatedAt  time.Time `json:"createdAt" db:"created_at"`

	Username string `json:"username,omitempty" db:"-"`
}
