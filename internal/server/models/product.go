// Package models defines the records persisted by the repositories.
package models

import "time"

// Product is a listing owned by the user referenced by CreatorID.
type Product struct {
	ID          string    `bson:"_id" db:"id"`
	Title       string    `bson:"title" db:"title"`
	Description string    `bson:"description" db:"description"`
	ProductType string    `bson:"productType" db:"product_type"`
	ImageURLs   []string  `bson:"imageUrls" db:"image_urls"`
	CreatorID   string    `bson:"creator" db:"creator_id"`
	CreatedAt   time.Time `bson:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `bson:"updatedAt" db:"updated_at"`
}
