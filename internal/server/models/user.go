package models

import "time"

// User is a registered account. ProductIDs holds the ids of the products the
// user created, without duplicates.
type User struct {
	ID           string    `bson:"_id" db:"id"`
	Email        string    `bson:"email" db:"email"`
	Name         string    `bson:"name" db:"name"`
	PasswordHash string    `bson:"password" db:"password_hash"`
	ProductIDs   []string  `bson:"products" db:"product_ids"`
	CreatedAt    time.Time `bson:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `bson:"updatedAt" db:"updated_at"`
}

// HasProduct reports whether id is among the user's products.
func (u *User) HasProduct(id string) bool {
	for _, p := range u.ProductIDs {
		if p == id {
			return true
		}
	}
	return false
}
