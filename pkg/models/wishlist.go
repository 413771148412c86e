package models

import "time"

type Wishlist struct {
	ID        string    `bson:"_id" json:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID    string    `bson:"user" json:"user" gorm:"type:varchar(36);uniqueIndex;not null"`
	Products  []string  `bson:"products" json:"-" gorm:"serializer:json;type:text"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Wishlist) TableName() string {
	return "wishlists"
}

// Has reports whether productID is already on the list.
func (w *Wishlist) Has(productID string) bool {
	for _, id := range w.Products {
		if id == productID {
			return true
		}
	}
	return false
}
