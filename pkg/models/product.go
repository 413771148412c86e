package models

import "time"

type Product struct {
	ID          string    `bson:"_id" json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `bson:"name" json:"name" gorm:"type:varchar(200);not null"`
	Description string    `bson:"description,omitempty" json:"description,omitempty" gorm:"type:text"`
	Price       float64   `bson:"price" json:"price" gorm:"type:decimal(10,2);not null"`
	Category    string    `bson:"category" json:"category" gorm:"type:varchar(100);not null;index"`
	Image       string    `bson:"image" json:"image" gorm:"type:varchar(500);not null"`
	Stock       int       `bson:"stock" json:"stock" gorm:"not null;default:0"`
	CreatedAt   time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (Product) TableName() string {
	return "products"
}
