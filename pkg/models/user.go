package models

import (
	"time"
)

type User struct {
	ID        string    `bson:"_id" json:"_id" gorm:"primaryKey;type:varchar(36)"`
	Name      string    `bson:"name" json:"name" gorm:"type:varchar(100);not null"`
	Email     string    `bson:"email" json:"email" gorm:"type:varchar(100);uniqueIndex;not null"`
	Password  string    `bson:"password" json:"-" gorm:"type:varchar(100);not null"`
	IsAdmin   bool      `bson:"isAdmin" json:"isAdmin" gorm:"not null;default:false"`
	Phone     string    `bson:"phone,omitempty" json:"phone,omitempty" gorm:"type:varchar(20)"`
	Address   string    `bson:"address,omitempty" json:"address,omitempty" gorm:"type:varchar(255)"`
	City      string    `bson:"city,omitempty" json:"city,omitempty" gorm:"type:varchar(100)"`
	Country   string    `bson:"country,omitempty" json:"country,omitempty" gorm:"type:varchar(100)"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

func (User) TableName() string {
	return "users"
}

// Customer is the display projection of a user attached to orders and
// shipments in admin views.
type Customer struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (u *User) Customer() *Customer {
	return &Customer{ID: u.ID, Name: u.Name, Email: u.Email}
}
