package models

import (
	"time"
)

type Order struct {
	ID              string          `bson:"_id" json:"_id" gorm:"primaryKey;type:varchar(36)"`
	UserID          string          `bson:"user" json:"user" gorm:"type:varchar(36);not null;index"`
	OrderNumber     string          `bson:"orderNumber" json:"orderNumber" gorm:"type:varchar(20);uniqueIndex;not null"`
	Items           []OrderItem     `bson:"items" json:"items" gorm:"serializer:json;type:text"`
	ShippingAddress ShippingAddress `bson:"shippingAddress" json:"shippingAddress" gorm:"embedded;embeddedPrefix:ship_"`
	PaymentMethod   string          `bson:"paymentMethod" json:"paymentMethod" gorm:"type:varchar(50);not null"`
	TotalPrice      float64         `bson:"totalPrice" json:"totalPrice" gorm:"type:decimal(12,2);not null"`
	TaxAmount       *float64        `bson:"taxAmount,omitempty" json:"taxAmount,omitempty" gorm:"type:decimal(12,2)"`
	TaxPercentage   *float64        `bson:"taxPercentage,omitempty" json:"taxPercentage,omitempty" gorm:"type:decimal(5,2)"`
	ShippingPrice   *float64        `bson:"shipping,omitempty" json:"shipping,omitempty" gorm:"type:decimal(12,2)"`
	Status          OrderStatus     `bson:"status" json:"status" gorm:"type:varchar(20);not null;default:'Processing';index"`
	CreatedAt       time.Time       `bson:"createdAt" json:"createdAt" gorm:"index"`
	UpdatedAt       time.Time       `bson:"updatedAt" json:"updatedAt"`

	// Customer is resolved on read and never persisted.
	Customer *Customer `bson:"-" json:"customer,omitempty" gorm:"-"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem is an immutable snapshot of a product at checkout time.
type OrderItem struct {
	ProductID string  `bson:"product" json:"product"`
	Name      string  `bson:"name" json:"name"`
	Price     float64 `bson:"price" json:"price"`
	Quantity  int     `bson:"quantity" json:"quantity"`
	Image     string  `bson:"image,omitempty" json:"image,omitempty"`
}

type ShippingAddress struct {
	FirstName  string `bson:"firstName,omitempty" json:"firstName,omitempty" gorm:"type:varchar(100)"`
	LastName   string `bson:"lastName,omitempty" json:"lastName,omitempty" gorm:"type:varchar(100)"`
	Email      string `bson:"email,omitempty" json:"email,omitempty" gorm:"type:varchar(100)"`
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty" gorm:"type:varchar(20)"`
	Address    string `bson:"address" json:"address" validate:"required" gorm:"type:varchar(255)"`
	City       string `bson:"city" json:"city" validate:"required" gorm:"type:varchar(100)"`
	PostalCode string `bson:"postalCode" json:"postalCode" validate:"required" gorm:"type:varchar(20)"`
	Country    string `bson:"country" json:"country" validate:"required" gorm:"type:varchar(100)"`
}

type Shipment struct {
	ID                string         `bson:"_id" json:"_id" gorm:"primaryKey;type:varchar(36)"`
	OrderID           string         `bson:"order" json:"order" gorm:"type:varchar(36);uniqueIndex;not null"`
	Status            ShipmentStatus `bson:"status" json:"status" gorm:"type:varchar(20);not null;default:'Preparing'"`
	TrackingNumber    string         `bson:"trackingNumber,omitempty" json:"trackingNumber,omitempty" gorm:"type:varchar(100)"`
	ShippingMethod    string         `bson:"shippingMethod" json:"shippingMethod" gorm:"type:varchar(100);not null"`
	EstimatedDelivery *time.Time     `bson:"estimatedDelivery,omitempty" json:"estimatedDelivery,omitempty"`
	CreatedAt         time.Time      `bson:"createdAt" json:"createdAt" gorm:"index"`
	UpdatedAt         time.Time      `bson:"updatedAt" json:"updatedAt"`
}

func (Shipment) TableName() string {
	return "shipments"
}
