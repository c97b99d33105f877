package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Product struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ShopID        primitive.ObjectID `bson:"shopId" json:"shopId"`
	Name          string             `bson:"name" json:"name"`
	Price         float64            `bson:"price" json:"price"`
	OriginalPrice *float64           `bson:"originalPrice,omitempty" json:"originalPrice,omitempty"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	ImagePath     string             `bson:"imagePath" json:"imagePath"`
	Sizes         SizeList           `bson:"sizes" json:"sizes"`
	Stock         int                `bson:"stock" json:"stock"`
	InStock       bool               `bson:"-" json:"inStock"`
	Category      Category           `bson:"category" json:"category"`
	IsActive      bool               `bson:"isActive" json:"isActive"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}
