package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const MaxShopRating = 5

type Shop struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OwnerID   primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Name      string             `bson:"name" json:"name"`
	Location  string             `bson:"location" json:"location"`
	Rating    float64            `bson:"rating" json:"rating"`
	Tags      []string           `bson:"tags" json:"tags"`
	IsActive  bool               `bson:"isActive" json:"isActive"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}
