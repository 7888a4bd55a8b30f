package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Field names owned by the repository layer. Callers never write them directly.
const (
	FieldID            = "_id"
	FieldCreatedAt     = "createdAt"
	FieldModifyHistory = "modifyHistory"
)

// BaseEntity is embedded inline in every persisted document.
// ModifyHistory starts with CreatedAt and gains one entry per update.
type BaseEntity struct {
	ID            bson.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt     time.Time     `bson:"createdAt" json:"createdAt"`
	ModifyHistory []time.Time   `bson:"modifyHistory" json:"modifyHistory"`
}

func (b *BaseEntity) Base() *BaseEntity { return b }

// LastModified returns the newest history entry, or CreatedAt when empty.
func (b *BaseEntity) LastModified() time.Time {
	if n := len(b.ModifyHistory); n > 0 {
		return b.ModifyHistory[n-1]
	}
	return b.CreatedAt
}
