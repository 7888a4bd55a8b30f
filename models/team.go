package models

import "go.mongodb.org/mongo-driver/v2/bson"

// Team membership is an id list resolved through the user repository.
type Team struct {
	BaseEntity `bson:",inline"`

	Name        string          `bson:"name" json:"name"`
	Slug        string          `bson:"slug" json:"slug"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	LeaderID    bson.ObjectID   `bson:"leaderId,omitempty" json:"leaderId,omitempty"`
	MembersID   []bson.ObjectID `bson:"membersId" json:"membersId"`
}
