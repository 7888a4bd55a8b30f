package models

// Counter backs one named sequence.
type Counter struct {
	Name  string `bson:"_id" json:"name"`
	Value int64  `bson:"seq" json:"value"`
}
