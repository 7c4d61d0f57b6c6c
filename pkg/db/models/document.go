package models

import "time"

// Document is one record of an entity collection stored as a JSON payload.
// The envelope fields (id, timestamps, actor attribution, votes, history)
// live inside Data; Collection+RecordID only exist for addressing.
type Document struct {
	Collection string    `gorm:"column:collection;primaryKey"`
	RecordID   string    `gorm:"column:record_id;primaryKey"`
	Data       []byte    `gorm:"column:data;type:jsonb;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the documents table name.
func (Document) TableName() string {
	return "documents"
}
