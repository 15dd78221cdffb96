package entities

import "time"

type Timestamp struct {
	CreatedAt time.Time `gorm:"type:timestamp;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamp;index" json:"updated_at"`
}
