package models

import "time"

// CartSlot persists one named durable slot for a session scope.
type CartSlot struct {
	Scope     string    `gorm:"column:scope;primaryKey"`
	Name      string    `gorm:"column:name;primaryKey"`
	Value     string    `gorm:"column:value;not null"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default table name.
func (CartSlot) TableName() string {
	return "cart_slots"
}
