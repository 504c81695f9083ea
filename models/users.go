package models

import "time"

type User struct {
	ID        uint   `gorm:"primaryKey" json:"id"`
	Name      string `gorm:"type:varchar(255);not null" json:"name"`
	Email     string `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Role      string `gorm:"type:varchar(50);not null;default:'member'" json:"role"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
