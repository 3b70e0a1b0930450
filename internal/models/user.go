package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	PhotoURL     string `json:"photo_url"`
}

// UserResponse is the public shape of a user. Online is never persisted;
// it reflects the presence registry at the moment the response is built.
type UserResponse struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	PhotoURL string `json:"photo_url"`
	Online   bool   `json:"online"`
}

func (u *User) ToResponse(online bool) UserResponse {
	return UserResponse{
		ID:       u.ID,
		Username: u.Username,
		PhotoURL: u.PhotoURL,
		Online:   online,
	}
}
