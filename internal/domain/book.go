package domain

import (
	"time"

	"gorm.io/gorm"
)

type Book struct {
	ID              string `gorm:"primaryKey;type:varchar(32)" json:"id"`
	Title           string `gorm:"size:255;not null;index" json:"title"`
	Author          string `gorm:"size:255;not null;index" json:"author"`
	ISBN            string `gorm:"column:isbn;uniqueIndex;size:20;not null" json:"isbn"`
	Publisher       string `gorm:"size:255" json:"publisher"`
	PublicationYear int    `json:"publicationYear"`
	Description     string `gorm:"type:text" json:"description"`
	Category        string `gorm:"size:100;index" json:"category"`
	Language        string `gorm:"size:50" json:"language"`
	Pages           int    `json:"pages"`

	// 馆藏量与在架量：0 <= available_quantity <= quantity
	Quantity          int `gorm:"not null;default:1" json:"quantity"`
	AvailableQuantity int `gorm:"not null;default:1" json:"availableQuantity"`

	LocationShelf string `gorm:"size:50" json:"locationShelf"`
	CoverImage    string `gorm:"size:255" json:"coverImage"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"dateAdded"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"-"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Book) TableName() string { return "books" }

// IsAvailable 是否还有在架副本
func (b *Book) IsAvailable() bool { return b.AvailableQuantity > 0 }
