package domain

import "time"

// Offer is a promotional banner image, independent of discounted products.
type Offer struct {
	ID        int64     `json:"id,string" form:"id"`
	Image     string    `gorm:"size:1024" json:"image"`
	IsActive  bool      `gorm:"index" json:"is_active" form:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Offer) TableName() string {
	return "shop_offer"
}
