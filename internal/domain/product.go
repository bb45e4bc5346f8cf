package domain

import "time"

// Product is a catalog item. Stock is decremented by order placement and
// must never go negative.
type Product struct {
	ID            int64     `json:"id,string" form:"id"`
	Name          string    `gorm:"index" json:"name" form:"name"`
	Description   string    `json:"description" form:"description"`
	Category      string    `gorm:"index;size:64" json:"category" form:"category"`
	Price         float64   `json:"price" form:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty" form:"original_price"`
	Size          string    `gorm:"size:32" json:"size" form:"size"`
	Count         string    `gorm:"size:32" json:"count" form:"count"`
	Stock         int       `json:"stock" form:"stock"`
	OnOffer       bool      `json:"on_offer" form:"on_offer"`
	OutOfStock    bool      `json:"out_of_stock" form:"out_of_stock"`
	Image         string    `gorm:"size:1024" json:"image"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Product) TableName() string {
	return "shop_product"
}
