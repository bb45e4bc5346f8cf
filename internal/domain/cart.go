package domain

import "time"

// CartItem holds one product line of a user's cart. One row per distinct
// product per user; the whole set is wiped when an order is placed.
type CartItem struct {
	ID        int64     `json:"id,string" form:"id"`
	UserId    string    `gorm:"index:idx_cart_user_product,unique;size:64" json:"user_id" form:"user_id"`
	ProductId int64     `gorm:"index:idx_cart_user_product,unique" json:"product_id,string" form:"product_id"`
	Quantity  int       `json:"quantity" form:"quantity"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (CartItem) TableName() string {
	return "shop_cart_item"
}
