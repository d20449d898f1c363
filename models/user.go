package models

import "github.com/pocketbase/pocketbase/core"

const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

type User struct {
	ID         string `json:"user_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Picture    string `json:"picture,omitempty"`
	Role       string `json:"role"` // buyer, seller, admin
	SalesCount int    `json:"sales_count"`
	Language   string `json:"language,omitempty"`
	Created    string `json:"created"`
}

func UserFromRecord(r *core.Record) *User {
	return &User{
		ID:         r.Id,
		Email:      r.GetString("email"),
		Name:       r.GetString("name"),
		Picture:    r.GetString("picture"),
		Role:       r.GetString("role"),
		SalesCount: r.GetInt("sales_count"),
		Language:   r.GetString("language"),
		Created:    r.GetString("created"),
	}
}

type PriceAlert struct {
	ID       string  `json:"id"`
	UserID   string  `json:"user_id"`
	EventID  string  `json:"event_id"`
	MaxPrice float64 `json:"max_price"`
	Email    string  `json:"email"`
	Language string  `json:"language,omitempty"`
}

type Dispute struct {
	ID       string `json:"id"`
	OrderID  string `json:"order_id"`
	OpenedBy string `json:"opened_by"`
	Reason   string `json:"reason"`
	Status   string `json:"status"` // open, resolved
}

type Rating struct {
	ID       string `json:"id"`
	SellerID string `json:"seller_id"`
	BuyerID  string `json:"buyer_id"`
	OrderID  string `json:"order_id"`
	Score    int    `json:"score"`
	Comment  string `json:"comment,omitempty"`
}
