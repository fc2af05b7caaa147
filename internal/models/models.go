package models

import (
	"github.com/shopspring/decimal"
)

type Product struct {
	ID          uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name        string          `gorm:"not null"                    json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Category    string          `gorm:"index"                       json:"category"`
	Material    string          `json:"material"`
	Size        string          `json:"size"`
	Color       string          `json:"color"`
	Finish      string          `json:"finish"`
	ImageURL    string          `json:"image_url"`
	Stock       uint            `json:"stock"`
	Featured    bool            `gorm:"default:false"               json:"featured"`
}

type Collection struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"not null"                 json:"name"`
	Description string `json:"description"`
	ImageURL    string `json:"image_url"`
	Featured    bool   `gorm:"default:false"            json:"featured"`
	CreatedAt   int64  `gorm:"autoCreateTime"           json:"created_at"`
}

type ProductCollection struct {
	ID           uint `gorm:"primaryKey"                                json:"id"`
	ProductID    uint `gorm:"not null;uniqueIndex:idx_prod_coll"        json:"product_id"`
	CollectionID uint `gorm:"not null;uniqueIndex:idx_prod_coll;index"  json:"collection_id"`
}

type Bundle struct {
	ID                 uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Name               string          `gorm:"not null"                    json:"name"`
	Description        string          `json:"description"`
	ImageURL           string          `json:"image_url"`
	DiscountPercentage decimal.Decimal `gorm:"type:numeric(5,2);not null"  json:"discount_percentage"`
	Featured           bool            `gorm:"default:false"               json:"featured"`
	CreatedAt          int64           `gorm:"autoCreateTime"              json:"created_at"`
}

type BundleProduct struct {
	ID        uint `gorm:"primaryKey"                                  json:"id"`
	BundleID  uint `gorm:"not null;uniqueIndex:idx_bundle_prod;index"  json:"bundle_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_bundle_prod"        json:"product_id"`
}

// FrameOption is one choice in the custom frame builder (a material, size,
// color or finish) carrying a price modifier on top of the base frame price.
type FrameOption struct {
	ID            uint            `gorm:"primaryKey;autoIncrement"    json:"id"`
	Category      string          `gorm:"index;not null"              json:"category"`
	Name          string          `gorm:"not null"                    json:"name"`
	Description   string          `json:"description"`
	PriceModifier decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price_modifier"`
	ImageURL      string          `json:"image_url"`
	Available     bool            `gorm:"default:true"                json:"available"`
	SortOrder     int             `gorm:"default:0"                   json:"sort_order"`
	CreatedAt     int64           `gorm:"autoCreateTime"              json:"created_at"`
}

func (FrameOption) TableName() string { return "custom_frame_options" }

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
}

type Profile struct {
	ID       uint   `gorm:"primaryKey"           json:"id"`
	UserID   uint   `gorm:"uniqueIndex;not null" json:"user_id"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
}

// UserRole rows are authoritative for authorization: a user is an admin iff an
// ("admin") row exists for them.
type UserRole struct {
	ID     uint   `gorm:"primaryKey"                         json:"id"`
	UserID uint   `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role   string `gorm:"not null;uniqueIndex:idx_user_role" json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                  json:"id"`
	UserID    uint `gorm:"index;not null"              json:"user_id"`
	ProductID uint `gorm:"not null"                    json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

type WishlistItem struct {
	ID        uint `gorm:"primaryKey"                              json:"id"`
	UserID    uint `gorm:"not null;uniqueIndex:idx_wishlist_entry" json:"user_id"`
	ProductID uint `gorm:"not null;uniqueIndex:idx_wishlist_entry" json:"product_id"`
}

type Address struct {
	ID         uint   `gorm:"primaryKey"     json:"id"`
	UserID     uint   `gorm:"index;not null" json:"user_id"`
	Label      string `gorm:"not null"       json:"label"`
	Street     string `gorm:"not null"       json:"street"`
	City       string `gorm:"not null"       json:"city"`
	State      string `gorm:"not null"       json:"state"`
	PostalCode string `gorm:"not null"       json:"postal_code"`
	Country    string `gorm:"not null"       json:"country"`
	IsDefault  bool   `gorm:"default:false"  json:"is_default"`
}

// ShippingAddress is the by-value snapshot embedded in an Order. Editing or
// deleting the source Address later never touches historical orders.
type ShippingAddress struct {
	Label      string `json:"label"`
	Street     string `json:"street"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

func SnapshotOf(a Address) ShippingAddress {
	return ShippingAddress{
		Label:      a.Label,
		Street:     a.Street,
		City:       a.City,
		State:      a.State,
		PostalCode: a.PostalCode,
		Country:    a.Country,
	}
}

type Order struct {
	ID             uint            `gorm:"primaryKey"                  json:"id"`
	UserID         uint            `gorm:"index;not null;uniqueIndex:idx_order_idem" json:"user_id"`
	OrderNumber    string          `gorm:"unique;not null"                           json:"order_number"`
	Status         OrderStatus     `gorm:"not null"                                  json:"status"`
	Total          decimal.Decimal `gorm:"type:numeric(12,2);not null"               json:"total"`
	PaymentMethod  string          `gorm:"not null"                                  json:"payment_method"`
	PaymentStatus  string          `gorm:"not null"                                  json:"payment_status"`
	TrackingNumber string          `json:"tracking_number,omitempty"`

	// NULL when the client supplied no key; the composite unique index only
	// applies to rows that carry one.
	IdempotencyKey *string `gorm:"uniqueIndex:idx_order_idem" json:"-"`

	ShippingAddress ShippingAddress `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping_address"`

	CreatedAt int64 `gorm:"not null" json:"created_at"`
}

type OrderItem struct {
	ID        uint            `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"order_id"`
	ProductID uint            `gorm:"not null"                    json:"product_id"`
	Quantity  uint            `gorm:"default:1;check:quantity>0"  json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
}

// OrderStatusHistory is append-only. Rows are never updated or deleted.
type OrderStatusHistory struct {
	ID        uint        `gorm:"primaryKey"     json:"id"`
	OrderID   uint        `gorm:"index;not null" json:"order_id"`
	Status    OrderStatus `gorm:"not null"       json:"status"`
	Notes     string      `json:"notes"`
	CreatedAt int64       `gorm:"not null"       json:"created_at"`
}
