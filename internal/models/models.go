package models

import (
	"strings"
	"time"
)

// PlaceholderImage is shown when a product has no usable image reference
const PlaceholderImage = "https://via.placeholder.com/300?text=No+Image"

// Product represents a product in the catalog
type Product struct {
	ID          string    `db:"id" json:"id"`
	Name        string    `db:"name" json:"name"`
	Price       int64     `db:"price" json:"price"`
	Category    string    `db:"category" json:"category"`
	SubCategory string    `db:"sub_category" json:"subCategory,omitempty"`
	Images      []string  `db:"-" json:"images,omitempty"`
	Img         string    `db:"img" json:"img,omitempty"`
	SoldOut     bool      `db:"sold_out" json:"soldOut"`
	Sale        bool      `db:"sale" json:"sale"`
	CreatedAt   time.Time `db:"created_at" json:"timestamp"`
}

// DisplayImage returns the first image, the legacy single image, or the placeholder
func (p Product) DisplayImage() string {
	for _, img := range p.Images {
		if img != "" {
			return img
		}
	}
	if p.Img != "" {
		return p.Img
	}
	return PlaceholderImage
}

// Order represents a placed order as seen by the storefront
type Order struct {
	ID         string     `db:"id" json:"id"`
	TrackingID string     `db:"tracking_id" json:"trackingId,omitempty"`
	UserEmail  string     `db:"user_email" json:"userEmail,omitempty"`
	Status     string     `db:"status" json:"status"`
	Product    string     `db:"product" json:"product"`
	Price      int64      `db:"price" json:"price"`
	CreatedAt  *time.Time `db:"created_at" json:"timestamp,omitempty"`
}

// DisplayTrackingID returns the tracking id, falling back to a short form of the document id
func (o Order) DisplayTrackingID() string {
	if o.TrackingID != "" {
		return o.TrackingID
	}
	id := o.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return "#" + strings.ToUpper(id)
}

// Order statuses with a dedicated display treatment. Other values are shown as-is.
const (
	OrderStatusPending   = "Pending"
	OrderStatusShipped   = "Shipped"
	OrderStatusDelivered = "Delivered"
)

// Coupon maps a code to a flat percentage discount
type Coupon struct {
	Code    string `db:"code" json:"code"`
	Percent int    `db:"percent" json:"percent"`
}

// Identity is an authenticated user as reported by the identity provider
type Identity struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName,omitempty"`
	PhotoURL    string `json:"photoURL,omitempty"`
}

// Checkout types written to the checkout_type record
const (
	CheckoutTypeCart = "cart"
)
