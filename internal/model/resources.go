package model

import "time"

type Product struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	Price        float64  `json:"price"`
	Currency     string   `json:"currency,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	AffiliateURL string   `json:"affiliate_url,omitempty"`
	Category     string   `json:"category,omitempty"`
	Brand        string   `json:"brand,omitempty"`
	Tags         []string `json:"tags,omitempty"`
}

type ProductQuery struct {
	Category string
	MinPrice float64
	MaxPrice float64
	Search   string
	Page     int
	Limit    int
}

type SwipeDirection string

const (
	SwipeLeft  SwipeDirection = "left"
	SwipeRight SwipeDirection = "right"
	SwipeUp    SwipeDirection = "up"
)

type Swipe struct {
	ProductID string         `json:"product_id" validate:"required"`
	Direction SwipeDirection `json:"direction" validate:"required,oneof=left right up"`
	SessionID string         `json:"session_id,omitempty"`
}

type Recommendation struct {
	Product   Product `json:"product"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason,omitempty"`
	Algorithm string  `json:"algorithm,omitempty"`
}

type GiftLinkRequest struct {
	ProductIDs []string `json:"product_ids" validate:"required,min=1,dive,required"`
	Message    string   `json:"message,omitempty"`
	ExpiresIn  int      `json:"expires_in_days,omitempty" validate:"omitempty,min=1,max=365"`
}

type GiftLink struct {
	ID        string     `json:"id"`
	Token     string     `json:"token"`
	URL       string     `json:"url"`
	Products  []Product  `json:"products,omitempty"`
	Message   string     `json:"message,omitempty"`
	Views     int        `json:"views"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

type AnalyticsEvent struct {
	Event      string         `json:"event" validate:"required"`
	Properties map[string]any `json:"properties,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
}
