package model

import "time"

type User struct {
	ID                  string     `json:"id"`
	Email               string     `json:"email"`
	FirstName           string     `json:"first_name,omitempty"`
	LastName            string     `json:"last_name,omitempty"`
	Birthdate           string     `json:"birthdate,omitempty"`
	Gender              string     `json:"gender,omitempty"`
	IsActive            bool       `json:"is_active"`
	IsVerified          bool       `json:"is_verified"`
	MarketingConsent    bool       `json:"marketing_consent"`
	CreatedAt           *time.Time `json:"created_at,omitempty"`
	LastLogin           *time.Time `json:"last_login,omitempty"`
	NotificationChannel string     `json:"notification_channel,omitempty"`
}

type Credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Registration struct {
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=8"`
	FirstName        string `json:"first_name" validate:"required"`
	LastName         string `json:"last_name" validate:"required"`
	Birthdate        string `json:"birthdate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Gender           string `json:"gender,omitempty"`
	MarketingConsent bool   `json:"marketing_consent"`
}
