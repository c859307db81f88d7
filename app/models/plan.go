package models

import "time"

const (
	BillingProviderStripe       = "stripe"
	BillingProviderPaddle       = "paddle"
	BillingProviderDodo         = "dodo"
	BillingProviderPayPal       = "paypal"
	BillingProviderLemonSqueezy = "lemonsqueezy"
)

const (
	BillingStatusActive   = "active"
	BillingStatusTrialing = "trialing"
	BillingStatusPastDue  = "past_due"
	BillingStatusCanceled = "canceled"
	BillingStatusPaused   = "paused"
)

// Plan maps internal plans to the provider-specific price identifiers used to
// resolve inbound webhook events back to a plan. Up to three price ids per
// provider: monthly, yearly and one-time.
type Plan struct {
	ID          string `gorm:"primaryKey;type:varchar(50)" json:"id"`
	Name        string `gorm:"type:varchar(100);not null" json:"name"`
	Description string `gorm:"type:text" json:"description"`
	PriceCents  int    `gorm:"not null;default:0" json:"price_cents"`
	IsActive    bool   `gorm:"default:true;index" json:"is_active"`

	StripeMonthlyPriceID string `gorm:"type:varchar(191);default:'';index" json:"-"`
	StripeYearlyPriceID  string `gorm:"type:varchar(191);default:''" json:"-"`
	StripeOnetimePriceID string `gorm:"type:varchar(191);default:''" json:"-"`
	PaddleMonthlyPriceID string `gorm:"type:varchar(191);default:'';index" json:"-"`
	PaddleYearlyPriceID  string `gorm:"type:varchar(191);default:''" json:"-"`
	PaddleOnetimePriceID string `gorm:"type:varchar(191);default:''" json:"-"`
	DodoMonthlyPriceID   string `gorm:"type:varchar(191);default:'';index" json:"-"`
	DodoYearlyPriceID    string `gorm:"type:varchar(191);default:''" json:"-"`
	DodoOnetimePriceID   string `gorm:"type:varchar(191);default:''" json:"-"`
	PayPalPlanID         string `gorm:"column:paypal_plan_id;type:varchar(191);default:''" json:"-"`
	LemonSqueezyVariant  string `gorm:"type:varchar(191);default:''" json:"-"`

	// Credits granted on each successful subscription payment.
	IncludedImageCredits int `gorm:"not null;default:0" json:"included_image_credits"`
	IncludedVideoCredits int `gorm:"not null;default:0" json:"included_video_credits"`
	IncludedTextCredits  int `gorm:"not null;default:0" json:"included_text_credits"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
