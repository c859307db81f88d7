package models

import "time"

// PayPalContext tracks a user's PayPal order/subscription references. PayPal
// has no vendor-hosted customer portal, so the billing redirector falls back
// to the in-app PayPal billing page whenever any context row exists.
type PayPalContext struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	OrderID        string    `gorm:"type:varchar(191);default:'';index" json:"order_id"`
	SubscriptionID string    `gorm:"type:varchar(191);default:'';index" json:"subscription_id"`
	Status         string    `gorm:"type:varchar(32);not null;default:''" json:"status"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (PayPalContext) TableName() string {
	return "paypal_contexts"
}
