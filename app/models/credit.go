package models

import "time"

// CreditLedgerEntry is an append-only record of a single credit grant. The
// unique payment id is what enforces at-most-once crediting per payment:
// a second delivery of the same webhook hits the unique index instead of
// granting again. Entries are never updated or deleted.
type CreditLedgerEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	PaymentID    string    `gorm:"type:varchar(191);not null;uniqueIndex:ux_credit_ledger_payment" json:"payment_id"`
	UserID       uint      `gorm:"not null;index" json:"user_id"`
	CreditType   string    `gorm:"type:varchar(32);not null;index" json:"credit_type"`
	Amount       int       `gorm:"not null" json:"amount"`
	Reason       string    `gorm:"type:varchar(100);not null;default:''" json:"reason"`
	MetadataJSON string    `gorm:"type:text" json:"metadata_json"`
	CreatedAt    time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

// CreditBalance is the materialized per-type balance. It is only ever written
// in the same transaction as a ledger insert.
type CreditBalance struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;index:ux_credit_balances_user_type,unique,priority:1" json:"user_id"`
	CreditType string    `gorm:"type:varchar(32);not null;index:ux_credit_balances_user_type,unique,priority:2" json:"credit_type"`
	Balance    int       `gorm:"not null;default:0" json:"balance"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
