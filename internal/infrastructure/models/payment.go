package models

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Payment is the GORM row shape for the payments table (spec.md §3/§6).
type Payment struct {
	ID                    string    `gorm:"type:varchar(64);primaryKey"`
	OrderCode             string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	IdempotencyKey        string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	AmountCents           int64     `gorm:"not null"`
	Currency              string    `gorm:"type:varchar(8);not null"`
	Provider              string    `gorm:"type:varchar(20);not null"`
	ProviderTransactionID string    `gorm:"type:varchar(100);not null;uniqueIndex"`
	RedirectURL           string    `gorm:"type:varchar(500)"`
	PaymentURL            string    `gorm:"type:varchar(500)"`
	Status                string    `gorm:"type:varchar(20);not null;index"`
	CreatedAt             time.Time `gorm:"not null"`
	UpdatedAt             time.Time `gorm:"not null"`
	CompletedAt           null.Time `gorm:""`
	FailedAt              null.Time `gorm:""`
	CancelledAt           null.Time `gorm:""`
	Metadata              string    `gorm:"type:text"`
}

func (Payment) TableName() string { return "payments" }

// Outbox is the GORM row shape for the outbox table (spec.md §3/§6).
type Outbox struct {
	ID            string      `gorm:"type:varchar(64);primaryKey"`
	AggregateID   string      `gorm:"type:varchar(64);not null;index"`
	AggregateType string      `gorm:"type:varchar(50);not null"`
	EventType     string      `gorm:"type:varchar(50);not null"`
	Payload       string      `gorm:"type:text;not null"`
	Published     bool        `gorm:"not null;index:idx_outbox_published_created"`
	PublishedAt   null.Time   `gorm:""`
	RetryCount    int         `gorm:"not null;default:0"`
	LastError     null.String `gorm:"type:varchar(500)"`
	CreatedAt     time.Time   `gorm:"not null;index:idx_outbox_published_created"`
}

func (Outbox) TableName() string { return "outbox" }
