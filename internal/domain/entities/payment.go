package entities

import (
	"time"

	"github.com/volatiletech/null/v8"
)

// Provider identifies the external payment gateway handling a payment.
type Provider string

const (
	ProviderZaloPay Provider = "ZALOPAY"
	ProviderPayOS   Provider = "PAYOS"
	ProviderVNPay   Provider = "VNPAY"
)

// PaymentStatus is the payment lifecycle state. The only legal edges are
// PENDING -> COMPLETED, PENDING -> FAILED, PENDING -> CANCELLED; every
// terminal state is immutable.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
	PaymentStatusCancelled PaymentStatus = "CANCELLED"
)

// IsTerminal reports whether s accepts no further transitions.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// Payment is the identity of one payment attempt. IdempotencyKey and
// OrderCode are each globally unique; ProviderTransactionId joins an
// inbound webhook back to this row.
type Payment struct {
	ID                    string      `json:"id"`
	OrderCode             string      `json:"orderCode"`
	IdempotencyKey        string      `json:"idempotencyKey"`
	AmountCents           int64       `json:"amountCents"`
	Currency              string      `json:"currency"`
	Provider              Provider    `json:"provider"`
	ProviderTransactionID string      `json:"providerTransactionId"`
	RedirectURL           string      `json:"redirectUrl"`
	PaymentURL            string      `json:"paymentUrl"`
	Status                PaymentStatus `json:"status"`
	CreatedAt             time.Time   `json:"createdAt"`
	UpdatedAt             time.Time   `json:"updatedAt"`
	CompletedAt           null.Time   `json:"completedAt,omitempty"`
	FailedAt              null.Time   `json:"failedAt,omitempty"`
	CancelledAt           null.Time   `json:"cancelledAt,omitempty"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// EventType enumerates the business events the Lifecycle Engine appends
// to the outbox. Values are stable across wire versions.
type EventType string

const (
	EventTypePaymentCompleted EventType = "PaymentCompleted"
	EventTypePaymentFailed    EventType = "PaymentFailed"
	EventTypePaymentCancelled EventType = "PaymentCancelled"
)

// EventPayload is the stable, snake_case wire shape published to the bus.
type EventPayload struct {
	PaymentID     string `json:"payment_id"`
	OrderCode     string `json:"order_code"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
	Provider      string `json:"provider"`
	TransactionID string `json:"transaction_id"`
	CompletedAt   string `json:"completed_at,omitempty"`
	FailedAt      string `json:"failed_at,omitempty"`
	CancelledAt   string `json:"cancelled_at,omitempty"`
}

// OutboxRecord is a durable, pending business event. It is appended only
// inside the same transaction as the payment mutation that produced it.
type OutboxRecord struct {
	ID            string    `json:"id"`
	AggregateID   string    `json:"aggregateId"`
	AggregateType string    `json:"aggregateType"`
	EventType     EventType `json:"eventType"`
	Payload       []byte    `json:"payload"`
	Published     bool      `json:"published"`
	PublishedAt   null.Time `json:"publishedAt,omitempty"`
	RetryCount    int       `json:"retryCount"`
	LastError     null.String `json:"lastError,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AggregateTypePayment is the only aggregate type this service produces.
const AggregateTypePayment = "Payment"

// RoutingTable maps an event type to its bus topic (spec.md §4.5).
var RoutingTable = map[EventType]string{
	EventTypePaymentCompleted: "payment.completed",
	EventTypePaymentFailed:    "payment.failed",
	EventTypePaymentCancelled: "payment.cancelled",
}

// MaxLastErrorBytes truncates OutboxRecord.LastError per the O-invariant.
const MaxLastErrorBytes = 500
