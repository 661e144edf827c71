package billing

import (
	"encoding/json"
	"time"
)

// Recognized event type names as sent by the payment provider.
const (
	EventOrderUpdated           = "order.updated"
	EventSubscriptionCanceled   = "subscription.canceled"
	EventSubscriptionUncanceled = "subscription.uncanceled"
	EventSubscriptionRevoked    = "subscription.revoked"
)

// OrderStatus is the settlement status reported on an order event.
type OrderStatus string

const (
	OrderStatusPending           OrderStatus = "pending"
	OrderStatusPaid              OrderStatus = "paid"
	OrderStatusActive            OrderStatus = "active"
	OrderStatusCompleted         OrderStatus = "completed"
	OrderStatusRefunded          OrderStatus = "refunded"
	OrderStatusPartiallyRefunded OrderStatus = "partially_refunded"
	OrderStatusCanceled          OrderStatus = "canceled"
)

// PaidLike reports whether the status grants access to the ordered tier.
func (s OrderStatus) PaidLike() bool {
	switch s {
	case OrderStatusPending, OrderStatusPaid, OrderStatusActive, OrderStatusCompleted:
		return true
	}
	return false
}

// RefundLike reports whether the status withdraws a previously granted order.
func (s OrderStatus) RefundLike() bool {
	switch s {
	case OrderStatusRefunded, OrderStatusPartiallyRefunded, OrderStatusCanceled:
		return true
	}
	return false
}

// Known reports whether the status belongs to the recognized set.
func (s OrderStatus) Known() bool {
	return s.PaidLike() || s.RefundLike()
}

// CorrelationKeys are the identifiers an event may carry to link it to an
// internal user. Any subset may be present.
type CorrelationKeys struct {
	UserID     string // metadata.user_id
	Email      string // customer.email
	CustomerID string // provider's customer_id
}

// Empty reports whether no correlation key was present at all.
func (k CorrelationKeys) Empty() bool {
	return k.UserID == "" && k.Email == "" && k.CustomerID == ""
}

// Event is one variant of the closed set of decoded provider events.
// Decode produces exactly one of OrderUpdated, SubscriptionCanceled,
// SubscriptionUncanceled, SubscriptionRevoked or Unrecognized.
type Event interface {
	// EventType returns the provider's event type name.
	EventType() string

	// TransactionID returns the provider's transaction/checkout
	// identifier used to key the event ledger.
	TransactionID() string

	// Keys returns the correlation keys carried by the event.
	Keys() CorrelationKeys
}

// OrderUpdated reports a settlement decision on an order.
type OrderUpdated struct {
	CheckoutID string
	Status     OrderStatus
	ProductRef string
	Correlate  CorrelationKeys
	CreatedAt  *time.Time
	UpdatedAt  *time.Time
	Payload    json.RawMessage
}

func (e OrderUpdated) EventType() string { return EventOrderUpdated }
func (e OrderUpdated) TransactionID() string { return e.CheckoutID }
func (e OrderUpdated) Keys() CorrelationKeys { return e.Correlate }

// SubscriptionCanceled marks a subscription for non-renewal; access is
// retained until the reported period end.
type SubscriptionCanceled struct {
	SubscriptionID string
	Status         string
	PeriodEnd      *time.Time
	Correlate      CorrelationKeys
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
	Payload        json.RawMessage
}

func (e SubscriptionCanceled) EventType() string { return EventSubscriptionCanceled }
func (e SubscriptionCanceled) TransactionID() string { return e.SubscriptionID }
func (e SubscriptionCanceled) Keys() CorrelationKeys { return e.Correlate }

// SubscriptionUncanceled reverses a pending cancellation.
type SubscriptionUncanceled struct {
	SubscriptionID string
	Status         string
	Correlate      CorrelationKeys
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
	Payload        json.RawMessage
}

func (e SubscriptionUncanceled) EventType() string { return EventSubscriptionUncanceled }
func (e SubscriptionUncanceled) TransactionID() string { return e.SubscriptionID }
func (e SubscriptionUncanceled) Keys() CorrelationKeys { return e.Correlate }

// SubscriptionRevoked terminates access immediately regardless of the
// remaining paid period.
type SubscriptionRevoked struct {
	SubscriptionID string
	Status         string
	Correlate      CorrelationKeys
	CreatedAt      *time.Time
	UpdatedAt      *time.Time
	Payload        json.RawMessage
}

func (e SubscriptionRevoked) EventType() string { return EventSubscriptionRevoked }
func (e SubscriptionRevoked) TransactionID() string { return e.SubscriptionID }
func (e SubscriptionRevoked) Keys() CorrelationKeys { return e.Correlate }

// Unrecognized carries an event type outside the known allowlist, or a
// recognized envelope whose shape could not be interpreted. It is logged
// and otherwise ignored.
type Unrecognized struct {
	Type    string
	Payload json.RawMessage
}

func (e Unrecognized) EventType() string { return e.Type }
func (e Unrecognized) TransactionID() string { return "" }
func (e Unrecognized) Keys() CorrelationKeys { return CorrelationKeys{} }
