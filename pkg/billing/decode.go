package billing

import (
	"encoding/json"
	"errors"
	"time"
)

// Decode turns an arbitrary webhook body into one of the closed set of
// event variants. Only a body that is not valid JSON at all is an error;
// every other shape degrades to Unrecognized or to a variant with missing
// fields, so a single malformed event can never abort ingestion.
func Decode(raw []byte) (Event, error) {
	var env struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		if !json.Valid(raw) {
			return nil, errors.Join(ErrUnparseablePayload, err)
		}
		// Valid JSON of an unexpected top-level shape (array, scalar).
		return Unrecognized{Payload: raw}, nil
	}

	switch env.Type {
	case EventOrderUpdated:
		return decodeOrderUpdated(env.Data), nil
	case EventSubscriptionCanceled:
		p := decodeSubscriptionPayload(env.Data)
		return SubscriptionCanceled{
			SubscriptionID: p.ID,
			Status:         p.Status,
			PeriodEnd:      p.periodEnd(),
			Correlate:      p.keys(),
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.ModifiedAt,
			Payload:        env.Data,
		}, nil
	case EventSubscriptionUncanceled:
		p := decodeSubscriptionPayload(env.Data)
		return SubscriptionUncanceled{
			SubscriptionID: p.ID,
			Status:         p.Status,
			Correlate:      p.keys(),
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.ModifiedAt,
			Payload:        env.Data,
		}, nil
	case EventSubscriptionRevoked:
		p := decodeSubscriptionPayload(env.Data)
		return SubscriptionRevoked{
			SubscriptionID: p.ID,
			Status:         p.Status,
			Correlate:      p.keys(),
			CreatedAt:      p.CreatedAt,
			UpdatedAt:      p.ModifiedAt,
			Payload:        env.Data,
		}, nil
	default:
		return Unrecognized{Type: env.Type, Payload: env.Data}, nil
	}
}

// metadata tolerates user_id arriving as a string or a number, and
// swallows any other metadata shape entirely.
type metadata struct {
	UserID string
}

func (m *metadata) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	v, ok := raw["user_id"]
	if !ok {
		return nil
	}

	var s string
	if err := json.Unmarshal(v, &s); err == nil {
		m.UserID = s
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(v, &n); err == nil {
		m.UserID = n.String()
	}
	return nil
}

type eventPayload struct {
	ID         string `json:"id"`
	CheckoutID string `json:"checkout_id"`
	Status     string `json:"status"`
	ProductID  string `json:"product_id"`
	Product    struct {
		ID string `json:"id"`
	} `json:"product"`
	CustomerID string `json:"customer_id"`
	Customer   struct {
		Email string `json:"email"`
	} `json:"customer"`
	Metadata         metadata   `json:"metadata"`
	CurrentPeriodEnd *time.Time `json:"current_period_end"`
	EndsAt           *time.Time `json:"ends_at"`
	CreatedAt        *time.Time `json:"created_at"`
	ModifiedAt       *time.Time `json:"modified_at"`
}

func (p eventPayload) keys() CorrelationKeys {
	return CorrelationKeys{
		UserID:     p.Metadata.UserID,
		Email:      p.Customer.Email,
		CustomerID: p.CustomerID,
	}
}

func (p eventPayload) productRef() string {
	if p.ProductID != "" {
		return p.ProductID
	}
	return p.Product.ID
}

func (p eventPayload) periodEnd() *time.Time {
	if p.CurrentPeriodEnd != nil {
		return p.CurrentPeriodEnd
	}
	return p.EndsAt
}

func decodeOrderUpdated(data json.RawMessage) OrderUpdated {
	p := decodePayload(data)

	checkoutID := p.CheckoutID
	if checkoutID == "" {
		checkoutID = p.ID
	}

	return OrderUpdated{
		CheckoutID: checkoutID,
		Status:     OrderStatus(p.Status),
		ProductRef: p.productRef(),
		Correlate:  p.keys(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.ModifiedAt,
		Payload:    data,
	}
}

func decodeSubscriptionPayload(data json.RawMessage) eventPayload {
	return decodePayload(data)
}

// decodePayload never fails: fields that cannot be interpreted stay zero
// and surface later as a resolution or tier-lookup miss.
func decodePayload(data json.RawMessage) eventPayload {
	var p eventPayload
	_ = json.Unmarshal(data, &p)
	return p
}
