package models

// OrderStatus is the lifecycle state of an Order. Transitions go through
// CanTransitionTo; direct status overwrites are not allowed anywhere else.
type OrderStatus string

const (
	StatusPending         OrderStatus = "pending"
	StatusConfirmed       OrderStatus = "confirmed"
	StatusProcessing      OrderStatus = "processing"
	StatusPacked          OrderStatus = "packed"
	StatusShipped         OrderStatus = "shipped"
	StatusOutForDelivery  OrderStatus = "out_for_delivery"
	StatusDelivered       OrderStatus = "delivered"
	StatusCancelled       OrderStatus = "cancelled"
	StatusRefundRequested OrderStatus = "refund_requested"
	StatusRefunded        OrderStatus = "refunded"
)

var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:         {StatusConfirmed, StatusCancelled},
	StatusConfirmed:       {StatusProcessing, StatusCancelled},
	StatusProcessing:      {StatusPacked, StatusCancelled},
	StatusPacked:          {StatusShipped},
	StatusShipped:         {StatusOutForDelivery},
	StatusOutForDelivery:  {StatusDelivered},
	StatusDelivered:       {StatusRefundRequested},
	StatusRefundRequested: {StatusRefunded},
	StatusCancelled:       {},
	StatusRefunded:        {},
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is possible.
func (s OrderStatus) Terminal() bool {
	return len(transitions[s]) == 0
}

// CancellableByCustomer limits self-service cancellation to early states.
// Admins may still cancel from confirmed via the transition table.
func (s OrderStatus) CancellableByCustomer() bool {
	return s == StatusPending || s == StatusProcessing
}
