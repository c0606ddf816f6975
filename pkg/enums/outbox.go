package enums

import "fmt"

// OutboxEventType identifies workflow domain events queued through the outbox.
type OutboxEventType string

const (
	EventRequestSubmitted      OutboxEventType = "request.submitted"
	EventRequestDecided        OutboxEventType = "request.decided"
	EventRequestApproved       OutboxEventType = "request.approved"
	EventRequestResubmitted    OutboxEventType = "request.resubmitted"
	EventReplenishmentCreated  OutboxEventType = "replenishment.created"
	EventReplenishmentDecided  OutboxEventType = "replenishment.decided"
	EventReplenishmentComplete OutboxEventType = "replenishment.completed"
	EventSVCCreated            OutboxEventType = "svc.created"
	EventSVCResolved           OutboxEventType = "svc.resolved"
	EventSRVCreated            OutboxEventType = "srv.created"
	EventSRVCompleted          OutboxEventType = "srv.completed"
	EventPurchaseOrderCreated  OutboxEventType = "purchase_order.created"
	EventPurchaseOrderUpdated  OutboxEventType = "purchase_order.status_changed"
	EventPaymentRecorded       OutboxEventType = "payment.recorded"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRequestSubmitted,
	EventRequestDecided,
	EventRequestApproved,
	EventRequestResubmitted,
	EventReplenishmentCreated,
	EventReplenishmentDecided,
	EventReplenishmentComplete,
	EventSVCCreated,
	EventSVCResolved,
	EventSRVCreated,
	EventSRVCompleted,
	EventPurchaseOrderCreated,
	EventPurchaseOrderUpdated,
	EventPaymentRecorded,
}

// String implements fmt.Stringer.
func (o OutboxEventType) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutboxEventType.
func (o OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into an OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outbox event type %q", value)
}

// OutboxAggregateType identifies the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateRequest       OutboxAggregateType = "request"
	AggregateReplenishment OutboxAggregateType = "stock_replenishment"
	AggregateSVC           OutboxAggregateType = "store_verification_certificate"
	AggregateSRV           OutboxAggregateType = "store_receive_voucher"
	AggregatePurchaseOrder OutboxAggregateType = "purchase_order"
	AggregatePayment       OutboxAggregateType = "payment"
)

var validOutboxAggregateTypes = []OutboxAggregateType{
	AggregateRequest,
	AggregateReplenishment,
	AggregateSVC,
	AggregateSRV,
	AggregatePurchaseOrder,
	AggregatePayment,
}

// IsValid reports whether the value is a known OutboxAggregateType.
func (o OutboxAggregateType) IsValid() bool {
	for _, candidate := range validOutboxAggregateTypes {
		if candidate == o {
			return true
		}
	}
	return false
}
