package ticketing

import "context"

// Ticket priorities understood by the ticketing system.
const (
	PriorityLow    = "1 low"
	PriorityNormal = "2 normal"
	PriorityHigh   = "3 high"
)

// Ticketer raises tickets in the downstream ticketing system. Delivery is
// best-effort; idempotence comes from the reported-incident tracker, not
// from the ticket transport.
type Ticketer interface {
	CreateTicket(ctx context.Context, title, body, priority, tag string) (string, error)
}
