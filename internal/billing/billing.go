package billing

import (
	"context"
)

// Portal is the external billing collaborator. Pricing and subscription
// state transitions live entirely on the other side of this interface.
type Portal interface {
	// PortalLink returns a self-service billing URL for the business owner.
	PortalLink(ctx context.Context, businessID uint) (string, error)
	// CancelSubscription cancels the subscription with the billing provider.
	// Local cancellation state is only persisted after this succeeds.
	CancelSubscription(ctx context.Context, businessID uint) error
}
