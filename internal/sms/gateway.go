package sms

import (
	"context"
)

// Gateway sends SMS messages and returns the gateway's message identifier
type Gateway interface {
	Send(ctx context.Context, to, body string) (messageID string, err error)
}
