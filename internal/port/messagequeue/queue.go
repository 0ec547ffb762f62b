// Package messagequeue defines the port plan events are published through.
package messagequeue

import "context"

// Subjects carrying plan lifecycle events on the PLANS stream.
const (
	SubjectPlanGenerated = "plans.generated"
	SubjectPlanSaved     = "plans.saved"
	SubjectPlanUpdated   = "plans.updated"
	SubjectPlanDeleted   = "plans.deleted"
	// SubjectPlanExported is suffixed with the integration id.
	SubjectPlanExported = "plans.exported"
)

// Handler consumes one delivered message. A returned error leaves the
// message unacknowledged for redelivery.
type Handler func(ctx context.Context, subject string, data []byte) error

// Publisher sends schema-checked payloads.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// Queue is a Publisher that can also consume and report its connection.
type Queue interface {
	Publisher
	// Subscribe attaches handler to subject until the returned func is called.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)
	// Drain flushes in-flight messages and closes the connection.
	Drain() error
	Close() error
	IsConnected() bool
}
