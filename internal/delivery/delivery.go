// Package delivery defines the contract every transport entrypoint fulfils.
package delivery

import "context"

// Delivery is a transport server (HTTP today) managed by the application
// container. Serve blocks until the server stops; shutdown is handled by
// the fx lifecycle.
type Delivery interface {
	Serve(ctx context.Context) error
}
