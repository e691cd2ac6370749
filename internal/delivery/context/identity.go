package context

import (
	"context"

	"gestor/internal/domain/entity"
)

const (
	// KeyIdentity is the key for storing the authenticated identity in context.
	KeyIdentity ContextKey = "identity"

	// KeyDeviceID is the key for storing the client device identifier in context.
	KeyDeviceID ContextKey = "device_id"

	// HeaderXDeviceID is the HTTP header carrying the client device identifier.
	HeaderXDeviceID = "X-Device-Id"
)

// WithIdentity returns a new context carrying the authenticated identity.
func WithIdentity(ctx context.Context, sc entity.SecurityContext) context.Context {
	return context.WithValue(ctx, KeyIdentity, sc)
}

// GetIdentity extracts the authenticated identity from context.Context.
// The second return value reports whether an identity was bound.
func GetIdentity(ctx context.Context) (entity.SecurityContext, bool) {
	sc, ok := ctx.Value(KeyIdentity).(entity.SecurityContext)

	return sc, ok
}

// WithDeviceID returns a new context carrying the client device identifier.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, KeyDeviceID, deviceID)
}

// GetDeviceID extracts the client device identifier from context.Context.
func GetDeviceID(ctx context.Context) string {
	if id, ok := ctx.Value(KeyDeviceID).(string); ok {
		return id
	}

	return ""
}
