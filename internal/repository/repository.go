// Package repository defines the storage contracts of the portal.
//
// The portal owns almost no data: members, events and attendance all live on
// the remote API. The one thing that must survive a restart is the session,
// which is two string entries (the bearer token and the serialized identity).
// KeyValueStore is the whole contract for that.
package repository

import "context"

// KeyValueStore is a durable string map.
//
// Get reports found=false (and a nil error) for a missing key.
// Delete of a missing key is not an error.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}
