package model

import (
	"context"
	"time"
)

// Storage is the object storage capability. Bytes move between clients and
// the backend through time-limited presigned URLs; the server never proxies
// font payloads itself.
type Storage interface {
	PutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
	GetURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, key string) error
}
