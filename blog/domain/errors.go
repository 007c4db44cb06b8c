package domain

import "errors"

var (
	ErrNotFound    = errors.New("post not found")
	ErrInvalidPost = errors.New("invalid post")

	// ErrQuotaExceeded is returned by local stores when a write is larger than allowed.
	ErrQuotaExceeded = errors.New("local storage quota exceeded")

	// ErrRemoteUnavailable means the remote store is offline or not configured.
	ErrRemoteUnavailable = errors.New("remote store unavailable")

	// ErrNotPersisted means a change was applied in memory but no store accepted it.
	ErrNotPersisted = errors.New("change not persisted to any store")
)
