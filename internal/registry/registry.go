// Package registry holds pending escalation offers and the per-requester
// latest ticket pointer, in process memory or in Redis.
package registry

import "errors"

var (
	// ErrOfferNotFound means the offer was never registered, already consumed, or expired.
	ErrOfferNotFound = errors.New("escalation offer not found")
	// ErrNotOwner means someone other than the offer's owner tried to consume it.
	ErrNotOwner = errors.New("escalation offer belongs to another requester")
	// ErrInvalidOffer rejects offers without an id or owner.
	ErrInvalidOffer = errors.New("escalation offer requires an id and an owner")
)
