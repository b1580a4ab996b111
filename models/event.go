package models

import "time"

type ListingEventKind string

const (
	ListingEventCreated  ListingEventKind = "created"
	ListingEventUpdated  ListingEventKind = "updated"
	ListingEventDeleted  ListingEventKind = "deleted"
	ListingEventReplaced ListingEventKind = "replaced"
	ListingEventSeeded   ListingEventKind = "seeded"
	// ListingEventExternal is raised when the collection changed underneath
	// us, e.g. another process writing to the same database.
	ListingEventExternal ListingEventKind = "external"
)

type ListingEvent struct {
	Kind      ListingEventKind `json:"kind"`
	ID        string           `json:"id,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
	// State is the stored collection value the mutation produced.
	State string `json:"-"`
}
