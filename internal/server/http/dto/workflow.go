package dto

import "time"

// TransitionRequest moves an entity to another lifecycle state. From is
// optional.
type TransitionRequest struct {
	From         string `json:"from"`
	To           string `json:"to" binding:"required"`
	DeliveryDate string `json:"deliveryDate"`
}

// ScheduleRequest schedules delivery of an approved order.
type ScheduleRequest struct {
	DeliveryDate string `json:"deliveryDate" binding:"required"`
}

// CommandResponse reports an accepted command. Stale is set when the
// command succeeded but the follow-up refresh did not.
type CommandResponse struct {
	Accepted bool   `json:"accepted"`
	NewState string `json:"newState,omitempty"`
	Stale    bool   `json:"stale,omitempty"`
	Warning  string `json:"warning,omitempty"`
}

// CollectionStatus is the sync provenance of one collection.
type CollectionStatus struct {
	Collection string    `json:"collection"`
	Version    uint64    `json:"version"`
	SyncedAt   time.Time `json:"syncedAt"`
	Stale      bool      `json:"stale"`
}

// SyncResponse reports the result of a manual resync.
type SyncResponse struct {
	Revision    uint64             `json:"revision"`
	Collections []CollectionStatus `json:"collections"`
	Error       string             `json:"error,omitempty"`
}

// EventResponse announces a store change.
type EventResponse struct {
	Revision uint64 `json:"revision"`
}
