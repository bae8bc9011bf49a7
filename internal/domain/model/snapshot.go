package model

import "time"

// Provenance describes the last successful sync of a collection.
type Provenance struct {
	Version  uint64
	SyncedAt time.Time
	Stale    bool
}

// Snapshot is a consistent read of every cached collection.
type Snapshot struct {
	Farmers   []Farmer
	Products  []Product
	Orders    []Order
	Users     []User
	Trainings []Training

	Provenance map[Collection]Provenance
}
