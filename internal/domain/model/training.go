package model

import "time"

// Training is a scheduled session for farmers and field officers.
type Training struct {
	ID            int64
	Title         string
	Description   string
	ScheduledDate *time.Time
}

// TrainingInput carries the editable training fields.
type TrainingInput struct {
	Title         string `validate:"required,max=256"`
	Description   string `validate:"max=4096"`
	ScheduledDate *time.Time
}
