package schema

import "time"

// Milestone represents the milestones table - at most one row per threshold, ever
type Milestone struct {
	// Threshold is the population value that fired
	Threshold int `gorm:"column:threshold;primaryKey;autoIncrement:false"`
	// Population is the count observed by the acceptance that recorded the firing
	Population uint64 `gorm:"column:population;not null"`
	// FiredAt is the timestamp of the first crossing
	FiredAt time.Time `gorm:"column:fired_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the Milestone model
func (Milestone) TableName() string {
	return "milestones"
}
