package schema

import "time"

// WitnessSequenceName is the counter row consumed by the accept transaction
const WitnessSequenceName = "witness"

// WitnessSequence represents the witness_sequence table - a single counter row per name
type WitnessSequence struct {
	Name      string    `gorm:"column:name;primaryKey;type:varchar(32)"`
	Value     uint64    `gorm:"column:value;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WitnessSequence model
func (WitnessSequence) TableName() string {
	return "witness_sequence"
}
