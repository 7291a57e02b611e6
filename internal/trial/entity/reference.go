package entity

import "time"

// ReferenceValue is one entry in an open reference-value set. The sets grow
// when a requestor supplies a novel value tagged "Other" at creation time;
// re-registering an existing value is a no-op.
type ReferenceValue struct {
	ID        string    `json:"id" gorm:"primaryKey;size:32"`
	Kind      string    `json:"kind" gorm:"size:30;not null;uniqueIndex:idx_reference_kind_value,priority:1"`
	Value     string    `json:"value" gorm:"size:200;not null;uniqueIndex:idx_reference_kind_value,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

func (ReferenceValue) TableName() string {
	return "trial_reference_values"
}

// Reference-value kinds
const (
	ReferenceKindMaterialCategory = "material_category"
	ReferenceKindPurpose          = "purpose"
)

// OtherValue tags a caller-supplied novel reference value.
const OtherValue = "Other"

// DefaultMaterialCategories seeds the category set on first start.
var DefaultMaterialCategories = []string{
	"Cell",
	"Glass",
	"EVA",
	"Backsheet",
	"Frame",
	"Junction Box",
	"Ribbon",
	"Flux",
	"Sealant",
}

// DefaultPurposes seeds the purpose set on first start.
var DefaultPurposes = []string{
	"Cost Reduction",
	"Import Substitution",
	"Quality Improvement",
	"New Supplier Development",
	"Capacity Expansion",
}
