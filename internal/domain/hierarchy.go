package domain

// UnitPiece is the default unit of a hierarchy edge.
const UnitPiece = "pcs"

// Section types of a specification (which list of the parent a child is
// printed under).
const (
	SectionDocumentation = "documentation"
	SectionComplexes     = "complexes"
	SectionAssemblies    = "assembly_units"
	SectionParts         = "parts"
	SectionStandard      = "standard_products"
	SectionOther         = "other_products"
	SectionMaterials     = "materials"
	SectionKits          = "kits"
)

// Hierarchy is a "child belongs to parent" edge. At most one edge exists per
// ordered (child, parent) pair and an edge never points at itself.
type Hierarchy struct {
	ID       uint    `gorm:"primaryKey" json:"id"`
	ChildID  uint    `gorm:"column:child_id;not null;uniqueIndex:idx_hierarchy_pair,priority:1;check:chk_hierarchy_self,parent_id <> child_id" json:"child_id"`
	ParentID uint    `gorm:"column:parent_id;not null;uniqueIndex:idx_hierarchy_pair,priority:2;index" json:"parent_id"`
	Section  string  `gorm:"column:section_type;not null;default:''" json:"section_type"`
	Quantity float64 `gorm:"column:quantity;not null;default:1" json:"quantity"`
	Unit     string  `gorm:"column:unit;not null;default:'pcs'" json:"unit"`
}

func (Hierarchy) TableName() string { return "hierarchy" }

// PrimaryApplication names the canonical parent usage of a product.
type PrimaryApplication struct {
	ID       uint `gorm:"primaryKey" json:"id"`
	ChildID  uint `gorm:"column:child_id;not null;uniqueIndex" json:"child_id"`
	ParentID uint `gorm:"column:parent_id;not null;index" json:"parent_id"`
}

func (PrimaryApplication) TableName() string { return "primary_application" }

// PairKey identifies an edge by its endpoints.
type PairKey struct {
	ChildID  uint
	ParentID uint
}

func (h *Hierarchy) Pair() PairKey { return PairKey{ChildID: h.ChildID, ParentID: h.ParentID} }
