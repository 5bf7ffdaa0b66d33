package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Unknown is the placeholder name importers emit when a source row carries
// no name. It never overwrites a stored name.
const Unknown = "Unknown"

// ProductKind is seeded reference data: assembly, part, purchased item...
type ProductKind struct {
	ID       uint              `gorm:"primaryKey" json:"id"`
	Name     string            `gorm:"column:name;not null;uniqueIndex" json:"name"`
	LongName string            `gorm:"column:long_name;not null;default:''" json:"long_name"`
	Cases    datatypes.JSONMap `gorm:"column:cases" json:"cases,omitempty"`
}

func (ProductKind) TableName() string { return "product_kind" }

// CaseName returns the grammatical-case variant of the long name, falling
// back to LongName and then Name.
func (k *ProductKind) CaseName(grammaticalCase string) string {
	if k == nil {
		return ""
	}
	if v, ok := k.Cases[grammaticalCase].(string); ok && v != "" {
		return v
	}
	if k.LongName != "" {
		return k.LongName
	}
	return k.Name
}

// Product is a node of the product structure.
type Product struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Denotation string     `gorm:"column:denotation;not null;uniqueIndex" json:"denotation"`
	Name       string     `gorm:"column:name;not null;default:''" json:"name"`
	KindID     *uint      `gorm:"column:kind_id;index" json:"kind_id,omitempty"`
	Purchased  bool       `gorm:"column:purchased;not null;default:false" json:"purchased"`
	CheckedAt  *time.Time `gorm:"column:last_check" json:"last_check,omitempty"`
	CheckedBy  string     `gorm:"column:last_check_author;not null;default:''" json:"last_check_author"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "product" }

// HasRealDenotation is false for un-coded items (raw materials and the
// like) whose denotation was filled from the name.
func (p *Product) HasRealDenotation() bool {
	return p != nil && p.Denotation != p.Name
}
