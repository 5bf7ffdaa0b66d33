package domain

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// Document classes.
const (
	ClassDesign     = "КД"
	ClassTechnology = "ТД"
	ClassElectronic = "ЭД"
)

// Document stages, seeded with fixed ids.
const (
	StageUnknown       uint = 1
	StageRegistered    uint = 2
	StageInDevelopment uint = 3
	StageApproved      uint = 4
	StageCancelled     uint = 5
)

type DocumentStage struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Name string `gorm:"column:name;not null;uniqueIndex" json:"name"`
}

func (DocumentStage) TableName() string { return "document_stage" }

type DocumentType struct {
	ID      uint              `gorm:"primaryKey" json:"id"`
	Class   string            `gorm:"column:class_name;not null;uniqueIndex:idx_doctype_sign,priority:1;uniqueIndex:idx_doctype_subtype,priority:1" json:"class"`
	Subtype string            `gorm:"column:subtype;not null;uniqueIndex:idx_doctype_subtype,priority:2" json:"subtype"`
	Sign    string            `gorm:"column:sign;not null;default:'';uniqueIndex:idx_doctype_sign,priority:2" json:"sign"`
	Name    string            `gorm:"column:name;not null;default:''" json:"name"`
	Cases   datatypes.JSONMap `gorm:"column:cases" json:"cases,omitempty"`
}

func (DocumentType) TableName() string { return "document_type" }

type DocTypeSignKey struct{ Class, Sign string }
type DocTypeSubtypeKey struct{ Class, Subtype string }

// DocumentReal is the reusable identity of a document: its decimal number
// plus type.
type DocumentReal struct {
	ID          uint       `gorm:"primaryKey" json:"id"`
	Denotation  string     `gorm:"column:denotation;not null;uniqueIndex:idx_document_real_key,priority:1" json:"denotation"`
	TypeID      uint       `gorm:"column:type_id;not null;uniqueIndex:idx_document_real_key,priority:2" json:"type_id"`
	Name        string     `gorm:"column:name;not null;default:''" json:"name"`
	FileName    string     `gorm:"column:file_name;not null;default:''" json:"file_name"`
	Link        string     `gorm:"column:link;not null;default:''" json:"link"`
	StageID     uint       `gorm:"column:stage_id;not null;default:1" json:"stage_id"`
	CreatedDate *time.Time `gorm:"column:created_date" json:"created_date,omitempty"`
	CreatedBy   string     `gorm:"column:created_author;not null;default:''" json:"created_author"`
	ChangedDate *time.Time `gorm:"column:changed_date" json:"changed_date,omitempty"`
	ChangedBy   string     `gorm:"column:changed_author;not null;default:''" json:"changed_author"`
}

func (DocumentReal) TableName() string { return "document_real" }

type DocumentRealKey struct {
	Denotation string
	TypeID     uint
}

func (k DocumentRealKey) String() string { return fmt.Sprintf("%s|%d", k.Denotation, k.TypeID) }

// Document links a product to a DocumentReal.
type Document struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	DocumentRealID uint `gorm:"column:document_real_id;not null;uniqueIndex:idx_document_key,priority:1" json:"document_real_id"`
	ProductID      uint `gorm:"column:product_id;not null;uniqueIndex:idx_document_key,priority:2;index" json:"product_id"`
}

func (Document) TableName() string { return "document" }

type DocumentKey struct {
	DocumentRealID uint
	ProductID      uint
}
