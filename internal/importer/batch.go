package importer

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/routecard/internal/data/repos"
	"github.com/yungbote/routecard/internal/data/repos/base"
)

// Batch is one import file. JSON batches decode through the same path,
// JSON being a subset of YAML.
type Batch struct {
	Products   []ProductRecord   `yaml:"products" validate:"dive"`
	Documents  []DocumentRecord  `yaml:"documents" validate:"dive"`
	Hierarchy  []LinkRecord      `yaml:"hierarchy" validate:"dive"`
	References ReferenceRecords  `yaml:"references"`
	Defaults   []DefaultRecord   `yaml:"defaults" validate:"dive"`
	RouteCards []RouteCardRecord `yaml:"route_cards" validate:"dive"`
}

type ProductRecord struct {
	repos.ProductInput `yaml:",inline"`
	// Kind is a product kind name; it overrides KindID when set.
	Kind string `yaml:"kind"`
}

type DocumentRecord struct {
	Product     string     `yaml:"product" validate:"required"`
	Denotation  string     `yaml:"denotation" validate:"required"`
	Class       string     `yaml:"class" validate:"required"`
	Subtype     string     `yaml:"subtype" validate:"required"`
	Name        string     `yaml:"name"`
	FileName    string     `yaml:"file_name"`
	Link        string     `yaml:"link"`
	Stage       string     `yaml:"stage"`
	CreatedDate *time.Time `yaml:"created_date"`
	CreatedBy   string     `yaml:"created_author"`
	ChangedDate *time.Time `yaml:"changed_date"`
	ChangedBy   string     `yaml:"changed_author"`
}

// LinkRecord lists the complete set of children of one parent.
type LinkRecord struct {
	Parent   string        `yaml:"parent" validate:"required"`
	Children []ChildRecord `yaml:"children" validate:"dive"`
}

type ChildRecord struct {
	Product  string  `yaml:"product" validate:"required"`
	Section  string  `yaml:"section"`
	Quantity float64 `yaml:"quantity" validate:"gte=0"`
	Unit     string  `yaml:"unit"`
}

// ReferenceRecords are the lookup rows operations point at.
type ReferenceRecords struct {
	Professions []ProfessionRecord `yaml:"professions" validate:"dive"`
	Materials   []MaterialRecord   `yaml:"materials" validate:"dive"`
	Rigs        []ToolRecord       `yaml:"rigs" validate:"dive"`
	Equipment   []ToolRecord       `yaml:"equipment" validate:"dive"`
	IOT         []IOTRecord        `yaml:"iot" validate:"dive"`
}

func (r ReferenceRecords) len() int {
	return len(r.Professions) + len(r.Materials) + len(r.Rigs) + len(r.Equipment) + len(r.IOT)
}

type ProfessionRecord struct {
	Code string `yaml:"code" validate:"required"`
	Name string `yaml:"name"`
}

type MaterialRecord struct {
	Name     string `yaml:"name" validate:"required"`
	Standard string `yaml:"standard"`
	Unit     string `yaml:"unit"`
}

// ToolRecord is a rig or a piece of equipment.
type ToolRecord struct {
	Name       string `yaml:"name" validate:"required"`
	Denotation string `yaml:"denotation"`
}

type IOTRecord struct {
	Denotation string `yaml:"denotation" validate:"required"`
	Name       string `yaml:"name"`
}

// ResourceRecord points at a reference row by kind and key: the name of a
// material, rig or equipment, the denotation of an IOT.
type ResourceRecord struct {
	Kind     string  `yaml:"kind" validate:"required,oneof=material rig equipment iot"`
	Resource string  `yaml:"resource" validate:"required"`
	Quantity float64 `yaml:"quantity" validate:"gte=0"`
	Unit     string  `yaml:"unit"`
}

// DefaultRecord lists the resources every operation named Operation gets.
type DefaultRecord struct {
	Operation string           `yaml:"operation" validate:"required"`
	Resources []ResourceRecord `yaml:"resources" validate:"dive"`
}

// RouteCardRecord fills a technological document already known to the
// store or listed in the same batch.
type RouteCardRecord struct {
	Denotation string            `yaml:"denotation" validate:"required"`
	Subtype    string            `yaml:"subtype"`
	Operations []OperationRecord `yaml:"operations" validate:"dive"`
}

type OperationRecord struct {
	Order      int              `yaml:"order" validate:"gte=0"`
	Name       string           `yaml:"name" validate:"required"`
	Workshop   string           `yaml:"workshop"`
	Area       string           `yaml:"area"`
	Profession string           `yaml:"profession"`
	Sentences  []string         `yaml:"sentences"`
	Settings   []SettingRecord  `yaml:"settings" validate:"dive"`
	Resources  []ResourceRecord `yaml:"resources" validate:"dive"`
}

// SettingRecord is a parameter line. Field names a product attribute whose
// value is printed after Text.
type SettingRecord struct {
	Text  string `yaml:"text"`
	Field string `yaml:"field"`
}

// Read decodes and validates a batch.
func Read(r io.Reader) (*Batch, error) {
	var b Batch
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&b); err != nil {
		if errors.Is(err, io.EOF) {
			return &b, nil
		}
		return nil, fmt.Errorf("decode batch: %w", err)
	}
	if err := base.Validate(b); err != nil {
		return nil, err
	}
	return &b, nil
}

func ReadFile(path string) (*Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	b, err := Read(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return b, nil
}
