package domain

// Resource kinds an operation can consume.
const (
	ResourceMaterial  = "material"
	ResourceRig       = "rig"
	ResourceEquipment = "equipment"
	ResourceIOT       = "iot"
)

// Operation is one manufacturing step of a route card document.
type Operation struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	DocumentID   uint   `gorm:"column:document_id;not null;uniqueIndex:idx_operation_order,priority:1" json:"document_id"`
	OrderNum     int    `gorm:"column:order_num;not null;uniqueIndex:idx_operation_order,priority:2" json:"order_num"`
	Name         string `gorm:"column:name;not null" json:"name"`
	Workshop     string `gorm:"column:workshop;not null;default:''" json:"workshop"`
	Area         string `gorm:"column:area;not null;default:''" json:"area"`
	ProfessionID *uint  `gorm:"column:profession_id" json:"profession_id,omitempty"`
}

func (Operation) TableName() string { return "operation" }

type OperationKey struct {
	DocumentID uint
	OrderNum   int
}

// Sentence is a line of free text printed under an operation.
type Sentence struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OperationID uint   `gorm:"column:operation_id;not null;uniqueIndex:idx_sentence_order,priority:1" json:"operation_id"`
	OrderNum    int    `gorm:"column:order_num;not null;uniqueIndex:idx_sentence_order,priority:2" json:"order_num"`
	Text        string `gorm:"column:text;not null;default:''" json:"text"`
}

func (Sentence) TableName() string { return "sentence" }

// Setting is a parameter line of an operation. When Field is set, the
// printed value is read from the product the route card belongs to.
type Setting struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	OperationID uint   `gorm:"column:operation_id;not null;uniqueIndex:idx_setting_order,priority:1" json:"operation_id"`
	OrderNum    int    `gorm:"column:order_num;not null;uniqueIndex:idx_setting_order,priority:2" json:"order_num"`
	Text        string `gorm:"column:text;not null;default:''" json:"text"`
	Field       string `gorm:"column:field;not null;default:''" json:"field"`
}

func (Setting) TableName() string { return "setting" }

// OrderKey identifies a child row by its parent operation and position.
type OrderKey struct {
	OperationID uint
	OrderNum    int
}

type Material struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Standard string `gorm:"column:standard;not null;default:''" json:"standard"`
	Unit     string `gorm:"column:unit;not null;default:''" json:"unit"`
}

func (Material) TableName() string { return "material" }

type Rig struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Denotation string `gorm:"column:denotation;not null;default:''" json:"denotation"`
}

func (Rig) TableName() string { return "rig" }

type Equipment struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Denotation string `gorm:"column:denotation;not null;default:''" json:"denotation"`
}

func (Equipment) TableName() string { return "equipment" }

// IOT is an occupational-safety instruction referenced by operations.
type IOT struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	Denotation string `gorm:"column:denotation;not null;uniqueIndex" json:"denotation"`
	Name       string `gorm:"column:name;not null;default:''" json:"name"`
}

func (IOT) TableName() string { return "iot" }

type Profession struct {
	ID   uint   `gorm:"primaryKey" json:"id"`
	Code string `gorm:"column:code;not null;uniqueIndex" json:"code"`
	Name string `gorm:"column:name;not null;default:''" json:"name"`
}

func (Profession) TableName() string { return "profession" }

type User struct {
	ID    uint   `gorm:"primaryKey" json:"id"`
	Login string `gorm:"column:login;not null;uniqueIndex" json:"login"`
	Name  string `gorm:"column:name;not null;default:''" json:"name"`
}

func (User) TableName() string { return "users" }

// OperationResource binds a resource to an operation.
type OperationResource struct {
	ID           uint    `gorm:"primaryKey" json:"id"`
	OperationID  uint    `gorm:"column:operation_id;not null;uniqueIndex:idx_operation_resource,priority:1" json:"operation_id"`
	ResourceKind string  `gorm:"column:resource_kind;not null;uniqueIndex:idx_operation_resource,priority:2" json:"resource_kind"`
	ResourceID   uint    `gorm:"column:resource_id;not null;uniqueIndex:idx_operation_resource,priority:3" json:"resource_id"`
	Quantity     float64 `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Unit         string  `gorm:"column:unit;not null;default:''" json:"unit"`
}

func (OperationResource) TableName() string { return "operation_resource" }

// OperationDefault lists the resources every operation of a given name
// gets unless the operation overrides them.
type OperationDefault struct {
	ID            uint    `gorm:"primaryKey" json:"id"`
	OperationName string  `gorm:"column:operation_name;not null;uniqueIndex:idx_operation_default,priority:1" json:"operation_name"`
	ResourceKind  string  `gorm:"column:resource_kind;not null;uniqueIndex:idx_operation_default,priority:2" json:"resource_kind"`
	ResourceID    uint    `gorm:"column:resource_id;not null;uniqueIndex:idx_operation_default,priority:3" json:"resource_id"`
	Quantity      float64 `gorm:"column:quantity;not null;default:0" json:"quantity"`
	Unit          string  `gorm:"column:unit;not null;default:''" json:"unit"`
}

func (OperationDefault) TableName() string { return "operation_default" }

type ResourceKey struct {
	OperationID  uint
	ResourceKind string
	ResourceID   uint
}

type DefaultKey struct {
	OperationName string
	ResourceKind  string
	ResourceID    uint
}

// All lists every model for migration, in dependency order.
func All() []interface{} {
	return []interface{}{
		&ProductKind{},
		&Product{},
		&Hierarchy{},
		&PrimaryApplication{},
		&DocumentStage{},
		&DocumentType{},
		&DocumentReal{},
		&Document{},
		&Profession{},
		&User{},
		&Operation{},
		&Sentence{},
		&Setting{},
		&Material{},
		&Rig{},
		&Equipment{},
		&IOT{},
		&OperationResource{},
		&OperationDefault{},
	}
}
