package db

import (
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/routecard/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(domain.All()...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

// Seed inserts the reference rows every store starts with. Existing rows
// are left alone so Seed can run on every startup.
func Seed(db *gorm.DB) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(seedStages()).Error; err != nil {
			return fmt.Errorf("seed document stages: %w", err)
		}
		for _, k := range seedKinds() {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(k).Error; err != nil {
				return fmt.Errorf("seed product kind %s: %w", k.Name, err)
			}
		}
		for _, t := range seedDocumentTypes() {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(t).Error; err != nil {
				return fmt.Errorf("seed document type %s %s: %w", t.Class, t.Subtype, err)
			}
		}
		return nil
	})
}

func seedStages() []*domain.DocumentStage {
	return []*domain.DocumentStage{
		{ID: domain.StageUnknown, Name: "Unknown"},
		{ID: domain.StageRegistered, Name: "Registered"},
		{ID: domain.StageInDevelopment, Name: "InDevelopment"},
		{ID: domain.StageApproved, Name: "Approved"},
		{ID: domain.StageCancelled, Name: "Cancelled"},
	}
}

func seedKinds() []*domain.ProductKind {
	kind := func(name, long, gen, plural string) *domain.ProductKind {
		return &domain.ProductKind{
			Name:     name,
			LongName: long,
			Cases:    datatypes.JSONMap{"nominative": long, "genitive": gen, "plural": plural},
		}
	}
	return []*domain.ProductKind{
		kind("complex", "Комплекс", "Комплекса", "Комплексы"),
		kind("assembly", "Сборочная единица", "Сборочной единицы", "Сборочные единицы"),
		kind("part", "Деталь", "Детали", "Детали"),
		kind("standard", "Стандартное изделие", "Стандартного изделия", "Стандартные изделия"),
		kind("purchased", "Покупное изделие", "Покупного изделия", "Прочие изделия"),
		kind("material", "Материал", "Материала", "Материалы"),
		kind("kit", "Комплект", "Комплекта", "Комплекты"),
		kind("cable", "Кабель", "Кабеля", "Кабели"),
	}
}

func seedDocumentTypes() []*domain.DocumentType {
	t := func(class, subtype, sign, name string) *domain.DocumentType {
		return &domain.DocumentType{Class: class, Subtype: subtype, Sign: sign, Name: name}
	}
	return []*domain.DocumentType{
		t(domain.ClassDesign, "drawing", "", "Чертеж детали"),
		t(domain.ClassDesign, "assembly_drawing", "СБ", "Сборочный чертеж"),
		t(domain.ClassDesign, "specification", "СП", "Спецификация"),
		t(domain.ClassDesign, "wiring_diagram", "Э4", "Схема электрическая соединений"),
		t(domain.ClassDesign, "circuit_diagram", "Э3", "Схема электрическая принципиальная"),
		t(domain.ClassDesign, "parts_list", "ПЭ3", "Перечень элементов"),
		t(domain.ClassTechnology, "route_card", "МК", "Маршрутная карта"),
		t(domain.ClassTechnology, "operation_card", "ОК", "Операционная карта"),
		t(domain.ClassTechnology, "process_instruction", "ТИ", "Технологическая инструкция"),
		t(domain.ClassElectronic, "model", "ЭМ", "Электронная модель"),
	}
}
