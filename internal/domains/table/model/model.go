package model

import (
	"reservo/shared/model"
	"slices"
)

const (
	TableName  = "restaurant_tables"
	EntityName = "table"

	FieldID        = "id"
	FieldCapacity  = "capacity"
	FieldTableType = "table_type"
	FieldFloor     = "floor"
	FieldStatus    = "status"
	FieldImageURL  = "image_url"
	FieldIsDeleted = "is_deleted"
)

const (
	TypeIndoor  = "INDOOR"
	TypeOutdoor = "OUTDOOR"
	TypePrivate = "PRIVATE"
	TypeBar     = "BAR"
	TypeBooth   = "BOOTH"
	TypeWindow  = "WINDOW"
)

const (
	StatusAvailable   = "AVAILABLE"
	StatusOccupied    = "OCCUPIED"
	StatusReserved    = "RESERVED"
	StatusMaintenance = "MAINTENANCE"
)

const (
	MinCapacity = 1
	MaxCapacity = 20
)

var Types = []string{TypeIndoor, TypeOutdoor, TypePrivate, TypeBar, TypeBooth, TypeWindow}

type Table struct {
	ID        int64    `db:"id"          insert:"-"`
	Capacity  int      `db:"capacity"`
	TableType string   `db:"table_type"`
	Floor     int      `db:"floor"`
	Status    string   `db:"status"`
	Width     *float64 `db:"width"`
	Length    *float64 `db:"length"`
	Notes     string   `db:"notes"`
	ImageURL  *string  `db:"image_url"`
	IsDeleted bool     `db:"is_deleted"`
	model.Metadata
}

func (t Table) Exists() bool {
	return t.ID != 0 && !t.IsDeleted
}

func (t Table) Bookable() bool {
	return t.Exists() && t.Status == StatusAvailable
}

func IsValidType(tableType string) bool {
	return slices.Contains(Types, tableType)
}
