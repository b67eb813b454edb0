package dto

import (
	"fmt"
	"mime/multipart"
	"reservo/internal/domains/table/model"
	gDto "reservo/shared/dto"
	gModel "reservo/shared/model"
	"reservo/shared/timezone"
)

const (
	AvailabilityBooked    = "Booked"
	AvailabilityAvailable = "Available"

	NoTablesFoundMessage = "Không tìm thấy bàn phù hợp với yêu cầu của bạn."
)

type CreateTableRequest struct {
	Capacity  int      `json:"capacity"   validate:"required,min=1,max=20"`
	TableType string   `json:"table_type" validate:"required,oneof=INDOOR OUTDOOR PRIVATE BAR BOOTH WINDOW"`
	Floor     int      `json:"floor"      validate:"omitempty,min=1"`
	Status    string   `json:"status"     validate:"omitempty,oneof=AVAILABLE OCCUPIED RESERVED MAINTENANCE"`
	Width     *float64 `json:"width"      validate:"omitempty,gt=0"`
	Length    *float64 `json:"length"     validate:"omitempty,gt=0"`
	Notes     string   `json:"notes"      validate:"omitempty,max=500"`
}

func (c *CreateTableRequest) ToModel(user string) model.Table {
	floor := c.Floor
	if floor == 0 {
		floor = 1
	}

	status := c.Status
	if status == "" {
		status = model.StatusAvailable
	}

	return model.Table{
		Capacity:  c.Capacity,
		TableType: c.TableType,
		Floor:     floor,
		Status:    status,
		Width:     c.Width,
		Length:    c.Length,
		Notes:     c.Notes,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type UpdateTableRequest struct {
	Capacity  int      `db:"capacity"   json:"capacity"   validate:"omitempty,min=1,max=20"`
	TableType string   `db:"table_type" json:"table_type" validate:"omitempty,oneof=INDOOR OUTDOOR PRIVATE BAR BOOTH WINDOW"`
	Floor     int      `db:"floor"      json:"floor"      validate:"omitempty,min=1"`
	Status    string   `db:"status"     json:"status"     validate:"omitempty,oneof=AVAILABLE OCCUPIED RESERVED MAINTENANCE"`
	Width     *float64 `db:"width"      json:"width"      validate:"omitempty,gt=0"`
	Length    *float64 `db:"length"     json:"length"     validate:"omitempty,gt=0"`
	Notes     string   `db:"notes"      json:"notes"      validate:"omitempty,max=500"`
}

type UpdateImageRequest struct {
	ImageURL string `db:"image_url"`
}

type DeleteTableRequest struct {
	IsDeleted bool `db:"is_deleted"`
}

type TableResponse struct {
	ID        int64    `json:"id"`
	Capacity  int      `json:"capacity"`
	TableType string   `json:"table_type"`
	Floor     int      `json:"floor"`
	Status    string   `json:"status"`
	Width     *float64 `json:"width,omitempty"`
	Length    *float64 `json:"length,omitempty"`
	Notes     string   `json:"notes"`
	ImageURL  *string  `json:"image_url,omitempty"`
	gDto.Metadata
}

func (r *TableResponse) FromModel(model model.Table) {
	r.ID = model.ID
	r.Capacity = model.Capacity
	r.TableType = model.TableType
	r.Floor = model.Floor
	r.Status = model.Status
	r.Width = model.Width
	r.Length = model.Length
	r.Notes = model.Notes
	r.ImageURL = model.ImageURL
	r.Metadata.FromModel(model.Metadata)
}

type TableAvailability struct {
	TableResponse
	IsAvailableForBooking *bool `json:"is_available_for_booking,omitempty"`
}

type FloorGroup struct {
	Name   string              `json:"name"`
	Floor  int                 `json:"floor"`
	Tables []TableAvailability `json:"tables"`
}

// GroupByFloor keeps the input order inside each floor. When booked is non-nil the
// status of every table is replaced by its availability for the requested date.
func GroupByFloor(tables []model.Table, booked map[int64]bool) []FloorGroup {
	groups := []FloorGroup{}
	index := map[int]int{}

	for _, table := range tables {
		item := TableAvailability{}
		item.FromModel(table)

		if booked != nil {
			available := table.Status == model.StatusAvailable && !booked[table.ID]

			item.Status = AvailabilityAvailable
			if !available {
				item.Status = AvailabilityBooked
			}

			item.IsAvailableForBooking = &available
		}

		idx, ok := index[table.Floor]
		if !ok {
			idx = len(groups)
			index[table.Floor] = idx

			groups = append(groups, FloorGroup{
				Name:   fmt.Sprintf("Floor %d", table.Floor),
				Floor:  table.Floor,
				Tables: []TableAvailability{},
			})
		}

		groups[idx].Tables = append(groups[idx].Tables, item)
	}

	return groups
}

type SearchTablesRequest struct {
	PartySize     int     `json:"party_size"     validate:"required,min=1,max=20"`
	BookingDate   string  `json:"booking_date"   validate:"required,isodate"`
	BookingTime   string  `json:"booking_time"   validate:"omitempty,clock"`
	TableType     string  `json:"table_type"     validate:"omitempty,oneof=INDOOR OUTDOOR PRIVATE BAR BOOTH WINDOW ANY"`
	Floor         int     `json:"floor"          validate:"omitempty,min=1"`
	TableID       int64   `json:"table_id"       validate:"omitempty,min=1"`
	DurationHours float64 `json:"duration_hours" validate:"omitempty,min=0.5,max=8"`
}

type TableSummary struct {
	TableID   int64   `json:"table_id"`
	TableType string  `json:"table_type"`
	Capacity  int     `json:"capacity"`
	Floor     int     `json:"floor"`
	Status    string  `json:"status"`
	Notes     string  `json:"notes"`
	ImageURL  *string `json:"image_url,omitempty"`
}

func (s *TableSummary) FromModel(model model.Table) {
	s.TableID = model.ID
	s.TableType = model.TableType
	s.Capacity = model.Capacity
	s.Floor = model.Floor
	s.Status = model.Status
	s.Notes = model.Notes
	s.ImageURL = model.ImageURL
}

type SearchTablesResponse struct {
	AvailableTables []TableSummary      `json:"available_tables"`
	SearchCriteria  SearchTablesRequest `json:"search_criteria"`
	NotFound        bool                `json:"not_found"`
	Message         string              `json:"message,omitempty"`
}

func (r *SearchTablesResponse) FromModels(models []model.Table, criteria SearchTablesRequest) {
	r.SearchCriteria = criteria
	r.AvailableTables = make([]TableSummary, len(models))

	for i, mod := range models {
		r.AvailableTables[i].FromModel(mod)
	}

	r.NotFound = len(models) == 0
	if r.NotFound {
		r.Message = NoTablesFoundMessage
	}
}

type UploadTableImageRequest struct {
	Image     *multipart.FileHeader `json:"image" validate:"required,mimetypes=image/png image/jpg image/jpeg image/webp,maxfilesize=2"`
	ImageFile multipart.File        `json:"-"`
}
