package model

import (
	"fmt"
	"time"

	tableDto "reservo/internal/domains/table/model/dto"
)

const (
	SlotBookingDate = "booking_date"
	SlotBookingTime = "booking_time"
	SlotTableType   = "table_type"
	SlotPartySize   = "party_size"
	SlotFloor       = "floor"
	SlotTableID     = "table_id"
	SlotGuestName   = "guest_name"
	SlotGuestPhone  = "guest_phone"
	SlotNote        = "note"
	// SlotArea is asked for as one question covering table_type and floor.
	SlotArea = "area"
	// SlotGuest is asked for as one question covering name and phone.
	SlotGuest = "guest"

	TableTypeAny = "ANY"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// SlotKeys lists every key the extractor may return.
var SlotKeys = []string{
	SlotBookingDate, SlotBookingTime, SlotTableType, SlotPartySize, SlotFloor,
	SlotTableID, SlotGuestName, SlotGuestPhone, SlotNote,
}

// Slots holds what the guest has stated so far. A nil field is not yet known,
// which is different from a known empty Note.
type Slots struct {
	BookingDate *string `json:"booking_date,omitempty"`
	BookingTime *string `json:"booking_time,omitempty"`
	TableType   *string `json:"table_type,omitempty"`
	PartySize   *int    `json:"party_size,omitempty"`
	Floor       *int    `json:"floor,omitempty"`
	TableID     *int64  `json:"table_id,omitempty"`
	GuestName   *string `json:"guest_name,omitempty"`
	GuestPhone  *string `json:"guest_phone,omitempty"`
	Note        *string `json:"note,omitempty"`
}

func pick[T any](current, update *T) *T {
	if update != nil {
		return update
	}

	return current
}

// Merge overlays every known value of update on s.
func (s Slots) Merge(update Slots) Slots {
	return Slots{
		BookingDate: pick(s.BookingDate, update.BookingDate),
		BookingTime: pick(s.BookingTime, update.BookingTime),
		TableType:   pick(s.TableType, update.TableType),
		PartySize:   pick(s.PartySize, update.PartySize),
		Floor:       pick(s.Floor, update.Floor),
		TableID:     pick(s.TableID, update.TableID),
		GuestName:   pick(s.GuestName, update.GuestName),
		GuestPhone:  pick(s.GuestPhone, update.GuestPhone),
		Note:        pick(s.Note, update.Note),
	}
}

func changed[T comparable](current, update *T) *T {
	if update == nil || (current != nil && *current == *update) {
		return nil
	}

	return update
}

// Changed keeps only the values of s that differ from current. The extractor
// may repeat slots stated in earlier turns; those are not news.
func (s Slots) Changed(current Slots) Slots {
	return Slots{
		BookingDate: changed(current.BookingDate, s.BookingDate),
		BookingTime: changed(current.BookingTime, s.BookingTime),
		TableType:   changed(current.TableType, s.TableType),
		PartySize:   changed(current.PartySize, s.PartySize),
		Floor:       changed(current.Floor, s.Floor),
		TableID:     changed(current.TableID, s.TableID),
		GuestName:   changed(current.GuestName, s.GuestName),
		GuestPhone:  changed(current.GuestPhone, s.GuestPhone),
		Note:        changed(current.Note, s.Note),
	}
}

func (s Slots) IsEmpty() bool {
	return s == Slots{}
}

// HasCore reports whether any search criterion is set.
func (s Slots) HasCore() bool {
	return s.BookingDate != nil || s.BookingTime != nil || s.PartySize != nil ||
		s.TableType != nil || s.Floor != nil || s.TableID != nil
}

// MissingCore returns the next search criterion to ask for, in the fixed
// order date, time, party size, area. It returns "" when all are known.
func (s Slots) MissingCore() string {
	switch {
	case s.BookingDate == nil:
		return SlotBookingDate
	case s.BookingTime == nil:
		return SlotBookingTime
	case s.PartySize == nil:
		return SlotPartySize
	case s.TableType == nil && s.Floor == nil && s.TableID == nil:
		return SlotArea
	default:
		return ""
	}
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}

	return *v
}

// CoreKey identifies the search criteria. Search results are reused while it
// is unchanged. The chosen table is not part of it.
func (s Slots) CoreKey() string {
	return fmt.Sprintf("%s|%s|%d|%s|%d",
		deref(s.BookingDate), deref(s.BookingTime), deref(s.PartySize),
		deref(s.TableType), deref(s.Floor))
}

// Without forgets one slot. SlotArea forgets both table type and floor.
func (s Slots) Without(slot string) Slots {
	switch slot {
	case SlotBookingDate:
		s.BookingDate = nil
	case SlotBookingTime:
		s.BookingTime = nil
	case SlotPartySize:
		s.PartySize = nil
	case SlotTableType:
		s.TableType = nil
	case SlotFloor:
		s.Floor = nil
	case SlotArea:
		s.TableType, s.Floor = nil, nil
	case SlotTableID:
		s.TableID = nil
	case SlotGuestName:
		s.GuestName = nil
	case SlotGuestPhone:
		s.GuestPhone = nil
	case SlotNote:
		s.Note = nil
	}

	return s
}

func (s Slots) Date() string      { return deref(s.BookingDate) }
func (s Slots) Time() string      { return deref(s.BookingTime) }
func (s Slots) Party() int        { return deref(s.PartySize) }
func (s Slots) Type() string      { return deref(s.TableType) }
func (s Slots) FloorNo() int      { return deref(s.Floor) }
func (s Slots) Table() int64      { return deref(s.TableID) }
func (s Slots) Name() string      { return deref(s.GuestName) }
func (s Slots) Phone() string     { return deref(s.GuestPhone) }
func (s Slots) NoteText() string  { return deref(s.Note) }
func (s Slots) NoteDecided() bool { return s.Note != nil }

type State string

const (
	StateCollectingCore  State = "COLLECTING_CORE"
	StateSearching       State = "SEARCHING"
	StateCollectingGuest State = "COLLECTING_GUEST"
	StateSummarizing     State = "SUMMARIZING"
	StateConfirming      State = "CONFIRMING"
	StateDone            State = "DONE"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Session struct {
	ID    string `json:"id"`
	State State  `json:"state"`
	Slots Slots  `json:"slots"`
	// Candidates are the tables offered by the last search, SearchedFor its criteria.
	Candidates  []tableDto.TableSummary `json:"candidates,omitempty"`
	SearchedFor string                  `json:"searched_for,omitempty"`
	Selected    *tableDto.TableSummary  `json:"selected,omitempty"`
	// Pending is the slot the last reply asked for.
	Pending      string    `json:"pending,omitempty"`
	BookingCode  string    `json:"booking_code,omitempty"`
	Confirmation string    `json:"confirmation,omitempty"`
	History      []Message `json:"history"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewSession(id string) Session {
	return Session{ID: id, State: StateCollectingCore, History: []Message{}}
}

// Remember appends a turn and keeps at most limit messages.
func (s *Session) Remember(limit int, messages ...Message) {
	s.History = append(s.History, messages...)

	if limit > 0 && len(s.History) > limit {
		s.History = append([]Message(nil), s.History[len(s.History)-limit:]...)
	}
}

// UserTurns returns the guest's own messages, oldest first.
func (s Session) UserTurns() []string {
	res := []string{}

	for _, msg := range s.History {
		if msg.Role == RoleUser {
			res = append(res, msg.Content)
		}
	}

	return res
}
