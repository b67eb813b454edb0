// Package machine decides every dialogue transition. It performs no I/O: the
// caller runs the search or booking a Directive asks for and feeds the outcome
// back through ApplySearch or ApplyBooking.
package machine

import (
	"net/http"
	"strings"

	bookingDto "reservo/internal/domains/booking/model/dto"
	bookingModel "reservo/internal/domains/booking/model"
	"reservo/internal/domains/conversation/model"
	tableDto "reservo/internal/domains/table/model/dto"
)

type Action string

const (
	ActionAsk           Action = "ask"
	ActionAskCorrection Action = "ask_correction"
	ActionSearch        Action = "search"
	ActionSearchFailed  Action = "search_failed"
	ActionNoTables      Action = "no_tables"
	ActionPropose       Action = "propose"
	ActionChoose        Action = "choose"
	ActionSummarize     Action = "summarize"
	ActionBook          Action = "book"
	ActionBooked        Action = "booked"
	ActionBookingFailed Action = "booking_failed"
	ActionDone          Action = "done"
)

// Directive is what the assistant must do next.
type Directive struct {
	Action Action
	// Ask holds the slots to ask for, in order.
	Ask        []string
	Criteria   tableDto.SearchTablesRequest
	Booking    bookingDto.CreateBookingRequest
	Candidates []tableDto.TableSummary
	// Notice is shown before the reply, Message carries a tool result.
	Notice  string
	Message string
}

// Tool reports whether the caller must run a tool before replying.
func (d Directive) Tool() bool {
	return d.Action == ActionSearch || d.Action == ActionBook
}

// Verbatim reports whether the reply carries facts that must reach the guest unchanged.
func (d Directive) Verbatim() bool {
	switch d.Action {
	case ActionPropose, ActionChoose, ActionSummarize, ActionBooked, ActionBookingFailed, ActionDone:
		return true
	default:
		return false
	}
}

// Input is one guest turn: the raw text and the slots extracted from it.
type Input struct {
	Utterance string
	Slots     model.Slots
}

type SearchOutcome struct {
	Candidates []tableDto.TableSummary
	// InvalidSlot names the criterion the search rejected, Message explains why.
	InvalidSlot string
	Message     string
	Err         error
}

type BookingOutcome struct {
	Code    string
	Message string
	// Status is the HTTP status of a failed booking.
	Status int
	Err    error
}

// Advance applies one guest turn to the session.
func Advance(s model.Session, in Input) (model.Session, Directive) {
	if s.State == "" {
		s.State = model.StateCollectingCore
	}

	update := in.Slots.Changed(s.Slots)

	if s.State == model.StateDone {
		if !update.HasCore() && !wantsNewBooking(in.Utterance) {
			return s, Directive{Action: ActionDone}
		}

		history := s.History
		s = model.NewSession(s.ID)
		s.History = history
	}

	switch {
	case s.State == model.StateConfirming && update.IsEmpty():
		if IsAffirmative(in.Utterance) && ready(s) {
			return s, bookDirective(s)
		}

		if IsNegative(in.Utterance) {
			return s, Directive{Action: ActionAskCorrection}
		}

	case s.Pending == model.SlotTableID && s.Selected == nil:
		update = pickTable(s, in.Utterance, update)

		if update.IsEmpty() && len(s.Candidates) == 1 && IsNegative(in.Utterance) {
			return s, Directive{Action: ActionAskCorrection}
		}

	case s.Pending == model.SlotNote && update.Note == nil:
		if IsNegative(in.Utterance) {
			empty := ""
			update.Note = &empty
		} else if text := strings.TrimSpace(in.Utterance); text != "" && update.IsEmpty() {
			update.Note = &text
		}
	}

	s.Slots = s.Slots.Merge(update)

	return s, step(&s)
}

func pickTable(s model.Session, utterance string, update model.Slots) model.Slots {
	if update.TableID != nil {
		return update
	}

	if id, ok := chosenTable(utterance, s.Candidates); ok {
		update.TableID = &id

		// A bare number answering "which table" is not a head count.
		if update.PartySize != nil && int64(*update.PartySize) == id {
			update.PartySize = nil
		}

		return update
	}

	if len(s.Candidates) == 1 && IsAffirmative(utterance) {
		id := s.Candidates[0].TableID
		update.TableID = &id
	}

	return update
}

// ApplySearch records the result of the search a Directive asked for.
func ApplySearch(s model.Session, out SearchOutcome) (model.Session, Directive) {
	s.Candidates, s.Selected = nil, nil

	switch {
	case out.InvalidSlot != "":
		s.Slots = s.Slots.Without(out.InvalidSlot)
		s.SearchedFor = ""
		s.State = model.StateCollectingCore
		s.Pending = out.InvalidSlot

		return s, Directive{Action: ActionAsk, Ask: []string{out.InvalidSlot}, Notice: out.Message}
	case out.Err != nil:
		s.SearchedFor = ""
		s.State = model.StateCollectingCore
		s.Pending = ""

		return s, Directive{Action: ActionSearchFailed}
	}

	s.SearchedFor = s.Slots.CoreKey()
	s.Candidates = out.Candidates

	return s, step(&s)
}

// ApplyBooking records the result of the booking a Directive asked for.
func ApplyBooking(s model.Session, out BookingOutcome) (model.Session, Directive) {
	if out.Err == nil && out.Code != "" {
		s.State = model.StateDone
		s.Pending = ""
		s.BookingCode = out.Code
		s.Confirmation = out.Message

		return s, Directive{Action: ActionBooked, Message: out.Message}
	}

	switch out.Status {
	case http.StatusNotFound, http.StatusConflict:
		// The table went away between search and booking. Search again.
		s.Slots = s.Slots.Without(model.SlotTableID)
		s.Selected, s.Candidates = nil, nil
		s.SearchedFor = ""

		d := step(&s)
		d.Notice = out.Message

		return s, d
	default:
		s.State = model.StateConfirming
		s.Pending = ""

		return s, Directive{Action: ActionBookingFailed, Message: out.Message}
	}
}

func criteria(slots model.Slots) tableDto.SearchTablesRequest {
	return tableDto.SearchTablesRequest{
		PartySize:   slots.Party(),
		BookingDate: slots.Date(),
		BookingTime: slots.Time(),
		TableType:   slots.Type(),
		Floor:       slots.FloorNo(),
	}
}

func ready(s model.Session) bool {
	return s.Selected != nil && s.Slots.MissingCore() == "" && s.Slots.GuestName != nil &&
		s.Slots.GuestPhone != nil && s.Slots.NoteDecided()
}

func bookDirective(s model.Session) Directive {
	return Directive{
		Action: ActionBook,
		Booking: bookingDto.CreateBookingRequest{
			TableID:     s.Selected.TableID,
			GuestName:   s.Slots.Name(),
			GuestPhone:  s.Slots.Phone(),
			BookingDate: s.Slots.Date(),
			BookingTime: s.Slots.Time(),
			PartySize:   s.Slots.Party(),
			Notes:       s.Slots.NoteText(),
			Source:      bookingModel.SourceWebsite,
		},
	}
}

// step moves the session as far as the known slots allow and says what is needed next.
func step(s *model.Session) Directive {
	if missing := s.Slots.MissingCore(); missing != "" {
		s.State = model.StateCollectingCore
		s.Pending = missing

		return Directive{Action: ActionAsk, Ask: []string{missing}}
	}

	if s.SearchedFor != s.Slots.CoreKey() {
		s.State = model.StateSearching
		s.Pending = ""
		s.Candidates, s.Selected = nil, nil

		return Directive{Action: ActionSearch, Criteria: criteria(s.Slots)}
	}

	var notice string

	if id := s.Slots.TableID; id != nil && (s.Selected == nil || s.Selected.TableID != *id) {
		if table, ok := findCandidate(s.Candidates, *id); ok {
			s.Selected = &table
		} else {
			notice = tableUnavailable(*id)
			s.Slots = s.Slots.Without(model.SlotTableID)

			if s.Selected != nil {
				selected := s.Selected.TableID
				s.Slots.TableID = &selected
			}
		}
	}

	if s.Selected == nil {
		switch len(s.Candidates) {
		case 0:
			s.State = model.StateCollectingCore
			s.Pending = ""

			return Directive{Action: ActionNoTables, Criteria: criteria(s.Slots), Notice: notice}
		case 1:
			s.State = model.StateSearching
			s.Pending = model.SlotTableID

			return Directive{Action: ActionPropose, Candidates: s.Candidates, Notice: notice}
		default:
			s.State = model.StateSearching
			s.Pending = model.SlotTableID

			return Directive{Action: ActionChoose, Candidates: s.Candidates, Notice: notice}
		}
	}

	if ask := missingGuest(s.Slots); len(ask) > 0 {
		s.State = model.StateCollectingGuest
		s.Pending = model.SlotGuest

		return Directive{Action: ActionAsk, Ask: ask, Notice: notice}
	}

	if !s.Slots.NoteDecided() {
		s.State = model.StateCollectingGuest
		s.Pending = model.SlotNote

		return Directive{Action: ActionAsk, Ask: []string{model.SlotNote}, Notice: notice}
	}

	s.State = model.StateSummarizing
	s.Pending = ""

	return Directive{Action: ActionSummarize, Notice: notice}
}

// Presented records that the guest has seen the summary. A reply can confirm
// a booking only after that; an undelivered summary is shown again next turn.
func Presented(s model.Session) model.Session {
	if s.State == model.StateSummarizing {
		s.State = model.StateConfirming
	}

	return s
}

func missingGuest(slots model.Slots) []string {
	var res []string

	if slots.GuestName == nil {
		res = append(res, model.SlotGuestName)
	}

	if slots.GuestPhone == nil {
		res = append(res, model.SlotGuestPhone)
	}

	return res
}
