package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reservo/config"
	"reservo/infras/llm"
	"reservo/infras/otel"
	bookingModel "reservo/internal/domains/booking/model"
	bookingDto "reservo/internal/domains/booking/model/dto"
	bookingService "reservo/internal/domains/booking/service"
	"reservo/internal/domains/conversation/extractor"
	"reservo/internal/domains/conversation/machine"
	"reservo/internal/domains/conversation/model"
	"reservo/internal/domains/conversation/model/dto"
	"reservo/internal/domains/conversation/repository"
	tableDto "reservo/internal/domains/table/model/dto"
	tableService "reservo/internal/domains/table/service"
	"reservo/shared/constant"
	"reservo/shared/failure"
	"reservo/shared/timezone"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// maxToolRounds bounds the search and booking calls made within one turn.
const maxToolRounds = 3

const (
	msgBusy          = "Bạn đang có một yêu cầu khác đang được xử lý. Vui lòng đợi trong giây lát."
	msgUnavailable   = "Hệ thống đang bận, vui lòng thử lại sau."
	msgBookingFailed = "Hệ thống gặp lỗi khi lưu đặt bàn."

	replySystemPrompt = `Bạn là trợ lý đặt bàn thân thiện của nhà hàng.
Viết lại tin nhắn được cung cấp bằng tiếng Việt tự nhiên, ngắn gọn.
Giữ nguyên mọi thông tin cụ thể (ngày, giờ, số người, số bàn, tên khu vực).
Không thêm thông tin mới, không đặt thêm câu hỏi nào khác.`
	replyPromptFormat = "Khách vừa nói: %q\nTin nhắn cần gửi: %s"
)

type Conversation interface {
	// Chat runs one guest turn and sends its events in order. It does not close events.
	Chat(ctx context.Context, req dto.ChatRequest, events chan<- dto.Event) error
	// End forgets a session so its id starts a fresh conversation.
	End(ctx context.Context, sessionID string) error
}

type serviceImpl struct {
	store     repository.Session
	extractor extractor.Extractor
	tables    tableService.Table
	bookings  bookingService.Booking
	llm       llm.LLM
	cfg       *config.Config
	otel      otel.Otel
}

func New(
	store repository.Session,
	ext extractor.Extractor,
	tables tableService.Table,
	bookings bookingService.Booking,
	client llm.LLM,
	cfg *config.Config,
	otel otel.Otel,
) Conversation {
	return &serviceImpl{
		store:     store,
		extractor: ext,
		tables:    tables,
		bookings:  bookings,
		llm:       client,
		cfg:       cfg,
		otel:      otel,
	}
}

// emit reports false once the caller has gone away.
func emit(ctx context.Context, events chan<- dto.Event, evt dto.Event) bool {
	select {
	case <-ctx.Done():
		return false
	case events <- evt:
		return true
	}
}

func (s *serviceImpl) Chat(ctx context.Context, req dto.ChatRequest, events chan<- dto.Event) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".conversation.Chat")
	defer scope.End()
	defer scope.TraceIfError(err)

	id := req.SessionID
	if id == constant.Empty {
		id = uuid.NewString()
	}

	scope.SetAttribute("conversation.session_id", id)

	unlock, err := s.store.Lock(ctx, id)
	if err != nil {
		msg := msgUnavailable
		if errors.Is(err, repository.ErrSessionLocked) {
			msg = msgBusy
		}

		emit(ctx, events, dto.Error(msg))

		return err
	}

	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.Warn().Err(unlockErr).Str("session_id", id).Msg("conversation lock left to expire")
		}
	}()

	if !emit(ctx, events, dto.Event{Type: dto.EventStart, Content: dto.SessionContent{SessionID: id}}) {
		return ctx.Err()
	}

	now := timezone.Now()

	session, err := s.load(ctx, id, req, now)
	if err != nil {
		emit(ctx, events, dto.Error(msgUnavailable))

		return err
	}

	slots, err := s.extractor.Extract(ctx, session.History, req.UserInput, now)

	switch {
	case errors.Is(err, extractor.ErrMalformedOutput):
		log.Warn().Err(err).Str("session_id", id).Msg("ignoring unreadable extraction")

		slots = model.Slots{}
	case ctx.Err() != nil:
		return ctx.Err()
	case err != nil:
		emit(ctx, events, dto.Error(llm.UserMessage(err)))

		return err
	}

	session, directive := machine.Advance(session, machine.Input{Utterance: req.UserInput, Slots: slots})
	session, directive = s.runTools(ctx, session, directive, now)

	if len(directive.Candidates) > 0 {
		emit(ctx, events, dto.Event{Type: dto.EventTable, Content: directive.Candidates})
	}

	reply := s.render(ctx, session, directive, req.UserInput, events)
	if ctx.Err() == nil {
		session = machine.Presented(session)
	}

	session.Remember(s.cfg.Conversation.HistoryLimit,
		model.Message{Role: model.RoleUser, Content: req.UserInput},
		model.Message{Role: model.RoleAssistant, Content: reply},
	)
	session.UpdatedAt = now

	// A booking may have been made, so the session is kept even if the guest left.
	if err = s.store.Save(context.WithoutCancel(ctx), session); err != nil {
		emit(ctx, events, dto.Error(msgUnavailable))

		return err
	}

	log.Info().Str("session_id", id).Str("state", string(session.State)).Str("action", string(directive.Action)).Msg("conversation turn handled")

	emit(ctx, events, dto.Event{Type: dto.EventEnd, Content: dto.SessionContent{
		SessionID:   id,
		State:       string(session.State),
		BookingCode: session.BookingCode,
	}})

	return nil
}

// load returns the stored session, or rebuilds one from the transcript the client sent.
func (s *serviceImpl) End(ctx context.Context, sessionID string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".conversation.End")
	defer scope.End()
	defer scope.TraceIfError(err)

	unlock, err := s.store.Lock(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionLocked) {
			return failure.Conflict(msgBusy) // nolint:wrapcheck
		}

		return failure.InternalError(err) // nolint:wrapcheck
	}

	defer func() {
		if unlockErr := unlock(context.WithoutCancel(ctx)); unlockErr != nil {
			log.Warn().Err(unlockErr).Str("session_id", sessionID).Msg("conversation lock left to expire")
		}
	}()

	if err = s.store.Delete(ctx, sessionID); err != nil {
		return failure.InternalError(err) // nolint:wrapcheck
	}

	log.Info().Str("session_id", sessionID).Msg("conversation session ended")

	return nil
}

func (s *serviceImpl) load(ctx context.Context, id string, req dto.ChatRequest, now time.Time) (model.Session, error) {
	session, found, err := s.store.Get(ctx, id)
	if err != nil {
		return session, fmt.Errorf("failed to load conversation session: %w", err)
	}

	if found {
		return session, nil
	}

	session = model.NewSession(id)
	session.Remember(s.cfg.Conversation.HistoryLimit, req.History()...)

	turns := session.UserTurns()
	if len(turns) == 0 {
		return session, nil
	}

	slots, err := s.extractor.Extract(ctx, nil, strings.Join(turns, "\n"), now)
	if err != nil {
		log.Warn().Err(err).Str("session_id", id).Msg("could not rebuild slots from chat history")

		return session, nil
	}

	session.Slots = slots

	log.Info().Str("session_id", id).Int("turns", len(turns)).Msg("conversation session rebuilt from chat history")

	return session, nil
}

func (s *serviceImpl) runTools(ctx context.Context, session model.Session, directive machine.Directive, now time.Time) (model.Session, machine.Directive) {
	var notices []string

	for round := 0; directive.Tool() && round < maxToolRounds; round++ {
		if directive.Notice != constant.Empty {
			notices = append(notices, directive.Notice)
		}

		switch directive.Action {
		case machine.ActionSearch:
			session, directive = machine.ApplySearch(session, s.search(ctx, directive.Criteria, now))
		case machine.ActionBook:
			session, directive = machine.ApplyBooking(session, s.book(ctx, directive.Booking))
		}
	}

	if directive.Notice != constant.Empty {
		notices = append(notices, directive.Notice)
	}

	directive.Notice = strings.Join(notices, "\n")

	return session, directive
}

func (s *serviceImpl) dateMessage(err error, date string) string {
	switch {
	case errors.Is(err, bookingModel.ErrDateInPast):
		return fmt.Sprintf("Ngày %s đã qua, bạn vui lòng chọn ngày khác.", date)
	case errors.Is(err, bookingModel.ErrDateTooFar):
		return fmt.Sprintf("Nhà hàng chỉ nhận đặt bàn trước tối đa %d ngày.", s.cfg.Booking.MaxAdvanceDays)
	default:
		return "Ngày đặt bàn chưa hợp lệ."
	}
}

func (s *serviceImpl) timeMessage(err error, clock string) string {
	switch {
	case errors.Is(err, bookingModel.ErrTimeInPast):
		return fmt.Sprintf("%s hôm nay đã qua, bạn vui lòng chọn giờ khác.", clock)
	case errors.Is(err, bookingModel.ErrOutsideOpenHours):
		return fmt.Sprintf("Nhà hàng nhận khách từ %s đến %s.", s.cfg.Booking.OpeningTime, s.cfg.Booking.ClosingTime)
	default:
		return "Giờ đặt bàn chưa hợp lệ."
	}
}

// search never fails the turn: rejected criteria and errors become outcomes.
func (s *serviceImpl) search(ctx context.Context, criteria tableDto.SearchTablesRequest, now time.Time) machine.SearchOutcome {
	if err := bookingModel.ValidateDate(criteria.BookingDate, now, s.cfg.Booking.MaxAdvanceDays); err != nil {
		return machine.SearchOutcome{InvalidSlot: model.SlotBookingDate, Message: s.dateMessage(err, criteria.BookingDate)}
	}

	err := bookingModel.ValidateTime(criteria.BookingDate, criteria.BookingTime, now, s.cfg.Booking.OpeningTime, s.cfg.Booking.ClosingTime)
	if err != nil {
		return machine.SearchOutcome{InvalidSlot: model.SlotBookingTime, Message: s.timeMessage(err, criteria.BookingTime)}
	}

	res, err := s.tables.Search(ctx, criteria)
	if err != nil {
		log.Error().Err(err).Str("date", criteria.BookingDate).Int("party_size", criteria.PartySize).Msg("failed to search tables for conversation")

		return machine.SearchOutcome{Err: err}
	}

	return machine.SearchOutcome{Candidates: res.AvailableTables}
}

func (s *serviceImpl) book(ctx context.Context, req bookingDto.CreateBookingRequest) machine.BookingOutcome {
	res, err := s.bookings.Book(ctx, req)
	if err != nil {
		code := failure.GetCode(err)
		msg := failure.PublicMessage(err, msgBookingFailed)

		log.Warn().Err(err).Int("status", code).Int64("table_id", req.TableID).Msg("conversation booking failed")

		return machine.BookingOutcome{Status: code, Message: msg, Err: err}
	}

	return machine.BookingOutcome{Code: res.Booking.Code, Message: res.Message}
}

// render streams the reply. Facts are sent as rendered; other replies are
// reworded by the model, falling back to the template on any failure.
func (s *serviceImpl) render(ctx context.Context, session model.Session, directive machine.Directive, utterance string, events chan<- dto.Event) string {
	reply := machine.Reply(session, directive)

	if directive.Verbatim() || s.llm == nil {
		emit(ctx, events, dto.Token(reply))

		return reply
	}

	streamed := false

	text, err := s.llm.Stream(ctx, llm.Request{
		System: replySystemPrompt,
		Prompt: fmt.Sprintf(replyPromptFormat, utterance, reply),
	}, func(chunk string) error {
		streamed = true

		if !emit(ctx, events, dto.Token(chunk)) {
			return ctx.Err()
		}

		return nil
	})
	if err == nil {
		return text
	}

	if ctx.Err() != nil {
		return reply
	}

	log.Warn().Err(err).Msg("reply generation failed, sending template")

	if streamed {
		emit(ctx, events, dto.Token("\n"))
	}

	emit(ctx, events, dto.Token(reply))

	return reply
}
