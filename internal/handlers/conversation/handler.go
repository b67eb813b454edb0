package conversation

import (
	"encoding/json"
	"fmt"
	"net/http"

	"reservo/config"
	"reservo/infras/otel"
	"reservo/internal/domains/conversation/model/dto"
	"reservo/internal/domains/conversation/service"
	"reservo/shared/constant"
	"reservo/shared/failure"
	"reservo/shared/validator"
	"reservo/transport/http/response"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

type Handler struct {
	service service.Conversation
	cfg     *config.Config
	otel    otel.Otel
}

func New(service service.Conversation, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		service: service,
		cfg:     cfg,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Post("/chat/stream", handler.ChatStream)
	router.Delete("/chat/sessions/{id}", handler.EndSession)
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, evt dto.Event) error {
	payload, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("failed to marshal chat event: %w", err)
	}

	if _, err = fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return fmt.Errorf("failed to write chat event: %w", err)
	}

	flusher.Flush()

	return nil
}

// ChatStream runs one turn of the booking assistant.
// @Summary Chat with the booking assistant
// @Description Streams server-sent events of type start, token, table, end and error. Each event is a JSON object {type, content}.
// @Tags Conversation
// @Accept json
// @Produce text/event-stream
// @Param request body dto.ChatRequest true "Chat Request"
// @Success 200 {object} dto.Event
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/restaurant-booking/chat/stream [post]
func (handler *Handler) ChatStream(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ChatStream")
	defer scope.End()

	req := dto.ChatRequest{}

	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		response.WithError(w, failure.InternalError(fmt.Errorf("streaming is not supported")))

		return
	}

	w.Header().Set(constant.RequestHeaderContentType, constant.ContentTypeEventStream)
	w.Header().Set(constant.RequestHeaderCacheControl, "no-cache")
	w.Header().Set(constant.RequestHeaderConnection, "keep-alive")
	w.Header().Set(constant.RequestHeaderAccelBuffering, "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	events := make(chan dto.Event, handler.cfg.Conversation.EventBuffer)

	go func() {
		defer close(events)

		if err := handler.service.Chat(ctx, req, events); err != nil {
			scope.TraceError(err)
			log.Warn().Err(err).Str("session_id", req.SessionID).Msg("chat turn ended with error")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Info().Str("session_id", req.SessionID).Msg("chat client disconnected")

			return
		case evt, open := <-events:
			if !open {
				return
			}

			if err := writeEvent(w, flusher, evt); err != nil {
				log.Warn().Err(err).Msg("failed to stream chat event")

				return
			}
		}
	}
}

// EndSession forgets a conversation so the guest can start over.
// @Summary End a chat session
// @Tags Conversation
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Message
// @Failure 400 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/restaurant-booking/chat/sessions/{id} [delete]
func (handler *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".EndSession")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := validator.ValidateVar(id, "uuid"); err != nil {
		scope.TraceError(err)

		response.WithError(w, err)

		return
	}

	if err := handler.service.End(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Str("session_id", id).Msg("failed to end chat session")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "session ended")
}
