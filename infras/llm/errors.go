package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrRateLimited   = errors.New("llm: rate limited")
	ErrUnauthorized  = errors.New("llm: unauthorized")
	ErrBadRequest    = errors.New("llm: bad request")
	ErrUnavailable   = errors.New("llm: provider unavailable")
	ErrTimeout       = errors.New("llm: timeout")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Classify maps provider and transport failures onto the package sentinels.
// Caller cancellation is returned unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) {
		return err
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return fmt.Errorf("%w: %w", ErrBadRequest, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %w", fromHTTPCode(apiErr.Code), err)
	}

	if st, ok := status.FromError(err); ok {
		return fmt.Errorf("%w: %w", fromGRPCCode(st.Code()), err)
	}

	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func fromHTTPCode(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		return ErrUnauthorized
	case code >= http.StatusBadRequest && code < http.StatusInternalServerError:
		return ErrBadRequest
	default:
		return ErrUnavailable
	}
}

func fromGRPCCode(code codes.Code) error {
	switch code {
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrUnauthorized
	case codes.InvalidArgument, codes.FailedPrecondition, codes.OutOfRange:
		return ErrBadRequest
	case codes.DeadlineExceeded:
		return ErrTimeout
	default:
		return ErrUnavailable
	}
}

// UserMessage renders a provider failure as a message that can be shown to a guest.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return "Hệ thống đang nhận quá nhiều yêu cầu. Vui lòng thử lại sau ít phút."
	case errors.Is(err, ErrUnauthorized):
		return "Trợ lý đặt bàn tạm thời không khả dụng. Vui lòng liên hệ nhà hàng để được hỗ trợ."
	case errors.Is(err, ErrBadRequest):
		return "Xin lỗi, tôi chưa xử lý được yêu cầu này. Bạn có thể diễn đạt lại được không?"
	case errors.Is(err, ErrTimeout):
		return "Trợ lý phản hồi quá lâu. Vui lòng thử lại."
	default:
		return "Trợ lý đang gặp sự cố. Vui lòng thử lại sau."
	}
}
