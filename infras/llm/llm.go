package llm

//go:generate go run go.uber.org/mock/mockgen -source=./llm.go -destination=./mocks/llm_mock.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"reservo/config"
	"reservo/infras/otel"
	"reservo/shared/constant"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

const (
	RoleUser  = "user"
	RoleModel = "model"

	contentTypeJSON = "application/json"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Request struct {
	System      string
	History     []Message
	Prompt      string
	JSON        bool
	Temperature *float32
}

// LLM is the text generation boundary used for entity extraction and reply wording.
type LLM interface {
	Generate(ctx context.Context, req Request) (string, error)
	// Stream calls onToken for every chunk and returns the concatenated text.
	// A non-nil error from onToken stops the stream.
	Stream(ctx context.Context, req Request, onToken func(chunk string) error) (string, error)
}

type geminiImpl struct {
	client  *genai.Client
	cfg     *config.Config
	limiter *rate.Limiter
	otel    otel.Otel
}

func New(cfg *config.Config, otl otel.Otel) LLM {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(cfg.External.LLM.APIKey))
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini client")
	}

	perMinute := cfg.External.LLM.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 60
	}

	log.Info().Str("model", cfg.External.LLM.Model).Int("rpm", perMinute).Msg("LLM client initialized")

	return &geminiImpl{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), perMinute),
		otel:    otl,
	}
}

func (g *geminiImpl) Generate(ctx context.Context, req Request) (res string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelLLMScopeName, constant.OtelLLMScopeName+".Generate")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err = g.limiter.Wait(ctx); err != nil {
		return constant.Empty, Classify(err)
	}

	session := g.chat(req)

	resp, err := session.SendMessage(ctx, genai.Text(req.Prompt))
	if err != nil {
		log.Error().Err(err).Msg("failed to generate content")

		return constant.Empty, Classify(err)
	}

	res = textOf(resp)
	if res == constant.Empty {
		return constant.Empty, ErrEmptyResponse
	}

	scope.SetAttribute("llm.response_length", len(res))

	return res, nil
}

func (g *geminiImpl) Stream(ctx context.Context, req Request, onToken func(chunk string) error) (res string, err error) {
	ctx, scope := g.otel.NewScope(ctx, constant.OtelLLMScopeName, constant.OtelLLMScopeName+".Stream")
	defer scope.End()
	defer scope.TraceIfError(err)

	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	if err = g.limiter.Wait(ctx); err != nil {
		return constant.Empty, Classify(err)
	}

	var builder strings.Builder

	iter := g.chat(req).SendMessageStream(ctx, genai.Text(req.Prompt))

	for {
		resp, nextErr := iter.Next()
		if errors.Is(nextErr, iterator.Done) {
			break
		}

		if nextErr != nil {
			log.Error().Err(nextErr).Msg("failed to stream content")

			return builder.String(), Classify(nextErr)
		}

		chunk := textOf(resp)
		if chunk == constant.Empty {
			continue
		}

		builder.WriteString(chunk)

		if err = onToken(chunk); err != nil {
			return builder.String(), fmt.Errorf("stream consumer stopped: %w", err)
		}
	}

	if builder.Len() == 0 {
		return constant.Empty, ErrEmptyResponse
	}

	return builder.String(), nil
}

func (g *geminiImpl) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := g.cfg.External.LLM.TimeoutSeconds
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
}

func (g *geminiImpl) chat(req Request) *genai.ChatSession {
	model := g.client.GenerativeModel(g.cfg.External.LLM.Model)

	temperature := g.cfg.External.LLM.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	model.SetTemperature(temperature)

	if req.System != constant.Empty {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}

	if req.JSON {
		model.ResponseMIMEType = contentTypeJSON
	}

	session := model.StartChat()

	for _, msg := range req.History {
		if strings.TrimSpace(msg.Content) == constant.Empty {
			continue
		}

		role := RoleUser
		if msg.Role == RoleModel {
			role = RoleModel
		}

		session.History = append(session.History, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(msg.Content)},
		})
	}

	return session
}

func textOf(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return constant.Empty
	}

	var builder strings.Builder

	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	return builder.String()
}
