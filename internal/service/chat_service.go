package service

import (
	"context"
	stderrors "errors"
	"strings"

	"pisces-api/internal/service/gemini"
	"pisces-api/pkg/errors"
	"pisces-api/pkg/logger"
)

// Client-facing messages of the chat endpoint
const (
	MsgMessageRequired     = "message is required"
	MsgGeminiKeyMissing    = "GEMINI_API_KEY is not configured"
	MsgGeminiRequestFailed = "Gemini request failed"
	MsgGeminiEmptyResponse = "Gemini returned empty response"
)

// chatService relays chat messages to the generation provider
type chatService struct {
	keys   APIKeyResolver
	client GenerationClient
	logger *logger.Logger
}

// NewChatService creates a new chat service
func NewChatService(keys APIKeyResolver, client GenerationClient, logger *logger.Logger) ChatService {
	return &chatService{
		keys:   keys,
		client: client,
		logger: logger,
	}
}

// Reply trims and validates message, resolves the key and makes a single provider call
func (s *chatService) Reply(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", errors.NewValidationError(MsgMessageRequired)
	}

	apiKey := s.keys.ResolveGeminiAPIKey()
	if apiKey == "" {
		s.logger.Error("Gemini API key is not configured")
		return "", errors.NewConfigurationError(MsgGeminiKeyMissing)
	}

	reply, err := s.client.GenerateReply(ctx, apiKey, message)
	if err != nil {
		appErr := mapGenerationError(err)
		s.logger.WithError(err).WithField("message_length", len(message)).Warn(appErr.Message)
		return "", appErr
	}

	return reply, nil
}

// mapGenerationError translates provider failures into 502 errors
func mapGenerationError(err error) *errors.AppError {
	var statusErr *gemini.StatusError
	switch {
	case stderrors.As(err, &statusErr):
		return errors.NewExternalError(MsgGeminiRequestFailed, err).WithDetail(statusErr.Body)
	case stderrors.Is(err, gemini.ErrEmptyResponse):
		return errors.NewExternalError(MsgGeminiEmptyResponse, err)
	default:
		return errors.NewExternalError(MsgGeminiRequestFailed, err).WithDetail(err.Error())
	}
}
