package service

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pisces-api/internal/service/gemini"
	"pisces-api/pkg/errors"
	"pisces-api/pkg/logger"
)

func TestChatService_Reply(t *testing.T) {
	tests := []struct {
		name           string
		key            string
		message        string
		client         *fakeGenerationClient
		expectedReply  string
		expectedStatus int
		expectedMsg    string
		expectedDetail string
		expectedCalls  int
	}{
		{
			name:          "successful reply",
			key:           "k",
			message:       "  hello  ",
			client:        &fakeGenerationClient{reply: "hi"},
			expectedReply: "hi",
			expectedCalls: 1,
		},
		{
			name:           "whitespace message rejected before any call",
			key:            "k",
			message:        " \n\t ",
			client:         &fakeGenerationClient{reply: "hi"},
			expectedStatus: http.StatusBadRequest,
			expectedMsg:    MsgMessageRequired,
		},
		{
			name:           "missing key",
			key:            "",
			message:        "hello",
			client:         &fakeGenerationClient{reply: "hi"},
			expectedStatus: http.StatusInternalServerError,
			expectedMsg:    MsgGeminiKeyMissing,
		},
		{
			name:           "upstream status error carries raw body",
			key:            "k",
			message:        "hello",
			client:         &fakeGenerationClient{err: &gemini.StatusError{StatusCode: 403, Body: `{"error":"denied"}`}},
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    MsgGeminiRequestFailed,
			expectedDetail: `{"error":"denied"}`,
			expectedCalls:  1,
		},
		{
			name:           "empty upstream reply",
			key:            "k",
			message:        "hello",
			client:         &fakeGenerationClient{err: fmt.Errorf("wrapped: %w", gemini.ErrEmptyResponse)},
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    MsgGeminiEmptyResponse,
			expectedCalls:  1,
		},
		{
			name:           "transport error carries message",
			key:            "k",
			message:        "hello",
			client:         &fakeGenerationClient{err: errBoom},
			expectedStatus: http.StatusBadGateway,
			expectedMsg:    MsgGeminiRequestFailed,
			expectedDetail: "boom",
			expectedCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewChatService(staticKey(tt.key), tt.client, logger.NewNop())

			reply, err := svc.Reply(context.Background(), tt.message)
			assert.Equal(t, tt.expectedCalls, tt.client.calls)

			if tt.expectedStatus == 0 {
				require.NoError(t, err)
				assert.Equal(t, tt.expectedReply, reply)
				assert.Equal(t, "hello", tt.client.lastMsg)
				assert.Equal(t, tt.key, tt.client.lastKey)
				return
			}

			require.Error(t, err)
			appErr := errors.AsAppError(err)
			assert.Equal(t, tt.expectedStatus, appErr.StatusCode)
			assert.Equal(t, tt.expectedMsg, appErr.Message)
			assert.Equal(t, tt.expectedDetail, appErr.Detail)
		})
	}
}
