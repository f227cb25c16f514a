package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/worklaw/counsel/core/chat"
)

const defaultPollInterval = 500 * time.Millisecond

// OpenAIBackend adapts the OpenAI Assistants API (threads, messages,
// runs) to the Backend interface. One conversation handle is one thread;
// a reasoning pass is a run against the configured assistant, polled to
// completion.
type OpenAIBackend struct {
	client       *openai.Client
	assistantID  string
	pollInterval time.Duration
}

// NewOpenAIBackend creates an OpenAIBackend from configuration.
func NewOpenAIBackend(cfg *Config) *OpenAIBackend {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	interval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &OpenAIBackend{
		client:       openai.NewClientWithConfig(clientCfg),
		assistantID:  cfg.AssistantID,
		pollInterval: interval,
	}
}

func (b *OpenAIBackend) CreateHandle(ctx context.Context) (string, error) {
	thread, err := b.client.CreateThread(ctx, openai.ThreadRequest{})
	if err != nil {
		return "", wrapAPIError(err)
	}
	return thread.ID, nil
}

func (b *OpenAIBackend) AppendTurn(ctx context.Context, handle string, role chat.Role, text string) error {
	_, err := b.client.CreateMessage(ctx, handle, openai.MessageRequest{
		Role:    string(role),
		Content: text,
	})
	if err != nil {
		return wrapAPIError(err)
	}
	return nil
}

func (b *OpenAIBackend) Run(ctx context.Context, handle string, replyTokenCeiling int) (RunResult, error) {
	run, err := b.client.CreateRun(ctx, handle, openai.RunRequest{
		AssistantID:         b.assistantID,
		MaxCompletionTokens: replyTokenCeiling,
	})
	if err != nil {
		return RunResult{}, wrapAPIError(err)
	}

	for !terminalRunStatus(run.Status) {
		select {
		case <-ctx.Done():
			return RunResult{}, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		case <-time.After(b.pollInterval):
		}

		run, err = b.client.RetrieveRun(ctx, handle, run.ID)
		if err != nil {
			return RunResult{}, wrapAPIError(err)
		}
	}

	if run.Status == openai.RunStatusCompleted {
		return RunResult{}, nil
	}

	detail := string(run.Status)
	if run.LastError != nil {
		detail = fmt.Sprintf("%s: %s", run.LastError.Code, run.LastError.Message)
	}
	return RunResult{Failed: true, FailureDetail: detail}, nil
}

func (b *OpenAIBackend) ListTurns(ctx context.Context, handle string, order chat.ListOrder) ([]chat.Turn, error) {
	apiOrder := "asc"
	if order == chat.OrderDescending {
		apiOrder = "desc"
	}

	list, err := b.client.ListMessage(ctx, handle, nil, &apiOrder, nil, nil, nil)
	if err != nil {
		return nil, wrapAPIError(err)
	}

	turns := make([]chat.Turn, 0, len(list.Messages))
	for _, msg := range list.Messages {
		turns = append(turns, chat.Turn{
			Role:      chat.Role(msg.Role),
			Content:   messageText(msg),
			CreatedAt: time.Unix(int64(msg.CreatedAt), 0),
		})
	}
	return turns, nil
}

// messageText extracts the final text part of an assistant message;
// non-text parts (images, files) are skipped.
func messageText(msg openai.Message) string {
	for i := len(msg.Content) - 1; i >= 0; i-- {
		if msg.Content[i].Text != nil {
			return msg.Content[i].Text.Value
		}
	}
	return ""
}

func terminalRunStatus(status openai.RunStatus) bool {
	switch status {
	case openai.RunStatusQueued, openai.RunStatusInProgress, openai.RunStatusCancelling:
		return false
	}
	return true
}

func wrapAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", ErrInvalidHandle, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}
