package sentiment

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/pulse/internal/resilience"
	"github.com/sells-group/pulse/pkg/anthropic"
)

type mockClaude struct {
	mock.Mock
}

func (m *mockClaude) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func reply(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 50},
	}
}

func fastPolicy(p resilience.Policy) resilience.Policy {
	p.Attempts = 2
	p.Initial = 1
	p.Max = 1
	p.OnRetry = nil
	return p
}
