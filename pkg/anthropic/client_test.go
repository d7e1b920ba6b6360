package anthropic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestMockClient_ImplementsInterface(t *testing.T) {
	var _ Client = (*MockClient)(nil)

	m := &MockClient{}
	m.On("CreateMessage", mock.Anything, mock.Anything).
		Return(&MessageResponse{Content: []ContentBlock{{Type: "text", Text: "hi"}}}, nil)

	resp, err := m.CreateMessage(context.Background(), MessageRequest{Messages: UserMessage("hello")})
	require.NoError(t, err)
	assert.Equal(t, "hi", resp.Text())
	m.AssertExpectations(t)
}

func TestMessageResponse_Text(t *testing.T) {
	r := &MessageResponse{Content: []ContentBlock{
		{Type: "text", Text: "{\"a\":"},
		{Type: "tool_use", Text: "ignored"},
		{Type: "text", Text: "1}"},
	}}
	assert.Equal(t, `{"a":1}`, r.Text())
}

func TestTokenUsage_EstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 100_000}
	assert.InDelta(t, 4.5, u.EstimateCost("claude-sonnet-4-5-20250929"), 1e-9)
	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}

func TestTokenUsage_LogCost(t *testing.T) {
	// Must not panic with the no-op global logger.
	TokenUsage{InputTokens: 10, OutputTokens: 5}.LogCost("claude-sonnet-4-5-20250929", "analyze")
}

func TestStatusCode_NonAPIError(t *testing.T) {
	assert.Equal(t, 0, StatusCode(nil))
	assert.Equal(t, 0, StatusCode(assert.AnError))
}
