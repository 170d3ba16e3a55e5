package llm

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/alecf/tally/internal/prompt"
)

func payloadJSON(t *testing.T, p Payload) gjson.Result {
	t.Helper()
	data, err := json.Marshal(p.Params)
	require.NoError(t, err)
	return gjson.ParseBytes(data)
}

func lookup(t *testing.T, id string) Model {
	t.Helper()
	m, err := DefaultRegistry().Lookup(id)
	require.NoError(t, err)
	return m
}

func TestMessages_Order(t *testing.T) {
	req := StreamRequest{
		Query: "and now?",
		PriorMessages: []ChatMessage{
			{Role: RoleUser, Content: "first"},
			{Role: RoleAssistant, Content: "reply"},
		},
	}

	msgs := Messages(req)
	require.Len(t, msgs, 4)
	assert.Equal(t, ChatMessage{Role: RoleSystem, Content: prompt.SystemInstruction}, msgs[0])
	assert.Equal(t, "first", msgs[1].Content)
	assert.Equal(t, RoleAssistant, msgs[2].Role)
	assert.Equal(t, ChatMessage{Role: RoleUser, Content: "and now?"}, msgs[3])
}

func TestBuildPayload_TemperatureModel(t *testing.T) {
	req := StreamRequest{Query: "hi", MaxOutputTokens: 500}.WithDefaults(DefaultModel)

	p, err := BuildPayload(req, lookup(t, "gpt-4o-mini"))
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, p.Provider)
	assert.Equal(t, "gpt-4o-mini", p.Model)

	body := payloadJSON(t, p)
	assert.Equal(t, "gpt-4o-mini", body.Get("model").String())
	assert.InDelta(t, DefaultTemperature, body.Get("temperature").Float(), 1e-9)
	assert.EqualValues(t, 500, body.Get("max_tokens").Int())
	assert.False(t, body.Get("max_completion_tokens").Exists())
	assert.True(t, body.Get("stream_options.include_usage").Bool())

	msgs := body.Get("messages").Array()
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].Get("role").String())
	assert.Equal(t, "user", msgs[1].Get("role").String())
	assert.Equal(t, "hi", msgs[1].Get("content").String())
}

func TestBuildPayload_ReasoningModel(t *testing.T) {
	temp := 0.2
	req := StreamRequest{Query: "hi", Temperature: &temp, MaxOutputTokens: 500}.WithDefaults(DefaultModel)

	p, err := BuildPayload(req, lookup(t, "gpt-5"))
	require.NoError(t, err)

	body := payloadJSON(t, p)
	assert.EqualValues(t, 500, body.Get("max_completion_tokens").Int())
	assert.False(t, body.Get("max_tokens").Exists())
	assert.False(t, body.Get("temperature").Exists())
}

func TestBuildPayload_NoLimitWhenZero(t *testing.T) {
	p, err := BuildPayload(StreamRequest{Query: "hi"}.WithDefaults(DefaultModel), lookup(t, "gpt-4o-mini"))
	require.NoError(t, err)

	body := payloadJSON(t, p)
	assert.False(t, body.Get("max_tokens").Exists())
	assert.False(t, body.Get("max_completion_tokens").Exists())
}

func TestBuildPayload_History(t *testing.T) {
	req := StreamRequest{
		Query: "again",
		PriorMessages: []ChatMessage{
			{Role: RoleUser, Content: "q1"},
			{Role: RoleAssistant, Content: "a1"},
		},
	}.WithDefaults(DefaultModel)

	p, err := BuildPayload(req, lookup(t, "grok-3-mini"))
	require.NoError(t, err)
	assert.Equal(t, ProviderXAI, p.Provider)

	roles := payloadJSON(t, p).Get("messages.#.role").Array()
	require.Len(t, roles, 4)
	assert.Equal(t, []string{"system", "user", "assistant", "user"},
		[]string{roles[0].String(), roles[1].String(), roles[2].String(), roles[3].String()})
}

func TestBuildPayload_Errors(t *testing.T) {
	t.Run("no capability data", func(t *testing.T) {
		m := Model{ID: "mystery", Provider: ProviderOpenAI}
		_, err := BuildPayload(StreamRequest{Query: "hi"}, m)
		assert.ErrorIs(t, err, ErrNoCapabilityData)
		assert.Contains(t, err.Error(), "mystery")
	})

	t.Run("bad role", func(t *testing.T) {
		req := StreamRequest{Query: "hi", PriorMessages: []ChatMessage{{Role: "tool", Content: "x"}}}
		_, err := BuildPayload(req, lookup(t, "gpt-4o-mini"))
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("negative limit", func(t *testing.T) {
		_, err := BuildPayload(StreamRequest{Query: "hi", MaxOutputTokens: -1}, lookup(t, "gpt-4o-mini"))
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}

func TestWithDefaults(t *testing.T) {
	req := StreamRequest{}.WithDefaults("")
	assert.Equal(t, DefaultQuery, req.Query)
	assert.Equal(t, DefaultModel, req.Model)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, DefaultTemperature, *req.Temperature, 1e-9)

	req = StreamRequest{}.WithDefaults("grok-3-mini")
	assert.Equal(t, "grok-3-mini", req.Model)

	temp := 0.0
	req = StreamRequest{Query: "x", Model: "o3", Temperature: &temp}.WithDefaults("grok-3-mini")
	assert.Equal(t, "x", req.Query)
	assert.Equal(t, "o3", req.Model)
	assert.Zero(t, *req.Temperature)
}
