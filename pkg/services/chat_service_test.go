package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

type scriptedLLM struct {
	mu      sync.Mutex
	prompts []string
	reply   func(prompt string) (string, error)
}

func (l *scriptedLLM) Generate(_ context.Context, prompt string) (string, error) {
	l.mu.Lock()
	l.prompts = append(l.prompts, prompt)
	l.mu.Unlock()
	return l.reply(prompt)
}

type staticState struct{ state *models.FutureState }

func (s staticState) FutureState() *models.FutureState { return s.state }

type staticRetriever struct {
	passages []Passage
	err      error
}

func (r staticRetriever) Search(context.Context, string, uint64) ([]Passage, error) {
	return r.passages, r.err
}

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"Which district needs new transformers?", LangEnglish},
		{"Какой район перегружен?", LangRussian},
		{"Chilonzor tuman uchun nima kerak?", LangUzbek},
		{"Salom!", LangUzbek},
		{"bo'yicha prognoz", LangUzbek},
		{"The yield is high", LangEnglish},
		{"", LangEnglish},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectLanguage(tt.text), tt.text)
	}
}

func TestAskEnglishUsesFutureState(t *testing.T) {
	state := &models.FutureState{TargetDate: "2027-04-01", TotalTransformersNeeded: 20}
	llm := &scriptedLLM{reply: func(string) (string, error) { return " Install 20 units in Chilonzor. ", nil }}
	retriever := staticRetriever{passages: []Passage{
		{Text: "Substations must keep 20% reserve.", Source: "grid_policy.md"},
		{Text: "Rule 2", Source: "grid_policy.md"},
	}}
	svc := NewChatService(llm, retriever, nil, staticState{state})

	answer, err := svc.Ask(context.Background(), models.ChatQuery{
		Question:        "Where should we build?",
		ContextSnapshot: map[string]interface{}{"selected_district": "chilonzor"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Install 20 units in Chilonzor.", answer.Answer)
	assert.Equal(t, "future_chat", answer.Mode)
	assert.Equal(t, LangEnglish, answer.Language)
	assert.Equal(t, []string{"grid_policy.md"}, answer.Sources)
	assert.Same(t, state, answer.FutureState)

	require.Len(t, llm.prompts, 1)
	prompt := llm.prompts[0]
	assert.Contains(t, prompt, `"target_date":"2027-04-01"`)
	assert.Contains(t, prompt, `"selected_district":"chilonzor"`)
	assert.Contains(t, prompt, "[1] Substations must keep 20% reserve.")
	assert.True(t, strings.HasSuffix(prompt, "User question: Where should we build?\nAssistant response:"))
}

func TestAskTranslatesRoundTrip(t *testing.T) {
	llm := &scriptedLLM{reply: func(prompt string) (string, error) {
		switch {
		case strings.HasPrefix(prompt, "Translate the following text to English."):
			return "Which district is overloaded?", nil
		case strings.HasPrefix(prompt, "Translate the following text from English to Russian."):
			return "Чиланзар перегружен.", nil
		default:
			return "Chilonzor is overloaded.", nil
		}
	}}
	svc := NewChatService(llm, nil, nil, staticState{})

	answer, err := svc.Ask(context.Background(), models.ChatQuery{Query: "Какой район перегружен?"})
	require.NoError(t, err)
	assert.Equal(t, "Чиланзар перегружен.", answer.Answer)
	assert.Equal(t, LangRussian, answer.Language)
	assert.Nil(t, answer.FutureState)
	require.Len(t, llm.prompts, 3)
	assert.Contains(t, llm.prompts[1], "No future mode prediction has been generated yet.")
	assert.Contains(t, llm.prompts[1], "User question: Which district is overloaded?")
}

func TestAskErrors(t *testing.T) {
	down := &scriptedLLM{reply: func(string) (string, error) { return "", errors.New("connection refused") }}
	svc := NewChatService(down, staticRetriever{err: errors.New("qdrant down")}, nil, staticState{})

	_, err := svc.Ask(context.Background(), models.ChatQuery{Query: "   "})
	assert.ErrorIs(t, err, ErrEmptyQuery)

	_, err = svc.Ask(context.Background(), models.ChatQuery{Query: "status?"})
	assert.ErrorIs(t, err, ErrAssistantUnavailable)
}

func TestAskSpecialCommand(t *testing.T) {
	persona := &config.AssistantPromptConfig{}
	persona.SpecialCommands.Help.Trigger = []string{"help"}
	persona.SpecialCommands.Help.Response = "Ask about district load forecasts."

	llm := &scriptedLLM{reply: func(string) (string, error) { return "", errors.New("unused") }}
	answer, err := NewChatService(llm, nil, persona, staticState{}).Ask(context.Background(), models.ChatQuery{Query: " HELP "})
	require.NoError(t, err)
	assert.Equal(t, "command", answer.Mode)
	assert.Equal(t, "Ask about district load forecasts.", answer.Answer)
	assert.Empty(t, llm.prompts)
}

func TestPassagePoints(t *testing.T) {
	point := newPassagePoint("8d6f0b6e-7c1a-4b8e-9d35-6a4f1f0c2b11", "Keep 20% reserve.", []float32{0.1, 0.2}, map[string]interface{}{
		"source": "grid_policy.md",
		"chunk":  3,
		"skip":   []string{"ignored"},
	})
	assert.Equal(t, "Keep 20% reserve.", point.GetPayload()["text"].GetStringValue())
	assert.Equal(t, int64(3), point.GetPayload()["chunk"].GetIntegerValue())
	assert.NotContains(t, point.GetPayload(), "skip")

	passages := passagesFromPoints([]*qdrant.ScoredPoint{
		{Payload: point.GetPayload(), Score: 0.91},
		{Payload: map[string]*qdrant.Value{}},
	})
	require.Len(t, passages, 1)
	assert.Equal(t, Passage{Text: "Keep 20% reserve.", Source: "grid_policy.md", Score: 0.91}, passages[0])
}
