package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode"

	config "github.com/al-khabib/tashkent-city-transformers/configs"
	"github.com/al-khabib/tashkent-city-transformers/pkg/models"
)

// Languages the assistant answers in.
const (
	LangEnglish = "en"
	LangRussian = "ru"
	LangUzbek   = "uz"
)

const retrievalTopK = 3

var uzbekMarkers = []string{"qanday", "bo'yicha", "uchun", "tuman", "yil", "kerak", "salom"}

var languageNames = map[string]string{
	LangEnglish: "English",
	LangRussian: "Russian",
	LangUzbek:   "Uzbek",
}

// LanguageModel completes a prompt.
type LanguageModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// PassageRetriever finds policy passages relevant to a question.
type PassageRetriever interface {
	Search(ctx context.Context, query string, topK uint64) ([]Passage, error)
}

// FutureStateSource exposes the latest completed run.
type FutureStateSource interface {
	FutureState() *models.FutureState
}

// ChatService answers planning questions grounded on the latest FutureState.
type ChatService struct {
	llm       LanguageModel
	retriever PassageRetriever
	persona   *config.AssistantPromptConfig
	state     FutureStateSource
}

// NewChatService returns an assistant. retriever and persona may be nil.
func NewChatService(llm LanguageModel, retriever PassageRetriever, persona *config.AssistantPromptConfig, state FutureStateSource) *ChatService {
	return &ChatService{llm: llm, retriever: retriever, persona: persona, state: state}
}

// DetectLanguage guesses ru for Cyrillic text, uz for common Uzbek words, en otherwise.
func DetectLanguage(text string) string {
	for _, r := range text {
		if unicode.Is(unicode.Cyrillic, r) {
			return LangRussian
		}
	}
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})
	for _, word := range words {
		for _, marker := range uzbekMarkers {
			if word == marker {
				return LangUzbek
			}
		}
	}
	return LangEnglish
}

// Ask answers q. A blank question yields ErrEmptyQuery and an unreachable model
// ErrAssistantUnavailable.
func (s *ChatService) Ask(ctx context.Context, q models.ChatQuery) (models.ChatAnswer, error) {
	query := strings.TrimSpace(q.Query)
	if query == "" {
		query = strings.TrimSpace(q.Question)
	}
	if query == "" {
		return models.ChatAnswer{}, ErrEmptyQuery
	}

	state := s.state.FutureState()
	lang := DetectLanguage(query)

	if s.persona != nil {
		if ok, reply := s.persona.CheckSpecialCommand(query); ok {
			return models.ChatAnswer{Answer: reply, Mode: "command", Language: lang, FutureState: state}, nil
		}
	}

	english, err := s.translate(ctx, query, lang, LangEnglish)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	var passages []Passage
	if s.retriever != nil {
		passages, err = s.retriever.Search(ctx, english, retrievalTopK)
		if err != nil {
			log.Printf("[assistant] retrieval failed, answering without policy passages: %v", err)
			passages = nil
		}
	}

	snapshot := q.ContextSnapshot
	if snapshot == nil {
		snapshot = q.Context
	}

	answer, err := s.generate(ctx, s.buildPrompt(english, state, snapshot, passages))
	if err != nil {
		return models.ChatAnswer{}, err
	}

	answer, err = s.translate(ctx, answer, LangEnglish, lang)
	if err != nil {
		return models.ChatAnswer{}, err
	}

	sources := make([]string, 0, len(passages))
	seen := map[string]bool{}
	for _, p := range passages {
		if p.Source != "" && !seen[p.Source] {
			seen[p.Source] = true
			sources = append(sources, p.Source)
		}
	}

	return models.ChatAnswer{
		Answer:      answer,
		Mode:        "future_chat",
		Language:    lang,
		Sources:     sources,
		FutureState: state,
	}, nil
}

func (s *ChatService) buildPrompt(query string, state *models.FutureState, snapshot map[string]interface{}, passages []Passage) string {
	var sb strings.Builder
	if s.persona != nil {
		sb.WriteString(s.persona.BuildSystemPrompt())
	} else {
		sb.WriteString("You are Grid AI Assistant for Tashkent power planning.\nAlways answer in English.\n")
	}
	sb.WriteString("Use the future mode state and context snapshot as the source of truth when available.\n")
	sb.WriteString("Do not invent missing metrics; say when data is unavailable.\n\n")

	if state != nil {
		stateJSON, _ := json.Marshal(state)
		sb.WriteString(fmt.Sprintf("Future mode state: %s\n", stateJSON))
	} else {
		sb.WriteString("Future mode state: No future mode prediction has been generated yet.\n")
	}

	if snapshot == nil {
		snapshot = map[string]interface{}{}
	}
	snapshotJSON, _ := json.Marshal(snapshot)
	sb.WriteString(fmt.Sprintf("Client context snapshot: %s\n", snapshotJSON))

	if len(passages) > 0 {
		sb.WriteString("Relevant policy passages:\n")
		for i, p := range passages {
			sb.WriteString(fmt.Sprintf("[%d] %s\n", i+1, strings.TrimSpace(p.Text)))
		}
	}

	sb.WriteString(fmt.Sprintf("User question: %s\nAssistant response:", query))
	return sb.String()
}

func (s *ChatService) translate(ctx context.Context, text, from, to string) (string, error) {
	if from == to {
		return text, nil
	}
	var prompt string
	if to == LangEnglish {
		prompt = fmt.Sprintf("Translate the following text to English.\nReturn only the translated text, no comments.\n\nSource language: %s\nText: %s", languageNames[from], text)
	} else {
		prompt = fmt.Sprintf("Translate the following text from English to %s.\nKeep structure and bullet points.\nReturn only translated text.\n\nText: %s", languageNames[to], text)
	}
	return s.generate(ctx, prompt)
}

func (s *ChatService) generate(ctx context.Context, prompt string) (string, error) {
	out, err := s.llm.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAssistantUnavailable, err)
	}
	return strings.TrimSpace(out), nil
}
