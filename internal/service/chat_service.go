package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/ai"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/intent"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/repo"
)

// FallbackMessage is the single fixed answer for every no-answer condition:
// out-of-scope, privacy block, zero matches, refusal. Callers cannot tell
// these apart by message content, only by logs.
const FallbackMessage = "I'm sorry, I can only help with City of Rancho Cordova services and energy questions. Please contact City Hall at 916-851-8700 for anything else."

const noRecordsMessage = "I couldn't find any records matching your question."

const analyticsFailedMessage = "I wasn't able to run that data query. Please try rephrasing your question."

var refusalPhrases = []string{
	"i cannot answer",
	"i can't answer",
	"i cannot assist",
	"i can't assist",
	"i do not have that information",
	"i don't have that information",
	"i do not have enough information",
	"as an ai",
}

var (
	numericContentPattern   = regexp.MustCompile(`\d`)
	directoryContentPattern = regexp.MustCompile(`(?i)(phone|email|@|\(\d{3}\)\s*\d{3}-\d{4}|contact|hours|address)`)

	numericQuestionPattern = regexp.MustCompile(`(?i)\b(how much|how many|cost|fee|rate|price|amount)\b`)
	contactQuestionPattern = regexp.MustCompile(`(?i)\b(contact|phone|email|call|reach|office hours|address)\b`)
)

type ChatConfig struct {
	TopK          int
	MaxSources    int
	ContextBudget int
	MaxInputChars int
}

type KnowledgeSearcher interface {
	Search(ctx context.Context, embedding []float32, agentType model.AgentType, topK int) ([]model.RetrievalMatch, error)
}

type AnalyticsExecutor interface {
	Execute(ctx context.Context, sqlStr string) (*repo.AnalyticsResult, error)
}

type TicketGetter interface {
	GetByID(ctx context.Context, id string) (*model.Ticket, error)
}

type ChatService struct {
	client    *ai.Client
	knowledge KnowledgeSearcher
	analytics AnalyticsExecutor
	tickets   TicketGetter
	cfg       ChatConfig
}

func NewChatService(client *ai.Client, knowledge KnowledgeSearcher, analytics AnalyticsExecutor, tickets TicketGetter, cfg ChatConfig) *ChatService {
	if cfg.TopK <= 0 {
		cfg.TopK = 8
	}
	if cfg.MaxSources <= 0 {
		cfg.MaxSources = 3
	}
	if cfg.ContextBudget <= 0 {
		cfg.ContextBudget = 6000
	}
	return &ChatService{client: client, knowledge: knowledge, analytics: analytics, tickets: tickets, cfg: cfg}
}

// Chat runs one message through the full pipeline: classify, retrieve
// (vector or analytics), complete, extract, redact.
func (s *ChatService) Chat(ctx context.Context, query model.Query) (*model.ChatResponse, error) {
	message := strings.TrimSpace(query.Message)
	if message == "" {
		return nil, appErr.ErrInvalid
	}
	if s.cfg.MaxInputChars > 0 && len(message) > s.cfg.MaxInputChars {
		return nil, appErr.ErrInvalid
	}
	if !query.AgentType.Valid() {
		query.AgentType = model.AgentCustomer
	}

	res := intent.Classify(message)
	route := res.Route()
	logger := logutil.GetLogger(ctx).With(
		zap.String("agent_type", string(query.AgentType)),
		zap.String("intent", route.String()),
	)

	switch route {
	case intent.OutOfScope:
		// Short-circuits before any network call.
		logger.Info("message out of scope")
		return fallbackResponse(), nil
	case intent.Lookup:
		return s.ticketLookup(ctx, res.TicketID)
	case intent.Analytics:
		return s.analyticsPath(ctx, message, res.WantsChart)
	default:
		return s.vectorPath(ctx, query, res)
	}
}

func (s *ChatService) ticketLookup(ctx context.Context, ticketID string) (*model.ChatResponse, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return &model.ChatResponse{Response: noRecordsMessage, Sources: []model.Source{}}, nil
		}
		return nil, fmt.Errorf("ticket lookup: %w", err)
	}
	text := fmt.Sprintf("Your %s request (opened %s) is currently %s.", ticket.Category, ticket.CreatedAt, ticket.Status)
	if ticket.Status == "resolved" && ticket.ResolvedAt != "" {
		text = fmt.Sprintf("Your %s request (opened %s) was resolved on %s.", ticket.Category, ticket.CreatedAt, ticket.ResolvedAt)
	}
	return &model.ChatResponse{
		Response: RedactTicketIDs(text),
		Sources:  []model.Source{},
	}, nil
}

func (s *ChatService) analyticsPath(ctx context.Context, message string, wantsChart bool) (*model.ChatResponse, error) {
	logger := logutil.GetLogger(ctx)

	sqlPrompt := ai.NewPromptBuilder().
		WithInstructions(ai.InstructSQL).
		WithSchemaHints(ai.SchemaHints).
		WithQuestion(message).
		Build()
	rawSQL, err := s.client.Generate(ctx, sqlPrompt)
	if err != nil {
		logger.Error("sql generation failed", zap.Error(err))
		return &model.ChatResponse{Response: analyticsFailedMessage, Sources: []model.Source{}}, nil
	}
	sqlStr := ai.CleanGeneratedSQL(rawSQL)

	// Transport errors and logic errors are both terminal for this path:
	// report, never retry, never fall back to vector search.
	result, err := s.analytics.Execute(ctx, sqlStr)
	if err != nil {
		logger.Error("analytics query failed", zap.String("sql", sqlStr), zap.Error(err))
		return &model.ChatResponse{Response: analyticsFailedMessage, Sources: []model.Source{}}, nil
	}
	if len(result.Rows) == 0 {
		return &model.ChatResponse{Response: noRecordsMessage, Sources: []model.Source{}}, nil
	}

	instructions := []ai.Instruction{ai.InstructSummarizeRows}
	if wantsChart {
		instructions = append(instructions, ai.InstructChart)
	}
	answerPrompt := ai.NewPromptBuilder().
		WithInstructions(instructions...).
		WithContext(formatRows(result)).
		WithQuestion(message).
		Build()
	answer, err := s.client.Generate(ctx, answerPrompt)
	if err != nil {
		logger.Error("analytics summary failed", zap.Error(err))
		return &model.ChatResponse{Response: analyticsFailedMessage, Sources: []model.Source{}}, nil
	}

	extracted := Extract(answer)
	return &model.ChatResponse{
		Response:  extracted.Text,
		ChartData: extracted.Chart,
		Sources:   []model.Source{},
	}, nil
}

func (s *ChatService) vectorPath(ctx context.Context, query model.Query, res intent.Result) (*model.ChatResponse, error) {
	logger := logutil.GetLogger(ctx)

	embedding, err := s.client.Embed(ctx, query.Message, "RETRIEVAL_QUERY")
	if err != nil {
		if ai.IsModelLoading(err) {
			return nil, err
		}
		logger.Error("failed to embed message", zap.Error(err))
		return nil, fmt.Errorf("%w: embed: %v", appErr.ErrUnavailable, err)
	}

	matches, err := s.knowledge.Search(ctx, embedding, query.AgentType, s.cfg.TopK)
	if err != nil {
		logger.Error("vector search failed", zap.Error(err))
		return nil, fmt.Errorf("%w: vector search: %v", appErr.ErrUnavailable, err)
	}
	if len(matches) == 0 {
		logger.Info("no retrieval matches")
		return fallbackResponse(), nil
	}

	matches = postFilter(query.Message, matches)

	instructions := []ai.Instruction{ai.InstructGrounded}
	if res.WantsChart {
		instructions = append(instructions, ai.InstructChart)
	}
	prompt := ai.NewPromptBuilder().
		WithInstructions(instructions...).
		WithContext(buildContext(matches, s.cfg.ContextBudget)).
		WithQuestion(query.Message).
		Build()

	answer, err := s.client.Generate(ctx, prompt)
	if err != nil {
		logger.Error("completion failed", zap.Error(err))
		return nil, fmt.Errorf("%w: completion: %v", appErr.ErrUnavailable, err)
	}
	if isRefusal(answer) {
		logger.Info("model refused, using fallback")
		return fallbackResponse(), nil
	}

	extracted := Extract(answer)
	return &model.ChatResponse{
		Response:  extracted.Text,
		ChartData: extracted.Chart,
		Sources:   buildSources(matches, s.cfg.MaxSources),
	}, nil
}

// postFilter applies the secondary heuristics: when the question implies a
// numeric answer, prefer snippets containing numbers; when it implies a
// contact lookup, prefer snippets that look like directory entries. A filter
// that would empty the set is discarded; matches never disappear entirely
// through secondary filtering.
func postFilter(message string, matches []model.RetrievalMatch) []model.RetrievalMatch {
	var pattern *regexp.Regexp
	switch {
	case numericQuestionPattern.MatchString(message):
		pattern = numericContentPattern
	case contactQuestionPattern.MatchString(message):
		pattern = directoryContentPattern
	default:
		return matches
	}
	filtered := make([]model.RetrievalMatch, 0, len(matches))
	for _, m := range matches {
		if pattern.MatchString(m.Text) {
			filtered = append(filtered, m)
		}
	}
	if len(filtered) == 0 {
		return matches
	}
	return filtered
}

func buildContext(matches []model.RetrievalMatch, budget int) string {
	var b strings.Builder
	for _, m := range matches {
		text := strings.TrimSpace(m.Text)
		if text == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		if b.Len()+len(text) > budget {
			remain := budget - b.Len()
			// Never cut inside a multi-byte rune.
			for remain > 0 && !utf8.RuneStart(text[remain]) {
				remain--
			}
			if remain > 0 {
				b.WriteString(text[:remain])
			}
			break
		}
		b.WriteString(text)
	}
	return b.String()
}

func buildSources(matches []model.RetrievalMatch, limit int) []model.Source {
	sources := make([]model.Source, 0, limit)
	for _, m := range matches {
		if len(sources) >= limit {
			break
		}
		sources = append(sources, model.Source{Source: m.Source, Score: m.Score})
	}
	return sources
}

func formatRows(result *repo.AnalyticsResult) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, " | "))
	for _, row := range result.Rows {
		b.WriteByte('\n')
		for i, col := range result.Columns {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(fmt.Sprintf("%v", row[col]))
		}
	}
	return b.String()
}

func isRefusal(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func fallbackResponse() *model.ChatResponse {
	return &model.ChatResponse{
		Response: FallbackMessage,
		Sources:  []model.Source{},
	}
}
