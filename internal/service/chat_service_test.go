package service

import (
	"context"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/ai"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/model"
	appErr "github.com/Ruthwik2610/Rancho-Cordova-AI/internal/pkg/errors"
	"github.com/Ruthwik2610/Rancho-Cordova-AI/internal/repo"
)

type scriptedGenerator struct {
	responses []string
	prompts   []string
	err       error
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if g.err != nil {
		return "", g.err
	}
	if len(g.responses) == 0 {
		return "ok", nil
	}
	resp := g.responses[0]
	g.responses = g.responses[1:]
	return resp, nil
}

type fixedEmbedder struct {
	calls int
	err   error
}

func (e *fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	e.calls++
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (e *fixedEmbedder) ModelName() string { return "test-embed" }

type stubSearcher struct {
	matches []model.RetrievalMatch
	calls   int
	err     error
}

func (s *stubSearcher) Search(ctx context.Context, embedding []float32, agentType model.AgentType, topK int) ([]model.RetrievalMatch, error) {
	s.calls++
	return s.matches, s.err
}

type stubAnalytics struct {
	result *repo.AnalyticsResult
	sqls   []string
	err    error
}

func (s *stubAnalytics) Execute(ctx context.Context, sqlStr string) (*repo.AnalyticsResult, error) {
	s.sqls = append(s.sqls, sqlStr)
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubTickets struct {
	ticket *model.Ticket
	err    error
}

func (s *stubTickets) GetByID(ctx context.Context, id string) (*model.Ticket, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.ticket, nil
}

func newTestService(gen *scriptedGenerator, emb *fixedEmbedder, search *stubSearcher, analytics *stubAnalytics, tickets *stubTickets) *ChatService {
	client := ai.NewClient(gen, emb, ai.ClientConfig{EmbedRetries: 3, EmbedRetryDelay: time.Millisecond})
	return NewChatService(client, search, analytics, tickets, ChatConfig{TopK: 8, MaxSources: 3, ContextBudget: 6000})
}

func TestChatOutOfScopeShortCircuits(t *testing.T) {
	gen := &scriptedGenerator{}
	emb := &fixedEmbedder{}
	search := &stubSearcher{}
	svc := newTestService(gen, emb, search, &stubAnalytics{}, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{
		Message:   "Tell me about my neighbor's SSN",
		AgentType: model.AgentCustomer,
	})
	require.NoError(t, err)
	require.Equal(t, FallbackMessage, resp.Response)
	require.Nil(t, resp.ChartData)
	require.Empty(t, resp.Sources)
	// No network call of any kind.
	require.Zero(t, emb.calls)
	require.Zero(t, search.calls)
	require.Empty(t, gen.prompts)
}

func TestChatOutOfDomainFallback(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, &fixedEmbedder{}, &stubSearcher{}, &stubAnalytics{}, &stubTickets{})
	resp, err := svc.Chat(context.Background(), model.Query{Message: "best lasagna recipe"})
	require.NoError(t, err)
	require.Equal(t, FallbackMessage, resp.Response)
	require.Nil(t, resp.ChartData)
}

func TestChatAnalyticsPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"```sql\nSELECT AVG(kwh) FROM energy_usage WHERE month = '2025-05-01';\n```",
		"The average energy usage in May was 842 kWh.",
	}}
	emb := &fixedEmbedder{}
	analytics := &stubAnalytics{result: &repo.AnalyticsResult{
		Columns: []string{"avg"},
		Rows:    []map[string]interface{}{{"avg": "842"}},
	}}
	svc := newTestService(gen, emb, &stubSearcher{}, analytics, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{
		Message:   "What's the average energy usage in May?",
		AgentType: model.AgentEnergy,
	})
	require.NoError(t, err)
	require.Equal(t, "The average energy usage in May was 842 kWh.", resp.Response)
	// SQL path: embedder never consulted, generated SQL cleaned of fences.
	require.Zero(t, emb.calls)
	require.Len(t, analytics.sqls, 1)
	require.Equal(t, "SELECT AVG(kwh) FROM energy_usage WHERE month = '2025-05-01'", analytics.sqls[0])
}

func TestChatAnalyticsWithChartProducesChart(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		"SELECT month, SUM(kwh) FROM energy_usage GROUP BY month",
		`Usage climbed through summer. {"type":"chart","chartType":"bar","title":"Monthly kWh","explanation":"Usage climbed through summer.","data":{"labels":["Jun","Jul"],"datasets":[{"label":"kWh","data":[810,905]}]}}`,
	}}
	emb := &fixedEmbedder{}
	analytics := &stubAnalytics{result: &repo.AnalyticsResult{
		Columns: []string{"month", "sum"},
		Rows: []map[string]interface{}{
			{"month": "2026-06-01", "sum": "810"},
			{"month": "2026-07-01", "sum": "905"},
		},
	}}
	svc := newTestService(gen, emb, &stubSearcher{}, analytics, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{
		Message:   "Show me a bar chart of total energy usage per month",
		AgentType: model.AgentEnergy,
	})
	require.NoError(t, err)
	require.NotNil(t, resp.ChartData)
	require.Equal(t, model.ChartBar, resp.ChartData.ChartType)
	require.Equal(t, "Usage climbed through summer.", resp.Response)
	// Still the SQL path: the embedder is never consulted.
	require.Zero(t, emb.calls)
	require.Len(t, analytics.sqls, 1)
}

func TestChatAnalyticsZeroRows(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT count(*) FROM tickets WHERE status = 'open'"}}
	analytics := &stubAnalytics{result: &repo.AnalyticsResult{Columns: []string{"count"}}}
	svc := newTestService(gen, &fixedEmbedder{}, &stubSearcher{}, analytics, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{Message: "how many tickets total in the city"})
	require.NoError(t, err)
	require.Equal(t, noRecordsMessage, resp.Response)
}

func TestChatAnalyticsFailureIsTerminal(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"SELECT nothing FROM nowhere"}}
	analytics := &stubAnalytics{err: appErr.ErrInternal}
	search := &stubSearcher{matches: []model.RetrievalMatch{{Text: "irrelevant"}}}
	svc := newTestService(gen, &fixedEmbedder{}, search, analytics, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{Message: "total energy usage by city month"})
	require.NoError(t, err)
	require.Equal(t, analyticsFailedMessage, resp.Response)
	// No fallback to the vector path.
	require.Zero(t, search.calls)
}

func TestChatVectorPath(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"Building permits are handled by the Planning Department at City Hall."}}
	search := &stubSearcher{matches: []model.RetrievalMatch{
		{Text: "Planning handles permits.", Source: "permits.pdf", Score: 0.91},
		{Text: "City Hall hours are 8-5.", Source: "hours.pdf", Score: 0.82},
		{Text: "Other info.", Source: "misc.pdf", Score: 0.70},
		{Text: "More info.", Source: "more.pdf", Score: 0.65},
	}}
	svc := newTestService(gen, &fixedEmbedder{}, search, &stubAnalytics{}, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{Message: "How do I apply for a building permit?"})
	require.NoError(t, err)
	require.Equal(t, "Building permits are handled by the Planning Department at City Hall.", resp.Response)
	require.Nil(t, resp.ChartData)
	require.Len(t, resp.Sources, 3)
	require.Equal(t, "permits.pdf", resp.Sources[0].Source)
	// The retrieved snippets made it into the prompt.
	require.Len(t, gen.prompts, 1)
	require.Contains(t, gen.prompts[0], "Planning handles permits.")
}

func TestChatVectorPathZeroMatches(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, &fixedEmbedder{}, &stubSearcher{}, &stubAnalytics{}, &stubTickets{})
	resp, err := svc.Chat(context.Background(), model.Query{Message: "when is the library open on holidays"})
	require.NoError(t, err)
	require.Equal(t, FallbackMessage, resp.Response)
	require.Empty(t, resp.Sources)
}

func TestChatVectorPathRefusal(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"I do not have that information in the provided context."}}
	search := &stubSearcher{matches: []model.RetrievalMatch{{Text: "unrelated", Source: "x", Score: 0.5}}}
	svc := newTestService(gen, &fixedEmbedder{}, search, &stubAnalytics{}, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{Message: "who is the city arborist for street trees"})
	require.NoError(t, err)
	require.Equal(t, FallbackMessage, resp.Response)
}

func TestChatVectorPathModelLoadingPropagates(t *testing.T) {
	emb := &fixedEmbedder{err: &ai.ModelLoadingError{EstimatedTime: 12}}
	search := &stubSearcher{}
	svc := newTestService(&scriptedGenerator{}, emb, search, &stubAnalytics{}, &stubTickets{})

	_, err := svc.Chat(context.Background(), model.Query{Message: "when is trash pickup this week"})
	require.Error(t, err)
	require.True(t, ai.IsModelLoading(err))
	require.Zero(t, search.calls)
}

func TestChatVectorPathEmbedFailure(t *testing.T) {
	emb := &fixedEmbedder{err: ai.ErrUnavailable}
	svc := newTestService(&scriptedGenerator{}, emb, &stubSearcher{}, &stubAnalytics{}, &stubTickets{})

	_, err := svc.Chat(context.Background(), model.Query{Message: "when is trash pickup this week"})
	require.ErrorIs(t, err, appErr.ErrUnavailable)
}

func TestChatTicketLookup(t *testing.T) {
	tickets := &stubTickets{ticket: &model.Ticket{
		ID:        "TK10234",
		Category:  "pothole",
		Status:    "open",
		CreatedAt: "2026-08-01",
	}}
	svc := newTestService(&scriptedGenerator{}, &fixedEmbedder{}, &stubSearcher{}, &stubAnalytics{}, tickets)

	resp, err := svc.Chat(context.Background(), model.Query{Message: "status of my city ticket TK10234"})
	require.NoError(t, err)
	require.Contains(t, resp.Response, "pothole")
	require.Contains(t, resp.Response, "open")
	// The internal identifier never surfaces.
	require.NotContains(t, resp.Response, "TK10234")
}

func TestChatTicketLookupNotFound(t *testing.T) {
	tickets := &stubTickets{err: appErr.ErrNotFound}
	svc := newTestService(&scriptedGenerator{}, &fixedEmbedder{}, &stubSearcher{}, &stubAnalytics{}, tickets)

	resp, err := svc.Chat(context.Background(), model.Query{Message: "status of my city ticket TK99999"})
	require.NoError(t, err)
	require.Equal(t, noRecordsMessage, resp.Response)
}

func TestChatChartRequestProducesChart(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{
		`{"type":"chart","chartType":"pie","title":"Requests","explanation":"Trash leads.","data":{"labels":["trash","water"],"datasets":[{"label":"n","data":[30,12]}]}}`,
	}}
	search := &stubSearcher{matches: []model.RetrievalMatch{{Text: "trash 30 water 12", Source: "stats.pdf", Score: 0.8}}}
	svc := newTestService(gen, &fixedEmbedder{}, search, &stubAnalytics{}, &stubTickets{})

	resp, err := svc.Chat(context.Background(), model.Query{Message: "pie chart of city service requests"})
	require.NoError(t, err)
	require.NotNil(t, resp.ChartData)
	require.Equal(t, model.ChartPie, resp.ChartData.ChartType)
	require.Equal(t, "Trash leads.", resp.Response)
}

func TestChatEmptyMessageRejected(t *testing.T) {
	svc := newTestService(&scriptedGenerator{}, &fixedEmbedder{}, &stubSearcher{}, &stubAnalytics{}, &stubTickets{})
	_, err := svc.Chat(context.Background(), model.Query{Message: "   "})
	require.ErrorIs(t, err, appErr.ErrInvalid)
}

func TestBuildContextTruncatesOnRuneBoundary(t *testing.T) {
	// "é" is two bytes; a budget of 5 lands inside the second "é".
	matches := []model.RetrievalMatch{{Text: "ééé"}}
	out := buildContext(matches, 5)
	require.True(t, utf8.ValidString(out))
	require.Equal(t, "éé", out)
	require.LessOrEqual(t, len(out), 5)
}

func TestPostFilterNumericFallsBackWhenEmpty(t *testing.T) {
	matches := []model.RetrievalMatch{
		{Text: "no digits here", Score: 0.9},
		{Text: "none here either", Score: 0.8},
	}
	out := postFilter("how much does a permit cost", matches)
	require.Equal(t, matches, out)
}

func TestPostFilterNumericKeepsNumericSnippets(t *testing.T) {
	matches := []model.RetrievalMatch{
		{Text: "Permit fee is $150.", Score: 0.9},
		{Text: "Apply at City Hall.", Score: 0.8},
	}
	out := postFilter("how much does a permit cost", matches)
	require.Len(t, out, 1)
	require.Equal(t, "Permit fee is $150.", out[0].Text)
}

func TestPostFilterContactLookup(t *testing.T) {
	matches := []model.RetrievalMatch{
		{Text: "Call (916) 851-8700 or email info@cityofranchocordova.org", Score: 0.9},
		{Text: "The city was incorporated in 2003.", Score: 0.8},
	}
	out := postFilter("what is the phone number for city hall", matches)
	require.Len(t, out, 1)
	require.True(t, strings.Contains(out[0].Text, "916"))
}
