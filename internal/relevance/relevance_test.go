package relevance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/company-finder/internal/llm"
	"github.com/sells-group/company-finder/internal/model"
	"github.com/sells-group/company-finder/internal/resilience"
)

type mockCompleter struct {
	mock.Mock
}

func (m *mockCompleter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*llm.Response), args.Error(1)
}

func (m *mockCompleter) Name() string { return "mock" }

func answering(text string) *mockCompleter {
	c := &mockCompleter{}
	c.On("Complete", mock.Anything, mock.Anything).Return(&llm.Response{Text: text}, nil)
	return c
}

var candidates = []model.Candidate{
	{URL: "https://dir.example/np/cosmetics", Title: "Cosmetics suppliers in Nepal", Snippet: "List of suppliers"},
	{URL: "https://blog.example/why-cosmetics", Title: "Why cosmetics matter"},
	{URL: "https://b2b.example/nepal/beauty", Title: "Beauty B2B", Content: "Companies: ..."},
}

func TestFilter_Empty(t *testing.T) {
	c := &mockCompleter{}
	got := New(c, 0).Filter(context.Background(), nil, "q")
	assert.NotNil(t, got)
	assert.Empty(t, got)
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestFilter_SelectsInReturnedOrder(t *testing.T) {
	got := New(answering("[2, 0]"), 0).Filter(context.Background(), candidates, "cosmetics suppliers Nepal")
	assert.Equal(t, []string{"https://b2b.example/nepal/beauty", "https://dir.example/np/cosmetics"}, got)
}

func TestFilter_AcceptsNothing(t *testing.T) {
	got := New(answering("[]"), 0).Filter(context.Background(), candidates, "q")
	assert.Empty(t, got)
}

func TestFilter_DiscardsInvalidEntries(t *testing.T) {
	got := New(answering(`[0, 7, -1, "1", 2.5, null, true, 0, 2]`), 0).Filter(context.Background(), candidates, "q")
	assert.Equal(t, []string{"https://dir.example/np/cosmetics", "https://b2b.example/nepal/beauty"}, got)
}

func TestFilter_FencedArray(t *testing.T) {
	got := New(answering("```json\n[1]\n```"), 0).Filter(context.Background(), candidates, "q")
	assert.Equal(t, []string{"https://blog.example/why-cosmetics"}, got)
}

func TestFilter_FailOpen(t *testing.T) {
	all := []string{
		"https://dir.example/np/cosmetics",
		"https://blog.example/why-cosmetics",
		"https://b2b.example/nepal/beauty",
	}

	t.Run("no completer", func(t *testing.T) {
		assert.Equal(t, all, New(nil, 0).Filter(context.Background(), candidates, "q"))
	})
	t.Run("unavailable", func(t *testing.T) {
		c := &mockCompleter{}
		c.On("Complete", mock.Anything, mock.Anything).
			Return(nil, resilience.NewError(resilience.KindUnavailable, "relevance.classify", assert.AnError))
		assert.Equal(t, all, New(c, 0).Filter(context.Background(), candidates, "q"))
	})
	t.Run("timeout", func(t *testing.T) {
		c := &mockCompleter{}
		c.On("Complete", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
		assert.Equal(t, all, New(c, 0).Filter(context.Background(), candidates, "q"))
	})
	for _, text := range []string{"I think 0 and 2", `{"relevant": "yes"}`, "null", "[0, 2"} {
		t.Run("malformed "+text, func(t *testing.T) {
			assert.Equal(t, all, New(answering(text), 0).Filter(context.Background(), candidates, "q"))
		})
	}
}

func TestFilter_RequestShape(t *testing.T) {
	c := answering("[0]")
	New(c, time.Second).Filter(context.Background(), candidates, "cosmetics suppliers Nepal")

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Equal(t, llm.TierFast, req.Tier)
	assert.Equal(t, "relevance.classify", req.Op)
	assert.Contains(t, req.System, "JSON array")
	assert.Contains(t, req.User, "User Query: cosmetics suppliers Nepal")

	ctx := c.Calls[0].Arguments.Get(0).(context.Context)
	deadline, ok := ctx.Deadline()
	require.True(t, ok)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)
}

func TestBuildPrompt(t *testing.T) {
	long := strings.Repeat("x", 400)
	p := BuildPrompt([]model.Candidate{
		{URL: "https://a.example", Title: "A", Snippet: "snip", Content: long},
		{URL: "https://b.example", Snippet: "only snippet"},
		{URL: "https://c.example"},
	}, "q")

	assert.Contains(t, p, "0. URL: https://a.example\n   Title: A\n   Snippet: "+strings.Repeat("x", 300)+"\n")
	assert.NotContains(t, p, strings.Repeat("x", 301))
	assert.Contains(t, p, "1. URL: https://b.example\n   Title: No title\n   Snippet: only snippet")
	assert.Contains(t, p, "2. URL: https://c.example\n   Title: No title\n   Snippet: No snippet available")
}
