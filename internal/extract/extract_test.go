package extract

import (
	"context"
	"strings"
	"testing"

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

func TestExtract_Listing(t *testing.T) {
	c := answering(`{
		"companies": [
			{"name": "X Trading", "website": "https://x.example", "phone": 9771445566, "email": null, "source_url": "https://x.example/contact"},
			{"name": "  ", "website": "https://ghost.example"},
			{"website": "https://nameless.example"},
			{"name": "Y Traders", "address": ["Thamel", "Kathmandu"], "description": "Cosmetics wholesaler"}
		],
		"next_page_url": "/list?page=2",
		"pagination_selector": "a.next"
	}`)

	got := New(c, 0).Extract(context.Background(), Input{URL: "https://dir.example/list", Content: "...", Query: "cosmetics"})

	require.Len(t, got.Companies, 2)
	assert.Equal(t, model.Company{Name: "X Trading", Website: "https://x.example", Phone: "9771445566"}, got.Companies[0])
	assert.Equal(t, "Thamel, Kathmandu", got.Companies[1].Address)
	assert.Equal(t, "/list?page=2", got.NextPageURL)
	assert.Equal(t, "a.next", got.PaginationSelector)
}

func TestExtract_EmptyNameDiscarded(t *testing.T) {
	c := answering(`{"companies":[{"name":""},{"name":"Z Co"}],"next_page_url":null}`)

	got := New(c, 0).Extract(context.Background(), Input{})
	require.Len(t, got.Companies, 1)
	assert.Equal(t, "Z Co", got.Companies[0].Name)
	assert.Empty(t, got.NextPageURL)
}

func TestExtract_FencedJSON(t *testing.T) {
	c := answering("```json\n{\"companies\":[{\"name\":\"A\"}]}\n```")
	got := New(c, 0).Extract(context.Background(), Input{})
	assert.Len(t, got.Companies, 1)
}

func TestExtract_FailClosed(t *testing.T) {
	tests := []struct {
		name string
		c    llm.Completer
	}{
		{"no completer", nil},
		{"unavailable", func() llm.Completer {
			c := &mockCompleter{}
			c.On("Complete", mock.Anything, mock.Anything).
				Return(nil, resilience.NewError(resilience.KindUnavailable, "extract.listing", assert.AnError))
			return c
		}()},
		{"timeout", func() llm.Completer {
			c := &mockCompleter{}
			c.On("Complete", mock.Anything, mock.Anything).Return(nil, context.DeadlineExceeded)
			return c
		}()},
		{"not json", answering("Sorry, I cannot help with that.")},
		{"array instead of object", answering(`[{"name":"A"}]`)},
		{"null", answering("null")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a *Adapter
			if tt.c == nil {
				a = New(nil, 0)
			} else {
				a = New(tt.c, 0)
			}
			got := a.Extract(context.Background(), Input{URL: "https://dir.example"})
			assert.NotNil(t, got.Companies)
			assert.Empty(t, got.Companies)
			assert.Empty(t, got.NextPageURL)
			assert.Empty(t, got.PaginationSelector)
		})
	}
}

func TestExtract_RequestShape(t *testing.T) {
	c := answering(`{"companies":[]}`)
	long := strings.Repeat("c", MaxPromptContent+500)
	New(c, 0).Extract(context.Background(), Input{
		URL:      "https://dir.example/list",
		Content:  long,
		Elements: `<a href="?page=2">Next</a>`,
		Query:    "cosmetics suppliers Nepal",
	})

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Equal(t, llm.TierAccurate, req.Tier)
	assert.Equal(t, "extract.listing", req.Op)
	assert.Contains(t, req.System, "next_page_url")
	assert.Contains(t, req.User, "User Query: cosmetics suppliers Nepal")
	assert.Contains(t, req.User, `<a href="?page=2">Next</a>`)
	assert.Contains(t, req.User, strings.Repeat("c", MaxPromptContent))
	assert.NotContains(t, req.User, strings.Repeat("c", MaxPromptContent+1))
}

func TestEnrich(t *testing.T) {
	c := answering(`{"companies":[
		{"name":"Acme Holdings","phone":"1"},
		{"name":"ACME Trading","email":"info@acme.example","website":"https://acme.example"}
	]}`)

	got, ok := New(c, 0).Enrich(context.Background(), model.Company{Name: "Acme Trading"}, "page text", "Nepal")
	require.True(t, ok)
	assert.Equal(t, "info@acme.example", got.Email)

	req := c.Calls[0].Arguments.Get(1).(llm.Request)
	assert.Equal(t, "extract.enrich", req.Op)
	assert.Contains(t, req.User, "Company: Acme Trading")
	assert.Contains(t, req.User, "Country: Nepal")
}

func TestEnrich_FailClosed(t *testing.T) {
	_, ok := New(nil, 0).Enrich(context.Background(), model.Company{Name: "A"}, "x", "")
	assert.False(t, ok)

	_, ok = New(answering("garbage"), 0).Enrich(context.Background(), model.Company{Name: "A"}, "x", "")
	assert.False(t, ok)

	_, ok = New(answering(`{"companies":[{"name":"Other"}]}`), 0).Enrich(context.Background(), model.Company{Name: "A Co"}, "x", "")
	assert.False(t, ok)

	c := &mockCompleter{}
	_, ok = New(c, 0).Enrich(context.Background(), model.Company{Name: "A"}, "  ", "")
	assert.False(t, ok)
	c.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything)
}

func TestBestMatch(t *testing.T) {
	records := []model.Company{
		{Name: "Acme Group Trading", Phone: "contains"},
		{Name: "acme trading", Phone: "name"},
		{Name: "Acme Trading", Website: "https://www.acme.example", Phone: "key"},
	}

	got, ok := bestMatch(model.Company{Name: "Acme Trading", Website: "acme.example"}, records)
	require.True(t, ok)
	assert.Equal(t, "key", got.Phone)

	got, ok = bestMatch(model.Company{Name: "ACME  Trading"}, records)
	require.True(t, ok)
	assert.Equal(t, "name", got.Phone)

	got, ok = bestMatch(model.Company{Name: "Group"}, records)
	require.True(t, ok)
	assert.Equal(t, "contains", got.Phone)

	_, ok = bestMatch(model.Company{Name: "Nobody"}, records)
	assert.False(t, ok)
}

func TestStringify(t *testing.T) {
	assert.Equal(t, "", stringify(nil))
	assert.Equal(t, "", stringify("null"))
	assert.Equal(t, "", stringify(" N/A "))
	assert.Equal(t, "true", stringify(true))
	assert.Equal(t, "a, b", stringify([]any{"a", nil, "b"}))
	assert.Equal(t, `{"city":"Kathmandu"}`, stringify(map[string]any{"city": "Kathmandu"}))
}
