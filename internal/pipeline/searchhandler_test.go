package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/barbashov/chatguard/internal/domain"
	"github.com/barbashov/chatguard/internal/search"
)

type fakeSearchClient struct {
	resp search.Response
	err  error
}

func (f *fakeSearchClient) Search(context.Context, string) (search.Response, error) {
	return f.resp, f.err
}

func TestSearchCommand_UsageOnEmptyQuery(t *testing.T) {
	adapter := newFakeCommandAdapter()
	h := NewSearchCommandHandler(&fakeSearchClient{}, adapter)

	result, err := h.Handle(context.Background(), domain.Envelope{ChatID: 1, UserID: 1, Text: "/search"})
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.Len(t, adapter.sent, 1)
	require.Contains(t, adapter.sent[0], "Usage")
}

func TestSearchCommand_SendsFormattedFragments(t *testing.T) {
	adapter := newFakeCommandAdapter()
	client := &fakeSearchClient{resp: search.Response{TotalFound: 1, Groups: []search.Group{{Documents: []search.Document{{URL: "https://example.com", Title: "Example"}}}}}}
	h := NewSearchCommandHandler(client, adapter)

	result, err := h.Handle(context.Background(), domain.Envelope{ChatID: 1, UserID: 1, Text: "/search widgets"})
	require.NoError(t, err)
	require.Equal(t, ResultFinal, result)
	require.NotEmpty(t, adapter.sent)
}

func TestSearchCommand_IgnoresUnrelatedText(t *testing.T) {
	adapter := newFakeCommandAdapter()
	h := NewSearchCommandHandler(&fakeSearchClient{}, adapter)

	result, err := h.Handle(context.Background(), domain.Envelope{ChatID: 1, UserID: 1, Text: "hello"})
	require.NoError(t, err)
	require.Equal(t, ResultNext, result)
	require.Empty(t, adapter.sent)
}
