package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatFragments_HeaderReportsCountAndError(t *testing.T) {
	resp := Response{TotalFound: 3, Error: "partial timeout"}
	fragments := FormatFragments(resp)
	require.Equal(t, "Found 3 results\npartial timeout", fragments[0])
}

func TestFormatFragments_DocumentLayout(t *testing.T) {
	resp := Response{
		TotalFound: 1,
		Groups: []Group{
			{Documents: []Document{
				{
					Title:        "**Example** Title",
					URL:          "https://example.com",
					SavedCopyURL: "https://cache.example.com",
					ExtendedText: "a summary",
					Passages:     []string{"first passage", "second passage"},
				},
			}},
		},
	}

	fragments := FormatFragments(resp)
	require.Len(t, fragments, 2)
	require.Contains(t, fragments[1], "# **[Example Title](https://example.com) ([cache](https://cache.example.com))**")
	require.Contains(t, fragments[1], "> a summary")
	require.Contains(t, fragments[1], "* first passage")
	require.Contains(t, fragments[1], "* second passage")
}

func TestFormatFragments_MultipleDocumentsJoinedByBlankLine(t *testing.T) {
	resp := Response{
		Groups: []Group{{Documents: []Document{
			{Title: "A", URL: "https://a.com"},
			{Title: "B", URL: "https://b.com"},
		}}},
	}
	fragments := FormatFragments(resp)
	require.Contains(t, fragments[1], "\n\n")
}

func TestFormatFragments_EmptyGroupProducesNoFragment(t *testing.T) {
	resp := Response{Groups: []Group{{}}}
	fragments := FormatFragments(resp)
	require.Len(t, fragments, 1)
}
