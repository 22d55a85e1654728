package notion

import (
	"context"
	"testing"

	"github.com/jomei/notionapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

type fakeSearch struct {
	notionapi.SearchService
	pages []notionapi.Object
}

func (f *fakeSearch) Do(_ context.Context, _ *notionapi.SearchRequest) (*notionapi.SearchResponse, error) {
	return &notionapi.SearchResponse{Results: f.pages, HasMore: false}, nil
}

type fakeBlocks struct {
	notionapi.BlockService
	children map[notionapi.BlockID][]notionapi.Block
}

func (f *fakeBlocks) GetChildren(_ context.Context, id notionapi.BlockID, _ *notionapi.Pagination) (*notionapi.GetChildrenResponse, error) {
	return &notionapi.GetChildrenResponse{Results: f.children[id], HasMore: false}, nil
}

func rich(text string) []notionapi.RichText {
	return []notionapi.RichText{{PlainText: text}}
}

func newTestAdapter(t *testing.T, search *fakeSearch, blocks *fakeBlocks) *Adapter {
	t.Helper()
	a := New(map[string]string{"token": "secret-token"})
	a.client = &notionapi.Client{Search: search, Block: blocks}
	require.NoError(t, a.Init(context.Background(), func(context.Context) error { return nil }))
	return a
}

func TestAdapter_IsConfigured(t *testing.T) {
	assert.False(t, New(nil).IsConfigured())
	assert.True(t, New(map[string]string{"token": "x"}).IsConfigured())
}

func TestAdapter_Initialize_NoToken(t *testing.T) {
	a := New(nil)

	err := a.Initialize(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotConfigured)
	assert.False(t, a.IsInitialized())
}

func TestAdapter_ListDocuments(t *testing.T) {
	search := &fakeSearch{pages: []notionapi.Object{
		&notionapi.Page{
			ID:  "page-1",
			URL: "https://notion.so/page-1",
			Properties: notionapi.Properties{
				"title": &notionapi.TitleProperty{Title: rich("Runbook")},
			},
		},
		&notionapi.Page{ID: "page-2", Properties: notionapi.Properties{}},
	}}
	a := newTestAdapter(t, search, &fakeBlocks{})

	docs, err := a.ListDocuments(context.Background(), driven.ListOptions{})
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "notion/page-1", docs[0].SourcePath)
	assert.Equal(t, "Runbook", docs[0].Name)
	assert.Equal(t, domain.PartitionDocuments, docs[0].Metadata["partition"])
	assert.Equal(t, "https://notion.so/page-1", docs[0].Metadata["url"])
	assert.Equal(t, "Untitled", docs[1].Name)
}

func TestAdapter_Download_FlattensChildrenInline(t *testing.T) {
	blocks := &fakeBlocks{children: map[notionapi.BlockID][]notionapi.Block{
		"page-1": {
			&notionapi.Heading1Block{Heading1: notionapi.Heading{RichText: rich("Setup")}},
			&notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: rich("Install the CLI.")}},
			&notionapi.ToggleBlock{
				BasicBlock: notionapi.BasicBlock{ID: "toggle-1", HasChildren: true},
				Toggle:     notionapi.Toggle{RichText: rich("Advanced options")},
			},
		},
		"toggle-1": {
			&notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: rich("Set the flag.")}},
		},
	}}
	a := newTestAdapter(t, &fakeSearch{}, blocks)

	doc := domain.SourceDocument{
		Name:       "Runbook",
		SourcePath: "notion/page-1",
		Metadata:   map[string]any{"page_id": "page-1"},
	}
	data, err := a.Download(context.Background(), &doc)
	require.NoError(t, err)

	text := string(data)
	assert.Contains(t, text, "# Runbook\n\n")
	assert.Contains(t, text, "# Setup\n\n")
	assert.Contains(t, text, "Install the CLI.\n\n")
	// Toggle children appear inline right after the toggle text.
	assert.Contains(t, text, "Advanced options\n\n- Set the flag.\n\n")
}

func TestAdapter_ListDocuments_RequiresInitialize(t *testing.T) {
	a := New(map[string]string{"token": "x"})

	_, err := a.ListDocuments(context.Background(), driven.ListOptions{})
	assert.ErrorIs(t, err, domain.ErrNotInitialized)
}

func TestRenderBlock(t *testing.T) {
	tests := []struct {
		name  string
		block notionapi.Block
		want  string
	}{
		{"paragraph", &notionapi.ParagraphBlock{Paragraph: notionapi.Paragraph{RichText: rich("hello")}}, "hello\n\n"},
		{"heading2", &notionapi.Heading2Block{Heading2: notionapi.Heading{RichText: rich("Usage")}}, "## Usage\n\n"},
		{"bullet", &notionapi.BulletedListItemBlock{BulletedListItem: notionapi.ListItem{RichText: rich("item")}}, "- item\n\n"},
		{"todo checked", &notionapi.ToDoBlock{ToDo: notionapi.ToDo{RichText: rich("ship it"), Checked: true}}, "[x] ship it\n\n"},
		{"quote", &notionapi.QuoteBlock{Quote: notionapi.Quote{RichText: rich("wise words")}}, "> wise words\n\n"},
		{"code", &notionapi.CodeBlock{Code: notionapi.Code{RichText: rich("x := 1")}}, "```\nx := 1\n```\n\n"},
		{"empty paragraph", &notionapi.ParagraphBlock{}, ""},
		{"unknown", &notionapi.DividerBlock{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renderBlock(tt.block))
		})
	}
}
