// Package notion provides a source adapter over the Notion API.
// Pages discovered via workspace search become documents; their block
// trees are rendered to plain text, with child blocks (toggles, nested
// lists) flattened inline.
package notion

import (
	"context"
	"fmt"
	"strings"

	"github.com/jomei/notionapi"
	"golang.org/x/time/rate"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Ensure Adapter implements the interface.
var _ driven.SourceAdapter = (*Adapter)(nil)

const (
	// pageSize is the Notion API page size for search and block listing.
	pageSize = 100

	// requestsPerSecond matches Notion's documented average rate limit.
	requestsPerSecond = 3
)

// Adapter fetches pages from a Notion workspace.
type Adapter struct {
	connectors.Base

	token   string
	client  *notionapi.Client
	limiter *rate.Limiter
}

// New creates a Notion adapter. Config key: "token" (required
// integration token).
func New(config map[string]string) *Adapter {
	return &Adapter{
		token:   config["token"],
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
}

// Type returns the source type identifier.
func (a *Adapter) Type() string {
	return domain.SourceNotion
}

// IsConfigured reports whether an integration token is set.
func (a *Adapter) IsConfigured() bool {
	return a.token != ""
}

// Initialize creates the API client and verifies the token with a
// minimal search call.
func (a *Adapter) Initialize(ctx context.Context) error {
	return a.Init(ctx, func(ctx context.Context) error {
		if !a.IsConfigured() {
			return fmt.Errorf("%w: token is required", domain.ErrNotConfigured)
		}
		a.client = notionapi.NewClient(notionapi.Token(a.token))

		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		_, err := a.client.Search.Do(ctx, &notionapi.SearchRequest{
			Filter:   notionapi.SearchFilter{Value: "page", Property: "object"},
			PageSize: 1,
		})
		if err != nil {
			return domain.NewError(domain.KindSource, "verify token", err)
		}
		return nil
	})
}

// ListDocuments pages through workspace search results. The cursor is
// Notion's opaque search cursor.
func (a *Adapter) ListDocuments(ctx context.Context, opts driven.ListOptions) ([]domain.SourceDocument, error) {
	if a.IsClosed() {
		return nil, domain.ErrAdapterClosed
	}
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	var docs []domain.SourceDocument
	cursor := notionapi.Cursor(opts.Cursor)
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		resp, err := a.client.Search.Do(ctx, &notionapi.SearchRequest{
			Filter:      notionapi.SearchFilter{Value: "page", Property: "object"},
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return nil, domain.NewError(domain.KindSource, "search pages", err)
		}

		for _, result := range resp.Results {
			page, ok := result.(*notionapi.Page)
			if !ok {
				continue
			}
			id := string(page.ID)
			docs = append(docs, domain.SourceDocument{
				ID:         id,
				Name:       pageTitle(page),
				SourcePath: "notion/" + id,
				MIMEType:   "text/markdown",
				Metadata: map[string]any{
					"partition": domain.PartitionDocuments,
					"page_id":   id,
					"url":       page.URL,
				},
			})
			if opts.Limit > 0 && len(docs) >= opts.Limit {
				return docs, nil
			}
		}

		if !resp.HasMore {
			return docs, nil
		}
		cursor = resp.NextCursor
	}
}

// Download renders a page's block tree to plain text.
func (a *Adapter) Download(ctx context.Context, doc *domain.SourceDocument) ([]byte, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	pageID, _ := doc.Metadata["page_id"].(string)
	if pageID == "" {
		pageID = strings.TrimPrefix(doc.SourcePath, "notion/")
	}

	var b strings.Builder
	if doc.Name != "" {
		b.WriteString("# ")
		b.WriteString(doc.Name)
		b.WriteString("\n\n")
	}
	if err := a.renderChildren(ctx, notionapi.BlockID(pageID), &b, 0); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

// Close releases resources.
func (a *Adapter) Close() error {
	a.MarkClosed()
	return nil
}

// renderChildren fetches and renders all child blocks of a block,
// recursing into blocks that report children so nested content appears
// inline in document order.
func (a *Adapter) renderChildren(ctx context.Context, id notionapi.BlockID, b *strings.Builder, depth int) error {
	// Pathological nesting; real pages stay well under this.
	if depth > 16 {
		return nil
	}

	cursor := notionapi.Cursor("")
	for {
		if err := a.limiter.Wait(ctx); err != nil {
			return err
		}
		resp, err := a.client.Block.GetChildren(ctx, id, &notionapi.Pagination{
			StartCursor: cursor,
			PageSize:    pageSize,
		})
		if err != nil {
			return domain.NewError(domain.KindSource, "get block children", err).
				WithContext("block_id", string(id))
		}

		for _, block := range resp.Results {
			b.WriteString(renderBlock(block))
			if block.GetHasChildren() {
				if err := a.renderChildren(ctx, block.GetID(), b, depth+1); err != nil {
					return err
				}
			}
		}

		if !resp.HasMore {
			return nil
		}
		cursor = notionapi.Cursor(resp.NextCursor)
	}
}

// renderBlock converts one block to its text form. Unknown block types
// render as nothing.
func renderBlock(block notionapi.Block) string {
	switch v := block.(type) {
	case *notionapi.ParagraphBlock:
		return line(plainText(v.Paragraph.RichText))
	case *notionapi.Heading1Block:
		return heading(1, plainText(v.Heading1.RichText))
	case *notionapi.Heading2Block:
		return heading(2, plainText(v.Heading2.RichText))
	case *notionapi.Heading3Block:
		return heading(3, plainText(v.Heading3.RichText))
	case *notionapi.BulletedListItemBlock:
		return line("- " + plainText(v.BulletedListItem.RichText))
	case *notionapi.NumberedListItemBlock:
		return line("- " + plainText(v.NumberedListItem.RichText))
	case *notionapi.ToDoBlock:
		box := "[ ]"
		if v.ToDo.Checked {
			box = "[x]"
		}
		return line(box + " " + plainText(v.ToDo.RichText))
	case *notionapi.ToggleBlock:
		return line(plainText(v.Toggle.RichText))
	case *notionapi.QuoteBlock:
		return line("> " + plainText(v.Quote.RichText))
	case *notionapi.CalloutBlock:
		return line(plainText(v.Callout.RichText))
	case *notionapi.CodeBlock:
		return "```\n" + plainText(v.Code.RichText) + "\n```\n\n"
	default:
		return ""
	}
}

func plainText(rich []notionapi.RichText) string {
	var b strings.Builder
	for _, rt := range rich {
		b.WriteString(rt.PlainText)
	}
	return b.String()
}

func line(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return text + "\n\n"
}

func heading(level int, text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return strings.Repeat("#", level) + " " + text + "\n\n"
}

// pageTitle extracts the page title from its title property.
func pageTitle(page *notionapi.Page) string {
	for _, prop := range page.Properties {
		tp, ok := prop.(*notionapi.TitleProperty)
		if !ok {
			continue
		}
		if title := plainText(tp.Title); title != "" {
			return title
		}
	}
	return "Untitled"
}
