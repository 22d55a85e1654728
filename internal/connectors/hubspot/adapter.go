// Package hubspot provides a source adapter over the HubSpot CRM API.
// Tickets and deals become both searchable documents and structured
// rows; notes associated with tickets become threaded ticket replies.
package hubspot

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/duhman/volterra-knowledge-engine/internal/connectors"
	"github.com/duhman/volterra-knowledge-engine/internal/core/domain"
	"github.com/duhman/volterra-knowledge-engine/internal/core/ports/driven"
)

// Ensure Adapter implements the interfaces.
var (
	_ driven.SourceAdapter    = (*Adapter)(nil)
	_ driven.StructuredSource = (*Adapter)(nil)
)

var (
	ticketProperties = []string{"subject", "content", "hs_pipeline", "hs_pipeline_stage", "hs_ticket_priority", "hubspot_owner_id"}
	dealProperties   = []string{"dealname", "amount", "dealstage", "hubspot_owner_id", "closedate"}
	noteProperties   = []string{"hs_note_body", "hubspot_owner_id"}
)

// Adapter fetches tickets and deals from HubSpot.
type Adapter struct {
	connectors.Base

	token   string
	baseURL string
	client  *Client
}

// New creates a HubSpot adapter. Config keys: "token" (required
// private app token) and "base_url" (optional endpoint override).
func New(config map[string]string) *Adapter {
	return &Adapter{
		token:   config["token"],
		baseURL: config["base_url"],
	}
}

// Type returns the source type identifier.
func (a *Adapter) Type() string {
	return domain.SourceHubSpot
}

// IsConfigured reports whether a private app token is set.
func (a *Adapter) IsConfigured() bool {
	return a.token != ""
}

// Initialize creates the API client and verifies credentials.
func (a *Adapter) Initialize(ctx context.Context) error {
	return a.Init(ctx, func(ctx context.Context) error {
		if !a.IsConfigured() {
			return fmt.Errorf("%w: token is required", domain.ErrNotConfigured)
		}
		opts := []ClientOption{}
		if a.baseURL != "" {
			opts = append(opts, WithBaseURL(a.baseURL))
		}
		a.client = NewClient(a.token, opts...)
		return a.client.Ping(ctx)
	})
}

// ListDocuments returns tickets and deals rendered as text documents.
// SourcePath is "tickets/<id>" or "deals/<id>"; the cursor is the last
// returned path. Content is populated eagerly since the listing call
// already carries every property we render.
func (a *Adapter) ListDocuments(ctx context.Context, opts driven.ListOptions) ([]domain.SourceDocument, error) {
	if a.IsClosed() {
		return nil, domain.ErrAdapterClosed
	}
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	tickets, err := a.client.ListObjects(ctx, "tickets", ticketProperties, nil)
	if err != nil {
		return nil, err
	}
	deals, err := a.client.ListObjects(ctx, "deals", dealProperties, nil)
	if err != nil {
		return nil, err
	}

	all := make([]domain.SourceDocument, 0, len(tickets)+len(deals))
	for _, t := range tickets {
		all = append(all, ticketDocument(t))
	}
	for _, d := range deals {
		all = append(all, dealDocument(d))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].SourcePath < all[j].SourcePath })

	docs := make([]domain.SourceDocument, 0, len(all))
	for _, doc := range all {
		if opts.Cursor != "" && doc.SourcePath <= opts.Cursor {
			continue
		}
		docs = append(docs, doc)
		if opts.Limit > 0 && len(docs) >= opts.Limit {
			break
		}
	}
	return docs, nil
}

// Download returns the eagerly listed content, refetching the object
// only when a caller passes a document without it.
func (a *Adapter) Download(ctx context.Context, doc *domain.SourceDocument) ([]byte, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}
	if len(doc.Content) > 0 {
		return doc.Content, nil
	}

	objectType, id, ok := strings.Cut(doc.SourcePath, "/")
	if !ok {
		return nil, fmt.Errorf("%w: malformed source path %q", domain.ErrInvalidInput, doc.SourcePath)
	}
	switch objectType {
	case "tickets":
		obj, err := a.client.GetObject(ctx, "tickets", id, ticketProperties)
		if err != nil {
			return nil, err
		}
		return ticketDocument(*obj).Content, nil
	case "deals":
		obj, err := a.client.GetObject(ctx, "deals", id, dealProperties)
		if err != nil {
			return nil, err
		}
		return dealDocument(*obj).Content, nil
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedType, objectType)
	}
}

// ListRecords emits structured rows for the tickets, ticket_replies and
// deals tables.
func (a *Adapter) ListRecords(ctx context.Context) ([]driven.TableRecord, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	tickets, err := a.client.ListObjects(ctx, "tickets", ticketProperties, []string{"deals"})
	if err != nil {
		return nil, err
	}
	deals, err := a.client.ListObjects(ctx, "deals", dealProperties, []string{"companies"})
	if err != nil {
		return nil, err
	}
	notes, err := a.client.ListObjects(ctx, "notes", noteProperties, []string{"tickets"})
	if err != nil {
		return nil, err
	}

	var records []driven.TableRecord
	for _, t := range tickets {
		values := map[string]any{
			"id":         t.ID,
			"subject":    t.Properties["subject"],
			"status":     t.Properties["hs_pipeline_stage"],
			"pipeline":   t.Properties["hs_pipeline"],
			"priority":   t.Properties["hs_ticket_priority"],
			"owner":      t.Properties["hubspot_owner_id"],
			"created_at": t.CreatedAt.UTC().Format(time.RFC3339),
			"updated_at": t.UpdatedAt.UTC().Format(time.RFC3339),
		}
		if dealIDs := t.AssociatedIDs("deals"); len(dealIDs) > 0 {
			values["deal_id"] = dealIDs[0]
		}
		records = append(records, driven.TableRecord{Table: "tickets", Values: values})
	}

	for _, n := range notes {
		ticketIDs := n.AssociatedIDs("tickets")
		if len(ticketIDs) == 0 {
			continue
		}
		records = append(records, driven.TableRecord{
			Table: "ticket_replies",
			Values: map[string]any{
				"id":        n.ID,
				"ticket_id": ticketIDs[0],
				"author":    n.Properties["hubspot_owner_id"],
				"body":      n.Properties["hs_note_body"],
				"posted_at": n.CreatedAt.UTC().Format(time.RFC3339),
			},
		})
	}

	for _, d := range deals {
		amount, _ := strconv.ParseFloat(d.Properties["amount"], 64)
		values := map[string]any{
			"id":         d.ID,
			"name":       d.Properties["dealname"],
			"stage":      d.Properties["dealstage"],
			"amount":     amount,
			"owner":      d.Properties["hubspot_owner_id"],
			"created_at": d.CreatedAt.UTC().Format(time.RFC3339),
		}
		if closed := d.Properties["closedate"]; closed != "" {
			values["closed_at"] = closed
		}
		if companies := d.AssociatedIDs("companies"); len(companies) > 0 {
			values["company"] = companies[0]
		}
		records = append(records, driven.TableRecord{Table: "deals", Values: values})
	}

	return records, nil
}

// Close releases resources.
func (a *Adapter) Close() error {
	a.MarkClosed()
	return nil
}

func ticketDocument(t Object) domain.SourceDocument {
	subject := t.Properties["subject"]
	if subject == "" {
		subject = "Ticket " + t.ID
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(subject)
	b.WriteString("\n\n")
	if body := t.Properties["content"]; body != "" {
		b.WriteString(body)
		b.WriteString("\n")
	}

	return domain.SourceDocument{
		ID:         t.ID,
		Name:       subject,
		SourcePath: "tickets/" + t.ID,
		MIMEType:   "text/markdown",
		Content:    []byte(b.String()),
		Metadata: map[string]any{
			"partition": domain.PartitionTickets,
			"status":    t.Properties["hs_pipeline_stage"],
		},
	}
}

func dealDocument(d Object) domain.SourceDocument {
	name := d.Properties["dealname"]
	if name == "" {
		name = "Deal " + d.ID
	}

	var b strings.Builder
	b.WriteString("# ")
	b.WriteString(name)
	b.WriteString("\n\n")
	if stage := d.Properties["dealstage"]; stage != "" {
		b.WriteString("Stage: " + stage + "\n")
	}
	if amount := d.Properties["amount"]; amount != "" {
		b.WriteString("Amount: " + amount + "\n")
	}

	return domain.SourceDocument{
		ID:         d.ID,
		Name:       name,
		SourcePath: "deals/" + d.ID,
		MIMEType:   "text/markdown",
		Content:    []byte(b.String()),
		Metadata: map[string]any{
			"partition": domain.PartitionDeals,
			"stage":     d.Properties["dealstage"],
		},
	}
}
