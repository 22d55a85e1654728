// Package slackexport provides a source adapter over a Slack workspace
// export directory: one subdirectory per channel, one JSON file per
// day, each holding an array of messages.
package slackexport

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
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

// exportMessage is the subset of Slack's export message format we read.
type exportMessage struct {
	Type     string `json:"type"`
	User     string `json:"user"`
	Text     string `json:"text"`
	TS       string `json:"ts"`
	ThreadTS string `json:"thread_ts,omitempty"`
}

// Adapter reads a Slack export directory.
type Adapter struct {
	connectors.Base

	root string
}

// New creates a Slack export adapter. Config key: "path" (required
// export root directory).
func New(config map[string]string) *Adapter {
	return &Adapter{root: config["path"]}
}

// Type returns the source type identifier.
func (a *Adapter) Type() string {
	return domain.SourceSlack
}

// IsConfigured reports whether an export path is set.
func (a *Adapter) IsConfigured() bool {
	return a.root != ""
}

// Initialize verifies the export directory exists.
func (a *Adapter) Initialize(ctx context.Context) error {
	return a.Init(ctx, func(context.Context) error {
		if !a.IsConfigured() {
			return fmt.Errorf("%w: path is required", domain.ErrNotConfigured)
		}
		info, err := os.Stat(a.root)
		if err != nil {
			return domain.NewError(domain.KindSource, "stat export root", err).
				WithContext("path", a.root)
		}
		if !info.IsDir() {
			return fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, a.root)
		}
		return nil
	})
}

// ListDocuments returns two granularities of document: one per
// channel-day export file ("<channel>/<date>", conversations
// partition) and one per thread with replies
// ("<channel>/threads/<thread_ts>", messages partition). Day digests
// answer broad "what happened" queries; thread documents give precise
// matches for specific discussions. The cursor is the last returned
// path.
func (a *Adapter) ListDocuments(ctx context.Context, opts driven.ListOptions) ([]domain.SourceDocument, error) {
	if a.IsClosed() {
		return nil, domain.ErrAdapterClosed
	}
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	files, err := a.exportFiles()
	if err != nil {
		return nil, err
	}

	var all []domain.SourceDocument
	seenChannels := make(map[string]bool)
	for _, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		all = append(all, domain.SourceDocument{
			ID:         f.channel + "/" + f.date,
			Name:       "#" + f.channel + " " + f.date,
			SourcePath: f.channel + "/" + f.date,
			MIMEType:   "application/json",
			Metadata: map[string]any{
				"partition": domain.PartitionConversations,
				"channel":   f.channel,
				"date":      f.date,
				"file":      f.path,
			},
		})

		if seenChannels[f.channel] {
			continue
		}
		seenChannels[f.channel] = true
		threads, err := a.channelThreads(f.channel, files)
		if err != nil {
			return nil, err
		}
		for ts, thread := range threads {
			if len(thread) < 2 {
				continue
			}
			sourcePath := f.channel + "/threads/" + ts
			all = append(all, domain.SourceDocument{
				ID:         sourcePath,
				Name:       "#" + f.channel + " thread " + ts,
				SourcePath: sourcePath,
				MIMEType:   "application/json",
				Metadata: map[string]any{
					"partition": domain.PartitionMessages,
					"channel":   f.channel,
					"thread_ts": ts,
				},
			})
		}
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

// Download renders a document's messages as chronological
// "author: text" lines suitable for chunking and embedding.
func (a *Adapter) Download(_ context.Context, doc *domain.SourceDocument) ([]byte, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	if ts, ok := doc.Metadata["thread_ts"].(string); ok && ts != "" {
		channel, _ := doc.Metadata["channel"].(string)
		return a.downloadThread(channel, ts)
	}
	if channel, ts, ok := parseThreadPath(doc.SourcePath); ok {
		return a.downloadThread(channel, ts)
	}

	path, _ := doc.Metadata["file"].(string)
	if path == "" {
		parts := strings.SplitN(doc.SourcePath, "/", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: malformed source path %q", domain.ErrInvalidInput, doc.SourcePath)
		}
		path = filepath.Join(a.root, parts[0], parts[1]+".json")
	}

	messages, err := readMessages(path)
	if err != nil {
		return nil, err
	}
	return renderMessages(messages), nil
}

// downloadThread renders one thread, scanning every day file of the
// channel since long threads span export files.
func (a *Adapter) downloadThread(channel, ts string) ([]byte, error) {
	files, err := a.exportFiles()
	if err != nil {
		return nil, err
	}
	threads, err := a.channelThreads(channel, files)
	if err != nil {
		return nil, err
	}
	thread, ok := threads[ts]
	if !ok {
		return nil, fmt.Errorf("%w: thread %s/%s", domain.ErrNotFound, channel, ts)
	}
	return renderMessages(thread), nil
}

// channelThreads groups a channel's messages by thread timestamp.
// Standalone messages form singleton threads keyed by their own ts.
func (a *Adapter) channelThreads(channel string, files []exportFile) (map[string][]exportMessage, error) {
	threads := make(map[string][]exportMessage)
	for _, f := range files {
		if f.channel != channel {
			continue
		}
		messages, err := readMessages(f.path)
		if err != nil {
			return nil, err
		}
		for _, m := range messages {
			if m.Type != "message" || m.TS == "" {
				continue
			}
			ts := m.ThreadTS
			if ts == "" {
				ts = m.TS
			}
			threads[ts] = append(threads[ts], m)
		}
	}
	for _, thread := range threads {
		sort.Slice(thread, func(i, j int) bool { return thread[i].TS < thread[j].TS })
	}
	return threads, nil
}

func parseThreadPath(sourcePath string) (channel, ts string, ok bool) {
	parts := strings.Split(sourcePath, "/")
	if len(parts) == 3 && parts[1] == "threads" {
		return parts[0], parts[2], true
	}
	return "", "", false
}

func renderMessages(messages []exportMessage) []byte {
	var b strings.Builder
	for _, m := range messages {
		if m.Text == "" {
			continue
		}
		b.WriteString(m.User)
		b.WriteString(": ")
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	return []byte(b.String())
}

// ListRecords emits structured rows for the conversations and messages
// tables: one conversation per thread, one message row per message.
func (a *Adapter) ListRecords(ctx context.Context) ([]driven.TableRecord, error) {
	if !a.IsInitialized() {
		return nil, domain.ErrNotInitialized
	}

	files, err := a.exportFiles()
	if err != nil {
		return nil, err
	}

	var records []driven.TableRecord
	threadCounts := make(map[string]int)
	threadRecord := make(map[string]int) // thread id -> index into records

	for _, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		messages, err := readMessages(f.path)
		if err != nil {
			return nil, err
		}

		for _, m := range messages {
			if m.Type != "message" || m.TS == "" {
				continue
			}
			threadTS := m.ThreadTS
			if threadTS == "" {
				threadTS = m.TS
			}
			conversationID := f.channel + "/" + threadTS

			// The parent message normally opens the thread. When the
			// export lacks the parent (deleted, or cut off by retention),
			// the first reply seen stands in, so every message row has a
			// matching conversation row.
			if _, seen := threadRecord[conversationID]; !seen {
				threadRecord[conversationID] = len(records)
				records = append(records, driven.TableRecord{
					Table: "conversations",
					Values: map[string]any{
						"id":         conversationID,
						"channel":    f.channel,
						"subject":    subjectFrom(m.Text),
						"status":     "exported",
						"started_at": tsToTime(threadTS).Format(time.RFC3339),
					},
				})
			}
			threadCounts[conversationID]++

			records = append(records, driven.TableRecord{
				Table: "messages",
				Values: map[string]any{
					"id":              f.channel + "/" + m.TS,
					"conversation_id": conversationID,
					"channel":         f.channel,
					"thread_ts":       threadTS,
					"author":          m.User,
					"text":            m.Text,
					"posted_at":       tsToTime(m.TS).Format(time.RFC3339),
				},
			})
		}
	}

	// Stamp the per-thread message counts on the conversation rows.
	for id, idx := range threadRecord {
		records[idx].Values["message_count"] = threadCounts[id]
	}
	return records, nil
}

// Close releases resources.
func (a *Adapter) Close() error {
	a.MarkClosed()
	return nil
}

type exportFile struct {
	channel string
	date    string
	path    string
}

// exportFiles lists channel-day JSON files sorted by channel then date.
func (a *Adapter) exportFiles() ([]exportFile, error) {
	entries, err := os.ReadDir(a.root)
	if err != nil {
		return nil, domain.NewError(domain.KindSource, "read export root", err).
			WithContext("path", a.root)
	}

	var files []exportFile
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		channel := entry.Name()
		dayFiles, err := os.ReadDir(filepath.Join(a.root, channel))
		if err != nil {
			return nil, domain.NewError(domain.KindSource, "read channel dir", err).
				WithContext("channel", channel)
		}
		for _, df := range dayFiles {
			name := df.Name()
			if df.IsDir() || !strings.HasSuffix(name, ".json") {
				continue
			}
			files = append(files, exportFile{
				channel: channel,
				date:    strings.TrimSuffix(name, ".json"),
				path:    filepath.Join(a.root, channel, name),
			})
		}
	}
	sort.Slice(files, func(i, j int) bool {
		if files[i].channel != files[j].channel {
			return files[i].channel < files[j].channel
		}
		return files[i].date < files[j].date
	})
	return files, nil
}

func readMessages(path string) ([]exportMessage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewError(domain.KindSource, "read export file", err).
			WithContext("file", path)
	}
	var messages []exportMessage
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, domain.NewError(domain.KindParsing, "decode export file", err).
			WithContext("file", path)
	}
	// Export files are usually chronological already; make it a guarantee.
	sort.Slice(messages, func(i, j int) bool { return messages[i].TS < messages[j].TS })
	return messages, nil
}

// tsToTime converts a Slack "seconds.micros" timestamp.
func tsToTime(ts string) time.Time {
	parts := strings.SplitN(ts, ".", 2)
	secs, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(secs, 0).UTC()
}

// subjectFrom derives a conversation subject from the opening message.
func subjectFrom(text string) string {
	text = strings.TrimSpace(strings.ReplaceAll(text, "\n", " "))
	const maxSubject = 80
	if len(text) > maxSubject {
		return text[:maxSubject] + "…"
	}
	return text
}
