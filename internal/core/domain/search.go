package domain

// Semantic search partitions. Each maps to one backing table with an
// embedded-content column.
const (
	PartitionDocuments     = "documents"
	PartitionConversations = "conversations"
	PartitionMessages      = "messages"
	PartitionTickets       = "tickets"
	PartitionDeals         = "deals"
)

// Partitions lists the semantic search partitions in stable order.
var Partitions = []string{
	PartitionDocuments,
	PartitionConversations,
	PartitionMessages,
	PartitionTickets,
	PartitionDeals,
}

// IsPartition reports whether name is a known search partition.
func IsPartition(name string) bool {
	for _, p := range Partitions {
		if p == name {
			return true
		}
	}
	return false
}

// SearchOptions configures a semantic search request.
type SearchOptions struct {
	// Partitions restricts the search to the named partitions.
	// Empty means all partitions.
	Partitions []string

	// MatchCount is the per-partition result ceiling. Handlers clamp
	// this into their declared bounds; zero means the default.
	MatchCount int
}

// Match is one semantic search hit.
type Match struct {
	// Partition is the logical partition the hit came from.
	Partition string

	// ID identifies the matched row (chunk, message, ticket...).
	ID string

	// Title is a human-readable label for the hit.
	Title string

	// Content is the matched text.
	Content string

	// Similarity is the cosine similarity in [0, 1].
	Similarity float64

	// Metadata carries partition-specific fields (source path,
	// channel, status...).
	Metadata map[string]any
}
