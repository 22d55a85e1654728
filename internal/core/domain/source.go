package domain

// Source type identifiers for the built-in adapters.
const (
	SourceFilesystem = "filesystem"
	SourceNotion     = "notion"
	SourceSlack      = "slack"
	SourceHubSpot    = "hubspot"
)

// Source is a configured instance of a source adapter.
type Source struct {
	// ID is the unique identifier for this source configuration.
	ID string

	// Type is the adapter type (filesystem, notion, slack, hubspot).
	Type string

	// Name is the user-facing label.
	Name string

	// Config contains adapter-specific settings (paths, tokens,
	// workspace identifiers).
	Config map[string]string

	// Enabled controls whether the ingestor includes this source.
	Enabled bool
}
