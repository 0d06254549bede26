package domain

// ACLAPIVersion is the earliest API version that supports permission
// filtering. Enabling ACL mode with an older version is a configuration
// error, not something to discover from a remote rejection.
const ACLAPIVersion = "2025-11-01-preview"

// Configuration holds the environment-sourced settings for one process
// invocation. It is constructed once by the config resolver and never
// mutated afterwards.
type Configuration struct {
	// SearchEndpoint is the base URL of the search service.
	SearchEndpoint string

	// APIKey is the service-level admin key. It authenticates every
	// resource and query call this process makes.
	APIKey string

	// APIVersion is the resource API version sent with every request.
	APIVersion string

	// ConnectionString is the SharePoint application connection string
	// referenced by the data source definition.
	ConnectionString string

	// ContainerName selects the SharePoint container mode (e.g. "useQuery").
	ContainerName string

	// ContainerQuery narrows the container, e.g.
	// "includeLibrariesInSite=https://contoso.sharepoint.com/sites/Docs".
	ContainerQuery string

	// AdditionalColumns lists custom SharePoint columns to ingest and index.
	AdditionalColumns []string

	// EnableACL turns on permission-filtered indexing and querying.
	// The mode is fixed at index creation time; flipping it requires
	// deleting and recreating the index.
	EnableACL bool

	// ResourcePrefix is prepended to every derived resource name.
	ResourcePrefix string

	// Embedding model settings (vectorizer and embedding skill).
	EmbeddingEndpoint   string
	EmbeddingKey        string
	EmbeddingDeployment string
	EmbeddingModel      string
	EmbeddingDimensions int

	// Chat model settings. Used for answer synthesis, and for image
	// verbalization when ACL mode is off.
	ChatEndpoint   string
	ChatKey        string
	ChatDeployment string
	ChatModel      string

	// ImageVerbalization controls the image-description skill.
	ImageVerbalization ImageVerbalizationMode

	// KnowledgeBaseName overrides the derived knowledge base name.
	KnowledgeBaseName string

	// Identity provider settings for the device-code flow.
	TenantID string
	ClientID string
}

// Derived resource names. Identity of every remote resource is its
// "{prefix}-{kind}" name.

// DataSourceName returns the data source resource name.
func (c *Configuration) DataSourceName() string { return c.ResourcePrefix + "-datasource" }

// IndexName returns the index resource name.
func (c *Configuration) IndexName() string { return c.ResourcePrefix + "-index" }

// SkillsetName returns the skillset resource name.
func (c *Configuration) SkillsetName() string { return c.ResourcePrefix + "-skillset" }

// IndexerName returns the indexer resource name.
func (c *Configuration) IndexerName() string { return c.ResourcePrefix + "-indexer" }

// KnowledgeSourceName returns the knowledge source resource name.
func (c *Configuration) KnowledgeSourceName() string { return c.ResourcePrefix + "-ks" }

// KBName returns the knowledge base name, honouring the override.
func (c *Configuration) KBName() string {
	if c.KnowledgeBaseName != "" {
		return c.KnowledgeBaseName
	}
	return c.ResourcePrefix + "-kb"
}

// ImageVerbalizationMode selects how the image-description skill is added
// to the enrichment pipeline.
type ImageVerbalizationMode string

// Image verbalization modes. Auto enables the skill whenever a
// chat-capable deployment is configured and ACL mode is off. On demands
// the skill; combined with ACL mode that demand is unsatisfiable because
// the remote service rejects the chat completion skill on ACL-enabled
// pipelines, and the builders fail with a ModeConflictError.
const (
	VerbalizeAuto ImageVerbalizationMode = "auto"
	VerbalizeOn   ImageVerbalizationMode = "on"
	VerbalizeOff  ImageVerbalizationMode = "off"
)

// ChatConfigured reports whether a chat-capable deployment is available.
func (c *Configuration) ChatConfigured() bool {
	return c.ChatEndpoint != "" && c.ChatKey != "" && c.ChatDeployment != ""
}

// VerbalizeImages reports whether the pipeline should describe embedded
// images with the chat model. The On-with-ACL conflict is not resolved
// here; the schema builders reject it explicitly.
func (c *Configuration) VerbalizeImages() bool {
	switch c.ImageVerbalization {
	case VerbalizeOn:
		return c.ChatConfigured()
	case VerbalizeOff:
		return false
	default:
		return c.ChatConfigured() && !c.EnableACL
	}
}
