package domain

// ResourceKind identifies one remote resource type in the pipeline chain.
type ResourceKind string

// Resource kinds, in dependency order.
const (
	KindDataSource      ResourceKind = "datasource"
	KindIndex           ResourceKind = "index"
	KindSkillset        ResourceKind = "skillset"
	KindIndexer         ResourceKind = "indexer"
	KindKnowledgeSource ResourceKind = "knowledgesource"
	KindKnowledgeBase   ResourceKind = "knowledgebase"
)

// ApplyOrder is the mandatory creation order: each resource may reference
// only resources earlier in the list. Deletion proceeds in reverse so a
// resource is never removed while a dependent still references it.
var ApplyOrder = []ResourceKind{
	KindDataSource,
	KindIndex,
	KindSkillset,
	KindIndexer,
	KindKnowledgeSource,
	KindKnowledgeBase,
}

// Collection returns the REST collection segment for the kind.
func (k ResourceKind) Collection() string {
	switch k {
	case KindDataSource:
		return "datasources"
	case KindIndex:
		return "indexes"
	case KindSkillset:
		return "skillsets"
	case KindIndexer:
		return "indexers"
	case KindKnowledgeSource:
		return "knowledgesources"
	case KindKnowledgeBase:
		return "knowledgebases"
	default:
		return string(k)
	}
}

// String returns the kind name.
func (k ResourceKind) String() string { return string(k) }

// Definition is a named JSON document describing one remote resource.
// Definitions are produced by the schema builders and consumed read-only
// by the reconciler.
type Definition struct {
	// Kind is the resource type.
	Kind ResourceKind

	// Name is the remote resource identity, derived as "{prefix}-{kind}".
	Name string

	// Body is the request body sent on create or update.
	Body map[string]any
}

// ResourceState is the reconciler's view of one remote resource.
type ResourceState string

// Resource lifecycle states. Ensure moves absent -> creating -> present;
// indexers additionally support present -> running and present -> deleting.
const (
	StateAbsent   ResourceState = "absent"
	StateCreating ResourceState = "creating"
	StatePresent  ResourceState = "present"
	StateRunning  ResourceState = "running"
	StateDeleting ResourceState = "deleting"
)

// ResourceSummary is a listing entry for an existing remote resource.
type ResourceSummary struct {
	// Name is the resource name.
	Name string

	// Kind is the remote-side kind discriminator (e.g. "searchIndex").
	Kind string
}

// IndexerStatus is a point-in-time snapshot of ingestion job state.
// It is a single read, not a poll loop: the remote job runs asynchronously
// and this is the only way to observe progress.
type IndexerStatus struct {
	// Status is the overall indexer status (e.g. "running").
	Status string

	// LastRunStatus is the outcome of the most recent execution.
	LastRunStatus string

	// ItemsProcessed counts source documents processed in the last run.
	ItemsProcessed int

	// ItemsFailed counts source documents that failed in the last run.
	ItemsFailed int

	// ErrorMessage carries the last run's error, if any.
	ErrorMessage string
}

// IndexStats reports document count and storage for an index.
type IndexStats struct {
	DocumentCount int64
	StorageSize   int64
}
