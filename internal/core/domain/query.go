package domain

// QueryOptions configures a retrieval query.
type QueryOptions struct {
	// Filter is an optional OData expression narrowing the candidate
	// document set by metadata field before relevance ranking,
	// e.g. "Department eq 'IT'".
	Filter string

	// IncludeActivity requests the internal retrieval/reasoning trace.
	IncludeActivity bool

	// Elevated bypasses ACL trimming for callers holding the
	// elevatedOperations/read role. Mutually exclusive with a delegated
	// token; intended for operator debugging.
	Elevated bool
}

// Citation is one retrieved source reference backing the answer.
// Display metadata and the relevance score are retained for UI rendering.
type Citation struct {
	// ID is the reference identifier within the response.
	ID string

	// DocKey is the index key of the cited chunk.
	DocKey string

	// Title is the best display title (document title, else item name).
	Title string

	// URL is the clickable source link (SharePoint web URI).
	URL string

	// Author is the document author, when extracted.
	Author string

	// Score is the reranker relevance score.
	Score float64

	// SourceData carries the raw per-citation display fields.
	SourceData map[string]any
}

// ActivityStep is one entry of the retrieval activity trace.
type ActivityStep struct {
	// Type identifies the step (e.g. "modelQueryPlanning", "searchIndex").
	Type string

	// Detail is the raw step payload for display.
	Detail map[string]any
}

// QueryResult is the outcome of a successful retrieval query. A result
// with no citations is valid: in ACL mode it means the caller has no
// visible documents, which must never be conflated with a QueryError.
type QueryResult struct {
	// Answer is the synthesized answer text.
	Answer string

	// Citations lists the backing references in response order.
	Citations []Citation

	// Activity is the reasoning trace, present only when requested.
	Activity []ActivityStep
}

// ACLValueShape classifies one permission field value.
type ACLValueShape string

// Permission values are either resolvable identity-provider GUIDs or
// opaque source-system numeric IDs. Only GUIDs participate correctly in
// permission matching; numeric IDs are a known degraded state of the
// upstream connector that must be surfaced, not masked.
const (
	ShapeGUID    ACLValueShape = "guid"
	ShapeNumeric ACLValueShape = "numeric"
	ShapeOther   ACLValueShape = "other"
)

// ACLFieldSample summarises the value shapes observed in one permission
// field across sampled documents.
type ACLFieldSample struct {
	// Field is the permission field name ("UserIds" or "GroupIds").
	Field string

	// Total counts sampled values.
	Total int

	// Shapes counts values per shape.
	Shapes map[ACLValueShape]int

	// Examples holds up to a few raw values per shape for display.
	Examples map[ACLValueShape][]string
}

// Degraded reports whether any sampled value cannot participate in
// permission matching.
func (s *ACLFieldSample) Degraded() bool {
	return s.Shapes[ShapeNumeric]+s.Shapes[ShapeOther] > 0
}

// ACLReport is the outcome of the permission diagnostics check.
type ACLReport struct {
	// IndexName is the inspected index.
	IndexName string

	// Stats is the index document count and storage size.
	Stats IndexStats

	// SampledDocuments counts documents inspected.
	SampledDocuments int

	// Fields holds one sample summary per permission field.
	Fields []ACLFieldSample
}

// Degraded reports whether any permission field carries unresolvable values.
func (r *ACLReport) Degraded() bool {
	for i := range r.Fields {
		if r.Fields[i].Degraded() {
			return true
		}
	}
	return false
}

// Group is a directory group resolved from a GroupIds value.
type Group struct {
	ID              string
	DisplayName     string
	Mail            string
	SecurityEnabled bool
	GroupTypes      []string
}

// TypeLabel returns a human-readable group type.
func (g *Group) TypeLabel() string {
	for _, t := range g.GroupTypes {
		if t == "Unified" {
			return "Microsoft 365 Group"
		}
	}
	if g.SecurityEnabled {
		return "Security Group"
	}
	if len(g.GroupTypes) > 0 {
		return g.GroupTypes[0]
	}
	return "Unknown"
}

// GroupMember is one member of a directory group.
type GroupMember struct {
	ID                string
	DisplayName       string
	Mail              string
	UserPrincipalName string
}

// Identifier returns the best display identifier for the member.
func (m *GroupMember) Identifier() string {
	if m.UserPrincipalName != "" {
		return m.UserPrincipalName
	}
	if m.Mail != "" {
		return m.Mail
	}
	return m.ID
}
