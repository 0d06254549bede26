// Package env resolves the process configuration from environment
// variables, with a .env file as fallback. Configuration is resolved
// once per invocation and never mutated; misconfiguration is fatal and
// never retried.
package env

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/arclight-labs/kbctl/internal/core/domain"
	"github.com/arclight-labs/kbctl/internal/logger"
)

// Defaults applied when a variable is unset.
const (
	DefaultAPIVersion     = domain.ACLAPIVersion
	DefaultContainerName  = "useQuery"
	DefaultResourcePrefix = "sp-custom"
	DefaultEmbeddingModel = "text-embedding-3-small"
	DefaultEmbeddingDims  = 1536
)

// Resolver reads configuration from the process environment.
type Resolver struct {
	// DotenvPath optionally points at a .env file. Empty means "./.env".
	DotenvPath string
}

// lookup returns the first non-empty value among the given variable
// names. The alternates keep compatibility with the AZURE_*-prefixed
// names some deployments already export.
func lookup(names ...string) string {
	for _, n := range names {
		if v := os.Getenv(n); v != "" {
			return v
		}
	}
	return ""
}

// parseBool interprets the common truthy spellings.
func parseBool(v string, fallback bool) bool {
	if v == "" {
		return fallback
	}
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	default:
		return false
	}
}

// parseCSV splits a comma-separated list, trimming blanks.
func parseCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Resolve loads and validates the configuration. On any missing required
// field it returns a single ConfigError enumerating every gap, so the
// operator fixes all of them in one pass.
func (r *Resolver) Resolve() (*domain.Configuration, error) {
	// Best effort: absence of a .env file is fine, the environment may
	// already be populated. godotenv never overrides existing variables.
	path := r.DotenvPath
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err == nil {
		logger.Debug("loaded environment from %s", path)
	}

	cfg := &domain.Configuration{
		SearchEndpoint:      strings.TrimRight(lookup("SEARCH_ENDPOINT", "AZURE_SEARCH_ENDPOINT"), "/"),
		APIKey:              lookup("API_KEY", "AZURE_SEARCH_API_KEY"),
		APIVersion:          lookup("API_VERSION"),
		ConnectionString:    lookup("CONNECTION_STRING"),
		ContainerName:       lookup("CONTAINER_NAME"),
		ContainerQuery:      lookup("CONTAINER_QUERY"),
		AdditionalColumns:   parseCSV(lookup("ADDITIONAL_COLUMNS")),
		EnableACL:           parseBool(lookup("ENABLE_ACL"), true),
		ResourcePrefix:      lookup("RESOURCE_PREFIX"),
		EmbeddingEndpoint:   strings.TrimRight(lookup("EMBEDDING_ENDPOINT", "AZURE_OPENAI_ENDPOINT"), "/"),
		EmbeddingKey:        lookup("EMBEDDING_KEY", "AZURE_OPENAI_API_KEY"),
		EmbeddingDeployment: lookup("EMBEDDING_DEPLOYMENT"),
		EmbeddingModel:      lookup("EMBEDDING_MODEL"),
		ChatEndpoint:        strings.TrimRight(lookup("CHAT_ENDPOINT", "AZURE_OPENAI_ENDPOINT"), "/"),
		ChatKey:             lookup("CHAT_KEY", "AZURE_OPENAI_API_KEY"),
		ChatDeployment:      lookup("CHAT_DEPLOYMENT", "AZURE_OPENAI_CHAT_DEPLOYMENT_NAME"),
		ChatModel:           lookup("CHAT_MODEL"),
		KnowledgeBaseName:   lookup("KNOWLEDGE_BASE_NAME"),
		TenantID:            lookup("ENTRA_TENANT_ID", "AZURE_TENANT_ID"),
		ClientID:            lookup("ENTRA_CLIENT_ID", "AZURE_CLIENT_ID"),
	}

	switch strings.ToLower(lookup("VERBALIZE_IMAGES")) {
	case "":
		cfg.ImageVerbalization = domain.VerbalizeAuto
	case "true", "1", "yes", "on":
		cfg.ImageVerbalization = domain.VerbalizeOn
	default:
		cfg.ImageVerbalization = domain.VerbalizeOff
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}

	logger.Debug("configuration resolved: endpoint=%s prefix=%s acl=%v api-version=%s",
		cfg.SearchEndpoint, cfg.ResourcePrefix, cfg.EnableACL, cfg.APIVersion)

	return cfg, nil
}

func applyDefaults(cfg *domain.Configuration) {
	if cfg.APIVersion == "" {
		cfg.APIVersion = DefaultAPIVersion
	}
	if cfg.ContainerName == "" {
		cfg.ContainerName = DefaultContainerName
	}
	if cfg.ResourcePrefix == "" {
		cfg.ResourcePrefix = DefaultResourcePrefix
	}
	if cfg.EmbeddingModel == "" {
		cfg.EmbeddingModel = DefaultEmbeddingModel
	}
	if cfg.EmbeddingDimensions == 0 {
		if dims := lookup("EMBEDDING_DIMENSIONS"); dims != "" {
			if n, err := strconv.Atoi(dims); err == nil && n > 0 {
				cfg.EmbeddingDimensions = n
			}
		}
	}
	if cfg.EmbeddingDimensions == 0 {
		cfg.EmbeddingDimensions = DefaultEmbeddingDims
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = cfg.ChatDeployment
	}
}

// validate checks presence of every field required by the selected mode.
func validate(cfg *domain.Configuration) error {
	required := []struct {
		name  string
		value string
	}{
		{"SEARCH_ENDPOINT", cfg.SearchEndpoint},
		{"API_KEY", cfg.APIKey},
		{"CONNECTION_STRING", cfg.ConnectionString},
		{"EMBEDDING_ENDPOINT", cfg.EmbeddingEndpoint},
		{"EMBEDDING_KEY", cfg.EmbeddingKey},
		{"EMBEDDING_DEPLOYMENT", cfg.EmbeddingDeployment},
	}

	var problems []string
	for _, f := range required {
		if f.value == "" {
			problems = append(problems, "missing "+f.name)
		}
	}

	// Permission filtering only exists from ACLAPIVersion on. Date-prefixed
	// version strings compare correctly as plain strings.
	if cfg.EnableACL && cfg.APIVersion < domain.ACLAPIVersion {
		problems = append(problems, fmt.Sprintf(
			"ENABLE_ACL requires API_VERSION %s or later, got %s",
			domain.ACLAPIVersion, cfg.APIVersion))
	}

	if len(problems) > 0 {
		return &domain.ConfigError{Problems: problems}
	}
	return nil
}
