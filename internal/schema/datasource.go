package schema

import (
	"strings"

	"github.com/arclight-labs/kbctl/internal/core/domain"
)

// buildDataSource builds the SharePoint data source definition. When
// additional columns are configured they are appended to the container
// query so the connector surfaces them as document metadata.
func buildDataSource(cfg *domain.Configuration) domain.Definition {
	query := cfg.ContainerQuery
	if len(cfg.AdditionalColumns) > 0 && query != "" {
		query += ";additionalColumns=" + strings.Join(cfg.AdditionalColumns, ",")
	}

	body := obj{
		"name":        cfg.DataSourceName(),
		"description": "SharePoint data source for custom indexing with metadata",
		"type":        "sharepoint",
		"credentials": obj{
			"connectionString": cfg.ConnectionString,
		},
		"container": obj{
			"name":  cfg.ContainerName,
			"query": query,
		},
	}

	applyACL(body, domain.KindDataSource, cfg.EnableACL)

	return domain.Definition{
		Kind: domain.KindDataSource,
		Name: cfg.DataSourceName(),
		Body: body,
	}
}
