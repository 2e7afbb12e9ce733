package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// TemplateName is the index template installed by EnsureTemplate.
const TemplateName = "cdm-normalizer"

// IndexPatterns covers the operations and project indices produced by the
// default index name rules plus the default index.
func (s *OpenSearchSink) IndexPatterns() []string {
	return []string{".operations.*", "project.*", s.config.DefaultIndex + "*"}
}

// EnsureTemplate creates or updates the index template that maps the common
// data model fields.
func (s *OpenSearchSink) EnsureTemplate(ctx context.Context) error {
	template := map[string]any{
		"index_patterns": s.IndexPatterns(),
		"template": map[string]any{
			"mappings": cdmMappings(),
		},
		"priority": 100,
	}

	body, err := json.Marshal(template)
	if err != nil {
		return err
	}

	res, err := s.client.Indices.PutIndexTemplate(
		TemplateName,
		bytes.NewReader(body),
		s.client.Indices.PutIndexTemplate.WithContext(ctx),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		bodyBytes, _ := io.ReadAll(res.Body)
		return fmt.Errorf("failed to create index template: %s - %s", res.Status(), string(bodyBytes))
	}

	s.logger.InfoContext(ctx, "index template created/updated", "template", TemplateName)
	return nil
}

func keyword() map[string]any { return map[string]any{"type": "keyword"} }

func cdmMappings() map[string]any {
	metadataBlock := map[string]any{
		"properties": map[string]any{
			"ipaddr4":     map[string]any{"type": "ip"},
			"ipaddr6":     map[string]any{"type": "ip"},
			"inputname":   keyword(),
			"name":        keyword(),
			"received_at": map[string]any{"type": "date"},
			"version":     keyword(),
		},
	}

	return map[string]any{
		"dynamic": true,
		"dynamic_templates": []map[string]any{
			{
				"strings_as_keywords": map[string]any{
					"match_mapping_type": "string",
					"mapping": map[string]any{
						"type": "text",
						"fields": map[string]any{
							"raw": map[string]any{"type": "keyword", "ignore_above": 256},
						},
					},
				},
			},
		},
		"properties": map[string]any{
			"@timestamp": map[string]any{"type": "date"},
			"message":    map[string]any{"type": "text"},
			"hostname":   keyword(),
			"level":      keyword(),
			"ipaddr4":    map[string]any{"type": "ip"},
			"ipaddr6":    map[string]any{"type": "ip"},
			"pipeline_metadata": map[string]any{
				"properties": map[string]any{
					"collector":  metadataBlock,
					"normalizer": metadataBlock,
				},
			},
			"kubernetes": map[string]any{
				"properties": map[string]any{
					"namespace_name": keyword(),
					"namespace_id":   keyword(),
					"pod_name":       keyword(),
					"pod_id":         keyword(),
					"container_name": keyword(),
					"host":           keyword(),
				},
			},
			"systemd": map[string]any{
				"properties": map[string]any{
					"t": map[string]any{"type": "object"},
					"u": map[string]any{"type": "object"},
					"k": map[string]any{"type": "object"},
				},
			},
			"undefined": map[string]any{"type": "object", "enabled": false},
		},
	}
}
