package cli

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/custodia-labs/projctx/internal/core/domain"
)

// documentMeta is the YAML front matter of a document file.
type documentMeta struct {
	ID        string   `yaml:"id"`
	Title     string   `yaml:"title"`
	Summary   string   `yaml:"summary"`
	Tags      []string `yaml:"tags"`
	Tenant    string   `yaml:"tenant"`
	Published *bool    `yaml:"published"`
}

// parseDocumentFile reads a markdown file with optional front matter
// delimited by --- lines. Without a title in the front matter, the first
// "# " heading is used, then the file name.
func parseDocumentFile(name string, r io.Reader) (*domain.Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	var (
		lines     []string
		yamlLines []string
		first     = true
		inMeta    bool
		metaEnded bool
	)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case first && strings.TrimSpace(line) == "---":
			inMeta = true
		case inMeta && strings.TrimSpace(line) == "---":
			inMeta = false
			metaEnded = true
		case inMeta:
			yamlLines = append(yamlLines, line)
		default:
			lines = append(lines, line)
		}
		first = false
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inMeta && !metaEnded {
		return nil, fmt.Errorf("unterminated front matter: %w", domain.ErrInvalidInput)
	}

	var meta documentMeta
	if len(yamlLines) > 0 {
		if err := yaml.Unmarshal([]byte(strings.Join(yamlLines, "\n")), &meta); err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
	}

	doc := &domain.Document{
		ID:        meta.ID,
		Title:     meta.Title,
		Summary:   meta.Summary,
		Tags:      meta.Tags,
		TenantID:  meta.Tenant,
		Published: meta.Published == nil || *meta.Published,
	}

	if doc.Title == "" {
		for i, line := range lines {
			if title, ok := strings.CutPrefix(line, "# "); ok {
				doc.Title = strings.TrimSpace(title)
				lines = append(lines[:i:i], lines[i+1:]...)
				break
			}
		}
	}
	if doc.Title == "" {
		doc.Title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	doc.Body = strings.TrimSpace(strings.Join(lines, "\n"))
	return doc, nil
}
