package format

import (
	"fmt"
	"io"

	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.yaml.in/yaml/v4"
)

const yamlIndent = 2

// YAMLExporter is an [Exporter] that transforms requests into a YAML [Document].
type YAMLExporter struct{}

// Export implements [Exporter] for [YAMLExporter] and exports the given requests as
// a complete YAML document.
func (y YAMLExporter) Export(w io.Writer, requests []spec.Request) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(yamlIndent)

	if err := encoder.Encode(NewDocument(requests)); err != nil {
		return fmt.Errorf("could not encode YAML: %w", err)
	}

	return encoder.Close()
}

// YAMLImporter is an [Importer] that reads requests back from a YAML [Document].
type YAMLImporter struct{}

// Import implements [Importer] for [YAMLImporter].
func (y YAMLImporter) Import(r io.Reader) ([]spec.Request, error) {
	var doc Document

	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode YAML: %w", err)
	}

	return doc.ToRequests()
}
