package format

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"
	"go.followtheprocess.codes/reqfile/internal/spec"
)

// TOMLExporter is an [Exporter] that transforms requests into a TOML [Document].
type TOMLExporter struct{}

// Export implements [Exporter] for [TOMLExporter] and exports the given requests
// as a complete TOML document.
func (t TOMLExporter) Export(w io.Writer, requests []spec.Request) error {
	encoder := toml.NewEncoder(w)
	encoder.Indent = ""

	return encoder.Encode(NewDocument(requests))
}

// TOMLImporter is an [Importer] that reads requests back from a TOML [Document].
type TOMLImporter struct{}

// Import implements [Importer] for [TOMLImporter].
func (t TOMLImporter) Import(r io.Reader) ([]spec.Request, error) {
	var doc Document

	if _, err := toml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode TOML: %w", err)
	}

	return doc.ToRequests()
}
