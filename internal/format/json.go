package format

import (
	"encoding/json"
	"fmt"
	"io"

	"go.followtheprocess.codes/reqfile/internal/spec"
)

// JSONExporter is an [Exporter] that transforms requests into a JSON [Document].
type JSONExporter struct{}

// Export implements [Exporter] for [JSONExporter] and exports the given requests
// as a complete JSON document.
func (j JSONExporter) Export(w io.Writer, requests []spec.Request) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	return encoder.Encode(NewDocument(requests))
}

// JSONImporter is an [Importer] that reads requests back from a JSON [Document].
type JSONImporter struct{}

// Import implements [Importer] for [JSONImporter].
//
// Unlike the curl and Postman importers, a malformed document is an error as
// it is expected to have been written by [JSONExporter].
func (j JSONImporter) Import(r io.Reader) ([]spec.Request, error) {
	var doc Document

	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("could not decode JSON: %w", err)
	}

	return doc.ToRequests()
}
