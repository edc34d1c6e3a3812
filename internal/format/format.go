// Package format provides mechanisms for format conversions into and from request files.
//
// Notably, the package provides the [Importer] and [Exporter] interfaces for doing this
// in a format-agnostic way.
//
// It also provides the built in importers and exporters: curl command lines and
// Postman collections in both directions, plus JSON, YAML and TOML documents.
package format

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"

	"go.followtheprocess.codes/reqfile/internal/spec"
)

// ErrUnknownFormat is returned when looking up an importer or exporter by a name
// that doesn't exist.
var ErrUnknownFormat = errors.New("unknown format")

// Exporter is the interface defining a mechanism for exporting requests
// into an external format.
type Exporter interface {
	// Export exports the requests into an external format, written to w.
	Export(w io.Writer, requests []spec.Request) error
}

// Importer is the interface defining a mechanism for importing external formats
// into requests.
//
// Content that can't be understood yields no requests rather than an error, errors
// are reserved for failing to read r.
type Importer interface {
	// Import imports the data from the external format into zero or more requests.
	Import(r io.Reader) ([]spec.Request, error)
}

// importers are the built in importers by format name.
//
//nolint:gochecknoglobals // Read only lookup table
var importers = map[string]Importer{
	"curl":    CurlImporter{},
	"postman": PostmanImporter{},
	"json":    JSONImporter{},
	"yaml":    YAMLImporter{},
	"toml":    TOMLImporter{},
}

// exporters are the built in exporters by format name.
//
//nolint:gochecknoglobals // Read only lookup table
var exporters = map[string]Exporter{
	"curl":    CurlExporter{},
	"postman": PostmanExporter{},
	"json":    JSONExporter{},
	"yaml":    YAMLExporter{},
	"toml":    TOMLExporter{},
}

// ImporterFor returns the built in [Importer] for the named format.
func ImporterFor(name string) (Importer, error) {
	importer, ok := importers[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, expected one of %v", ErrUnknownFormat, name, ImportFormats())
	}

	return importer, nil
}

// ExporterFor returns the built in [Exporter] for the named format.
func ExporterFor(name string) (Exporter, error) {
	exporter, ok := exporters[name]
	if !ok {
		return nil, fmt.Errorf("%w %q, expected one of %v", ErrUnknownFormat, name, ExportFormats())
	}

	return exporter, nil
}

// ImportFormats returns the sorted names of the built in importers.
func ImportFormats() []string {
	return slices.Sorted(maps.Keys(importers))
}

// ExportFormats returns the sorted names of the built in exporters.
func ExportFormats() []string {
	return slices.Sorted(maps.Keys(exporters))
}

