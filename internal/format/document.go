package format

import (
	"errors"
	"fmt"

	"go.followtheprocess.codes/reqfile/internal/spec"
)

// Kinds of [DocumentPart].
const (
	PartKindText = "text"
	PartKindFile = "file"
)

// errPartKind is returned when a document part has an unknown kind.
var errPartKind = errors.New("unknown part kind")

// Document is the structured representation of a set of requests used by the
// JSON, YAML and TOML formats.
type Document struct {
	Requests []DocumentRequest `json:"requests" toml:"requests" yaml:"requests"`
}

// DocumentRequest is a single request within a [Document].
type DocumentRequest struct {
	Name             string         `json:"name,omitempty"             toml:"name,omitempty"             yaml:"name,omitempty"`
	Method           string         `json:"method"                     toml:"method"                     yaml:"method"`
	URL              string         `json:"url"                        toml:"url"                        yaml:"url"`
	HTTPVersion      string         `json:"httpVersion,omitempty"      toml:"httpVersion,omitempty"      yaml:"httpVersion,omitempty"`
	Body             string         `json:"body,omitempty"             toml:"body,omitempty"             yaml:"body,omitempty"`
	Boundary         string         `json:"boundary,omitempty"         toml:"boundary,omitempty"         yaml:"boundary,omitempty"`
	PreScript        string         `json:"preScript,omitempty"        toml:"preScript,omitempty"        yaml:"preScript,omitempty"`
	PostScript       string         `json:"postScript,omitempty"       toml:"postScript,omitempty"       yaml:"postScript,omitempty"`
	ResponseSavePath string         `json:"responseSavePath,omitempty" toml:"responseSavePath,omitempty" yaml:"responseSavePath,omitempty"`
	SaveDir          string         `json:"saveDir,omitempty"          toml:"saveDir,omitempty"          yaml:"saveDir,omitempty"`
	Headers          spec.Headers   `json:"headers,omitempty"          toml:"headers,omitempty"          yaml:"headers,omitempty"`
	Parts            []DocumentPart `json:"parts,omitempty"            toml:"parts,omitempty"            yaml:"parts,omitempty"`
	NoRedirect       bool           `json:"noRedirect,omitempty"       toml:"noRedirect,omitempty"       yaml:"noRedirect,omitempty"`
	NoCookieJar      bool           `json:"noCookieJar,omitempty"      toml:"noCookieJar,omitempty"      yaml:"noCookieJar,omitempty"`
	NoAutoEncoding   bool           `json:"noAutoEncoding,omitempty"   toml:"noAutoEncoding,omitempty"   yaml:"noAutoEncoding,omitempty"`
	ForceSave        bool           `json:"forceSave,omitempty"        toml:"forceSave,omitempty"        yaml:"forceSave,omitempty"`
}

// DocumentPart is a multipart part within a [DocumentRequest], Kind says
// which of Value or Path is meaningful.
type DocumentPart struct {
	Kind        string `json:"kind"                  toml:"kind"                  yaml:"kind"`
	Name        string `json:"name"                  toml:"name"                  yaml:"name"`
	Value       string `json:"value,omitempty"       toml:"value,omitempty"       yaml:"value,omitempty"`
	Path        string `json:"path,omitempty"        toml:"path,omitempty"        yaml:"path,omitempty"`
	Filename    string `json:"filename,omitempty"    toml:"filename,omitempty"    yaml:"filename,omitempty"`
	ContentType string `json:"contentType,omitempty" toml:"contentType,omitempty" yaml:"contentType,omitempty"`
}

// NewDocument builds a [Document] from requests.
func NewDocument(requests []spec.Request) Document {
	doc := Document{Requests: make([]DocumentRequest, 0, len(requests))}

	for _, request := range requests {
		out := DocumentRequest{
			Name:             request.Name,
			Method:           request.CanonicalMethod(),
			URL:              request.URL,
			HTTPVersion:      request.HTTPVersion,
			Body:             request.Body,
			Boundary:         request.Boundary,
			PreScript:        request.PreScript,
			PostScript:       request.PostScript,
			ResponseSavePath: request.ResponseSavePath,
			SaveDir:          request.SaveDir,
			Headers:          request.Headers.Clone(),
			NoRedirect:       request.NoRedirect,
			NoCookieJar:      request.NoCookieJar,
			NoAutoEncoding:   request.NoAutoEncoding,
			ForceSave:        request.ForceSave,
		}

		for _, part := range request.Parts {
			switch part := part.(type) {
			case spec.TextPart:
				out.Parts = append(out.Parts, DocumentPart{
					Kind:        PartKindText,
					Name:        part.Name,
					Value:       part.Value,
					ContentType: part.ContentType,
				})
			case spec.FilePart:
				out.Parts = append(out.Parts, DocumentPart{
					Kind:        PartKindFile,
					Name:        part.Name,
					Path:        part.Path,
					Filename:    part.Filename,
					ContentType: part.ContentType,
				})
			}
		}

		doc.Requests = append(doc.Requests, out)
	}

	return doc
}

// ToRequests converts the document back into requests.
func (d Document) ToRequests() ([]spec.Request, error) {
	requests := make([]spec.Request, 0, len(d.Requests))

	for i, in := range d.Requests {
		request := spec.Request{
			Name:             in.Name,
			Method:           in.Method,
			URL:              in.URL,
			HTTPVersion:      in.HTTPVersion,
			Body:             in.Body,
			Boundary:         in.Boundary,
			PreScript:        in.PreScript,
			PostScript:       in.PostScript,
			ResponseSavePath: in.ResponseSavePath,
			SaveDir:          in.SaveDir,
			Headers:          in.Headers.Clone(),
			NoRedirect:       in.NoRedirect,
			NoCookieJar:      in.NoCookieJar,
			NoAutoEncoding:   in.NoAutoEncoding,
			ForceSave:        in.ForceSave,
		}

		for _, part := range in.Parts {
			switch part.Kind {
			case PartKindText, "":
				request.Parts = append(request.Parts, spec.TextPart{
					Name:        part.Name,
					Value:       part.Value,
					ContentType: part.ContentType,
				})
			case PartKindFile:
				request.Parts = append(request.Parts, spec.FilePart{
					Name:        part.Name,
					Path:        part.Path,
					Filename:    part.Filename,
					ContentType: part.ContentType,
				})
			default:
				return nil, fmt.Errorf("request %d, part %q: %w %q", i, part.Name, errPartKind, part.Kind)
			}
		}

		requests = append(requests, request)
	}

	return requests, nil
}
