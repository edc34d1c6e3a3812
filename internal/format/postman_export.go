package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"go.followtheprocess.codes/reqfile/internal/query"
	"go.followtheprocess.codes/reqfile/internal/spec"
)

// PostmanExporter is an [Exporter] that transforms requests into a Postman
// v2.1 collection, one request item per request.
type PostmanExporter struct {
	// Name of the collection, defaults to "reqfile"
	Name string
}

// Export implements [Exporter] for [PostmanExporter].
func (p PostmanExporter) Export(w io.Writer, requests []spec.Request) error {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		name = "reqfile"
	}

	collection := postmanCollection{
		Info: postmanInfo{
			PostmanID: uuid.NewString(),
			Name:      name,
			Schema:    postmanSchema,
		},
		Item: make([]postmanItem, 0, len(requests)),
	}

	for _, request := range requests {
		item, err := newPostmanItem(request)
		if err != nil {
			return err
		}

		collection.Item = append(collection.Item, item)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if err := encoder.Encode(collection); err != nil {
		return fmt.Errorf("could not encode Postman collection: %w", err)
	}

	return nil
}

func newPostmanItem(request spec.Request) (postmanItem, error) {
	multipart := request.IsMultipart()

	out := &postmanRequest{
		Method: request.CanonicalMethod(),
		URL:    postmanURL{Raw: request.URL},
	}

	for _, param := range query.Extract(request.URL) {
		out.URL.Query = append(out.URL.Query, postmanKeyValue{Key: param.Key, Value: postmanValue(param.Value)})
	}

	for _, header := range request.EffectiveHeaders() {
		// Postman sets the multipart Content-Type itself
		if multipart && strings.EqualFold(header.Key, spec.HeaderContentType) {
			continue
		}

		out.Header = append(out.Header, postmanKeyValue{Key: header.Key, Value: postmanValue(header.Value)})
	}

	switch {
	case multipart:
		body := &postmanBody{Mode: "formdata"}

		for _, part := range request.Parts {
			switch part := part.(type) {
			case spec.TextPart:
				body.FormData = append(body.FormData, postmanFormData{
					Key:         part.Name,
					Value:       postmanValue(part.Value),
					Type:        "text",
					ContentType: part.ContentType,
				})
			case spec.FilePart:
				src, err := json.Marshal(part.Path)
				if err != nil {
					return postmanItem{}, fmt.Errorf("could not encode file path %q: %w", part.Path, err)
				}

				body.FormData = append(body.FormData, postmanFormData{
					Key:         part.Name,
					Src:         src,
					Type:        "file",
					ContentType: part.ContentType,
				})
			}
		}

		out.Body = body
	case strings.TrimSpace(request.Body) != "":
		out.Body = &postmanBody{Mode: "raw", Raw: request.Body}
	}

	return postmanItem{Name: request.Title(), Request: out}, nil
}
