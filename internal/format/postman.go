package format

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"go.followtheprocess.codes/reqfile/internal/query"
	"go.followtheprocess.codes/reqfile/internal/spec"
)

const (
	// postmanDefaultCollection is the collection name used when the document has none.
	postmanDefaultCollection = "Postman_Collection"

	// postmanSchema is the schema URL of the collection format written by [PostmanExporter].
	postmanSchema = "https://schema.getpostman.com/json/collection/v2.1.0/collection.json"
)

// postmanCollection is the subset of a Postman v2 collection that maps onto requests.
type postmanCollection struct {
	Auth *postmanAuth  `json:"auth,omitempty"`
	Info postmanInfo   `json:"info"`
	Item []postmanItem `json:"item"`
}

type postmanInfo struct {
	PostmanID string `json:"_postman_id,omitempty"`
	Name      string `json:"name"`
	Schema    string `json:"schema,omitempty"`
}

// postmanItem is either a folder (Item is non-nil) or a single request.
type postmanItem struct {
	Request *postmanRequest `json:"request,omitempty"`
	Auth    *postmanAuth    `json:"auth,omitempty"`
	Name    string          `json:"name"`
	Item    []postmanItem   `json:"item,omitempty"`
}

type postmanRequest struct {
	Body   *postmanBody      `json:"body,omitempty"`
	Auth   *postmanAuth      `json:"auth,omitempty"`
	URL    postmanURL        `json:"url"`
	Method string            `json:"method"`
	Header []postmanKeyValue `json:"header,omitempty"`
}

// UnmarshalJSON allows a request to be given as just its URL, which Postman
// permits for simple GET requests.
func (p *postmanRequest) UnmarshalJSON(data []byte) error {
	if raw, ok := jsonString(data); ok {
		*p = postmanRequest{URL: postmanURL{Raw: raw}}
		return nil
	}

	type plain postmanRequest

	var request plain
	if err := json.Unmarshal(data, &request); err != nil {
		return err
	}

	*p = postmanRequest(request)

	return nil
}

type postmanURL struct {
	Raw      string            `json:"raw,omitempty"`
	Protocol string            `json:"protocol,omitempty"`
	Host     []string          `json:"host,omitempty"`
	Path     []string          `json:"path,omitempty"`
	Query    []postmanKeyValue `json:"query,omitempty"`
}

// UnmarshalJSON allows the URL to be either a plain string or a URL object.
func (p *postmanURL) UnmarshalJSON(data []byte) error {
	if raw, ok := jsonString(data); ok {
		*p = postmanURL{Raw: raw}
		return nil
	}

	type plain postmanURL

	var u plain
	if err := json.Unmarshal(data, &u); err != nil {
		return err
	}

	*p = postmanURL(u)

	return nil
}

// String rebuilds the URL, preferring the raw form if there is one.
func (p postmanURL) String() string {
	if raw := strings.TrimSpace(p.Raw); raw != "" {
		return raw
	}

	var builder strings.Builder

	if protocol := strings.TrimSpace(p.Protocol); protocol != "" {
		builder.WriteString(protocol + "://")
	}

	host := strings.Join(nonBlank(p.Host), ".")
	builder.WriteString(host)

	if path := strings.Join(nonBlank(p.Path), "/"); path != "" {
		if host != "" && !strings.HasPrefix(path, "/") {
			builder.WriteByte('/')
		}

		builder.WriteString(path)
	}

	return builder.String()
}

type postmanKeyValue struct {
	Key      string       `json:"key"`
	Value    postmanValue `json:"value"`
	Type     string       `json:"type,omitempty"`
	Disabled bool         `json:"disabled,omitempty"`
}

// postmanValue is a value Postman documents hold as a string but that hand
// edited or generated collections often give as a number, boolean or null.
// Whatever the JSON type, the value is kept as its text.
type postmanValue string

// UnmarshalJSON implements [json.Unmarshaler] for a [postmanValue].
func (p *postmanValue) UnmarshalJSON(data []byte) error {
	if s, ok := jsonString(data); ok {
		*p = postmanValue(s)
		return nil
	}

	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*p = ""
		return nil
	}

	buf := &bytes.Buffer{}
	if err := json.Compact(buf, data); err != nil {
		return fmt.Errorf("invalid Postman value: %w", err)
	}

	*p = postmanValue(buf.String())

	return nil
}

type postmanBody struct {
	Mode       string            `json:"mode"`
	Raw        string            `json:"raw,omitempty"`
	FormData   []postmanFormData `json:"formdata,omitempty"`
	URLEncoded []postmanKeyValue `json:"urlencoded,omitempty"`
}

type postmanFormData struct {
	Src         json.RawMessage `json:"src,omitempty"`
	Key         string          `json:"key"`
	Value       postmanValue    `json:"value,omitempty"`
	Type        string          `json:"type,omitempty"`
	ContentType string          `json:"contentType,omitempty"`
	Disabled    bool            `json:"disabled,omitempty"`
}

// source returns the first file path in the src field, which may be a string
// or an array of strings.
func (p postmanFormData) source() string {
	if len(p.Src) == 0 {
		return ""
	}

	if path, ok := jsonString(p.Src); ok {
		return path
	}

	var paths []string
	if err := json.Unmarshal(p.Src, &paths); err == nil && len(paths) > 0 {
		return paths[0]
	}

	return ""
}

// isFile reports whether the entry is a file upload.
func (p postmanFormData) isFile() bool {
	return strings.EqualFold(p.Type, "file") || (len(p.Src) > 0 && string(p.Src) != "null")
}

type postmanAuth struct {
	Type   string                `json:"type"`
	Bearer postmanAuthAttributes `json:"bearer,omitempty"`
	Basic  postmanAuthAttributes `json:"basic,omitempty"`
}

// postmanAuthAttributes are the settings of an auth method, an array of key
// value pairs in v2.1 collections but an object in v2.0.
type postmanAuthAttributes []postmanKeyValue

// UnmarshalJSON implements [json.Unmarshaler] accepting either form.
func (p *postmanAuthAttributes) UnmarshalJSON(data []byte) error {
	var list []postmanKeyValue
	if err := json.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}

	var object map[string]postmanValue
	if err := json.Unmarshal(data, &object); err != nil {
		return err
	}

	attributes := make(postmanAuthAttributes, 0, len(object))
	for key, value := range object {
		attributes = append(attributes, postmanKeyValue{Key: key, Value: value})
	}

	*p = attributes

	return nil
}

// get returns the value of the attribute with the given key, and whether it exists.
func (p postmanAuthAttributes) get(key string) (string, bool) {
	for _, attribute := range p {
		if attribute.Key == key {
			return string(attribute.Value), true
		}
	}

	return "", false
}

// header returns the Authorization header value for the auth, or "" if
// it doesn't produce one.
func (a *postmanAuth) header() string {
	if a == nil {
		return ""
	}

	switch a.Type {
	case "bearer":
		if token, ok := a.Bearer.get("token"); ok {
			return "Bearer " + token
		}
	case "basic":
		username, _ := a.Basic.get("username")
		password, _ := a.Basic.get("password")

		if strings.TrimSpace(username) != "" || strings.TrimSpace(password) != "" {
			return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
		}
	}

	return ""
}

// PostmanImporter is an [Importer] that reads Postman v2 collections.
type PostmanImporter struct{}

// Import implements [Importer] for [PostmanImporter].
func (p PostmanImporter) Import(r io.Reader) ([]spec.Request, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("could not read Postman collection: %w", err)
	}

	return ImportPostman(data), nil
}

// ImportPostman converts a Postman collection into requests, one per request
// item with folders flattened in document order.
//
// It never fails, a document that isn't a valid collection yields no requests.
func ImportPostman(data []byte) []spec.Request {
	var collection postmanCollection
	if err := json.Unmarshal(data, &collection); err != nil {
		return nil
	}

	name := strings.TrimSpace(collection.Info.Name)
	if name == "" {
		name = postmanDefaultCollection
	}

	saveDir := spec.CollectionsDir + "/" + spec.Sanitize(name)

	var requests []spec.Request
	for _, leaf := range flattenPostman(collection.Item, collection.Auth) {
		if request, ok := convertPostman(leaf, saveDir); ok {
			requests = append(requests, request)
		}
	}

	return requests
}

// postmanLeaf is a request item along with the auth it inherits from its folders.
type postmanLeaf struct {
	auth *postmanAuth
	item postmanItem
}

// flattenPostman walks the folder tree depth first, returning the request items in order.
func flattenPostman(items []postmanItem, inherited *postmanAuth) []postmanLeaf {
	var leaves []postmanLeaf

	for _, item := range items {
		auth := inherited
		if item.Auth != nil {
			auth = item.Auth
		}

		if item.Item != nil {
			leaves = append(leaves, flattenPostman(item.Item, auth)...)
			continue
		}

		leaves = append(leaves, postmanLeaf{item: item, auth: auth})
	}

	return leaves
}

// convertPostman maps a single request item onto a request.
func convertPostman(leaf postmanLeaf, saveDir string) (spec.Request, bool) {
	item := leaf.item
	if item.Request == nil {
		return spec.Request{}, false
	}

	source := item.Request

	base := source.URL.String()
	if base == "" {
		return spec.Request{}, false
	}

	var params []query.Param
	for _, param := range source.URL.Query {
		if !param.Disabled {
			params = append(params, query.Param{Key: param.Key, Value: string(param.Value)})
		}
	}

	rawURL := base
	if len(source.URL.Query) > 0 {
		// The raw URL repeats the query, rebuild it from the structured params
		withoutQuery, _, _ := strings.Cut(base, "?")
		rawURL = query.Build(withoutQuery, params, true)
	}

	method := strings.ToUpper(strings.TrimSpace(source.Method))
	if method == "" {
		method = "GET"
	}

	var headers spec.Headers
	for _, header := range source.Header {
		if !header.Disabled {
			headers = headers.Add(header.Key, string(header.Value))
		}
	}

	auth := leaf.auth
	if source.Auth != nil {
		auth = source.Auth
	}

	if value := auth.header(); value != "" {
		headers = headers.Add(spec.HeaderAuthorization, value)
	}

	request := spec.Request{
		Method:  method,
		URL:     rawURL,
		Name:    item.Name,
		SaveDir: saveDir,
	}

	if source.Body != nil {
		switch source.Body.Mode {
		case "raw":
			request.Body = source.Body.Raw
		case "formdata":
			request.Parts = postmanParts(source.Body.FormData)
		case "urlencoded":
			request.Body = postmanURLEncoded(source.Body.URLEncoded)
			if request.Body != "" && !headers.Has(spec.HeaderContentType) {
				headers = headers.Add(spec.HeaderContentType, spec.MediaFormURLEncoded)
			}
		}
	}

	request.Headers = headers

	return request, true
}

// postmanParts converts form data entries to multipart parts, file entries
// with no path are dropped.
func postmanParts(entries []postmanFormData) []spec.Part {
	var parts []spec.Part

	for _, entry := range entries {
		if entry.Disabled {
			continue
		}

		if !entry.isFile() {
			parts = append(parts, spec.TextPart{
				Name:        entry.Key,
				Value:       string(entry.Value),
				ContentType: withDefault(entry.ContentType, spec.MediaTextPlain),
			})

			continue
		}

		path := entry.source()
		if strings.TrimSpace(path) == "" {
			continue
		}

		parts = append(parts, spec.FilePart{
			Name:        entry.Key,
			Path:        path,
			Filename:    spec.LastSegment(path),
			ContentType: withDefault(entry.ContentType, spec.MediaOctetStream),
		})
	}

	return parts
}

// postmanURLEncoded joins url encoded entries into a key=value&... body, values
// are used exactly as written.
func postmanURLEncoded(entries []postmanKeyValue) string {
	pairs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Disabled {
			pairs = append(pairs, entry.Key+"="+string(entry.Value))
		}
	}

	return strings.Join(pairs, "&")
}

// jsonString decodes data as a JSON string, reporting whether it was one.
func jsonString(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}

	return s, true
}

// nonBlank returns the non blank strings in s.
func nonBlank(s []string) []string {
	out := make([]string, 0, len(s))
	for _, item := range s {
		if strings.TrimSpace(item) != "" {
			out = append(out, item)
		}
	}

	return out
}

// withDefault returns s, or fallback if s is blank.
func withDefault(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}

	return s
}
