package format_test

import (
	"bytes"
	"errors"
	"slices"
	"strings"
	"testing"

	"go.followtheprocess.codes/reqfile/internal/format"
	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/test"
)

func documentRequests() []spec.Request {
	return []spec.Request{
		{
			Name:             "Create user",
			Method:           "POST",
			URL:              "{{host}}/users?verbose=true",
			HTTPVersion:      "HTTP/2",
			Headers:          spec.Headers{{Key: "Content-Type", Value: "application/json"}, {Key: "X-Empty"}},
			Body:             "{\n  \"name\": \"Jane\"\n}",
			PreScript:        "< {%\n  request.variables.set(\"id\", \"1\")\n%}",
			PostScript:       "> {%\n  client.global.set(\"token\", response.body.token)\n%}",
			ResponseSavePath: "user.json",
			SaveDir:          "http-client-plus/collections/Users",
			NoRedirect:       true,
			NoCookieJar:      true,
			NoAutoEncoding:   true,
			ForceSave:        true,
		},
		{
			Name:     "Upload",
			Method:   "PUT",
			URL:      "https://api.test/upload",
			Boundary: "XyZ",
			Parts: []spec.Part{
				spec.TextPart{Name: "title", Value: "Quarterly", ContentType: "text/plain"},
				spec.FilePart{Name: "file", Path: "./report.pdf", Filename: "report.pdf", ContentType: "application/pdf"},
			},
		},
		{
			Method: "GET",
			URL:    "https://api.test/health",
		},
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	for _, name := range []string{"json", "yaml", "toml"} {
		t.Run(name, func(t *testing.T) {
			exporter, err := format.ExporterFor(name)
			test.Ok(t, err)

			importer, err := format.ImporterFor(name)
			test.Ok(t, err)

			requests := documentRequests()

			buf := &bytes.Buffer{}
			test.Ok(t, exporter.Export(buf, requests))

			got, err := importer.Import(buf)
			test.Ok(t, err)
			test.Equal(t, len(got), len(requests))

			for i := range min(len(got), len(requests)) {
				test.EqualFunc(
					t,
					got[i],
					requests[i],
					equalRequest,
					test.Context("%s request %d\ngot %#v\nwant %#v", name, i, got[i], requests[i]),
				)
			}
		})
	}
}

func TestDocumentCanonicalMethod(t *testing.T) {
	doc := format.NewDocument([]spec.Request{{Method: "patch", URL: "/a"}, {URL: "/b"}})
	test.Equal(t, doc.Requests[0].Method, "PATCH")
	test.Equal(t, doc.Requests[1].Method, "GET")
}

func TestDocumentUnknownPartKind(t *testing.T) {
	doc := format.Document{
		Requests: []format.DocumentRequest{
			{
				Method: "POST",
				URL:    "https://api.test",
				Parts:  []format.DocumentPart{{Kind: "socket", Name: "x"}},
			},
		},
	}

	_, err := doc.ToRequests()
	test.Err(t, err)
	test.True(t, strings.Contains(err.Error(), `"socket"`), test.Context("error %q should name the bad kind", err))
}

func TestDocumentMissingKindIsText(t *testing.T) {
	doc := format.Document{
		Requests: []format.DocumentRequest{
			{Method: "POST", URL: "https://api.test", Parts: []format.DocumentPart{{Name: "a", Value: "b"}}},
		},
	}

	got, err := doc.ToRequests()
	test.Ok(t, err)
	test.Equal(t, len(got), 1)

	part, ok := got[0].Parts[0].(spec.TextPart)
	test.True(t, ok, test.Context("part should be a TextPart, got %T", got[0].Parts[0]))
	test.Equal(t, part, spec.TextPart{Name: "a", Value: "b"})
}

func TestJSONImporterStrict(t *testing.T) {
	_, err := format.JSONImporter{}.Import(strings.NewReader(`{"requests": [], "extra": true}`))
	test.Err(t, err)

	_, err = format.YAMLImporter{}.Import(strings.NewReader("requests: [oops"))
	test.Err(t, err)

	_, err = format.TOMLImporter{}.Import(strings.NewReader("[[requests]\nmethod ="))
	test.Err(t, err)
}

func TestFormatLookup(t *testing.T) {
	want := []string{"curl", "json", "postman", "toml", "yaml"}

	test.EqualFunc(t, format.ImportFormats(), want, slices.Equal)
	test.EqualFunc(t, format.ExportFormats(), want, slices.Equal)

	_, err := format.ImporterFor("har")
	test.True(t, errors.Is(err, format.ErrUnknownFormat), test.Context("got %v", err))

	_, err = format.ExporterFor("har")
	test.True(t, errors.Is(err, format.ErrUnknownFormat), test.Context("got %v", err))

	importer, err := format.ImporterFor("curl")
	test.Ok(t, err)

	_, isCurl := importer.(format.CurlImporter)
	test.True(t, isCurl)
}
