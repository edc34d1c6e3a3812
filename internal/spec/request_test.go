package spec_test

import (
	"os"
	"testing"

	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/snapshot"
	"go.followtheprocess.codes/test"
)

func TestRequestString(t *testing.T) {
	tests := []struct {
		name    string       // Name of the test case
		request spec.Request // The request under test
	}{
		{
			name: "empty",
			request: spec.Request{
				URL: "https://api.test/x",
			},
		},
		{
			name: "lowercase method",
			request: spec.Request{
				Method: "delete",
				URL:    "https://api.test/items/1",
			},
		},
		{
			name: "post json default",
			request: spec.Request{
				Method: "POST",
				URL:    "https://api.test/x",
				Body:   `{"a":1}`,
			},
		},
		{
			name: "post explicit content type",
			request: spec.Request{
				Method:  "POST",
				URL:     "https://api.test/x",
				Headers: spec.Headers{{Key: "content-type", Value: "text/plain"}},
				Body:    "hello",
			},
		},
		{
			name: "post blank body",
			request: spec.Request{
				Method: "POST",
				URL:    "https://api.test/x",
				Body:   "   ",
			},
		},
		{
			name: "put body no default",
			request: spec.Request{
				Method: "PUT",
				URL:    "https://api.test/x",
				Body:   `{"a":1}`,
			},
		},
		{
			name: "everything",
			request: spec.Request{
				Name:             "Create item",
				Method:           "post",
				URL:              "{{host}}/items",
				HTTPVersion:      "HTTP/2",
				NoRedirect:       true,
				NoCookieJar:      true,
				NoAutoEncoding:   true,
				Headers:          spec.Headers{{Key: "Accept", Value: "*/*"}, {Key: "Accept", Value: "text/html"}},
				Body:             `{"name":"thing"}`,
				PreScript:        "{% request.variables.set(\"a\", 1) %}",
				PostScript:       "> {%\nclient.log(response.status)\n%}",
				ResponseSavePath: "out",
				ForceSave:        true,
			},
		},
		{
			name: "save without force",
			request: spec.Request{
				Method:           "GET",
				URL:              "https://api.test/y",
				ResponseSavePath: "result",
			},
		},
		{
			name: "multipart",
			request: spec.Request{
				Method: "POST",
				URL:    "https://api.test/upload",
				Headers: spec.Headers{
					{Key: "Accept", Value: "application/json"},
					{Key: "content-type", Value: "multipart/form-data"},
				},
				Body: "ignored",
				Parts: []spec.Part{
					spec.TextPart{Name: "title", Value: "Holiday", ContentType: "text/plain"},
					spec.FilePart{Name: "photo", Path: "./img/beach.png", ContentType: "image/png"},
					spec.FilePart{Name: "raw", Path: "data.bin", Filename: "upload.bin"},
				},
				PostScript: "> {% client.log(1) %}",
			},
		},
		{
			name: "multipart custom boundary",
			request: spec.Request{
				Method:   "POST",
				URL:      "https://api.test/upload",
				Boundary: "xyz",
				Parts: []spec.Part{
					spec.FilePart{Name: "f"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot.New(
				t,
				snapshot.Update(*update),
				snapshot.Clean(*clean),
				snapshot.Color(os.Getenv("CI") == ""),
				snapshot.WithFormatter(snapshot.TextFormatter()),
			)

			snap.Snap(tt.request.String())
		})
	}
}

func TestRequestHelpers(t *testing.T) {
	t.Run("title named", func(t *testing.T) {
		r := spec.Request{Name: "  Get user ", URL: "https://api.test/users/1"}
		test.Equal(t, r.Title(), "Get user")
		test.Equal(t, r.Stem(), "Get_user")
	})

	t.Run("title unnamed", func(t *testing.T) {
		r := spec.Request{Method: "patch", URL: "https://api.test/users/1"}
		test.Equal(t, r.Title(), "PATCH https://api.test/users/1")
		test.Equal(t, r.Stem(), "")
	})

	t.Run("multipart from header", func(t *testing.T) {
		r := spec.Request{
			Headers: spec.Headers{{Key: "CONTENT-TYPE", Value: "Multipart/Form-Data; boundary=abc"}},
		}
		test.True(t, r.IsMultipart())
		test.Equal(t, r.EffectiveBoundary(), spec.DefaultBoundary)
	})

	t.Run("not multipart", func(t *testing.T) {
		r := spec.Request{Headers: spec.Headers{{Key: "Content-Type", Value: "application/json"}}}
		test.True(t, !r.IsMultipart())
	})

	t.Run("effective headers leave original alone", func(t *testing.T) {
		headers := spec.Headers{{Key: "Content-Type", Value: "multipart/form-data"}}
		r := spec.Request{Headers: headers, Boundary: "b"}

		got := r.EffectiveHeaders()
		test.Equal(t, got.Get("content-type"), "multipart/form-data; boundary=b")
		test.Equal(t, headers[0].Value, "multipart/form-data")
	})
}
