package store_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"testing"

	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/reqfile/internal/store"
	"go.followtheprocess.codes/test"
	"go.uber.org/goleak"
)

func TestPath(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)

	tests := []struct {
		name    string // Name of the test case
		request string // Request name
		saveDir string // Request save directory
		want    string // Expected path, relative to root
	}{
		{
			name:    "default dir",
			request: "Get users",
			want:    "http-client-plus/collections/Get_users.http",
		},
		{
			name:    "custom dir",
			request: "login",
			saveDir: "http-client-plus/collections/Auth",
			want:    "http-client-plus/collections/Auth/login.http",
		},
		{
			name:    "unsafe characters",
			request: " a/b:c?d ",
			saveDir: "requests",
			want:    "requests/a_b_c_d.http",
		},
		{
			name:    "dir escaping root",
			request: "login",
			saveDir: "../../outside",
			want:    "outside/login.http",
		},
		{
			name:    "dir climbing back in",
			request: "login",
			saveDir: "http-client-plus/../../collections/Auth",
			want:    "collections/Auth/login.http",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Path(tt.request, tt.saveDir)
			test.Equal(t, got, filepath.Join(root, filepath.FromSlash(tt.want)))
		})
	}
}

func TestPathUnnamed(t *testing.T) {
	s := store.New(t.TempDir())

	stamp := regexp.MustCompile(`^\d{8}-\d{6}\.http$`)
	got := filepath.Base(s.Path("  ", ""))

	test.True(t, stamp.MatchString(got), test.Context("unnamed request path %q is not a timestamp", got))
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)

	request := spec.Request{
		Name:    "Create user",
		Method:  "POST",
		URL:     "https://api.test/users",
		Body:    `{"name": "Jane"}`,
		SaveDir: "http-client-plus/collections/Users",
	}

	path, changed, err := s.Save(request)
	test.Ok(t, err)
	test.True(t, changed)
	test.Equal(t, path, filepath.Join(root, "http-client-plus", "collections", "Users", "Create_user.http"))
	test.True(t, s.Exists(path))

	contents, err := s.Read(path)
	test.Ok(t, err)
	test.Diff(t, contents, request.String())

	// Saving the same thing again is a no-op
	_, changed, err = s.Save(request)
	test.Ok(t, err)
	test.True(t, !changed, test.Context("identical save reported a change"))

	request.Body = `{"name": "John"}`

	_, changed, err = s.Save(request)
	test.Ok(t, err)
	test.True(t, changed)

	contents, err = s.Read(path)
	test.Ok(t, err)
	test.Diff(t, contents, request.String())

	// No temporary files left behind
	files, err := os.ReadDir(filepath.Dir(path))
	test.Ok(t, err)
	test.Equal(t, len(files), 1)
}

func TestSaveAll(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	s := store.New(root)

	requests := []spec.Request{
		{Name: "dup", Method: "GET", URL: "https://api.test/1"},
		{Name: "other", Method: "GET", URL: "https://api.test/2"},
		{Name: "dup", Method: "GET", URL: "https://api.test/3"},
		{Name: "dup", Method: "GET", URL: "https://api.test/4"},
	}

	saved, err := s.SaveAll(t.Context(), requests)
	test.Ok(t, err)
	test.Equal(t, len(saved), len(requests))

	dir := filepath.Join(root, "http-client-plus", "collections")
	want := []string{"dup.http", "other.http", "dup_2.http", "dup_3.http"}

	for i, result := range saved {
		test.Equal(t, result.Path, filepath.Join(dir, want[i]))
		test.True(t, result.Changed)
		test.Equal(t, result.Request.URL, requests[i].URL)

		contents, err := s.Read(result.Path)
		test.Ok(t, err)
		test.Diff(t, contents, requests[i].String())
	}
}

func TestSaveAllSuffixTaken(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	s := store.New(root)

	requests := []spec.Request{
		{Name: "a", Method: "GET", URL: "https://api.test/1"},
		{Name: "a", Method: "GET", URL: "https://api.test/2"},
		{Name: "a_2", Method: "GET", URL: "https://api.test/3"},
		{Name: "a", Method: "GET", URL: "https://api.test/4"},
	}

	saved, err := s.SaveAll(t.Context(), requests)
	test.Ok(t, err)

	dir := filepath.Join(root, "http-client-plus", "collections")
	want := []string{"a.http", "a_2.http", "a_2_2.http", "a_3.http"}

	paths := make(map[string]bool, len(saved))

	for i, result := range saved {
		test.Equal(t, result.Path, filepath.Join(dir, want[i]))
		test.True(t, !paths[result.Path], test.Context("%s saved more than once", result.Path))
		paths[result.Path] = true

		contents, err := s.Read(result.Path)
		test.Ok(t, err)
		test.Diff(t, contents, requests[i].String())
	}
}

func TestSaveAllIdentical(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	s := store.New(root)

	request := spec.Request{Name: "same", Method: "GET", URL: "https://api.test/1"}
	other := spec.Request{Name: "same", Method: "GET", URL: "https://api.test/2"}

	saved, err := s.SaveAll(t.Context(), []spec.Request{request, other, request})
	test.Ok(t, err)
	test.Equal(t, len(saved), 3)

	dir := filepath.Join(root, "http-client-plus", "collections")

	test.Equal(t, saved[0].Path, filepath.Join(dir, "same.http"))
	test.True(t, saved[0].Changed)
	test.True(t, !saved[0].Duplicate)

	test.Equal(t, saved[1].Path, filepath.Join(dir, "same_2.http"))
	test.True(t, !saved[1].Duplicate)

	test.Equal(t, saved[2].Path, saved[0].Path)
	test.True(t, saved[2].Duplicate)
	test.True(t, !saved[2].Changed)

	entries, err := os.ReadDir(dir)
	test.Ok(t, err)
	test.Equal(t, len(entries), 2)
}

func TestSaveAllCancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	s := store.New(t.TempDir())

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.SaveAll(ctx, []spec.Request{{Name: "a", URL: "/a"}})
	test.True(t, errors.Is(err, context.Canceled), test.Context("got %v", err))
}

func TestReadMissing(t *testing.T) {
	s := store.New(t.TempDir())

	_, err := s.Read(filepath.Join(s.Root(), "nope.http"))
	test.True(t, errors.Is(err, store.ErrNotFound), test.Context("got %v", err))
	test.True(t, !s.Exists(filepath.Join(s.Root(), "nope.http")))
	test.True(t, !s.Exists(s.Root()), test.Context("a directory is not a request file"))

	_, err = s.Load(filepath.Join(s.Root(), "nope.http"), nil)
	test.True(t, errors.Is(err, store.ErrNotFound), test.Context("got %v", err))
}

func TestLoad(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)

	request := spec.Request{
		Name:             "Upload",
		Method:           "POST",
		URL:              "https://api.test/upload",
		SaveDir:          "http-client-plus/collections/Files",
		ResponseSavePath: "upload",
		Parts: []spec.Part{
			spec.TextPart{Name: "title", Value: "Report", ContentType: "text/plain"},
			spec.FilePart{Name: "file", Path: "./report.pdf", Filename: "report.pdf", ContentType: "application/pdf"},
		},
	}

	path, _, err := s.Save(request)
	test.Ok(t, err)

	got, err := s.Load(path, nil)
	test.Ok(t, err)

	test.Equal(t, got.Name, request.Name)
	test.Equal(t, got.Method, request.Method)
	test.Equal(t, got.URL, request.URL)
	test.Equal(t, got.SaveDir, request.SaveDir)
	test.Equal(t, got.ResponseSavePath, request.ResponseSavePath)
	test.EqualFunc(t, got.Parts, request.Parts, slices.Equal)

	// Saving the loaded request writes back to the same file, unchanged
	again, changed, err := s.Save(got)
	test.Ok(t, err)
	test.Equal(t, again, path)
	test.True(t, !changed)
}

func TestCollections(t *testing.T) {
	root := t.TempDir()
	s := store.New(root)

	// No collections dir at all
	collections, err := s.Collections()
	test.Ok(t, err)
	test.Equal(t, len(collections), 0)

	requests := []spec.Request{
		{Name: "List pets", Method: "get", URL: "/pets", SaveDir: "http-client-plus/collections/Pet_Store"},
		{Name: "Add pet", Method: "POST", URL: "/pets", Body: "{}", SaveDir: "http-client-plus/collections/Pet_Store"},
		{Name: "Login", Method: "PUT", URL: "/login", SaveDir: "http-client-plus/collections/Auth"},
		{Name: "loose", Method: "DELETE", URL: "/x"},
	}

	_, err = s.SaveAll(t.Context(), requests)
	test.Ok(t, err)

	// Not a request file, should be ignored
	other := filepath.Join(root, "http-client-plus", "collections", "Auth", "notes.txt")
	test.Ok(t, os.WriteFile(other, []byte("hello"), 0o644))

	collections, err = s.Collections()
	test.Ok(t, err)
	test.EqualFunc(t, collections, []string{"Auth", "Pet_Store"}, slices.Equal)

	entries, err := s.Entries("Pet_Store")
	test.Ok(t, err)
	test.Equal(t, len(entries), 2)

	test.Equal(t, entries[0].Name, "Add pet")
	test.Equal(t, entries[0].Method, "POST")
	test.Equal(t, entries[0].Collection, "Pet Store")
	test.Equal(t, entries[1].Name, "List pets")
	test.Equal(t, entries[1].Method, "GET")
	test.True(t, !entries[1].Modified.IsZero())

	entries, err = s.Entries("Auth")
	test.Ok(t, err)
	test.Equal(t, len(entries), 1)
	test.Equal(t, entries[0].Method, "PUT")

	_, err = s.Entries("missing")
	test.Err(t, err)
}
