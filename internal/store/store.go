// Package store persists requests as .http request files under a project root.
//
// Request files live in collections, sub-directories of [spec.CollectionsDir],
// unless a request names its own save directory. The store only deals in
// files, turning a [spec.Request] into text and back is done by
// [spec.Request.String] and package parser.
package store

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.followtheprocess.codes/reqfile/internal/spec"
	"go.followtheprocess.codes/reqfile/internal/syntax"
	"go.followtheprocess.codes/reqfile/internal/syntax/parser"
	"golang.org/x/sync/errgroup"
)

// ErrNotFound is returned when reading a request file that does not exist.
var ErrNotFound = errors.New("request file not found")

const (
	// Ext is the extension of every request file.
	Ext = ".http"

	// stampLayout is the layout of the file stem given to unnamed requests.
	stampLayout = "20060102-150405"

	filePerms = 0o644
	dirPerms  = 0o755
)

// Store reads and writes request files beneath a project root.
type Store struct {
	now  func() time.Time // Clock used for unnamed request stems
	root string           // The project root
}

// New returns a [Store] rooted at root.
func New(root string) Store {
	return Store{
		root: root,
		now:  time.Now,
	}
}

// Root returns the project root of the store.
func (s Store) Root() string {
	return s.root
}

// Dir returns the directory requests with the given save directory are
// stored in, the default collections directory if saveDir is blank.
//
// The result is always beneath the root, ".." elements that would climb out
// of it are dropped.
func (s Store) Dir(saveDir string) string {
	if strings.TrimSpace(saveDir) == "" {
		return filepath.Join(s.root, filepath.FromSlash(spec.CollectionsDir))
	}

	rooted := path.Clean("/" + filepath.ToSlash(saveDir))

	return filepath.Join(s.root, filepath.FromSlash(rooted))
}

// Path returns the path of the request file for a request with the given
// name and save directory.
//
// Unnamed requests are given a timestamp stem so every save creates a new file.
func (s Store) Path(name, saveDir string) string {
	stem := spec.Request{Name: name}.Stem()
	if stem == "" {
		stem = s.now().Format(stampLayout)
	}

	return filepath.Join(s.Dir(saveDir), stem+Ext)
}

// Save writes the request to its request file, creating any missing directories.
//
// It returns the path written and whether the file content changed, a file
// whose content is already identical is left untouched.
func (s Store) Save(request spec.Request) (path string, changed bool, err error) {
	path = s.Path(request.Name, request.SaveDir)

	changed, err = write(path, []byte(request.String()))
	if err != nil {
		return "", false, err
	}

	return path, changed, nil
}

// Saved is the result of saving a single request with [Store.SaveAll].
type Saved struct {
	Path      string       // Where the request file was written
	Request   spec.Request // The request that was saved
	Changed   bool         // Whether the file content changed
	Duplicate bool         // An identical earlier request was saved to Path, nothing was written for this one
}

// SaveAll saves every request concurrently, returning the results in the
// same order as requests.
//
// Requests that resolve to the same file, e.g. two with the same name in
// one collection, have "_2", "_3" etc. appended to their stem so nothing is
// overwritten, skipping any suffixed name already taken. A request identical
// to an earlier one destined for the same file is not written again, it is
// marked as a Duplicate of that file instead.
//
// The first error encountered cancels the remaining saves.
func (s Store) SaveAll(ctx context.Context, requests []spec.Request) ([]Saved, error) {
	results := make([]Saved, len(requests))
	contents := make([]string, len(requests))
	claimed := make(map[string]bool, len(requests))
	firsts := make(map[uint64][]int, len(requests)) // xxhash of path and content -> requests written with it

	var writes []int

	for i, request := range requests {
		base := s.Path(request.Name, request.SaveDir)
		contents[i] = request.String()

		digest := xxhash.Sum64String(base + "\x00" + contents[i])
		if first, ok := duplicateOf(firsts[digest], contents, contents[i]); ok {
			results[i] = Saved{Path: results[first].Path, Request: request, Duplicate: true}
			continue
		}

		firsts[digest] = append(firsts[digest], i)

		path := base
		for n := 2; claimed[path]; n++ {
			path = strings.TrimSuffix(base, Ext) + "_" + strconv.Itoa(n) + Ext
		}

		claimed[path] = true
		results[i] = Saved{Path: path, Request: request}
		writes = append(writes, i)
	}

	group, ctx := errgroup.WithContext(ctx)

	for _, i := range writes {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			changed, err := write(results[i].Path, []byte(contents[i]))
			if err != nil {
				return err
			}

			results[i].Changed = changed

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// duplicateOf returns the first of candidates whose content is exactly content.
func duplicateOf(candidates []int, contents []string, content string) (int, bool) {
	for _, candidate := range candidates {
		if contents[candidate] == content {
			return candidate, true
		}
	}

	return 0, false
}

// Read returns the contents of the request file at path.
func (s Store) Read(path string) (string, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}

		return "", fmt.Errorf("could not read request file: %w", err)
	}

	return string(contents), nil
}

// Exists reports whether a request file exists at path.
func (s Store) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}

// Load reads and parses the request file at path.
//
// The returned request's SaveDir is set to the file's directory relative to the
// project root so saving it again writes back to the same place. Diagnostics
// from parsing are passed to handler, which may be nil.
func (s Store) Load(path string, handler syntax.ErrorHandler) (spec.Request, error) {
	contents, err := s.Read(path)
	if err != nil {
		return spec.Request{}, err
	}

	request, err := parser.New(path, []byte(contents), handler).Parse()
	if err != nil {
		return spec.Request{}, fmt.Errorf("could not parse %s: %w", path, err)
	}

	request.SaveDir = s.saveDir(filepath.Dir(path))

	return request, nil
}

// Collections returns the names of the collections in the default collections
// directory, sorted. A project with no collections directory has no collections.
func (s Store) Collections() ([]string, error) {
	entries, err := os.ReadDir(s.Dir(""))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}

		return nil, fmt.Errorf("could not list collections: %w", err)
	}

	var collections []string

	for _, entry := range entries {
		if entry.IsDir() {
			collections = append(collections, entry.Name())
		}
	}

	return collections, nil
}

// Entry describes a single saved request file within a collection.
type Entry struct {
	Modified   time.Time // When the file was last written
	Collection string    // Name of the collection, with underscores shown as spaces
	Name       string    // File stem, with underscores shown as spaces
	Method     string    // The request method, GET if the file has no request line
	Path       string    // Path to the request file
}

// Entries returns the request files directly within the named collection,
// sorted by file name.
func (s Store) Entries(collection string) ([]Entry, error) {
	dir := filepath.Join(s.Dir(""), collection)

	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not list collection %s: %w", collection, err)
	}

	var entries []Entry

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != Ext {
			continue
		}

		info, err := file.Info()
		if err != nil {
			return nil, fmt.Errorf("could not stat %s: %w", file.Name(), err)
		}

		path := filepath.Join(dir, file.Name())

		request, err := s.Load(path, nil)
		if err != nil {
			return nil, err
		}

		entries = append(entries, Entry{
			Collection: strings.ReplaceAll(collection, "_", " "),
			Name:       strings.ReplaceAll(strings.TrimSuffix(file.Name(), Ext), "_", " "),
			Method:     request.CanonicalMethod(),
			Path:       path,
			Modified:   info.ModTime(),
		})
	}

	return entries, nil
}

// saveDir returns dir relative to the store root in slash form, or dir itself
// if it lies outside the root.
func (s Store) saveDir(dir string) string {
	rel, err := filepath.Rel(s.root, dir)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return filepath.ToSlash(dir)
	}

	return filepath.ToSlash(rel)
}

// write atomically writes contents to path via a temporary file in the same
// directory, reporting whether anything changed.
//
// A file already holding the same content is not rewritten.
func write(path string, contents []byte) (bool, error) {
	existing, err := os.ReadFile(path)
	switch {
	case err == nil:
		if bytes.Equal(existing, contents) {
			return false, nil
		}
	case !errors.Is(err, fs.ErrNotExist):
		return false, fmt.Errorf("could not read existing request file: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return false, fmt.Errorf("could not create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return false, fmt.Errorf("could not create temporary file: %w", err)
	}

	// Clean up on any failure, after a successful rename this is a no-op
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(contents); err != nil {
		tmp.Close()
		return false, fmt.Errorf("could not write request file: %w", err)
	}

	if err := tmp.Chmod(filePerms); err != nil {
		tmp.Close()
		return false, fmt.Errorf("could not set request file permissions: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return false, fmt.Errorf("could not close temporary file: %w", err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return false, fmt.Errorf("could not move request file into place: %w", err)
	}

	return true, nil
}
