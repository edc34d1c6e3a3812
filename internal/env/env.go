// Package env loads and saves the environment files of a project.
//
// A project has two environment files, a public one meant to be committed and
// a private one for secrets. Each maps an environment name (e.g. "dev") to its
// variables, values in the private file take precedence.
package env

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
)

const (
	// Dir is the directory, relative to the project root, holding the environment files.
	Dir = "http-client-plus/environments"

	// PublicFile is the name of the public environment file.
	PublicFile = "http-client.env.json"

	// PrivateFile is the name of the private environment file.
	PrivateFile = "http-client.private.env.json"

	filePerms = 0o644
	dirPerms  = 0o755
)

// Environment is a single named environment, a mapping of variable name to value.
type Environment map[string]string

// Environments maps environment names to their variables.
type Environments map[string]Environment

// Set is the complete set of environments for a project.
type Set struct {
	Public  Environments // Variables from the public file
	Private Environments // Variables from the private file, overriding Public
}

// Load reads both environment files beneath root.
//
// A missing or blank file is treated as having no environments, a file that is
// not valid JSON is an error.
func Load(root string) (Set, error) {
	dir := filepath.Join(root, filepath.FromSlash(Dir))

	public, err := load(filepath.Join(dir, PublicFile))
	if err != nil {
		return Set{}, err
	}

	private, err := load(filepath.Join(dir, PrivateFile))
	if err != nil {
		return Set{}, err
	}

	return Set{Public: public, Private: private}, nil
}

// Names returns the names of every environment in either file, sorted.
func (s Set) Names() []string {
	names := make(map[string]struct{}, len(s.Public)+len(s.Private))
	for name := range s.Public {
		names[name] = struct{}{}
	}

	for name := range s.Private {
		names[name] = struct{}{}
	}

	return slices.Sorted(maps.Keys(names))
}

// Merged returns the variables of the named environment with private values
// overriding public ones, or nil if neither file defines it.
func (s Set) Merged(name string) Environment {
	public, inPublic := s.Public[name]
	private, inPrivate := s.Private[name]

	if !inPublic && !inPrivate {
		return nil
	}

	merged := make(Environment, len(public)+len(private))
	maps.Copy(merged, public)
	maps.Copy(merged, private)

	return merged
}

// Lookup returns the value of a variable in the named environment, checking
// the private file first then the public one.
func (s Set) Lookup(name, key string) (string, bool) {
	if value, ok := s.Private[name][key]; ok {
		return value, true
	}

	value, ok := s.Public[name][key]

	return value, ok
}

// Save writes both environment files beneath root, creating the directory if needed.
func (s Set) Save(root string) error {
	dir := filepath.Join(root, filepath.FromSlash(Dir))
	if err := os.MkdirAll(dir, dirPerms); err != nil {
		return fmt.Errorf("could not create environments directory: %w", err)
	}

	if err := save(filepath.Join(dir, PublicFile), s.Public); err != nil {
		return err
	}

	return save(filepath.Join(dir, PrivateFile), s.Private)
}

// load reads a single environment file.
func load(path string) (Environments, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Environments{}, nil
		}

		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}

	if len(bytes.TrimSpace(contents)) == 0 {
		return Environments{}, nil
	}

	var raw map[string]map[string]any

	decoder := json.NewDecoder(bytes.NewReader(contents))
	decoder.UseNumber()

	if err := decoder.Decode(&raw); err != nil {
		return nil, fmt.Errorf("invalid environment file %s: %w", path, err)
	}

	environments := make(Environments, len(raw))
	for name, variables := range raw {
		environment := make(Environment, len(variables))
		for key, value := range variables {
			str, err := scalar(value)
			if err != nil {
				return nil, fmt.Errorf("invalid environment file %s: %s.%s: %w", path, name, key, err)
			}

			environment[key] = str
		}

		environments[name] = environment
	}

	return environments, nil
}

// save writes a single environment file as indented JSON with sorted keys.
func save(path string, environments Environments) error {
	if environments == nil {
		environments = Environments{}
	}

	contents, err := json.MarshalIndent(environments, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode %s: %w", path, err)
	}

	contents = append(contents, '\n')

	if err := os.WriteFile(path, contents, filePerms); err != nil {
		return fmt.Errorf("could not write %s: %w", path, err)
	}

	return nil
}

// scalar converts a decoded JSON value into its string form, objects and
// arrays are kept as compact JSON.
func scalar(value any) (string, error) {
	switch value := value.(type) {
	case nil:
		return "", nil
	case string:
		return value, nil
	case json.Number:
		return value.String(), nil
	case bool:
		return strconv.FormatBool(value), nil
	default:
		out, err := json.Marshal(value)
		if err != nil {
			return "", err
		}

		return string(out), nil
	}
}
