// Package catalog maps (database, genome version) pairs to the remote
// locations of their data file, index and checksum manifest.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed databases.yaml
var defaultCatalog []byte

// ErrNotFound is returned for an unknown database or genome version.
var ErrNotFound = errors.New("not found in catalog")

// schema requires every version to carry exactly the three source URLs.
const schema = `{
  "type": "object",
  "minProperties": 1,
  "additionalProperties": {
    "type": "object",
    "minProperties": 1,
    "additionalProperties": {
      "type": "object",
      "properties": {
        "data": {"type": "string", "minLength": 1},
        "index": {"type": "string", "minLength": 1},
        "manifest": {"type": "string", "minLength": 1}
      },
      "required": ["data", "index", "manifest"],
      "additionalProperties": false
    }
  }
}`

// Sources holds the three remote locations of one database version.
type Sources struct {
	Data     string `yaml:"data"`
	Index    string `yaml:"index"`
	Manifest string `yaml:"manifest"`
}

// Entry is a catalog row.
type Entry struct {
	Database string
	Version  string
	Sources
}

// URLs returns the data, index and manifest URLs in processing order.
func (e Entry) URLs() []string {
	return []string{e.Data, e.Index, e.Manifest}
}

// Catalog is an immutable database -> version -> sources mapping.
type Catalog struct {
	databases map[string]map[string]Sources
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog from path. An empty path loads the embedded catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a YAML catalog.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	out := &Catalog{}
	if err := yaml.Unmarshal(data, &out.databases); err != nil {
		return nil, fmt.Errorf("invalid catalog yaml: %w", err)
	}
	for db, versions := range out.databases {
		for version, src := range versions {
			src.Data = strings.TrimSpace(src.Data)
			src.Index = strings.TrimSpace(src.Index)
			src.Manifest = strings.TrimSpace(src.Manifest)
			for _, u := range []string{src.Data, src.Index, src.Manifest} {
				if _, err := FileName(u); err != nil {
					return nil, fmt.Errorf("catalog entry %s/%s: %w", db, version, err)
				}
			}
			versions[version] = src
		}
	}
	return out, nil
}

func validate(doc map[string]any) error {
	if doc == nil {
		return fmt.Errorf("catalog is empty")
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("failed to validate catalog: %w", err)
	}
	if !result.Valid() {
		var msgs []string
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("invalid catalog: %s", strings.Join(msgs, "; "))
	}
	return nil
}

// Lookup returns the entry for (database, version).
func (c *Catalog) Lookup(database, version string) (Entry, error) {
	versions, ok := c.databases[database]
	if !ok {
		return Entry{}, fmt.Errorf("%w: database %q", ErrNotFound, database)
	}
	src, ok := versions[version]
	if !ok {
		return Entry{}, fmt.Errorf("%w: genome version %q for database %q", ErrNotFound, version, database)
	}
	return Entry{Database: database, Version: version, Sources: src}, nil
}

// Entries returns every entry sorted by database, then version.
func (c *Catalog) Entries() []Entry {
	var out []Entry
	for db, versions := range c.databases {
		for version, src := range versions {
			out = append(out, Entry{Database: db, Version: version, Sources: src})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Database != out[j].Database {
			return out[i].Database < out[j].Database
		}
		return out[i].Version < out[j].Version
	})
	return out
}

// FileName returns the local file name for a source URL: its last path segment.
func FileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid url %q: scheme and host are required", rawURL)
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "", fmt.Errorf("url %q has no file name", rawURL)
	}
	return name, nil
}
