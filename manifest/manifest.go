// Package manifest reads and rewrites per-environment deployment manifests
// (deploy/<env>/values.yaml). Updates touch only the image tag and the
// deployment metadata block; every other field and the original key order
// are preserved, which is why the document is kept as a yaml.Node tree
// rather than a map.
package manifest

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrNotFound indicates the manifest file is absent for the target environment.
var ErrNotFound = errors.New("manifest not found")

// Document is a loaded manifest. Mutations happen in memory until Save.
type Document struct {
	path string
	root yaml.Node
}

// Load reads and parses the manifest at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	d := &Document{path: path}
	if err := yaml.Unmarshal(data, &d.root); err != nil {
		return nil, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if d.mapping() == nil {
		return nil, fmt.Errorf("parsing manifest %s: document is not a mapping", path)
	}
	return d, nil
}

// Path returns the file the document was loaded from.
func (d *Document) Path() string { return d.path }

// ImageTag returns the current image.tag value, if present.
func (d *Document) ImageTag() (string, bool) {
	img := findValue(d.mapping(), "image")
	if img == nil {
		return "", false
	}
	tag := findValue(img, "tag")
	if tag == nil {
		return "", false
	}
	return tag.Value, true
}

// SetImageTag overwrites image.tag, creating the image block if the manifest
// lacks one. New keys are appended, leaving existing order untouched.
func (d *Document) SetImageTag(tag string) {
	img := ensureMapping(d.mapping(), "image")
	setScalar(img, "tag", tag)
}

// SetDeploymentMeta records when and by whom the manifest was last updated.
func (d *Document) SetDeploymentMeta(updatedBy string, at time.Time) {
	dep := ensureMapping(d.mapping(), "deployment")
	setScalar(dep, "lastUpdated", at.UTC().Format(time.RFC3339))
	setScalar(dep, "updatedBy", updatedBy)
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	out, err := yaml.Marshal(&d.root)
	if err != nil {
		return nil, fmt.Errorf("serializing manifest: %w", err)
	}
	return out, nil
}

// Save validates the document against the manifest schema and writes it back
// to its file. An invalid document is never written.
func (d *Document) Save() error {
	out, err := d.Bytes()
	if err != nil {
		return err
	}
	problems, err := Validate(out)
	if err != nil {
		return err
	}
	if len(problems) > 0 {
		return fmt.Errorf("manifest %s failed schema validation: %v", d.path, problems)
	}
	if err := os.WriteFile(d.path, out, 0644); err != nil {
		return fmt.Errorf("writing manifest %s: %w", d.path, err)
	}
	return nil
}

// mapping returns the top-level mapping node, or nil for malformed documents.
func (d *Document) mapping() *yaml.Node {
	if d.root.Kind != yaml.DocumentNode || len(d.root.Content) == 0 {
		return nil
	}
	if n := d.root.Content[0]; n.Kind == yaml.MappingNode {
		return n
	}
	return nil
}

// findValue returns the value node for key inside a mapping node.
func findValue(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// ensureMapping returns the mapping value for key, appending an empty one if
// the key is missing.
func ensureMapping(m *yaml.Node, key string) *yaml.Node {
	if v := findValue(m, key); v != nil {
		if v.Kind != yaml.MappingNode {
			*v = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		return v
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	m.Content = append(m.Content, k, v)
	return v
}

// setScalar overwrites the string value for key, appending it if missing.
func setScalar(m *yaml.Node, key, value string) {
	if v := findValue(m, key); v != nil {
		v.SetString(value)
		return
	}
	k := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key}
	v := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
	m.Content = append(m.Content, k, v)
}
