package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseFile parses template definitions from a YAML file. A file may contain
// multiple templates as separate YAML documents.
func ParseFile(path string) ([]Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file %s: %w", path, err)
	}

	templates, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return templates, nil
}

// Parse parses template definitions from YAML bytes.
func Parse(data []byte) ([]Template, error) {
	var templates []Template

	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc templateDoc
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}

		tpl, err := doc.template()
		if err != nil {
			return nil, err
		}

		if err := Validate(tpl); err != nil {
			return nil, fmt.Errorf("validate template %q: %w", tpl.SerialName, err)
		}

		templates = append(templates, tpl)
	}

	return templates, nil
}

// ParseDir parses all template definitions from a directory, including
// subdirectories.
func ParseDir(dir string) ([]Template, error) {
	var templates []Template

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			sub, err := ParseDir(path)
			if err != nil {
				return nil, err
			}
			templates = append(templates, sub...)
			continue
		}

		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		parsed, err := ParseFile(path)
		if err != nil {
			return nil, err
		}

		templates = append(templates, parsed...)
	}

	return templates, nil
}

// templateDoc is the YAML document shape for a template definition:
//
//	type: Node
//	params: [T]
//	fields:
//	  id:       { type: Uuid }
//	  child:    { type: "Node?" }
//	  children: { type: "List<Node>", optional: true }
//
// Fields are declared as a mapping; declaration order is preserved and
// assigns positional indexes unless an explicit index is given.
type templateDoc struct {
	Type        string            `yaml:"type"`
	Params      []string          `yaml:"params"`
	Annotations map[string]string `yaml:"annotations"`
	Fields      yaml.Node         `yaml:"fields"`
}

type fieldDoc struct {
	Type        string            `yaml:"type"`
	Optional    bool              `yaml:"optional"`
	Index       *int              `yaml:"index"`
	Annotations map[string]string `yaml:"annotations"`
}

func (d templateDoc) template() (Template, error) {
	tpl := Template{
		SerialName:  d.Type,
		TypeParams:  d.Params,
		Annotations: annotationList(d.Annotations),
	}

	if d.Fields.Kind == 0 {
		return tpl, nil
	}
	if d.Fields.Kind != yaml.MappingNode {
		return Template{}, fmt.Errorf("template %q: fields must be a mapping", d.Type)
	}

	// Mapping content alternates key and value nodes; walking it directly
	// keeps the declaration order that map decoding would lose.
	nextIndex := 0
	for i := 0; i+1 < len(d.Fields.Content); i += 2 {
		keyNode := d.Fields.Content[i]
		valNode := d.Fields.Content[i+1]

		var fd fieldDoc
		if err := valNode.Decode(&fd); err != nil {
			return Template{}, fmt.Errorf("template %q: field %q: %w", d.Type, keyNode.Value, err)
		}

		ref, err := ParseTypeExpr(fd.Type)
		if err != nil {
			return Template{}, fmt.Errorf("template %q: field %q: %w", d.Type, keyNode.Value, err)
		}

		index := nextIndex
		if fd.Index != nil {
			index = *fd.Index
		}
		nextIndex = index + 1

		tpl.Fields = append(tpl.Fields, Field{
			Index:       index,
			Name:        keyNode.Value,
			Type:        ref,
			Optional:    fd.Optional,
			Annotations: annotationList(fd.Annotations),
		})
	}

	return tpl, nil
}

// annotationList converts an annotation mapping to a sorted list so parsed
// templates compare deterministically.
func annotationList(m map[string]string) []Annotation {
	if len(m) == 0 {
		return nil
	}
	list := make([]Annotation, 0, len(m))
	for name, value := range m {
		list = append(list, Annotation{Name: name, Value: value})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}
