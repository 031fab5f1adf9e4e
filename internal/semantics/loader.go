package semantics

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Load scans dir once and builds the registry from every .json, .yaml and
// .yml document found there, in file name order. Each document holds a list
// of descriptors; a single object is read as a one-element list.
func Load(dir string, log *logrus.Entry) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read semantics dir %s: %w", dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".json", ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var all []Descriptor
	for _, name := range names {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read semantics file %s: %w", path, err)
		}
		descriptors, err := decodeDocument(name, data)
		if err != nil {
			return nil, fmt.Errorf("decode semantics file %s: %w", path, err)
		}
		if log != nil {
			log.WithFields(logrus.Fields{"file": name, "count": len(descriptors)}).Debug("Loaded semantics document")
		}
		all = append(all, descriptors...)
	}

	r, err := build(all, log)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.WithFields(logrus.Fields{"dir": dir, "semantics": r.Len()}).Info("Semantics registry loaded")
	}
	return r, nil
}

func decodeDocument(name string, data []byte) ([]Descriptor, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if strings.EqualFold(filepath.Ext(name), ".json") {
		if trimmed[0] == '{' {
			var d Descriptor
			if err := json.Unmarshal(trimmed, &d); err != nil {
				return nil, err
			}
			return []Descriptor{d}, nil
		}
		var list []Descriptor
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var node yaml.Node
	if err := yaml.Unmarshal(trimmed, &node); err != nil {
		return nil, err
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	if node.Content[0].Kind == yaml.MappingNode {
		var d Descriptor
		if err := node.Content[0].Decode(&d); err != nil {
			return nil, err
		}
		return []Descriptor{d}, nil
	}
	var list []Descriptor
	if err := node.Content[0].Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}
