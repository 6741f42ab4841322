package blueprint

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/keremk/tutopanda/internal/errkind"
)

// TreeNode is one loaded blueprint document positioned in the tree.
type TreeNode struct {
	ID            string
	NamespacePath []string
	Dimension     string // non-empty if this node repeats per index of this symbol
	Document      Document
	Children      map[string]*TreeNode
}

// Load reads the root document at path and recursively loads every
// referenced sub-blueprint, detecting cycles by absolute path.
func Load(path string) (*TreeNode, error) {
	visiting := make(map[string]bool)
	return load(path, nil, "", visiting)
}

func load(path string, namespacePath []string, dimension string, visiting map[string]bool) (*TreeNode, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errkind.Wrap(errkind.UserInput, err, "resolve blueprint path %s", path)
	}
	if visiting[abs] {
		return nil, errkind.New(errkind.UserInput, "circular sub-blueprint reference at %s", abs)
	}
	visiting[abs] = true
	defer delete(visiting, abs)

	doc, err := decodeDocument(abs)
	if err != nil {
		return nil, err
	}

	node := &TreeNode{
		ID:            doc.Meta.ID,
		NamespacePath: namespacePath,
		Dimension:     dimension,
		Document:      doc,
		Children:      make(map[string]*TreeNode),
	}

	dir := filepath.Dir(abs)
	for _, sub := range doc.SubBlueprints {
		name, dim := splitDimensionSuffix(sub.Name)
		if name == "" {
			return nil, errkind.New(errkind.UserInput, "sub-blueprint reference with empty name in %s", abs)
		}
		childPath := sub.Path
		if childPath == "" {
			childPath = name
		}
		resolved, err := resolveChildPath(dir, childPath)
		if err != nil {
			return nil, errkind.Wrap(errkind.UserInput, err, "resolve sub-blueprint %q", name)
		}
		childNamespace := append(append([]string{}, namespacePath...), name)
		child, err := load(resolved, childNamespace, dim, visiting)
		if err != nil {
			return nil, err
		}
		if child.ID != name {
			return nil, errkind.New(errkind.UserInput, "sub-blueprint %q declares id %q, expected %q", name, child.ID, name)
		}
		node.Children[name] = child
	}

	return node, nil
}

// splitDimensionSuffix splits "Name[symbol]" into ("Name", "symbol"), or
// returns (name, "") when there is no suffix.
func splitDimensionSuffix(name string) (string, string) {
	i := strings.IndexByte(name, '[')
	if i < 0 {
		return name, ""
	}
	j := strings.IndexByte(name[i:], ']')
	if j < 0 {
		return name, ""
	}
	return name[:i], name[i+1 : i+j]
}

func resolveChildPath(dir, childPath string) (string, error) {
	if ext := filepath.Ext(childPath); ext != "" {
		return filepath.Join(dir, childPath), nil
	}
	for _, ext := range []string{".toml", ".yaml", ".yml"} {
		candidate := filepath.Join(dir, childPath+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no .toml or .yaml file found for %q in %s", childPath, dir)
}

func decodeDocument(path string) (Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Document{}, errkind.Wrap(errkind.UserInput, err, "read blueprint %s", path)
	}
	var doc Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(string(raw), &doc); err != nil {
			return Document{}, errkind.Wrap(errkind.UserInput, err, "parse TOML blueprint %s", path)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return Document{}, errkind.Wrap(errkind.UserInput, err, "parse YAML blueprint %s", path)
		}
	default:
		return Document{}, errkind.New(errkind.UserInput, "unsupported blueprint encoding for %s", path)
	}
	if err := validateDocumentShape(path, doc); err != nil {
		return Document{}, err
	}
	return doc, nil
}
