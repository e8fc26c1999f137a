package storage

import (
	"fmt"

	"menumaker/internal/apperrors"
	"menumaker/internal/recipe"

	"gopkg.in/yaml.v3"
)

// LoadGroups reads the ingredient groups file: an ordered mapping of category to the
// list of its ingredients.
func LoadGroups(path string) (*recipe.Groups, error) {
	root, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	if root == nil {
		return recipe.NewGroups(nil)
	}
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: %s: groups must be a mapping of category to ingredients", apperrors.ErrConfig, path)
	}

	entries := make([]recipe.GroupEntry, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		entry := recipe.GroupEntry{Category: recipe.Category(key.Value)}
		if !isNull(val) {
			if err := val.Decode(&entry.Ingredients); err != nil {
				return nil, fmt.Errorf("%w: %s: line %d: ingredients of %q: %v", apperrors.ErrConfig, path, val.Line, key.Value, err)
			}
		}
		entries = append(entries, entry)
	}

	groups, err := recipe.NewGroups(entries)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return groups, nil
}

// SaveGroups writes groups back in category order, keeping a backup of the previous
// file.
func SaveGroups(path string, groups *recipe.Groups) error {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	for _, e := range groups.Entries() {
		list := &yaml.Node{Kind: yaml.SequenceNode}
		for _, ing := range e.Ingredients {
			list.Content = append(list.Content, &yaml.Node{Kind: yaml.ScalarNode, Value: ing})
		}
		doc.Content = append(doc.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: string(e.Category)},
			list,
		)
	}

	data, err := encode(doc)
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}
	return replaceFile(path, data)
}
