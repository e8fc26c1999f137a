package storage

import (
	"fmt"
	"time"

	"menumaker/internal/apperrors"
	"menumaker/internal/planner"
	"menumaker/internal/recipe"

	"gopkg.in/yaml.v3"
)

const weekdaysKey = "weekdays"

// LoadRules reads the weekly rule file. The document maps "weekdays" to an ordered
// mapping of weekday to meals, each meal to its filter; every other top-level key is
// a meal and its "HH:MM" time. The whole document may also be wrapped in a one item
// sequence, as older files are.
func LoadRules(path string, groups *recipe.Groups) (*planner.WeeklyRule, error) {
	root, err := readDocument(path)
	if err != nil {
		return nil, err
	}
	rule, err := parseRules(root, groups)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rule, nil
}

func parseRules(root *yaml.Node, groups *recipe.Groups) (*planner.WeeklyRule, error) {
	if root != nil && root.Kind == yaml.SequenceNode {
		if len(root.Content) == 0 {
			root = nil
		} else {
			root = root.Content[0]
		}
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: rule document must be a mapping", apperrors.ErrConfig)
	}

	rule := &planner.WeeklyRule{
		Days:      make(map[time.Weekday][]planner.MealSpec),
		MealTimes: make(map[recipe.Meal]planner.TimeOfDay),
	}
	var weekdays *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if key.Value == weekdaysKey {
			weekdays = val
			continue
		}
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: meal time of %q must be \"HH:MM\"", apperrors.ErrConfig, val.Line, key.Value)
		}
		tod, err := planner.ParseTimeOfDay(val.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", val.Line, err)
		}
		rule.MealTimes[recipe.Meal(key.Value)] = tod
	}

	if weekdays == nil || weekdays.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: missing %q mapping", apperrors.ErrConfig, weekdaysKey)
	}
	for i := 0; i+1 < len(weekdays.Content); i += 2 {
		key, val := weekdays.Content[i], weekdays.Content[i+1]
		wd, err := planner.ParseWeekday(key.Value)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", key.Line, err)
		}
		if _, dup := rule.Days[wd]; dup {
			return nil, fmt.Errorf("%w: line %d: %s listed twice", apperrors.ErrConfig, key.Line, wd)
		}
		meals, err := parseMeals(val, groups)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", wd, err)
		}
		rule.Days[wd] = meals
		rule.Order = append(rule.Order, wd)
	}

	if err := rule.Validate(); err != nil {
		return nil, err
	}
	return rule, nil
}

func parseMeals(n *yaml.Node, groups *recipe.Groups) ([]planner.MealSpec, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: meals must be a mapping of meal to filter", apperrors.ErrConfig, n.Line)
	}
	meals := make([]planner.MealSpec, 0, len(n.Content)/2)
	seen := make(map[string]bool)
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		if seen[key.Value] {
			return nil, fmt.Errorf("%w: line %d: meal %q listed twice", apperrors.ErrConfig, key.Line, key.Value)
		}
		seen[key.Value] = true

		raw := ""
		if !isNull(val) {
			if val.Kind != yaml.ScalarNode {
				return nil, fmt.Errorf("%w: line %d: filter of %q must be text", apperrors.ErrConfig, val.Line, key.Value)
			}
			raw = val.Value
		}
		meals = append(meals, planner.MealSpec{
			Meal:   recipe.Meal(key.Value),
			Filter: planner.ParseFilter(raw, groups),
		})
	}
	return meals, nil
}

func isNull(n *yaml.Node) bool {
	return n == nil || (n.Kind == yaml.ScalarNode && n.Tag == "!!null")
}
