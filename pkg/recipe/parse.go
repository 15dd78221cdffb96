package recipe

import (
	"reciperepo/domain"
	"sort"
	"strings"
)

const defaultQuantity = "1"

// ParseIngredientLine reads one line of the ingredient textarea. The first token is the quantity,
// the second the unit as long as at least one more token is left for the name. A single token
// becomes the name with a quantity of 1. ok is false for blank lines.
func ParseIngredientLine(line string) (ingredient domain.Ingredient, ok bool) {
	tokens := strings.Fields(line)
	switch len(tokens) {
	case 0:
		return domain.Ingredient{}, false
	case 1:
		return domain.Ingredient{Quantity: defaultQuantity, Name: tokens[0]}, true
	case 2:
		return domain.Ingredient{Quantity: tokens[0], Name: tokens[1]}, true
	default:
		return domain.Ingredient{
			Quantity: tokens[0],
			Unit:     tokens[1],
			Name:     strings.Join(tokens[2:], " "),
		}, true
	}
}

// ParseIngredients keeps the authoring order of the non-blank lines.
func ParseIngredients(text string) []domain.Ingredient {
	ingredients := make([]domain.Ingredient, 0)
	for _, line := range strings.Split(text, "\n") {
		if ingredient, ok := ParseIngredientLine(line); ok {
			ingredients = append(ingredients, ingredient)
		}
	}
	return ingredients
}

// ParseSteps numbers non-blank lines from 1; blank lines do not reserve a number.
func ParseSteps(text string) []domain.Step {
	steps := make([]domain.Step, 0)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		steps = append(steps, domain.Step{
			Order:       len(steps) + 1,
			Description: line,
		})
	}
	return steps
}

// NormalizeTags trims, lowercases and deduplicates tags. The result is sorted.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]struct{}, len(tags))
	result := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		result = append(result, tag)
	}
	sort.Strings(result)
	return result
}
