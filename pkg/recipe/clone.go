package recipe

import (
	"reciperepo/domain"
	"strconv"
	"strings"
)

// CloneToText renders a recipe as the plain-text block users copy to their clipboard.
func CloneToText(recipe domain.Recipe) string {
	var b strings.Builder
	b.WriteString("Recipe: ")
	b.WriteString(recipe.Name)
	b.WriteString("\n\nIngredients:")
	for _, ing := range recipe.Ingredients {
		b.WriteString("\n- ")
		b.WriteString(ing.Quantity)
		if ing.Unit != "" {
			b.WriteString(" ")
			b.WriteString(ing.Unit)
		}
		b.WriteString(" ")
		b.WriteString(ing.Name)
	}
	b.WriteString("\n\nInstructions:")
	for _, step := range recipe.Steps {
		b.WriteString("\n")
		b.WriteString(strconv.Itoa(step.Order))
		b.WriteString(". ")
		b.WriteString(step.Description)
	}
	return b.String()
}
