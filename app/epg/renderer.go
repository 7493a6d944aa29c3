package epg

import (
	"regexp"
	"strings"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// emptyValueMarker stands in for a placeholder whose resolved value is empty,
// so the spacing it leaves behind can be collapsed without touching any
// whitespace the template author wrote.
const emptyValueMarker = "\x00"

var emptyValueCleaner = strings.NewReplacer(
	" "+emptyValueMarker+" ", " ",
	" "+emptyValueMarker, "",
	emptyValueMarker+" ", "",
	emptyValueMarker, "",
)

// Renderer substitutes {variable} placeholders in authored templates.
type Renderer struct{}

func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render replaces every known placeholder with its context value. Placeholders
// naming a variable absent from the context pass through literally, so a typo
// in a template stays visible instead of silently vanishing. Whitespace left
// behind by empty values is collapsed; authored spacing is otherwise kept.
func (r *Renderer) Render(template string, ctx TemplateContext) string {
	out := placeholderPattern.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := ctx[name]
		if !ok {
			return match
		}
		if value == "" {
			return emptyValueMarker
		}
		return value
	})
	return emptyValueCleaner.Replace(out)
}
