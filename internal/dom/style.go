package dom

import "strings"

type styleDeclaration struct {
	property string
	value    string
}

type inlineStyle []styleDeclaration

func parseInlineStyle(rawStyle string) inlineStyle {
	declarations := inlineStyle{}
	for _, segment := range strings.Split(rawStyle, ";") {
		property, value, found := strings.Cut(segment, ":")
		if !found {
			continue
		}
		property = strings.ToLower(strings.TrimSpace(property))
		value = strings.TrimSpace(value)
		if property == "" {
			continue
		}
		declarations.set(property, value)
	}
	return declarations
}

func (style inlineStyle) get(property string) string {
	normalized := strings.ToLower(strings.TrimSpace(property))
	for _, declaration := range style {
		if declaration.property == normalized {
			return declaration.value
		}
	}
	return ""
}

func (style *inlineStyle) set(property string, value string) {
	normalized := strings.ToLower(strings.TrimSpace(property))
	trimmedValue := strings.TrimSpace(value)
	for index, declaration := range *style {
		if declaration.property != normalized {
			continue
		}
		if trimmedValue == "" {
			*style = append((*style)[:index], (*style)[index+1:]...)
			return
		}
		(*style)[index].value = trimmedValue
		return
	}
	if trimmedValue == "" {
		return
	}
	*style = append(*style, styleDeclaration{property: normalized, value: trimmedValue})
}

func (style inlineStyle) String() string {
	parts := make([]string, 0, len(style))
	for _, declaration := range style {
		parts = append(parts, declaration.property+": "+declaration.value)
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "; ") + ";"
}
