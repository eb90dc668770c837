package imageedit

import "strings"

// OutputKind tags the shape an image model returned its result in.
type OutputKind int

const (
	OutputUnknown OutputKind = iota
	// OutputURLCallable is a value exposing a URL() accessor.
	OutputURLCallable
	// OutputURLString is a bare URL string.
	OutputURLString
	// OutputURLField is an object carrying a "url" field.
	OutputURLField
)

func (k OutputKind) String() string {
	switch k {
	case OutputURLCallable:
		return "url_callable"
	case OutputURLString:
		return "url_string"
	case OutputURLField:
		return "url_field"
	default:
		return "unknown"
	}
}

// Output is a normalized model result.
type Output struct {
	Kind OutputKind
	URL  string
}

type urlAccessor interface {
	URL() string
}

// ClassifyOutput normalizes the loosely typed result of a prediction. A single
// element list is unwrapped before classification.
func ClassifyOutput(raw any) Output {
	if list, ok := raw.([]any); ok && len(list) == 1 {
		raw = list[0]
	}
	if list, ok := raw.([]string); ok && len(list) == 1 {
		raw = list[0]
	}

	switch v := raw.(type) {
	case urlAccessor:
		return Output{Kind: OutputURLCallable, URL: strings.TrimSpace(v.URL())}
	case string:
		return Output{Kind: OutputURLString, URL: strings.TrimSpace(v)}
	case map[string]any:
		if u, ok := v["url"].(string); ok {
			return Output{Kind: OutputURLField, URL: strings.TrimSpace(u)}
		}
	case map[string]string:
		if u, ok := v["url"]; ok {
			return Output{Kind: OutputURLField, URL: strings.TrimSpace(u)}
		}
	}
	return Output{Kind: OutputUnknown}
}
