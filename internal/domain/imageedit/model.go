package imageedit

// Request is one image edit.
type Request struct {
	Image    []byte
	MimeType string
	Prompt   string
}

// Result points at the edited image hosted by the model provider.
type Result struct {
	URL  string
	Kind OutputKind
}

// Config wires runtime settings for image editing.
type Config struct {
	Model string
}
