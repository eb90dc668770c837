package job

import (
	"io"
	"time"
)

// State is a step of the image processing lifecycle.
type State string

const (
	StateReceived     State = "received"
	StateFileStored   State = "file_stored"
	StateFileRead     State = "file_read"
	StateModelInvoked State = "model_invoked"
	StateSucceeded    State = "succeeded"
	StateFailed       State = "failed"
)

// Upload is the image part of a process request.
type Upload struct {
	Filename string
	MimeType string
	Content  io.Reader
}

// Result is returned to the client once the edit finishes.
type Result struct {
	ModifiedImageURL string `json:"modifiedImageUrl"`
	OriginalFileName string `json:"originalFileName"`
}

// Config wires stage timeouts and upload limits.
type Config struct {
	WeatherTimeout time.Duration
	PromptTimeout  time.Duration
	EditTimeout    time.Duration
	CleanupTimeout time.Duration
	MaxUploadBytes int64
}

func (c Config) withDefaults() Config {
	if c.WeatherTimeout <= 0 {
		c.WeatherTimeout = 30 * time.Second
	}
	if c.PromptTimeout <= 0 {
		c.PromptTimeout = 30 * time.Second
	}
	if c.EditTimeout <= 0 {
		c.EditTimeout = 120 * time.Second
	}
	if c.CleanupTimeout <= 0 {
		c.CleanupTimeout = 10 * time.Second
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = 10 << 20
	}
	return c
}
