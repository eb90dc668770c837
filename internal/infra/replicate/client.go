package replicate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	r8 "github.com/replicate/replicate-go"

	"github.com/yanqian/weatherlens/internal/domain/imageedit"
)

// Client runs hosted models on Replicate and waits for their output.
type Client struct {
	api    *r8.Client
	logger *slog.Logger
}

// NewClient constructs a Replicate client. baseURL is optional.
func NewClient(token, baseURL string, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("replicate api token cannot be empty")
	}
	opts := []r8.ClientOption{r8.WithToken(token)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, r8.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	api, err := r8.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("init replicate client: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{api: api, logger: logger.With("component", "replicate.client")}, nil
}

// Run creates a prediction for model ("owner/name" or "owner/name:version")
// and blocks until it reaches a terminal state.
func (c *Client) Run(ctx context.Context, model string, input map[string]any) (any, error) {
	started := time.Now()
	output, err := c.api.Run(ctx, model, r8.PredictionInput(input), nil)
	if err != nil {
		var modelErr *r8.ModelError
		if errors.As(err, &modelErr) && modelErr.Prediction != nil {
			c.logger.Warn("prediction failed", "model", model, "prediction_id", modelErr.Prediction.ID, "status", modelErr.Prediction.Status)
		}
		return nil, fmt.Errorf("run %s: %w", model, err)
	}
	c.logger.Info("prediction finished", "model", model, "latency_ms", time.Since(started).Milliseconds())
	return output, nil
}

var _ imageedit.ImageModel = (*Client)(nil)
