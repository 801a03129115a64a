package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
)

const defaultMaxTokens = 8192

// ClientConfig contains configuration for creating a Client.
type ClientConfig struct {
	// Model is the primary model name.
	Model string
	// FallbackModel is tried when the primary model exhausts its retries.
	FallbackModel string
	// APIKey is the Anthropic API key. If empty, uses ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through AWS Bedrock instead of the direct API.
	UseAWSBedrock bool
	// AWSRegion is the AWS region for Bedrock (e.g. "us-west-2").
	AWSRegion string
	// AWSProfile is the optional AWS profile name to use.
	AWSProfile string
	// MaxRetries is how many times a failing call is retried per model.
	MaxRetries int
	// BackoffBase is the initial backoff delay between retries.
	BackoffBase time.Duration
	// BackoffCap bounds the exponential backoff delay.
	BackoffCap time.Duration
}

// Client implements Generator on the Anthropic SDK with bounded retry,
// exponential backoff, and primary-to-fallback model failover.
type Client struct {
	inner         anthropic.Client
	model         anthropic.Model
	fallbackModel anthropic.Model
	maxRetries    int
	backoffBase   time.Duration
	backoffCap    time.Duration

	// invoke performs one model call; replaced in tests.
	invoke func(ctx context.Context, model anthropic.Model, req Request) (string, error)
}

// NewClient creates a new Anthropic-backed generation client.
func NewClient(cfg ClientConfig) (*Client, error) {
	var opts []option.RequestOption

	if cfg.UseAWSBedrock {
		ctx := context.Background()
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(ctx, loadOpts...))
	} else {
		apiKey := cfg.APIKey
		if apiKey == "" {
			apiKey = os.Getenv("ANTHROPIC_API_KEY")
		}
		if apiKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
		}
		opts = append(opts, option.WithAPIKey(apiKey))
	}

	c := &Client{
		inner:         anthropic.NewClient(opts...),
		model:         anthropic.Model(cfg.Model),
		fallbackModel: anthropic.Model(cfg.FallbackModel),
		maxRetries:    cfg.MaxRetries,
		backoffBase:   cfg.BackoffBase,
		backoffCap:    cfg.BackoffCap,
	}
	if c.model == "" {
		c.model = anthropic.ModelClaudeSonnet4_20250514
	}
	if c.maxRetries < 1 {
		c.maxRetries = 3
	}
	if c.backoffBase <= 0 {
		c.backoffBase = time.Second
	}
	if c.backoffCap <= 0 {
		c.backoffCap = 30 * time.Second
	}
	c.invoke = c.callAPI
	return c, nil
}

// Generate implements Generator. Each candidate model gets maxRetries
// attempts with exponential backoff before the next model is tried.
func (c *Client) Generate(ctx context.Context, req Request) (string, error) {
	models := []anthropic.Model{c.model}
	if req.Model != "" {
		models = []anthropic.Model{anthropic.Model(req.Model)}
	}
	if c.fallbackModel != "" && c.fallbackModel != models[0] {
		models = append(models, c.fallbackModel)
	}

	var lastErr error
	for _, model := range models {
		for attempt := 0; attempt < c.maxRetries; attempt++ {
			if attempt > 0 {
				if err := sleepCtx(ctx, c.backoff(attempt)); err != nil {
					return "", fmt.Errorf("%w: %v", ErrGeneration, err)
				}
			}

			text, err := c.invoke(ctx, model, req)
			if err == nil {
				return text, nil
			}
			lastErr = err

			if ctx.Err() != nil {
				return "", fmt.Errorf("%w: %v", ErrGeneration, ctx.Err())
			}
		}
	}
	return "", fmt.Errorf("%w: %v", ErrGeneration, lastErr)
}

// backoff returns the delay before the given retry attempt (1-indexed),
// doubling each time and capped at backoffCap.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.backoffBase
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= c.backoffCap {
			return c.backoffCap
		}
	}
	if d > c.backoffCap {
		return c.backoffCap
	}
	return d
}

func (c *Client) callAPI(ctx context.Context, model anthropic.Model, req Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.renderPrompt())),
		},
	}
	if req.SystemPrompt != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.SystemPrompt}}
	}

	resp, err := c.inner.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("API call failed: %w", err)
	}

	var result strings.Builder
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			result.WriteString(variant.Text)
		}
	}
	return result.String(), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
