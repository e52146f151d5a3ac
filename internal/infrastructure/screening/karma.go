// Package screening checks prospective customers against the Adjutor Karma
// blacklist before an account is opened.
package screening

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/iho/democredit/internal/domain"
)

// identityNotFound is the message Karma returns with a 404 for a clean identity.
const identityNotFound = "Identity not found in karma"

// Verdict is the outcome of one screening lookup.
type Verdict string

const (
	VerdictClear       Verdict = "clear"
	VerdictBlacklisted Verdict = "blacklisted"
)

// KarmaClient queries the Karma blacklist API through a circuit breaker.
type KarmaClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	logger     zerolog.Logger
}

// KarmaConfig configures a KarmaClient.
type KarmaConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewKarmaClient creates a new Karma API client.
func NewKarmaClient(cfg KarmaConfig) *KarmaClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	logger := cfg.Logger.With().Str("component", "karma_client").Logger()

	settings := gobreaker.Settings{
		Name:        "karma",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &KarmaClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		token:   cfg.Token,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		breaker: gobreaker.NewCircuitBreaker(settings),
		logger:  logger,
	}
}

// Check implements usecase.ScreeningService.
func (c *KarmaClient) Check(ctx context.Context, phoneNumber string) error {
	verdict, err := c.Lookup(ctx, phoneNumber)
	if err != nil {
		return err
	}
	if verdict == VerdictBlacklisted {
		return domain.ErrBlacklisted
	}
	return nil
}

// Lookup returns the Karma verdict for an identity. Transport failures,
// unexpected statuses and an open breaker wrap domain.ErrScreeningUnavailable.
func (c *KarmaClient) Lookup(ctx context.Context, identity string) (Verdict, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.lookup(ctx, identity)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %w", domain.ErrScreeningUnavailable, err)
		}
		return "", err
	}

	return result.(Verdict), nil
}

func (c *KarmaClient) lookup(ctx context.Context, identity string) (Verdict, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(identity))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("%w: failed to create request: %w", domain.ErrScreeningUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: failed to send request to Karma: %w", domain.ErrScreeningUnavailable, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		c.logger.Warn().Str("phone_number", identity).Msg("identity is blacklisted")
		return VerdictBlacklisted, nil
	case http.StatusNotFound:
		var body struct {
			Message string `json:"message"`
		}
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &body) == nil && body.Message == identityNotFound {
			return VerdictClear, nil
		}
		return "", fmt.Errorf("%w: unexpected 404 from Karma: %s", domain.ErrScreeningUnavailable, strings.TrimSpace(string(raw)))
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("%w: Karma returned status %d: %s", domain.ErrScreeningUnavailable, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
}
