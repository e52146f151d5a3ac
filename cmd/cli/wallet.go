package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/iho/democredit/internal/adapter/http/middleware"
)

const maxErrorBody = 200

// apiClient talks to the wallet HTTP API.
type apiClient struct {
	baseURL string
	token   string
	http    *http.Client
}

// apiResponse mirrors the response envelope.
type apiResponse struct {
	Successful bool            `json:"successful"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data,omitempty"`
}

func newAPIClient(baseURL, token string, timeout time.Duration) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) (*apiResponse, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.IdempotencyKeyHeader, ulid.Make().String())
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var out apiResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unexpected response (status %d): %s", resp.StatusCode, truncate(string(raw), maxErrorBody))
	}
	if resp.StatusCode >= http.StatusBadRequest || !out.Successful {
		return &out, fmt.Errorf("%s (status %d)", out.Message, resp.StatusCode)
	}
	return &out, nil
}

type amountBody struct {
	Amount json.Number `json:"amount"`
	To     string      `json:"to,omitempty"`
}

func walletCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "wallet",
		Short: "Move money through the wallet API",
	}

	run := func(method string, path func(args []string) string, body func(args []string) any) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			resp, err := newAPIClient(baseURL, token, timeout).do(ctx, method, path(args), body(args))
			if err != nil {
				return err
			}
			printJSON(resp)
			return nil
		}
	}
	noBody := func([]string) any { return nil }

	cmd.AddCommand(
		&cobra.Command{
			Use:   "fund [accountNo] [amount]",
			Short: "Credit an account",
			Args:  cobra.ExactArgs(2),
			RunE: run(http.MethodPut,
				func(args []string) string { return "/api/fund/" + args[0] },
				func(args []string) any { return amountBody{Amount: json.Number(args[1])} }),
		},
		&cobra.Command{
			Use:   "withdraw [accountNo] [amount]",
			Short: "Debit an account",
			Args:  cobra.ExactArgs(2),
			RunE: run(http.MethodPut,
				func(args []string) string { return "/api/withdraw/" + args[0] },
				func(args []string) any { return amountBody{Amount: json.Number(args[1])} }),
		},
		&cobra.Command{
			Use:   "transfer [fromAccountNo] [toAccountNo] [amount]",
			Short: "Move money between two accounts",
			Args:  cobra.ExactArgs(3),
			RunE: run(http.MethodPut,
				func(args []string) string { return "/api/transfer/" + args[0] },
				func(args []string) any { return amountBody{Amount: json.Number(args[2]), To: args[1]} }),
		},
		&cobra.Command{
			Use:   "balance [accountNo]",
			Short: "Show an account and its balance",
			Args:  cobra.ExactArgs(1),
			RunE: run(http.MethodGet,
				func(args []string) string { return "/api/accounts/" + args[0] },
				noBody),
		},
	)

	return cmd
}
