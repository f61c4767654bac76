package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "payflow-cli",
		Short: "PayFlow CLI tool",
		Long:  `A command line interface for interacting with the PayFlow API.`,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the PayFlow API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 10*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("PAYFLOW_TOKEN"), "Bearer token (defaults to PAYFLOW_TOKEN)")

	rootCmd.AddCommand(
		registerCmd(),
		loginCmd(),
		balanceCmd(),
		receiversCmd(),
		sendCmd(),
		historyCmd(),
		deleteCmd(),
		seedCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func registerCmd() *cobra.Command {
	var initialBalance string

	cmd := &cobra.Command{
		Use:   "register <name> <email> <password>",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			body := map[string]any{
				"name":     args[0],
				"email":    args[1],
				"password": args[2],
			}
			if initialBalance != "" {
				body["initial_balance"] = initialBalance
			}
			return doRequest(http.MethodPost, "/api/v1/accounts", body, true)
		},
	}

	cmd.Flags().StringVar(&initialBalance, "balance", "", "Initial balance")
	return cmd
}

func loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login <email> <password>",
		Short: "Authenticate and print a token",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodPost, "/api/v1/auth/login", map[string]any{
				"email":    args[0],
				"password": args[1],
			}, false)
		},
	}
}

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the authenticated account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return doRequest(http.MethodGet, "/api/v1/me", nil, false)
		},
	}
}

func receiversCmd() *cobra.Command {
	var query string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "receivers",
		Short: "List accounts you can send money to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/receivers?q=%s&limit=%d&offset=%d", query, limit, offset)
			return doRequest(http.MethodGet, path, nil, false)
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "Name or email filter")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}

func sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <receiver-id> <amount>",
		Short: "Transfer money to another account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			receiverID, err := parsePositiveInt(args[0])
			if err != nil {
				return fmt.Errorf("invalid receiver id: %w", err)
			}
			return doRequest(http.MethodPost, "/api/v1/transfers", map[string]any{
				"receiver_id": receiverID,
				"amount":      args[1],
			}, true)
		},
	}
}

func historyCmd() *cobra.Command {
	var includeDeleted bool
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List your transfers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := fmt.Sprintf("/api/v1/transfers?include_deleted=%t&limit=%d&offset=%d", includeDeleted, limit, offset)
			return doRequest(http.MethodGet, path, nil, false)
		},
	}

	cmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "Include soft-deleted transfers")
	cmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	cmd.Flags().IntVar(&offset, "offset", 0, "Page offset")
	return cmd
}

func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transfer-id>",
		Short: "Hide a transfer from your history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parsePositiveInt(args[0])
			if err != nil {
				return fmt.Errorf("invalid transfer id: %w", err)
			}
			return doRequest(http.MethodDelete, fmt.Sprintf("/api/v1/transfers/%d", id), nil, false)
		},
	}
}

func seedCmd() *cobra.Command {
	var count int
	var balance string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create demo accounts through the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for i := 1; i <= count; i++ {
				err := doRequest(http.MethodPost, "/api/v1/accounts", map[string]any{
					"name":            fmt.Sprintf("demo-user-%d", i),
					"email":           fmt.Sprintf("demo-user-%d@example.com", i),
					"password":        "demo-password",
					"initial_balance": balance,
				}, true)
				if err != nil {
					return fmt.Errorf("seeding account %d: %w", i, err)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&count, "count", 5, "Number of accounts to create")
	cmd.Flags().StringVar(&balance, "balance", "1000", "Initial balance per account")
	return cmd
}

func parsePositiveInt(s string) (int64, error) {
	var n int64
	if _, err := fmt.Sscanf(s, "%d", &n); err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("must be positive, got %d", n)
	}
	return n, nil
}

// doRequest issues an API call and prints the response body. Mutating
// requests carry a fresh idempotency key so network-level retries are
// safe.
func doRequest(method, path string, body any, idempotent bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if idempotent {
		req.Header.Set("Idempotency-Key", uuid.NewString())
	}

	client := &http.Client{Timeout: timeout}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		return fmt.Errorf("request failed (status %d): %s", resp.StatusCode, string(raw))
	}

	if len(raw) == 0 {
		fmt.Println("OK")
		return nil
	}

	var parsed any
	if err := json.Unmarshal(raw, &parsed); err != nil {
		fmt.Println(string(raw))
		return nil
	}
	printJSON(parsed)
	return nil
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("%v\n", v)
		return
	}
	fmt.Println(string(out))
}
