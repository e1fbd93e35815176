package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	recollect "github.com/kailas-cloud/recollect/pkg/sdk"
)

func queryCMD() *cobra.Command {
	var (
		addr     string
		provider string
		mode     string
		apiKey   string
		timeout  time.Duration
	)

	query := &cobra.Command{
		Use:   "query [description...]",
		Short: "Send a search request to a running server and print the JSON reply",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []recollect.Option{recollect.WithTimeout(timeout)}
			if apiKey != "" {
				opts = append(opts, recollect.WithAPIKey(apiKey))
			}
			client, err := recollect.New(addr, opts...)
			if err != nil {
				return fmt.Errorf("create client: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			resp, err := client.Search(ctx, recollect.SearchRequest{
				Query:    strings.Join(args, " "),
				Provider: recollect.Provider(provider),
				Mode:     recollect.SearchMode(mode),
			})
			if err != nil {
				return fmt.Errorf("search: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(resp)
		},
	}

	f := query.Flags()
	f.StringVar(&addr, "addr", "http://localhost:8080", "server base URL")
	f.StringVar(&provider, "type", string(recollect.ProviderDMM), "catalog provider: dmm, sokmil, dlsite, fc2")
	f.StringVar(&mode, "mode", string(recollect.ModeRetrieval), "search mode: retrieval, fictitious")
	f.StringVar(&apiKey, "api-key", os.Getenv("SEARCH_API_KEY"), "Bearer token when the server enforces auth")
	f.DurationVar(&timeout, "timeout", 60*time.Second, "request timeout")
	return query
}
