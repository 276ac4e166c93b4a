package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/d60-Lab/break-social/internal/api/middleware"
	"github.com/d60-Lab/break-social/internal/app"
	"github.com/d60-Lab/break-social/internal/service"
)

func newFeedCommand(root *rootOptions) *cobra.Command {
	var q service.FeedQuery
	var scope string
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Print a feed as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			q.Scope = service.Scope(scope)
			a, err := app.New(cmd.Context(), root.cfg)
			if err != nil {
				return err
			}
			defer a.Close(context.Background())

			items, err := a.Aggregator.Fetch(cmd.Context(), q)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(items)
		},
	}
	cmd.Flags().StringVar(&scope, "scope", string(service.ScopeNone), "none | author | query | trending")
	cmd.Flags().StringVar(&q.ViewerID, "viewer", "", "viewer id for liked/reposted flags")
	cmd.Flags().StringVar(&q.AuthorID, "author", "", "author id (scope=author)")
	cmd.Flags().StringVar(&q.Query, "query", "", "search text (scope=query)")
	cmd.Flags().BoolVar(&q.IncludeListings, "include-listings", false, "merge active listings into the home feed")
	return cmd
}

func newTokenCommand(root *rootOptions) *cobra.Command {
	var user string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Sign a bearer token for local testing",
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, err := middleware.NewTokenParser(root.cfg.Auth.JWTSecret, root.cfg.Auth.Issuer).Sign(user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), tok)
			return err
		},
	}
	cmd.Flags().StringVar(&user, "user", "", "user id (token subject)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
