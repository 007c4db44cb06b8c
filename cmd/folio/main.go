// folio serves a portfolio blog from a local store kept in sync with an optional remote.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dfryer1193/folio/api"
	"github.com/dfryer1193/folio/blog/application"
	"github.com/dfryer1193/folio/internal/rest"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

func main() {
	rootCmd := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio blog server with offline-first sync",
		Long: `Folio serves blog posts from a local store and keeps them in sync with a
remote backend (Supabase or Postgres) whenever it is reachable.

Configuration is read from the environment and an optional .env file.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(postsCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			a.monitor.Start()

			handler := rest.NewHandler(a.posts, application.NewMarkdownConverter(), api.Config{
				SupabaseURL:        a.cfg.SupabaseURL,
				SupabaseServiceKey: a.cfg.SupabaseServiceKey,
			})

			srv := &http.Server{
				Addr:    fmt.Sprintf(":%d", a.cfg.Port),
				Handler: rest.NewApi(handler, a.cfg.StaticRoot, a.cfg.LocalDBPath),
			}

			go func() {
				log.Info().Msg("Starting server on port :" + fmt.Sprint(a.cfg.Port))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal().Err(err).Msg("Failed to start server")
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
			<-quit

			log.Info().Msg("Shutting down server...")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				return fmt.Errorf("failed to shutdown server: %w", err)
			}

			log.Info().Msg("Server stopped")
			return nil
		},
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Replay queued offline changes against the remote store",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.coord.RemoteConfigured() {
				return fmt.Errorf("no remote backend configured")
			}

			synced, err := a.posts.Sync(cmd.Context())
			status := a.posts.Status()
			fmt.Fprintf(cmd.OutOrStdout(), "synced %d post(s), %d still pending\n", synced, status.Pending)
			return err
		},
	}
}

func postsCmd() *cobra.Command {
	var (
		status string
		query  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "posts",
		Short: "List posts from the configured stores",
		Long: `List posts from the configured stores.

Examples:
  # Drafts mentioning "agents"
  folio posts --status draft --query agents

  # Everything, as JSON cards
  folio posts --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := application.ParseStatusFilter(status)
			if err != nil {
				return err
			}

			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cards := application.RenderCards(a.posts.List(query, filter))
			out := cmd.OutOrStdout()

			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(cards)
			}

			for _, c := range cards {
				fmt.Fprintf(out, "%-32s %-9s %-20s %4d views %3d likes  %s\n",
					c.ID, c.Status, c.Date, c.Views, c.Likes, c.Title)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (all, published, draft)")
	cmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive search over title, excerpt, content and tags")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print cards as JSON")

	return cmd
}
