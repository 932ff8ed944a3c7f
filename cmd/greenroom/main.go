// cmd/greenroom/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/satireworks/greenroom/internal/api"
	"github.com/satireworks/greenroom/internal/app"
	"github.com/satireworks/greenroom/internal/config"
	"github.com/satireworks/greenroom/internal/di"
	"github.com/satireworks/greenroom/internal/models"
	"github.com/satireworks/greenroom/internal/services"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "greenroom",
		Short: "Satirical video script studio",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(seedCmd())
	rootCmd.AddCommand(exportCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// bootstrap loads configuration and brings up the full service graph.
func bootstrap() (*config.Config, error) {
	baseConfig, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	for _, dir := range []string{baseConfig.DataDir, filepath.Join(baseConfig.DataDir, "exports"), baseConfig.LogDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	if err := config.InitConfig(baseConfig.DataDir); err != nil {
		return nil, fmt.Errorf("initializing configuration: %w", err)
	}

	if err := app.InitServices(); err != nil {
		return nil, fmt.Errorf("initializing services: %w", err)
	}

	return baseConfig, nil
}

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			baseConfig, err := bootstrap()
			if err != nil {
				return err
			}
			if port == "" {
				port = baseConfig.Port
			}

			router, err := api.SetupRouter()
			if err != nil {
				return fmt.Errorf("setting up routes: %w", err)
			}

			srv := &http.Server{
				Addr:    ":" + port,
				Handler: router,
			}

			errCh := make(chan error, 1)
			go func() {
				fmt.Printf("listening on :%s\n", port)
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					errCh <- err
				}
			}()

			quit := make(chan os.Signal, 1)
			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			select {
			case err := <-errCh:
				return err
			case <-quit:
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (defaults to PORT env)")
	return cmd
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create a demo project with sample material",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}

			container := di.GetContainer()
			projects := container.Get("project").(*services.ProjectService)
			articles := container.Get("article").(*services.ArticleService)
			strategies := container.Get("strategy").(*services.StrategyService)
			scripts := container.Get("script").(*services.ScriptService)

			project, err := projects.CreateProject(services.CreateProjectRequest{
				Name:        "Demo: City Council Bans Weather",
				Description: "Sample project seeded for local development.",
				Lens:        "bureaucratic overreach",
				Format:      models.FormatNewsParody,
			})
			if err != nil {
				return err
			}

			if _, err := articles.AddArticle(project.ID, services.CreateArticleRequest{
				Title:   "Council votes 7-2 to regulate cumulus clouds",
				Content: "In a marathon session, the city council moved to require permits for all precipitation events within city limits. Critics called the measure unenforceable. The mayor's office declined to comment on whether fog counts.",
				Source:  "The Daily Ledger",
			}); err != nil {
				return err
			}

			strategy, err := strategies.CreateStrategy(project.ID, services.StrategyRequest{
				Concept:         "A news desk treats the weather ban as a routine policy story.",
				SatiricalAngles: []string{"deadpan bureaucracy", "experts who explain nothing"},
				Archetypes:      []string{"unflappable anchor", "overwhelmed field reporter"},
				VisualStyle:     "cable news, circa 2004",
			})
			if err != nil {
				return err
			}
			if _, err := strategies.SetStatus(strategy.ID, models.StrategyApproved); err != nil {
				return err
			}

			script, err := scripts.CreateScript(project.ID, services.ScriptRequest{
				Title:   "Segment 1: The Ban",
				Logline: "The anchor introduces the weather ban with total sincerity.",
			})
			if err != nil {
				return err
			}

			shot, _, err := scripts.AddShot(script.ID, services.ShotRequest{
				PanelNumber:   1,
				LengthSeconds: 4.5,
				Camera:        "medium close-up, news desk",
				Visual:        "anchor squares papers, chyron reads WEATHER: BANNED",
				Action:        "anchor delivers the headline without blinking",
				Lighting:      "flat studio key",
			})
			if err != nil {
				return err
			}

			if _, err := scripts.SetSoundNotes(shot.ID, services.SoundNotesRequest{
				Ambience: "newsroom hum",
				Music:    "urgent synth sting, then silence",
			}); err != nil {
				return err
			}

			fmt.Printf("seeded project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}
}

func exportCmd() *cobra.Command {
	var format string
	var outPath string

	cmd := &cobra.Command{
		Use:   "export [project-id]",
		Short: "Export a project as a production brief",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := bootstrap(); err != nil {
				return err
			}

			exports := di.GetContainer().Get("export").(*services.ExportService)

			var content []byte
			var err error
			switch format {
			case "json":
				content, err = exports.ExportJSON(args[0])
			case "markdown", "md":
				content, err = exports.ExportMarkdown(args[0])
			default:
				return fmt.Errorf("unknown format %q (want json or markdown)", format)
			}
			if err != nil {
				return err
			}

			if outPath == "" {
				fmt.Println(string(content))
				return nil
			}

			if err := os.WriteFile(outPath, content, 0644); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "export format: json or markdown")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write to file instead of stdout")
	return cmd
}
