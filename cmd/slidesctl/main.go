package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"lecture-slides-backend/internal/app"
	"lecture-slides-backend/internal/config"
	"lecture-slides-backend/internal/search"
	"lecture-slides-backend/models"
	"lecture-slides-backend/services"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:           "slidesctl",
		Short:         "Operate the lecture slides backend from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("slidesctl %s\n", version)
		},
	})

	rootCmd.AddCommand(newIngestCmd())
	rootCmd.AddCommand(newSlidesCmd())
	rootCmd.AddCommand(newSeedCoursesCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newIngestCmd() *cobra.Command {
	var (
		courseID   string
		courseName string
		title      string
		dryRun     bool
	)

	cmd := &cobra.Command{
		Use:   "ingest <file.pdf>",
		Short: "Extract a PDF and index it as a lecture slide",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", args[0], err)
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
			defer cancel()

			var index search.Index
			if dryRun {
				index = search.NewMemoryStore(search.DefaultSearchExcludes...)
			} else {
				store, err := openStore(ctx, cfg)
				if err != nil {
					return err
				}
				index = store
			}

			slides, closeEncoder, err := app.NewSlideService(ctx, cfg, index, nil)
			if err != nil {
				return err
			}
			defer closeEncoder()

			res, err := slides.Upload(ctx, &models.UploadRequest{
				CourseID:   courseID,
				CourseName: courseName,
				Title:      title,
				Filename:   filepath.Base(args[0]),
				Content:    content,
			})
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}

	cmd.Flags().StringVar(&courseID, "course-id", "", "Course identifier")
	cmd.Flags().StringVar(&courseName, "course-name", "", "Course display name")
	cmd.Flags().StringVar(&title, "title", "", "Slide deck title")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Run extraction and embedding without writing to Elasticsearch")
	return cmd
}

func newSlidesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "slides <course_id>",
		Short: "List the slides indexed for a course",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()

			store, err := openStore(ctx, cfg)
			if err != nil {
				return err
			}

			slides := services.NewSlideService(store, nil, nil, cfg.StorePDFBinary, nil)
			list, err := slides.ListByCourse(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(list)
		},
	}
}

func newSeedCoursesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed-courses <file.yaml>",
		Short: "Create courses listed in a YAML file, skipping ones that exist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			courses, err := loadCourses(f)
			if err != nil {
				return err
			}

			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
			defer cancel()

			client, err := config.ConnectMongoDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())

			summary, err := seedCourses(ctx, services.NewCourseService(client.Database(cfg.DBName)), courses)
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}
}

func openStore(ctx context.Context, cfg *config.Config) (*search.Store, error) {
	es, err := config.NewElasticsearchClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := app.NewStore(es, cfg, nil)
	if err := store.EnsureIndex(ctx, search.SlideMappings(cfg.EmbeddingMode, cfg.VectorDimensions)); err != nil {
		return nil, err
	}
	return store, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// isSkippable reports seed errors that should not abort the run.
func isSkippable(err error) bool {
	return errors.Is(err, services.ErrCourseExists)
}
