package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/heartmarshall/civic-client/internal/app"
	"github.com/heartmarshall/civic-client/internal/domain"
)

// handled lets the auth service observe an expired session before the
// error reaches the user.
func (c *cli) handled(cmd *cobra.Command, err error) error {
	if err != nil {
		c.app.Auth.HandleError(cmd.Context(), err)
	}
	return err
}

func (c *cli) submitCmd() *cobra.Command {
	var (
		text, category, location, image string
		quality                         float64
		dryRun                          bool
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "File a new report",
		Example: `  civic submit --text "Pothole on Main St" --category infrastructure \
      --location 40.7128,-74.0060 --image pothole.jpg`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			svc, err := c.app.Reports(app.Devices{Location: location, ImagePath: image})
			if err != nil {
				return err
			}

			draft := domain.Draft{Description: text, Category: category}
			// A missing location is reported by Compose as "location required".
			if err := svc.CaptureLocation(ctx, &draft); err != nil && domain.KindOf(err) != domain.KindPermissionDenied {
				return err
			}
			if err := svc.AttachImage(ctx, &draft, quality); err != nil && domain.KindOf(err) != domain.KindPermissionDenied {
				return err
			}

			if dryRun {
				sub, err := svc.Compose(draft)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "ok: %s at %s,%s (photo: %t)\n",
					sub.Category, sub.Latitude, sub.Longitude, sub.HasImage())
				return nil
			}

			report, err := svc.Submit(ctx, uuid.NewString(), draft)
			if err != nil {
				return c.handled(cmd, err)
			}
			return c.render(cmd, report, func(w io.Writer) error {
				return writeReport(w, *report)
			})
		},
	}

	f := cmd.Flags()
	f.StringVarP(&text, "text", "t", "", "description of the issue")
	f.StringVarP(&category, "category", "k", "", "issue category (see 'civic categories')")
	f.StringVarP(&location, "location", "l", "", `position as "lat,lon"`)
	f.StringVarP(&image, "image", "i", "", "photo to attach")
	f.Float64Var(&quality, "quality", 0.8, "image compression hint between 0 and 1")
	f.BoolVar(&dryRun, "dry-run", false, "validate the report without sending it")
	return cmd
}

func (c *cli) listCmd(use, short string, list func(*cobra.Command) ([]domain.Report, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reports, err := list(cmd)
			if err != nil {
				return c.handled(cmd, err)
			}
			return c.render(cmd, reports, func(w io.Writer) error {
				return writeReports(w, reports)
			})
		},
	}
}

func (c *cli) mineCmd() *cobra.Command {
	return c.listCmd("mine", "List your reports, newest first", func(cmd *cobra.Command) ([]domain.Report, error) {
		return c.app.API.ListMine(cmd.Context())
	})
}

func (c *cli) allCmd() *cobra.Command {
	return c.listCmd("all", "List every report, newest first", func(cmd *cobra.Command) ([]domain.Report, error) {
		return c.app.API.ListAll(cmd.Context())
	})
}

func (c *cli) getCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			report, err := c.app.API.Get(cmd.Context(), id)
			if err != nil {
				return c.handled(cmd, err)
			}
			return c.render(cmd, report, func(w io.Writer) error {
				return writeReport(w, *report)
			})
		},
	}
}

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "status ID STATUS",
		Short:     "Change the status of one of your reports",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"pending", "in_progress", "resolved", "rejected"},
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			status := domain.ReportStatus(strings.ToLower(strings.TrimSpace(args[1])))
			if !status.IsValid() {
				return domain.NewValidationError("status", "Invalid status. Must be one of: pending, in_progress, resolved, rejected")
			}
			got, err := c.app.API.UpdateStatus(cmd.Context(), id, status)
			if err != nil {
				return c.handled(cmd, err)
			}
			out := map[string]any{"id": id, "status": got}
			return c.render(cmd, out, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "Report %d is now %s\n", id, got)
				return err
			})
		},
	}
}

func (c *cli) nearbyCmd() *cobra.Command {
	var (
		location string
		radius   float64
	)

	cmd := &cobra.Command{
		Use:   "nearby",
		Short: "List reports around a position, closest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			lat, lon, ok := strings.Cut(location, ",")
			if !ok {
				return domain.NewValidationError("location", "location required")
			}
			at, err := domain.ParseCoordinates(lat, lon)
			if err != nil {
				return err
			}
			reports, err := c.app.API.Nearby(cmd.Context(), at, radius)
			if err != nil {
				return c.handled(cmd, err)
			}
			return c.render(cmd, reports, func(w io.Writer) error {
				return writeReports(w, reports)
			})
		},
	}
	cmd.Flags().StringVarP(&location, "location", "l", "", `center as "lat,lon"`)
	cmd.Flags().Float64VarP(&radius, "radius", "r", 5, "search radius in kilometres")
	return cmd
}

func (c *cli) statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show report counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			stats, err := c.app.API.Stats(cmd.Context())
			if err != nil {
				return c.handled(cmd, err)
			}
			return c.render(cmd, stats, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintf(tw, "Total:\t%d\n", stats.Total)
				fmt.Fprintf(tw, "Pending:\t%d\n", stats.Pending)
				fmt.Fprintf(tw, "Resolved:\t%d\n", stats.Resolved)
				fmt.Fprintf(tw, "Yours:\t%d\n", stats.Mine)
				return tw.Flush()
			})
		},
	}
}

func (c *cli) categoriesCmd() *cobra.Command {
	var local bool

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List issue categories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var cats []domain.CategoryInfo
			if local {
				for _, cat := range domain.Categories {
					cats = append(cats, domain.CategoryInfo{ID: cat.String(), Name: cat.Label()})
				}
			} else {
				var err error
				if cats, err = c.app.API.Categories(cmd.Context()); err != nil {
					return c.handled(cmd, err)
				}
			}
			return c.render(cmd, cats, func(w io.Writer) error {
				tw := newTable(w)
				fmt.Fprintln(tw, "ID\tNAME\t")
				for _, cat := range cats {
					fmt.Fprintf(tw, "%s\t%s %s\t\n", cat.ID, cat.Icon, cat.Name)
				}
				return tw.Flush()
			})
		},
	}
	cmd.Flags().BoolVar(&local, "local", false, "print the categories known to this client without asking the server")
	return cmd
}

func (c *cli) healthCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is reachable",
		RunE: func(cmd *cobra.Command, _ []string) error {
			status, err := c.app.API.Health(cmd.Context())
			if err != nil {
				return err
			}
			return c.render(cmd, map[string]string{"status": status}, func(w io.Writer) error {
				_, err := fmt.Fprintln(w, status)
				return err
			})
		},
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError("id", "report id must be a positive integer")
	}
	return id, nil
}
