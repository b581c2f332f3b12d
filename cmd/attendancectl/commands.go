package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/noah-isme/attendance-tracker/internal/models"
	"github.com/noah-isme/attendance-tracker/internal/router"
	"github.com/noah-isme/attendance-tracker/internal/service"
	"github.com/noah-isme/attendance-tracker/pkg/config"
	"github.com/noah-isme/attendance-tracker/pkg/database"
	"github.com/noah-isme/attendance-tracker/pkg/logger"
	"github.com/noah-isme/attendance-tracker/pkg/storage"
)

// runtime is what every subcommand needs once configuration is loaded.
type runtime struct {
	cfg *config.Config
	log *zap.Logger
	db  *sqlx.DB
}

func (rt *runtime) Close() {
	if rt.db != nil {
		_ = rt.db.Close()
	}
	_ = rt.log.Sync()
}

// open loads configuration, builds the logger and opens storage. When migrate is
// true or DB_AUTO_MIGRATE is set the schema is brought up to date first.
func open(migrate bool) (*runtime, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	db, err := database.Open(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if migrate || cfg.Database.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return &runtime{cfg: cfg, log: log, db: db}, nil
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "attendancectl",
		Short:         "Operate the attendance tracker database",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newMigrateCmd(),
		newStatusCmd(),
		newSeedCmd(),
		newTodayCmd(),
		newTokenCmd(),
		newExportCmd(),
		newPruneCmd(),
	)
	return root
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(true)
			if err != nil {
				return err
			}
			defer rt.Close()
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		},
	}
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the state of every schema migration",
		RunE: func(_ *cobra.Command, _ []string) error {
			rt, err := open(false)
			if err != nil {
				return err
			}
			defer rt.Close()
			return database.MigrationStatus(rt.db)
		},
	}
}

func newSeedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the sample course when no course exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := open(true)
			if err != nil {
				return err
			}
			defer rt.Close()

			svcs := router.NewServices(rt.cfg, rt.db, rt.log)
			course, created, err := svcs.Courses.Seed(cmd.Context())
			if err != nil {
				return err
			}
			if !created {
				fmt.Fprintln(cmd.OutOrStdout(), "courses already exist, nothing seeded")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %q (%s) with %d weekly slots\n", course.Name, course.ID, len(course.Templates))
			return nil
		},
	}
}

func newTodayCmd() *cobra.Command {
	var rawDate string
	cmd := &cobra.Command{
		Use:   "today",
		Short: "List the classes of a day with running attendance",
		RunE: func(cmd *cobra.Command, _ []string) error {
			date := models.DateOf(time.Now())
			if rawDate != "" {
				parsed, err := models.ParseDate(rawDate)
				if err != nil {
					return err
				}
				date = parsed
			}

			rt, err := open(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			svcs := router.NewServices(rt.cfg, rt.db, rt.log)
			classes, err := svcs.Days.ClassesFor(cmd.Context(), date)
			if err != nil {
				return err
			}
			return printClasses(cmd, date, classes)
		},
	}
	cmd.Flags().StringVar(&rawDate, "date", "", "Day to list (YYYY-MM-DD, default today)")
	return cmd
}

func printClasses(cmd *cobra.Command, date models.Date, classes []models.ClassOfDay) error {
	out := cmd.OutOrStdout()
	if len(classes) == 0 {
		fmt.Fprintf(out, "no classes on %s (%s)\n", date, date.Weekday())
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tTIME\tKIND\tSTATUS\tPRESENT\tABSENT\tPERCENT")
	for _, class := range classes {
		occ := class.Occurrence
		fmt.Fprintf(w, "%s\t%s-%s\t%s\t%s\t%d\t%d\t%.1f%%\n",
			occ.CourseName, occ.StartTime, occ.EndTime, occ.Kind, occ.Status,
			class.Counts.Present, class.Counts.Absent, class.Counts.Percent)
	}
	return w.Flush()
}

func newTokenCmd() *cobra.Command {
	var subject string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a bearer token for the API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			tokens := service.NewTokenService(service.TokenConfig{
				Secret: cfg.Auth.Secret,
				Expiry: cfg.Auth.Expiration,
				Issuer: cfg.Auth.Issuer,
			}, nil)
			issued, err := tokens.Issue(subject)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), issued.Token)
			fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", issued.ExpiresAt.Format(time.RFC3339))
			return nil
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "local", "Token subject")
	return cmd
}

func newExportCmd() *cobra.Command {
	var (
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export <course-id>",
		Short: "Write the attendance history of a course to a file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := open(false)
			if err != nil {
				return err
			}
			defer rt.Close()

			svcs := router.NewServices(rt.cfg, rt.db, rt.log)
			file, err := svcs.Reports.Export(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			target := output
			if target == "" {
				archive, err := storage.NewArchive(rt.cfg.Export.Dir)
				if err != nil {
					return err
				}
				if target, err = archive.Save(file.Filename, file.Payload); err != nil {
					return err
				}
			} else if err := os.WriteFile(target, file.Payload, 0o644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", target, len(file.Payload))
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "Export format (csv or pdf)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Destination file (default <course>-attendance.<ext> in EXPORT_DIR)")
	return cmd
}

func newPruneCmd() *cobra.Command {
	var olderThan time.Duration
	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete archived exports past their retention",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if olderThan <= 0 {
				olderThan = cfg.Export.Retention
			}
			archive, err := storage.NewArchive(cfg.Export.Dir)
			if err != nil {
				return err
			}
			removed, err := archive.Prune(olderThan, time.Now())
			if err != nil {
				return err
			}
			for _, name := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), "removed", name)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d exports pruned\n", len(removed))
			return nil
		},
	}
	cmd.Flags().DurationVar(&olderThan, "older-than", 0, "Age after which exports are deleted (default EXPORT_RETENTION)")
	return cmd
}
