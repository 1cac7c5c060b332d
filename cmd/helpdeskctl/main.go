package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/eaata/helpdesk/internal/api/dto"
	"github.com/eaata/helpdesk/internal/auth"
	"github.com/eaata/helpdesk/internal/config"
	"github.com/eaata/helpdesk/internal/domain"
	"github.com/eaata/helpdesk/internal/observability"
	"github.com/eaata/helpdesk/internal/pdfreport"
	"github.com/eaata/helpdesk/internal/persistence"
	"github.com/eaata/helpdesk/internal/repository"
	"github.com/eaata/helpdesk/internal/service"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:           "helpdeskctl",
	Short:         "Operate the helpdesk database from the command line",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer env.close()
		if err := persistence.RunMigrations(cmd.Context(), env.db, env.logger); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "migrations applied (%s)\n", env.cfg.Database.Driver)
		return nil
	},
}

var sectorsCmd = &cobra.Command{
	Use:   "sectors",
	Short: "Manage the sector registry",
}

var sectorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sectors",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.close()
		sectors, err := env.sectors.ListSectors(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME")
		for _, s := range sectors {
			fmt.Fprintf(w, "%d\t%s\n", s.ID, s.Name)
		}
		return w.Flush()
	},
}

var sectorsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a sector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.close()
		sector, err := env.sectors.CreateSector(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sector %d %q created\n", sector.ID, sector.Name)
		return nil
	},
}

var sectorsRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Remove a sector",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid sector id %q", args[0])
		}
		env, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.close()
		if err := env.sectors.DeleteSector(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sector %d removed\n", id)
		return nil
	},
}

var reportFlags struct {
	from, to, sector, kind, out string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render the period report to a PDF file",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd.Context(), true)
		if err != nil {
			return err
		}
		defer env.close()

		q, err := env.reports.ParseQuery(reportFlags.from, reportFlags.to, reportFlags.sector)
		if err != nil {
			return err
		}
		report, err := env.reports.BuildReport(cmd.Context(), q)
		if err != nil {
			return err
		}
		sectors := []string{q.Sector}
		if q.Sector == "" {
			if sectors, err = env.sectors.SectorNames(cmd.Context()); err != nil {
				return err
			}
		}
		tickets := report.Tickets
		if tickets == nil {
			tickets = []domain.Ticket{}
		}

		loc := env.reports.Location()
		body, err := pdfreport.RenderReport(pdfreport.ReportInput{
			Title: dto.ReportTitle(reportFlags.kind),
			Period: fmt.Sprintf("%s to %s",
				report.Period.Start.In(loc).Format(dto.DateLayout),
				report.Period.End.In(loc).Format(dto.DateLayout)),
			Metrics:  &report.Metrics,
			Tickets:  tickets,
			Sectors:  sectors,
			Location: loc,
			Now:      report.GeneratedAt,
		})
		if err != nil {
			return err
		}

		out := reportFlags.out
		if out == "" {
			out = fmt.Sprintf("report-%s-%s.pdf", report.Period.Start.In(loc).Format(dto.DateLayout), report.Period.End.In(loc).Format(dto.DateLayout))
		}
		if err := atomic.WriteFile(out, bytes.NewReader(body)); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d tickets, %d%% completed\n", out, report.Metrics.Total, report.Metrics.CompletionRate)
		return nil
	},
}

var tokenOperator string

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue an admin token for the config endpoint",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
		token, expiresAt, err := tokens.GenerateAdminToken(tokenOperator)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		fmt.Fprintf(cmd.ErrOrStderr(), "expires %s\n", expiresAt.Format("2006-01-02 15:04:05 MST"))
		return nil
	},
}

type cliEnv struct {
	cfg     *config.Config
	logger  *zap.Logger
	db      *persistence.Database
	sectors *service.SectorService
	reports *service.ReportService
}

// openEnv loads config and opens the database, applying migrations first when migrate is set.
func openEnv(ctx context.Context, migrate bool) (*cliEnv, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	cfg.Logger.Level = logLevel
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		return nil, err
	}
	db, err := persistence.Open(ctx, cfg.Database, logger)
	if err != nil {
		return nil, err
	}
	if migrate && cfg.Database.RunMigrations {
		if err := persistence.RunMigrations(ctx, db, logger); err != nil {
			db.Close()
			return nil, err
		}
	}

	ticketRepo := repository.NewTicketRepository(db)
	sectorRepo := repository.NewSectorRepository(db)
	return &cliEnv{
		cfg:     cfg,
		logger:  logger,
		db:      db,
		sectors: service.NewSectorService(sectorRepo),
		reports: service.NewReportService(service.ReportDependencies{
			TicketRepo: ticketRepo,
			SectorRepo: sectorRepo,
			Location:   cfg.Report.Location(),
		}),
	}, nil
}

func (e *cliEnv) close() {
	e.db.Close()
	_ = e.logger.Sync()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level")

	reportCmd.Flags().StringVar(&reportFlags.from, "from", "", "first day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFlags.to, "to", "", "last day (YYYY-MM-DD)")
	reportCmd.Flags().StringVar(&reportFlags.sector, "sector", "", "restrict to one sector")
	reportCmd.Flags().StringVar(&reportFlags.kind, "type", "", "weekly, monthly or yearly")
	reportCmd.Flags().StringVarP(&reportFlags.out, "out", "o", "", "output file")
	_ = reportCmd.MarkFlagRequired("from")
	_ = reportCmd.MarkFlagRequired("to")

	tokenCmd.Flags().StringVar(&tokenOperator, "operator", "admin", "subject recorded in the token")

	sectorsCmd.AddCommand(sectorsListCmd)
	sectorsCmd.AddCommand(sectorsAddCmd)
	sectorsCmd.AddCommand(sectorsRmCmd)

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(sectorsCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(tokenCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
