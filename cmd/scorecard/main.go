package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bitfantasy/scorecard/internal/config"
	"github.com/bitfantasy/scorecard/internal/database"
	"github.com/bitfantasy/scorecard/internal/scorecard/entity"
	"github.com/bitfantasy/scorecard/internal/scorecard/repository"
	"github.com/bitfantasy/scorecard/internal/scorecard/service"
	"github.com/bitfantasy/scorecard/internal/storage"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

const usage = `usage: scorecard <command> [args]

commands:
  migrate                                      create tables and seed master data
  import     <project-code> <file.csv|.xlsx>   import a timesheet export
  delete-batch <project-code> <batch-id>       delete an imported timesheet batch
  summary    <project-code>                    print dashboard metrics
  reconcile  <project-code>                    compare deliverable and manning FTC
  snapshot   <project-code> <week-ending>      record a weekly snapshot
  export     <project-code> <week-ending> <out.xlsx>
                                               write the weekly report workbook
  invoices   <project-code>                    list all invoices of the project
  audit      <project-code> [action]           print the project activity log
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	// 加载 .env 文件
	if err := godotenv.Load(config.GetEnvOrDefault("SCORECARD_ENV_FILE", ".env")); err != nil {
		log.Printf("Warning: .env file not found, using environment variables")
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化日志
	zapLogger, err := initLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Debug("Starting scorecard",
		zap.String("version", Version),
		zap.String("build_time", BuildTime),
		zap.String("command", os.Args[1]),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, zapLogger, os.Args[1], os.Args[2:]); err != nil {
		zapLogger.Error("Command failed", zap.String("command", os.Args[1]), zap.Error(err))
		zapLogger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger, cmd string, args []string) error {
	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}

	if cmd == "migrate" {
		if err := database.Migrate(db); err != nil {
			return err
		}
		if err := database.Seed(ctx, db, logger); err != nil {
			return err
		}
		logger.Info("Database migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	}

	opts := []service.Option{}
	if cfg.MinIO.Enabled() {
		archiver, err := storage.NewMinIOArchiver(ctx, cfg.MinIO, logger)
		if err != nil {
			// 归档不可用时继续执行
			logger.Warn("MinIO unavailable, reports will not be archived", zap.Error(err))
		} else {
			opts = append(opts, service.WithArchiver(archiver))
		}
	}
	svcs := service.New(repository.NewRepositories(db), cfg.Scorecard, logger, opts...)

	need := func(n int) error {
		if len(args) < n {
			return fmt.Errorf("%s: expected %d arguments\n\n%s", cmd, n, usage)
		}
		return nil
	}
	project := func() (*entity.Project, error) {
		return svcs.Project.GetByCode(ctx, args[0])
	}

	switch cmd {
	case "import":
		if err := need(2); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		result, err := svcs.Timesheet.ImportFile(ctx, p.ID, args[1], cfg.Import.Encoding)
		if err != nil {
			return err
		}
		return printJSON(result)

	case "delete-batch":
		if err := need(2); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		deleted, err := svcs.Timesheet.DeleteBatch(ctx, p.ID, args[1])
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{"batch_id": args[1], "deleted": deleted})

	case "summary":
		if err := need(1); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		dash, err := svcs.Summary.Dashboard(ctx, p.ID)
		if err != nil {
			return err
		}
		return printJSON(dash)

	case "reconcile":
		if err := need(1); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		recon, err := svcs.Reconcile.Reconcile(ctx, p.ID)
		if err != nil {
			return err
		}
		return printJSON(recon)

	case "snapshot":
		if err := need(2); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		snap, err := svcs.Snapshot.Create(ctx, p.ID, args[1], os.Getenv("USER"), "")
		if err != nil {
			return err
		}
		return printJSON(map[string]interface{}{
			"id":                     snap.ID,
			"snapshot_date":          snap.SnapshotDate,
			"week_ending":            snap.WeekEnding,
			"budget_hours":           snap.BudgetHours,
			"actual_hours":           snap.ActualHours,
			"earned_hours":           snap.EarnedHours,
			"forecast_to_complete":   snap.ForecastToComplete,
			"forecast_at_completion": snap.ForecastAtCompletion,
		})

	case "export":
		if err := need(3); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		out, err := os.Create(args[2])
		if err != nil {
			return err
		}
		result, err := svcs.Report.Export(ctx, p.ID, args[1], out)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(args[2])
			return err
		}
		return printJSON(result)

	case "invoices":
		if err := need(1); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		invoices, err := svcs.Commitment.ListProjectInvoices(ctx, p.ID)
		if err != nil {
			return err
		}
		return printJSON(invoices)

	case "audit":
		if err := need(1); err != nil {
			return err
		}
		p, err := project()
		if err != nil {
			return err
		}
		action := ""
		if len(args) > 1 {
			action = args[1]
		}
		logs, err := svcs.Project.ActivityLog(ctx, p.ID, action)
		if err != nil {
			return err
		}
		return printJSON(logs)

	default:
		return fmt.Errorf("unknown command %q\n\n%s", cmd, usage)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func initLogger(cfg config.LogConfig) (*zap.Logger, error) {
	var zapCfg zap.Config

	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	switch cfg.Level {
	case "debug":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		zapCfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	}
	// 命令输出走 stdout，日志写 stderr
	zapCfg.OutputPaths = []string{"stderr"}

	return zapCfg.Build()
}
