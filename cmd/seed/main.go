package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/seed"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var city string
	var file string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机管理员, 2: 插入随机工人, 3: 插入随机班次, 4: 从 CSV 导入工人)")
	flag.IntVar(&n, "n", 5, "要插入的记录数量")
	flag.StringVar(&city, "city", "Москва", "工人和班次所在的城市")
	flag.StringVar(&file, "file", "", "CSV 文件路径，为空时使用配置中的路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	// 读取配置文件
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法读取配置文件", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 创建数据库连接池
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("无法创建数据库连接池", "error", err)
		return
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open 只是创建数据库连接池对象，并不会立即连接到数据库，因此需要显式地 ping 一下
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("无法连接到数据库", "error", err)
		return
	}

	// 创建 repository
	repo := repository.NewRepository(cfg, dbpool)

	resolver, err := citytime.New(cfg.Roster.CitiesFile, cfg.Roster.FallbackTimezone)
	if err != nil {
		logger.Error("无法加载城市时区表", "error", err)
		return
	}
	if (op == 2 || op == 3) && !resolver.Known(city) {
		logger.Warn("城市不在时区表中，将使用默认时区", slog.String("city", city))
	}

	ctx = context.Background()

	// 执行操作
	switch op {
	case 0:
		logger.Error("未指定操作")
	case 1:
		if n <= 0 {
			logger.Error("请输入合法的管理员数量")
			return
		}

		password := cfg.Seed.Admin.Password
		if password == "" {
			password = utils.GenerateRandomPassword(12)
			logger.Info("已生成随机密码", slog.String("password", password))
		}

		cnt := 0
		for i := 0; i < n; i++ {
			admin, err := utils.GenerateRandomAdmin(password, cfg.Email.WorkerDomain)
			if err != nil {
				logger.Error("无法生成随机管理员", slog.String("error", err.Error()))
				continue
			}
			if err := repo.CreateAdmin(ctx, admin); err != nil {
				logger.Error("无法插入管理员", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		logger.Info("插入管理员成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			logger.Error("请输入合法的工人数量")
			return
		}

		cnt := 0
		for i := 0; i < n; i++ {
			worker, profile := utils.GenerateRandomWorker(city, cfg.Email.WorkerDomain)
			if err := repo.CreateWorker(ctx, worker); err != nil {
				logger.Error("无法插入工人", slog.String("error", err.Error()))
				continue
			}
			profile.WorkerID = worker.ID
			if err := repo.UpsertProfile(ctx, profile); err != nil {
				logger.Error("无法写入工人资料", slog.String("error", err.Error()))
				continue
			}
			cnt++
		}

		logger.Info("插入工人成功", slog.Int("count", cnt))
	case 3:
		shift := utils.GenerateRandomShift(city, resolver.LocalNow(city))
		if err := utils.ValidateShift(shift); err != nil {
			logger.Error("生成的班次无效", slog.String("error", err.Error()))
			return
		}
		shift.Status = domain.ShiftStatusActive
		if err := repo.CreateShift(ctx, shift); err != nil {
			logger.Error("无法插入班次", slog.String("error", err.Error()))
			return
		}

		logger.Info("插入班次成功", slog.Int64("shift_id", shift.ID), slog.String("date", shift.Date))
	case 4:
		if file == "" {
			file = cfg.Seed.WorkersFile
		}

		report, err := seed.ImportWorkersFile(ctx, repo, file, logger)
		if err != nil {
			logger.Error("导入工人失败", slog.String("error", err.Error()))
			return
		}

		logger.Info("导入工人完成", slog.Int("imported", report.Imported), slog.Int("skipped", report.Skipped))
	default:
		logger.Error("指定的操作非法")
	}
}
