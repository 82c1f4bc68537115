package main

import (
	"context"
	"database/sql"
	"flag"
	"log/slog"
	"os"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/repository"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/seed"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/utils"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	var op int
	var n int
	var stationID int64
	var roleID int64
	var csvPath string

	flag.IntVar(&op, "op", 0, "要执行的操作 (1: 插入随机班次, 2: 插入随机助理及其可用时间, 3: 从表格导入)")
	flag.IntVar(&n, "n", 0, "要插入的记录数量，为 0 时使用配置中的默认值")
	flag.Int64Var(&stationID, "station-id", 1, "岗位 ID")
	flag.Int64Var(&roleID, "role-id", 1, "角色 ID")
	flag.StringVar(&csvPath, "csv", "./internal/seed/data/processed.csv", "导入的表格路径")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

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

	ctx = context.Background()

	// 执行操作
	switch op {
	case 0:
		slog.Error("未指定操作")
	case 1:
		if n <= 0 {
			n = cfg.Seed.StationCount
		}

		cnt := 0
		for i := int64(0); i < int64(n); i++ {
			for _, t := range utils.GenerateStationTemplates(stationID+i, roleID) {
				if err := repo.CreateShiftTemplate(ctx, t); err != nil {
					slog.Error("无法插入班次", slog.String("error", err.Error()))
					continue
				}
				cnt++
			}
		}

		slog.Info("插入班次成功", slog.Int("count", cnt))
	case 2:
		if n <= 0 {
			n = cfg.Seed.User.Count
		}

		cnt := 0
		for i := 0; i < n; i++ {
			user, err := utils.GenerateRandomWorker(cfg.Seed.User.Password, cfg.Email.UserDomain)
			if err != nil {
				slog.Error("无法生成随机助理", slog.String("error", err.Error()))
				continue
			}

			if err := repo.CreateUser(ctx, user); err != nil {
				slog.Error("无法插入助理", slog.String("error", err.Error()))
				continue
			}

			profile := &domain.WorkerAvailability{
				Worker:         user,
				StationID:      stationID,
				RoleID:         roleID,
				MaxWeeklyHours: float64(10 + i%3*5),
			}
			if err := repo.CreateWorkerProfile(ctx, profile); err != nil {
				slog.Error("无法插入助理岗位信息", slog.String("error", err.Error()))
				continue
			}

			for _, window := range utils.GenerateRandomWindows() {
				if err := repo.CreateAvailabilityWindow(ctx, user.ID, window); err != nil {
					slog.Error("无法插入可用时间", slog.String("error", err.Error()))
				}
			}

			cnt++
		}

		slog.Info("插入助理成功", slog.Int("count", cnt))
	case 3:
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.Seed.User.Password), bcrypt.DefaultCost)
		if err != nil {
			slog.Error("无法生成密码哈希", slog.String("error", err.Error()))
			return
		}

		if err := seed.SeedFromCSV(ctx, repo, csvPath, stationID, roleID, string(passwordHash)); err != nil {
			slog.Error("导入表格失败", slog.String("error", err.Error()))
		}
	default:
		slog.Error("指定的操作非法")
	}
}
