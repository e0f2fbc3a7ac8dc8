package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/citytime"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/config"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/handler"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/notify"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/repository"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/roster"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/scheduler"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * 创建 logger
	 **********************************************/
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	/**********************************************
	 * 加载配置
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("无法加载配置文件", "error", err)
		return
	}

	/**********************************************
	 * 连接数据库
	 **********************************************/
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

	/**********************************************
	 * 创建 repository
	 **********************************************/
	repo := repository.NewRepository(cfg, dbpool)

	/**********************************************
	 * 确保数据库中存在初始管理员
	 **********************************************/
	exists, err := repo.CheckAdminExists(ctx, cfg.InitialAdmin.Username)
	if err != nil {
		logger.Error("无法查询初始管理员", "error", err)
		return
	}
	if !exists {
		passwordHash, err := bcrypt.GenerateFromPassword([]byte(cfg.InitialAdmin.Password), bcrypt.DefaultCost)
		if err != nil {
			logger.Error("无法生成初始管理员密码哈希", "error", err)
			return
		}
		initialAdmin := &domain.Admin{
			Username:     cfg.InitialAdmin.Username,
			PasswordHash: string(passwordHash),
			FullName:     cfg.InitialAdmin.FullName,
			Email:        cfg.InitialAdmin.Email,
		}
		if err := repo.CreateAdmin(ctx, initialAdmin); err != nil {
			logger.Error("无法创建初始管理员", "error", err)
			return
		}
		logger.Info("已创建初始管理员", "username", initialAdmin.Username)
	}

	/**********************************************
	 * 连接 rabbitmq
	 **********************************************/
	conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
	if err != nil {
		logger.Error("无法连接到 rabbitmq", "error", err)
		return
	}
	defer conn.Close()

	// 建立通道
	ch, err := conn.Channel()
	if err != nil {
		logger.Error("无法建立通道", "error", err)
		return
	}
	defer ch.Close()

	// 声明队列
	_, err = ch.QueueDeclare(
		cfg.RabbitMQ.NotificationQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		logger.Error("无法声明队列", "error", err)
		return
	}

	/**********************************************
	 * 连接 redis
	 **********************************************/
	rdb := redis.NewClient(&redis.Options{
		Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password:    cfg.Redis.Password,
		DB:          0,
		DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("无法连接到 redis", "error", err)
		return
	}

	/**********************************************
	 * 创建名单服务和通知发布者
	 **********************************************/
	resolver, err := citytime.New(cfg.Roster.CitiesFile, cfg.Roster.FallbackTimezone)
	if err != nil {
		logger.Error("无法加载城市时区表", "error", err)
		return
	}

	tokens := notify.NewTokens(rdb, time.Duration(cfg.Action.Expiration)*time.Second)
	publisher := notify.NewPublisher(ch, tokens, repo, notify.Options{
		Queue:          cfg.RabbitMQ.NotificationQueue,
		BaseURL:        cfg.Action.BaseURL,
		PublishTimeout: time.Duration(cfg.RabbitMQ.PublishTimeout) * time.Second,
	})

	// 名单服务和调度器共用同一个时间来源
	svc := roster.NewService(repo, publisher, resolver, logger, roster.Options{
		EveningTimeout:   time.Duration(cfg.Roster.EveningTimeout) * time.Minute,
		MorningTimeout:   time.Duration(cfg.Roster.MorningTimeout) * time.Minute,
		FailureThreshold: cfg.Roster.FailureThreshold,
	}).WithSentLog(notify.NewSentLog(rdb, time.Duration(cfg.Roster.SentLogTTL)*time.Second))

	/**********************************************
	 * 创建 handler
	 **********************************************/
	handler, err := handler.NewHandler(cfg, svc, repo, tokens, resolver)
	if err != nil {
		logger.Error("无法创建 handler", "error", err)
		return
	}
	handler.RegisterRoutes()

	/**********************************************
	 * 启动提醒调度器
	 **********************************************/
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	sched := scheduler.New(svc, resolver, time.Duration(cfg.Roster.TickInterval)*time.Second, logger)

	wg := sync.WaitGroup{}
	wg.Add(1)
	go func() {
		defer wg.Done()
		sched.Run(schedCtx)
	}()

	/**********************************************
	 * 启动 HTTP 服务器
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      handler.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("正在启动服务器...", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("无法启动服务器", slog.String("error", err.Error()))
			return
		}
	}()

	<-quit
	logger.Info("正在关闭服务器...")

	// 先停止调度器，避免关闭过程中还在发送提醒
	stopScheduler()
	wg.Wait()

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("关闭服务器失败", slog.String("error", err.Error()))
	}
	logger.Info("服务器已成功关闭")
}
