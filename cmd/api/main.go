package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	httpadp "loan-ledger/internal/adapter/http"
	"loan-ledger/internal/adapter/middleware"
	"loan-ledger/internal/adapter/repository/mysql"
	"loan-ledger/internal/config"
	"loan-ledger/internal/domain/uow"
	"loan-ledger/internal/infrastructure/cache"
	"loan-ledger/internal/infrastructure/db"
	"loan-ledger/internal/infrastructure/lock"
	"loan-ledger/internal/infrastructure/logging"
	loanuc "loan-ledger/internal/usecase/loan"
	"loan-ledger/internal/usecase/repayment"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		panic(err)
	}
	cfg := config.Load()

	log, err := logging.New(cfg.AppEnv, cfg.LogLevel)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid config", zap.Error(err))
	}

	gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.WithLogger(log))
	if err != nil {
		log.Fatal("mysql unavailable", zap.Error(err))
	}
	if cfg.AutoMigrate {
		if err := db.Migrate(gdb); err != nil {
			log.Fatal("migration failed", zap.Error(err))
		}
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		log.Fatal("redis unavailable", zap.Error(err))
	}
	defer func() { _ = rdb.Close() }()

	repos := uow.Repos{
		Loans:     mysql.NewLoanRepository(gdb),
		Schedules: mysql.NewScheduleRepository(gdb),
		Receipts:  mysql.NewReceiptRepository(gdb),
	}
	tx := mysql.NewGormUoW(gdb, mysql.WithRetries(cfg.TxMaxRetries), mysql.WithLogger(log.Named("uow")))
	locker := lock.NewRedsync(rdb, lock.Options{Expiry: cfg.LoanLockTTL()}, log.Named("lock"))

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(middleware.RequestLogger(log.Named("http")), echomw.Recover())

	httpadp.Register(e, httpadp.Handlers{
		Health: httpadp.NewHealthHandler(map[string]httpadp.Check{
			"db":    httpadp.DBCheck(gdb),
			"redis": httpadp.RedisCheck(rdb),
		}),
		Loans:      httpadp.NewLoanHandler(loanuc.NewUsecase(repos, tx, log.Named("loan"))),
		Repayments: httpadp.NewRepaymentHandler(repayment.NewUsecase(repos, tx, locker, log.Named("repayment"))),
	}, middleware.IdempotencyMiddleware(rdb, cfg.IdempotencyTTL(), log.Named("idempotency")))

	addr := ":" + cfg.AppPort
	go func() {
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.AppEnv))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown", zap.Error(err))
	}
}
