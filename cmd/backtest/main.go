package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"

	"github.com/wyfcoding/quantengine/internal/backtest/application"
	"github.com/wyfcoding/quantengine/internal/backtest/domain"
	"github.com/wyfcoding/quantengine/internal/backtest/infrastructure/persistence/mysql"
	backtesthttp "github.com/wyfcoding/quantengine/internal/backtest/interfaces/http"
	regimeapp "github.com/wyfcoding/quantengine/internal/regime/application"
	"github.com/wyfcoding/quantengine/pkg/db"
	"github.com/wyfcoding/quantengine/pkg/logger"
	"github.com/wyfcoding/quantengine/pkg/metrics"
	"github.com/wyfcoding/quantengine/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/backtest/config.toml", "path to config file")
	flag.Parse()

	// 1. Config
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil {
		panic(fmt.Sprintf("read config failed: %v", err))
	}

	// 2. Logger
	var logCfg logger.Config
	if err := viper.UnmarshalKey("log", &logCfg); err != nil {
		panic(fmt.Sprintf("parse log config failed: %v", err))
	}
	if err := logger.Init(logCfg); err != nil {
		panic(fmt.Sprintf("init logger failed: %v", err))
	}
	log := logger.Get()

	// 3. Database
	var dbCfg db.Config
	if err := viper.UnmarshalKey("database", &dbCfg); err != nil {
		panic(fmt.Sprintf("parse database config failed: %v", err))
	}
	database, err := db.Init(dbCfg)
	if err != nil {
		panic(fmt.Sprintf("connect db failed: %v", err))
	}
	defer database.Close()

	if err := database.AutoMigrate(&domain.Task{}, &domain.Report{}, &mysql.TradeModel{}, &mysql.BarModel{}); err != nil {
		panic(fmt.Sprintf("migrate db failed: %v", err))
	}

	// 4. Messaging（可选，未配置 broker 时离线运行）
	var producer *mq.KafkaProducer
	var kafkaCfg mq.KafkaConfig
	if err := viper.UnmarshalKey("kafka", &kafkaCfg); err == nil && len(kafkaCfg.Brokers) > 0 {
		producer, err = mq.NewProducer(kafkaCfg)
		if err != nil {
			log.Warn("kafka unavailable, events disabled", "error", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	// 5. Infrastructure & Domain
	repo := mysql.NewBacktestRepository(database)
	bars := mysql.NewBarRepository(database.DB)
	cost := domain.NewDefaultCostModel()
	engine := domain.NewEngine(bars, cost, log)
	strategy := regimeapp.NewAdaptiveStrategy(log)
	m := metrics.New("backtest")

	// 6. Application
	var appCfg application.Config
	if err := viper.UnmarshalKey("backtest", &appCfg); err != nil {
		panic(fmt.Sprintf("parse backtest config failed: %v", err))
	}
	appService := application.NewBacktestService(repo, bars, engine, strategy, producer, m, log, appCfg)

	// 7. Interfaces
	if viper.GetString("server.mode") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(m.Handler()))
	backtesthttp.NewBacktestHandler(appService).RegisterRoutes(router)

	addr := fmt.Sprintf(":%s", viper.GetString("server.http_port"))
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// 8. Start
	go func() {
		log.Info("Starting backtest HTTP server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			panic(err)
		}
	}()

	// 9. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}
	log.Info("Server exiting")
}
