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
	goredis "github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/wyfcoding/quantengine/internal/risk/application"
	"github.com/wyfcoding/quantengine/internal/risk/domain"
	filerepo "github.com/wyfcoding/quantengine/internal/risk/infrastructure/persistence/file"
	redisrepo "github.com/wyfcoding/quantengine/internal/risk/infrastructure/persistence/redis"
	riskhttp "github.com/wyfcoding/quantengine/internal/risk/interfaces/http"
	"github.com/wyfcoding/quantengine/pkg/logger"
	"github.com/wyfcoding/quantengine/pkg/metrics"
	"github.com/wyfcoding/quantengine/pkg/mq"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/risk/config.toml", "path to config file")
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

	// 3. State repository（file 或 redis 后端）
	var stateRepo domain.StateRepository
	switch viper.GetString("state.backend") {
	case "redis":
		client := goredis.NewClient(&goredis.Options{
			Addr:     viper.GetString("state.redis_addr"),
			Password: viper.GetString("state.redis_password"),
			DB:       viper.GetInt("state.redis_db"),
		})
		defer client.Close()
		stateRepo = redisrepo.NewStateRepository(client, viper.GetString("state.redis_key"))
	default:
		stateRepo = filerepo.NewStateRepository(viper.GetString("state.file_path"))
	}

	// 4. Drawdown controller
	ddCfg := domain.DefaultDrawdownConfig()
	if err := viper.UnmarshalKey("drawdown", &ddCfg); err != nil {
		panic(fmt.Sprintf("parse drawdown config failed: %v", err))
	}
	controller := domain.NewDrawdownController(ddCfg, stateRepo, log)

	// 5. Messaging（可选）
	var producer *mq.KafkaProducer
	var kafkaCfg mq.KafkaConfig
	if err := viper.UnmarshalKey("kafka", &kafkaCfg); err == nil && len(kafkaCfg.Brokers) > 0 {
		var err error
		producer, err = mq.NewProducer(kafkaCfg)
		if err != nil {
			log.Warn("kafka unavailable, events disabled", "error", err)
			producer = nil
		} else {
			defer producer.Close()
		}
	}

	// 6. Application
	m := metrics.New("risk")
	appService := application.NewRiskService(controller, producer, m, log)

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
	riskhttp.NewRiskHandler(appService).RegisterRoutes(router)

	addr := fmt.Sprintf(":%s", viper.GetString("server.http_port"))
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	// 8. Start
	go func() {
		log.Info("Starting risk HTTP server", "addr", addr)
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
