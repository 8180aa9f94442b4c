package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/httpapi"
	"github.com/talentbridge/diploma-verifier/internal/logger"
	"github.com/talentbridge/diploma-verifier/internal/sweep"
)

const defaultPort = "8080"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the verification HTTP server",
	Run: func(cmd *cobra.Command, _ []string) {
		serve(cmd)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringP("port", "p", "", "port to listen on (overrides server.port)")

	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}

func serve(_ *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	logger.Info("starting the diploma-verifier", zap.String("version", version))

	// do not bother error since there is a valid parseable config
	pretty, _ := json.MarshalIndent(config, "", "  ")
	logger.Debug(fmt.Sprintf("starting with config: \n %s", pretty))

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.cleanup()

	if config.Sweep != nil && config.Sweep.Enabled {
		scheduler, err := startSweep(config.Sweep, svc, logger)
		if err != nil {
			logger.Fatal("starting re-verification sweep", zap.Error(err))
		}
		defer scheduler.Stop()
	}

	if !viper.GetBool("debug") {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	httpapi.Register(router, svc.runner, logger)

	port := defaultPort
	if config.Server != nil && config.Server.Port != "" {
		port = config.Server.Port
	}

	logger.Info("listening", zap.String("port", port))

	if err := router.Run(":" + port); err != nil {
		logger.Fatal("http server stopped", zap.Error(err))
	}
}

func startSweep(cfg *SweepConfig, svc *services, logger *zap.Logger) (*cron.Cron, error) {
	schedule := cfg.Schedule
	if schedule == "" {
		schedule = "@hourly"
	}

	olderThan := time.Duration(cfg.OlderThanHours) * time.Hour

	sweeper := sweep.New(svc.store, svc.runner, olderThan, cfg.BatchSize, logger)

	return sweeper.Start(schedule)
}
