package cmd

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	globalConfig "github.com/AzielCF/az-mediaext/config"
	"github.com/AzielCF/az-mediaext/infrastructure/telegram"
	"github.com/AzielCF/az-mediaext/integrations/twitter"
	"github.com/AzielCF/az-mediaext/integrations/ytdlp"
	"github.com/AzielCF/az-mediaext/pkg/ffmpeg"
	"github.com/AzielCF/az-mediaext/pkg/msgworker"
	"github.com/AzielCF/az-mediaext/storage"
	"github.com/AzielCF/az-mediaext/ui/rest"
	"github.com/AzielCF/az-mediaext/ui/rest/middleware"
	"github.com/AzielCF/az-mediaext/validations"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/gofiber/fiber/v2"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Start the Telegram bot with its monitoring API",
	Run:   botServer,
}

func init() {
	rootCmd.AddCommand(botCmd)
}

func botServer(_ *cobra.Command, _ []string) {
	err := validations.ValidateBotSettings(validations.BotSettings{
		Token:                globalConfig.BotToken,
		MediaGroupDebounceMs: globalConfig.MediaGroupDebounceMs,
		MediaGroupTimeoutMs:  globalConfig.MediaGroupTimeoutMs,
		CaptionFreshnessMs:   globalConfig.CaptionFreshnessMs,
		WorkerPoolSize:       globalConfig.MessageWorkerPoolSize,
	})
	if err != nil {
		logrus.Fatalln("[BOT] Invalid settings:", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := storage.NewDatabase(globalConfig.DBURI)
	if err != nil {
		logrus.Fatalln("[STORAGE] Failed to open database:", err)
	}
	store := storage.NewUserStore(db)
	if err := store.Init(ctx); err != nil {
		logrus.Fatalln("[STORAGE] Failed to migrate schema:", err)
	}

	api, err := tgbotapi.NewBotAPI(globalConfig.BotToken)
	if err != nil {
		logrus.Fatalln("[BOT] Failed to authenticate with Telegram:", err)
	}
	api.Debug = globalConfig.AppDebug
	if globalConfig.BotName == "" {
		globalConfig.BotName = api.Self.UserName
	}
	logrus.Infof("[BOT] Authorized on account %s", api.Self.UserName)

	ff := ffmpeg.New(globalConfig.FfmpegPath, globalConfig.FfprobePath)
	httpClient := &http.Client{Timeout: 60 * time.Second}

	pool := msgworker.GetGlobalPool()

	bot := telegram.NewBot(api, telegram.Deps{
		Pool:    pool,
		Store:   store,
		Twitter: twitter.NewHelper(httpClient),
		Ytdl:    ytdlp.NewHelper(globalConfig.YtdlpPath, globalConfig.PathTemp, globalConfig.MaxDownloadSize, ff),
		Ffmpeg:  ff,
	})

	// API de monitoreo en paralelo al bot.
	app := fiber.New(fiber.Config{
		AppName:               "Az-MediaExt",
		DisableStartupMessage: false,
		Network:               "tcp",
	})
	app.Use(requestid.New())
	app.Use(middleware.Recovery())
	if globalConfig.AppDebug {
		app.Use(fiberLogger.New())
	}
	rest.InitRestApp(app, pool, bot.Delayer())

	go func() {
		if err := app.Listen(":" + globalConfig.AppPort); err != nil {
			logrus.Errorf("[REST] Server stopped: %v", err)
		}
	}()

	// Graceful shutdown handler
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[BOT] Reception of termination signal, shutting down gracefully...")
		cancel()
		if err := app.Shutdown(); err != nil {
			logrus.Errorf("[REST] Error during Fiber shutdown: %v", err)
		}
	}()

	if err := bot.Run(ctx); err != nil {
		logrus.Errorln("[BOT] Update loop failed:", err)
	}

	msgworker.StopGlobalPool()
	logrus.Info("[BOT] Application stopped cleanly.")
}
