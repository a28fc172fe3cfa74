package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"onboarding-quiz-bot/internal/config"
	"onboarding-quiz-bot/internal/discord"
	"onboarding-quiz-bot/internal/interviewer"
	"onboarding-quiz-bot/internal/keepalive"
	"onboarding-quiz-bot/internal/logger"
	"onboarding-quiz-bot/internal/metrics"
	"onboarding-quiz-bot/internal/notifier"
	"onboarding-quiz-bot/internal/storage"
)

func main() {
	// .env необязателен: в продакшене переменные задаются окружением
	_ = godotenv.Load()

	appCfg := config.LoadAppConfig()
	log := logger.New(appCfg.LogLevel)

	if err := appCfg.Validate(); err != nil {
		log.WithError(err).Fatal("Ошибка конфигурации")
	}

	// Загружаем банк вопросов
	bank, err := config.Load(appCfg.Interview.QuestionsPath)
	if err != nil {
		log.WithError(err).Fatal("Ошибка загрузки банка вопросов")
	}
	log.WithField("personal", len(bank.Personal)).
		WithField("rules", len(bank.Rules)).
		Info("Банк вопросов загружен")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Keep-alive сервер для внешнего мониторинга
	server := keepalive.New(appCfg.Server.Port, log)
	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Error("Keep-alive сервер остановлен")
		}
	}()

	// Инициализируем сервисы
	store := storage.NewStore()
	ratingChannel := config.NewRatingChannel()
	stats := metrics.NewMetrics()

	bot, err := discord.New(appCfg.Discord.Token, log)
	if err != nil {
		log.WithError(err).Fatal("Ошибка инициализации Discord")
	}

	notifierService := notifier.New(store, ratingChannel, bot, bank.Messages, stats, log)
	interviewerService := interviewer.New(store, bank, bot, notifierService, interviewer.Options{
		AnswerTimeout: appCfg.Interview.AnswerTimeout,
		MistakeLimit:  appCfg.Interview.MistakeLimit,
		Logger:        log,
		Metrics:       stats,
	})

	handler := discord.NewHandler(ctx, bot, store, interviewerService, notifierService, ratingChannel, bank.Messages, discord.HandlerOptions{
		GuildID: appCfg.Discord.GuildID,
		Logger:  log,
	})
	handler.Register()

	if err := bot.Open(); err != nil {
		log.WithError(err).Fatal("Ошибка запуска бота")
	}
	log.Info("Бот запущен, ожидание команд")

	<-ctx.Done()
	log.Info("Остановка бота")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appCfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Ошибка остановки keep-alive сервера")
	}
	// новые события перестают приходить до ожидания запущенных тестов,
	// а сами тесты получают отмену контекста и удаляют свои сессии
	if err := bot.Close(); err != nil {
		log.WithError(err).Warn("Ошибка закрытия соединения с Discord")
	}
	handler.Wait()

	log.WithFields(stats.GetSnapshot().Fields()).Info("Итоговая статистика")
}
