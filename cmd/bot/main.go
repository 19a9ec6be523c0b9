package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"pirouette/internal/api"
	"pirouette/internal/bot"
	"pirouette/internal/config"
	"pirouette/internal/database"
	"pirouette/internal/domain"
	"pirouette/internal/events"
	"pirouette/internal/google"
	"pirouette/internal/logging"
	"pirouette/internal/metrics"
	"pirouette/internal/models"
	"pirouette/internal/repository"
	"pirouette/internal/schedule"
	"pirouette/internal/service"
	"pirouette/internal/session"
	"pirouette/internal/worker"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func(c io.Closer) { _ = c.Close() })(closer)
	}

	if err := prepareDirectories(cfg, &logger); err != nil {
		return err
	}

	db, err := initDatabase(cfg, &logger)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sheetsService := initGoogleSheets(ctx, cfg, &logger)
	redisClient, rateLimiter := initRateLimiter(ctx, cfg, &logger)

	// Воркер синхронизации заявок с Google Sheets.
	var sheetsWorker *worker.SheetsWorker
	var syncWorker domain.SyncWorker
	if sheetsService != nil {
		sheetsWorker = worker.NewSheetsWorker(db, sheetsService, redisClient, worker.DefaultRetryPolicy(), &logger)
		syncWorker = sheetsWorker
		go sheetsWorker.Start(ctx)
	}

	eventBus := events.NewEventBus()
	subscribeAuditLog(eventBus, &logger)

	metrics.Register()
	botMetrics := bot.NewMetrics()

	if cfg.Telegram.BotToken == "" || cfg.Telegram.BotToken == "YOUR_BOT_TOKEN_HERE" {
		logger.Error().Msg("Задайте токен бота в config.yaml")
		return os.ErrInvalid
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания BotAPI")
		return err
	}
	botAPI.Debug = cfg.Telegram.Debug

	tgService := service.NewTelegramService(bot.NewBotWrapper(botAPI))
	notifier := service.NewNotificationService(tgService, db, cfg, &logger)
	applications := service.NewApplicationService(db, notifier, eventBus, syncWorker, &logger)

	telegramBot, err := bot.NewBot(
		tgService, cfg, db, session.NewStore(),
		applications, rateLimiter, eventBus, botMetrics, &logger,
	)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка создания бота")
		return err
	}

	if cfg.API.Enabled {
		apiServer := api.NewHTTPServer(cfg.API, cfg.Monitoring, telegramBot)
		go func() {
			if err := apiServer.Start(); err != nil {
				logger.Error().Err(err).Msg("API server error")
			}
		}()
		defer func() {
			_ = apiServer.Shutdown(context.Background())
		}()
	}

	logger.Info().Msg("Бот запущен...")
	defer telegramBot.Stop()
	telegramBot.Start(ctx)

	logger.Info().Msg("Shutdown complete.")
	return nil
}

func loadConfigAndLogger() (*config.Config, zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, zerolog.Logger{}, nil, err
	}
	logger := baseLogger.With().Str("component", "bot-main").Logger()

	return cfg, logger, closer, nil
}

func prepareDirectories(cfg *config.Config, logger *zerolog.Logger) error {
	if cfg == nil {
		return os.ErrInvalid
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для базы данных")
		return err
	}
	if err := os.MkdirAll(cfg.Exports.Path, 0o755); err != nil {
		logger.Error().Err(err).Msg("Ошибка создания директории для экспорта")
		return err
	}
	return nil
}

func initDatabase(cfg *config.Config, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Msg("Ошибка инициализации базы данных")
		return nil, err
	}

	if err := seedPrograms(context.Background(), db, logger); err != nil {
		logger.Error().Err(err).Msg("Ошибка посева программ")
	}
	return db, nil
}

// seedProgram описывает программу в configs/programs.yaml. Даты в коротком
// формате 02.01.06, как и в мастере создания программ.
type seedProgram struct {
	Type            string `yaml:"type"`
	Title           string `yaml:"title"`
	Description     string `yaml:"description"`
	StartDate       string `yaml:"start_date"`
	EndDate         string `yaml:"end_date"`
	Schedule        string `yaml:"schedule"`
	MaxParticipants int64  `yaml:"max_participants"`
	Price           int64  `yaml:"price"`
	SinglePrice     int64  `yaml:"single_price"`
	DurationMinutes int64  `yaml:"duration_minutes"`
	GroupLink       string `yaml:"group_link"`
}

// seedPrograms заводит программы из configs/programs.yaml, пропуская те,
// что уже есть среди активных. Файл опционален.
func seedPrograms(ctx context.Context, db *database.DB, logger *zerolog.Logger) error {
	programsPath := os.Getenv("PROGRAMS_PATH")
	if programsPath == "" {
		programsPath = "configs/programs.yaml"
	}

	data, err := os.ReadFile(programsPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Info().Str("path", programsPath).Msg("Файл программ не найден, пропускаем посев")
			return nil
		}
		return err
	}

	var seedConfig struct {
		Programs []seedProgram `yaml:"programs"`
	}
	if err := yaml.Unmarshal(data, &seedConfig); err != nil {
		return err
	}

	active, err := db.GetActivePrograms(ctx)
	if err != nil {
		return err
	}
	existing := make(map[string]bool, len(active))
	for _, p := range active {
		existing[p.Title] = true
	}

	created := 0
	for _, seed := range seedConfig.Programs {
		if seed.Title == "" || existing[seed.Title] {
			continue
		}

		p, err := seed.toProgram()
		if err != nil {
			logger.Error().Err(err).Str("title", seed.Title).Msg("Некорректная программа в посеве")
			continue
		}
		if err := db.CreateProgram(ctx, p); err != nil {
			logger.Error().Err(err).Str("title", p.Title).Msg("Не удалось создать программу из посева")
			continue
		}
		created++
	}

	if created > 0 {
		logger.Info().Int("created", created).Msg("Программы из посева созданы")
	}
	return nil
}

func (s seedProgram) toProgram() (*models.Program, error) {
	start, err := schedule.ParseShortDate(s.StartDate)
	if err != nil {
		return nil, fmt.Errorf("start_date: %w", err)
	}

	p := &models.Program{
		Type:            s.Type,
		Title:           s.Title,
		Description:     s.Description,
		StartDate:       start,
		Schedule:        s.Schedule,
		MaxParticipants: s.MaxParticipants,
		Price:           s.Price,
		Status:          models.ProgramStatusActive,
		DurationMinutes: s.DurationMinutes,
		GroupLink:       s.GroupLink,
	}
	if p.DurationMinutes == 0 {
		p.DurationMinutes = models.DefaultDurationMinutes
	}
	if s.EndDate != "" {
		end, err := schedule.ParseShortDate(s.EndDate)
		if err != nil {
			return nil, fmt.Errorf("end_date: %w", err)
		}
		p.EndDate = &end
	}
	if s.SinglePrice > 0 {
		sp := s.SinglePrice
		p.SinglePrice = &sp
	}
	return p, nil
}

func initGoogleSheets(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *google.SheetsService {
	if cfg.Google.CredentialsFile == "" || cfg.Google.ApplicationsSpreadsheetID == "" {
		logger.Info().Msg("Google Sheets не настроен, синхронизация выключена")
		return nil
	}

	sheetsSvc, err := google.NewSheetsService(cfg.Google.CredentialsFile, cfg.Google.ApplicationsSpreadsheetID)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to initialize Google Sheets service")
		return nil
	}

	if err := sheetsSvc.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("Google Sheets connection test failed")
		return nil
	}

	logger.Info().Msg("Google Sheets service initialized successfully")
	return sheetsSvc
}

func initRateLimiter(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) (*redis.Client, domain.RateLimiter) {
	memory := repository.NewMemoryRateLimiter()
	if cfg.Redis.Address == "" {
		return nil, memory
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis unavailable")
	}

	return redisClient, repository.NewFailoverRateLimiter(
		repository.NewRedisRateLimiter(redisClient), memory, logger)
}

// subscribeAuditLog пишет доменные события в лог. Постановкой задач в
// очередь Sheets занимается сервис заявок напрямую.
func subscribeAuditLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(ev *events.Event) error {
		logger.Info().
			Str("event", ev.Type).
			RawJSON("payload", ev.Payload).
			Msg("Событие")
		return nil
	}

	for _, eventType := range []string{
		events.EventApplicationCreated,
		events.EventApplicationPaid,
		events.EventApplicationRejected,
		events.EventBookingConfirmed,
		events.EventProgramCreated,
	} {
		bus.Subscribe(eventType, handler)
	}
}
