package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	acceptBookingHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/accept_booking"
	cancelBookingHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/cancel_booking"
	confirmCompletionHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/confirm_completion"
	createBookingHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/create_booking"
	getBookingHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/get_booking"
	getUserBookingsHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/get_user_bookings"
	initiatePaymentHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/initiate_payment"
	updateBookingStatusHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/update_booking_status"
	verifyPaymentHandler "github.com/hustleverse/HV-BookingService/internal/api/handlers/verify_payment"
	"github.com/hustleverse/HV-BookingService/internal/api/middleware"
	"github.com/hustleverse/HV-BookingService/internal/config"
	bookingRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/booking"
	invoiceRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/invoice"
	outboxRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/outbox"
	serviceRepo "github.com/hustleverse/HV-BookingService/internal/infra/storage/service"
	identityClient "github.com/hustleverse/HV-BookingService/internal/integrations/identity"
	notifyClient "github.com/hustleverse/HV-BookingService/internal/integrations/notify"
	paystackClient "github.com/hustleverse/HV-BookingService/internal/integrations/paystack"
	bookingsService "github.com/hustleverse/HV-BookingService/internal/service/bookings"
	invoicesService "github.com/hustleverse/HV-BookingService/internal/service/invoices"
	paymentsService "github.com/hustleverse/HV-BookingService/internal/service/payments"
	createBookingUC "github.com/hustleverse/HV-BookingService/internal/usecase/create_booking"
	initiatePaymentUC "github.com/hustleverse/HV-BookingService/internal/usecase/initiate_payment"
	verifyPaymentUC "github.com/hustleverse/HV-BookingService/internal/usecase/verify_payment"
	outboxWorker "github.com/hustleverse/HV-BookingService/internal/worker/outbox"
	"github.com/hustleverse/HV-BookingService/pkg/dbmetrics"
	"github.com/hustleverse/HV-BookingService/pkg/logger"
	"github.com/hustleverse/HV-BookingService/pkg/metrics"
	"github.com/hustleverse/HV-BookingService/pkg/simpletxmanager"
	"github.com/hustleverse/HV-BookingService/pkg/txmanager"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load("config.toml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Инициализируем логгер
	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	log.Info("Starting HV-BookingService...")
	log.Info("Configuration loaded from config.toml")

	// Инициализируем метрики (если включены)
	var metricsCollector *metrics.Metrics
	var wrappedDB *dbmetrics.DB
	stopMetricsCh := make(chan struct{})

	if cfg.Metrics.Enabled {
		metricsCollector = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	// Подключаемся к базе данных
	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		log.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Настраиваем connection pool
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.Database.ConnMaxLifetime) * time.Second)

	// Проверяем соединение
	if err := db.Ping(); err != nil {
		log.Fatal("Failed to ping database: %v", err)
	}
	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.DBName)

	// Подключаемся к Redis (dedupe-блокировки верификации платежей)
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			log.Fatal("Failed to ping redis: %v", err)
		}
		defer redisClient.Close()
		log.Info("Successfully connected to redis (addr=%s)", cfg.Redis.Addr)
	} else {
		log.Warn("Redis disabled, payment verification dedupe locks are off")
	}

	// Инициализируем интеграционных клиентов
	gateway := paystackClient.NewClient(
		cfg.Paystack.BaseURL,
		cfg.Paystack.SecretKey,
		time.Duration(cfg.Paystack.Timeout)*time.Second,
		log,
	)
	identity := identityClient.NewClient(
		cfg.IdentityService.URL,
		time.Duration(cfg.IdentityService.Timeout)*time.Second,
		log,
	)
	notifier := notifyClient.NewClient(
		cfg.NotificationService.URL,
		time.Duration(cfg.NotificationService.Timeout)*time.Second,
		log,
	)
	log.Info("Integration clients initialized (Paystack=%s, IdentityService=%s, NotificationService=%s)",
		cfg.Paystack.BaseURL, cfg.IdentityService.URL, cfg.NotificationService.URL)

	// Инициализируем репозитории и transaction manager (с метриками или без)
	var (
		bookingRepository *bookingRepo.Repository
		invoiceRepository *invoiceRepo.Repository
		serviceRepository *serviceRepo.Repository
		outboxRepository  *outboxRepo.Repository
	)

	type TxManager interface {
		DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	}
	var txMgr TxManager

	if cfg.Metrics.Enabled {
		wrappedDB = dbmetrics.WrapWithDefault(db, metricsCollector, cfg.Metrics.ServiceName, stopMetricsCh)
		log.Info("Database metrics collection started")

		bookingRepository = bookingRepo.NewRepository(wrappedDB)
		invoiceRepository = invoiceRepo.NewRepository(wrappedDB)
		serviceRepository = serviceRepo.NewRepository(wrappedDB)
		outboxRepository = outboxRepo.NewRepository(wrappedDB)
		txMgr = txmanager.NewTransactionManager(wrappedDB)
	} else {
		bookingRepository = bookingRepo.NewRepository(db)
		invoiceRepository = invoiceRepo.NewRepository(db)
		serviceRepository = serviceRepo.NewRepository(db)
		outboxRepository = outboxRepo.NewRepository(db)
		txMgr = simpletxmanager.NewTransactionManager(db)
	}

	// Недоставленные уведомления уходят в outbox на переигрывание
	reliableNotifier := outboxWorker.NewReliableNotifier(notifier, outboxRepository, log)

	// Инициализируем сервисы
	paymentsSvc := paymentsService.NewService(gateway, bookingRepository, cfg.Payments.Currency, log)
	invoicesSvc := invoicesService.NewService(invoiceRepository, log)
	bookingSvc := bookingsService.NewService(bookingRepository, paymentsSvc, reliableNotifier, log)

	// Инициализируем use cases
	createBookingUseCase := createBookingUC.NewUseCase(
		bookingRepository,
		serviceRepository,
		txMgr,
		reliableNotifier,
		log,
	)
	initiatePaymentUseCase := initiatePaymentUC.NewUseCase(
		bookingRepository,
		serviceRepository,
		gateway,
		identity,
		outboxRepository,
		cfg.Payments.Currency,
		cfg.Payments.CallbackURL,
		log,
	)
	verifyPaymentUseCase := verifyPaymentUC.NewUseCase(
		bookingRepository,
		gateway,
		invoicesSvc,
		txMgr,
		reliableNotifier,
		outboxRepository,
		redisClient,
		log,
	)

	// Фоновый диспетчер переигрывает отложенные вторичные записи
	dispatcher := outboxWorker.NewDispatcher(
		outboxRepository,
		bookingRepository,
		invoicesSvc,
		txMgr,
		notifier,
		time.Duration(cfg.Outbox.PollInterval)*time.Second,
		cfg.Outbox.BatchSize,
		cfg.Outbox.MaxAttempts,
		log,
	)
	dispatcherCtx, stopDispatcher := context.WithCancel(context.Background())
	go dispatcher.Run(dispatcherCtx)

	// Инициализируем handlers
	createBooking := createBookingHandler.NewHandler(createBookingUseCase, log)
	getBooking := getBookingHandler.NewHandler(bookingSvc, log)
	getUserBookings := getUserBookingsHandler.NewHandler(bookingSvc, log)
	acceptBooking := acceptBookingHandler.NewHandler(bookingSvc, log)
	updateBookingStatus := updateBookingStatusHandler.NewHandler(bookingSvc, log)
	confirmCompletion := confirmCompletionHandler.NewHandler(bookingSvc, log)
	cancelBooking := cancelBookingHandler.NewHandler(bookingSvc, log)
	initiatePayment := initiatePaymentHandler.NewHandler(initiatePaymentUseCase, log)
	verifyPayment := verifyPaymentHandler.NewHandler(verifyPaymentUseCase, log)

	// Настраиваем роутер
	r := mux.NewRouter()

	if cfg.Metrics.Enabled {
		r.Use(middleware.MetricsMiddleware(metricsCollector, cfg.Metrics.ServiceName))
		log.Info("HTTP metrics middleware enabled")

		r.Handle(cfg.Metrics.Path, promhttp.Handler()).Methods(http.MethodGet)
		log.Info("Prometheus metrics endpoint exposed at %s", cfg.Metrics.Path)
	}

	// API prefix
	api := r.PathPrefix("/api/v1").Subrouter()

	// ============================================================
	// PUBLIC ROUTES (без аутентификации)
	// ============================================================

	// Верификация платежа по ссылке транзакции (callback платежного шлюза)
	api.HandleFunc("/payments/verify/{reference}", verifyPayment.Handle).Methods(http.MethodGet)

	// ============================================================
	// PROTECTED ROUTES (требуют X-User-ID header)
	// ============================================================

	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.Auth)

	// --- Бронирования ---
	// Создание бронирования
	protected.HandleFunc("/bookings", createBooking.Handle).Methods(http.MethodPost)

	// Получение бронирования по ID
	protected.HandleFunc("/bookings/{bookingId}", getBooking.Handle).Methods(http.MethodGet)

	// Принятие бронирования продавцом
	protected.HandleFunc("/bookings/{bookingId}/accept", acceptBooking.Handle).Methods(http.MethodPatch)

	// Переход статуса по жизненному циклу
	protected.HandleFunc("/bookings/{bookingId}/status", updateBookingStatus.Handle).Methods(http.MethodPatch)

	// Подтверждение завершения покупателем (запускает release средств)
	protected.HandleFunc("/bookings/{bookingId}/confirm", confirmCompletion.Handle).Methods(http.MethodPatch)

	// Отмена бронирования
	protected.HandleFunc("/bookings/{bookingId}/cancel", cancelBooking.Handle).Methods(http.MethodPatch)

	// История бронирований пользователя
	protected.HandleFunc("/users/{userId}/bookings", getUserBookings.Handle).Methods(http.MethodGet)

	// --- Платежи ---
	// Инициация платежа за бронирование
	protected.HandleFunc("/bookings/{bookingId}/payments/initiate", initiatePayment.Handle).Methods(http.MethodPost)

	// Создаем HTTP сервер
	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("HTTP server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error: %v", err)
		}
	}()

	// Ждем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Останавливаем диспетчер outbox и сбор метрик пула соединений
	stopDispatcher()
	close(stopMetricsCh)

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
	}

	log.Info("Server exited")
}
