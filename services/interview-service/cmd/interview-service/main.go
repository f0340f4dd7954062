package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knakajima/slotpicker/libs/config"
	"github.com/knakajima/slotpicker/libs/db"
	"github.com/knakajima/slotpicker/libs/httpx"
	otelx "github.com/knakajima/slotpicker/libs/otel"
	"github.com/knakajima/slotpicker/libs/runtime"
	"github.com/knakajima/slotpicker/services/interview-service/internal/gcal"
	"github.com/knakajima/slotpicker/services/interview-service/internal/handlers"
	"github.com/knakajima/slotpicker/services/interview-service/internal/tokens"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	calendar "google.golang.org/api/calendar/v3"
)

func main() {
	_ = godotenv.Load()

	service := config.String("SERVICE_NAME", "interview-service")
	port, err := config.Port("PORT", "8080")
	if err != nil {
		panic(err)
	}
	logger := runtime.NewLogger(service)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, otelx.ConfigFromEnv(service))
	if err != nil {
		logger.Error("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	loc, err := time.LoadLocation(config.String("TIMEZONE", "Asia/Tokyo"))
	if err != nil {
		panic(err)
	}

	dbURL, err := config.RequiredString("DATABASE_URL")
	if err != nil {
		panic(err)
	}
	pool, err := db.Open(ctx, dbURL)
	if err != nil {
		logger.Error("db connection failed", "err", err)
		panic(err)
	}
	defer pool.Close()

	sealKey, err := config.RequiredString("TOKEN_SEAL_KEY")
	if err != nil {
		panic(err)
	}
	sealer, err := tokens.NewSealer(sealKey)
	if err != nil {
		logger.Error("token sealer init failed", "err", err)
		panic(err)
	}
	tokenRepo := tokens.NewRepository(pool, sealer)

	clientID, err := config.RequiredString("GOOGLE_CLIENT_ID")
	if err != nil {
		panic(err)
	}
	clientSecret, err := config.RequiredString("GOOGLE_CLIENT_SECRET")
	if err != nil {
		panic(err)
	}
	oauthCfg := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  config.String("OAUTH_REDIRECT_URL", "http://localhost:"+port+"/auth/google/callback"),
		Endpoint:     google.Endpoint,
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
			calendar.CalendarReadonlyScope,
		},
	}

	readyChecks := []runtime.ReadyCheck{
		{Name: "db", Check: db.ReadyCheck(pool)},
	}

	var cache *gcal.Cache
	var rateLimitMW httpx.Middleware
	limitPerMinute := config.Int("RATE_LIMIT_PER_MINUTE", 60)
	if addr := strings.TrimSpace(config.String("REDIS_ADDR", "")); addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: config.String("REDIS_PASSWORD", ""),
			DB:       config.Int("REDIS_DB", 0),
		})
		defer func() { _ = rdb.Close() }()
		readyChecks = append(readyChecks, runtime.ReadyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})

		cacheTTL := time.Duration(config.Int("CALENDAR_CACHE_TTL_SECONDS", 120)) * time.Second
		cache = gcal.NewCache(rdb, cacheTTL, logger)

		rl := httpx.NewRedisRateLimiter(rdb, limitPerMinute, time.Minute, config.String("RATE_LIMIT_PREFIX", "rl"))
		rateLimitMW = rl.Middleware(logger, isTruthy(config.String("RATE_LIMIT_FAIL_OPEN", "true")))
		logger.Info("rate limiting enabled (redis)", "per_minute", limitPerMinute, "redis_addr", addr)
	} else {
		rl := httpx.NewRateLimiter(limitPerMinute, time.Minute)
		rateLimitMW = rl.Middleware()
		logger.Info("rate limiting enabled (in-memory)", "per_minute", limitPerMinute)
	}

	calendarSvc := gcal.NewService(gcal.NewClient(oauthCfg, tokenRepo, logger), cache, logger)

	sessionSecret := config.String("AUTH_SECRET", "dev-secret")
	authHandler := handlers.NewAuthHandler(handlers.AuthHandlerConfig{
		OAuth:         oauthCfg,
		Tokens:        tokenRepo,
		Logger:        logger,
		SessionSecret: sessionSecret,
		SessionTTL:    time.Duration(config.Int("SESSION_TTL_SECONDS", 86400)) * time.Second,
		SecureCookie:  isTruthy(config.String("SECURE_COOKIES", "false")),
		PostLoginURL:  config.String("POST_LOGIN_URL", "/"),
	})
	calendarHandler := handlers.NewCalendarHandler(calendarSvc, logger)
	slotsHandler := handlers.NewSlotsHandler(logger, loc)

	mux := runtime.NewBaseMuxWithReady(readyChecks...)
	mux.HandleFunc("/auth/google/login", authHandler.Login)
	mux.HandleFunc("/auth/google/callback", authHandler.Callback)
	mux.HandleFunc("/auth/logout", authHandler.Logout)

	requireSession := handlers.RequireSession(sessionSecret)
	mux.Handle("/api/v1/me", requireSession(http.HandlerFunc(authHandler.Me)))
	mux.Handle("/api/v1/calendar", requireSession(http.HandlerFunc(calendarHandler.List)))
	mux.Handle("/api/v1/interview-slots", requireSession(http.HandlerFunc(slotsHandler.Compute)))

	bodyLimit := int64(config.Int("REQUEST_BODY_LIMIT_BYTES", 1<<20))
	requestTimeout := time.Duration(config.Int("REQUEST_TIMEOUT_SECONDS", 15)) * time.Second

	handler := httpx.Chain(mux,
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   parseList(config.String("CORS_ALLOWED_ORIGINS", "")),
			AllowedMethods:   parseList(config.String("CORS_ALLOWED_METHODS", "GET,POST,OPTIONS")),
			AllowedHeaders:   parseList(config.String("CORS_ALLOWED_HEADERS", "Content-Type,X-Request-Id")),
			AllowCredentials: isTruthy(config.String("CORS_ALLOW_CREDENTIALS", "true")),
			MaxAge:           time.Duration(config.Int("CORS_MAX_AGE_SECONDS", 600)) * time.Second,
		}),
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithBodyLimit(bodyLimit),
		httpx.WithTimeout(requestTimeout),
		rateLimitMW,
	)
	handler = otelhttp.NewHandler(handler, "interview")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("http server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "err", err)
	}
	logger.Info("http server stopped")
}

func isTruthy(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	default:
		return false
	}
}

func parseList(raw string) []string {
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
