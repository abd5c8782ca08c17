package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"carelink/backend/internal/accesspolicy"
	"carelink/backend/internal/audit"
	auditrepo "carelink/backend/internal/audit/repository"
	"carelink/backend/internal/auth"
	authhandler "carelink/backend/internal/auth/handler"
	"carelink/backend/internal/config"
	"carelink/backend/internal/db"
	"carelink/backend/internal/devotp"
	devhandler "carelink/backend/internal/devotp/handler"
	healthhandler "carelink/backend/internal/health/handler"
	"carelink/backend/internal/notify"
	"carelink/backend/internal/otp"
	otprepo "carelink/backend/internal/otp/repository"
	patienthandler "carelink/backend/internal/patient/handler"
	patientrepo "carelink/backend/internal/patient/repository"
	"carelink/backend/internal/ratelimit"
	"carelink/backend/internal/revocation"
	"carelink/backend/internal/security"
	"carelink/backend/internal/server"
	"carelink/backend/internal/server/middleware"
	"carelink/backend/internal/telemetry"
	telemetryotel "carelink/backend/internal/telemetry/otel"
	"carelink/backend/internal/telemetry/producer"
)

const serviceName = "carelink-server"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()

	providers, err := telemetryotel.NewProviders(ctx, cfg.OTLPEndpoint, serviceName, false)
	if err != nil {
		log.Fatalf("telemetry: %v", err)
	}
	providers.SetGlobal()

	// Token provider
	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionDuration())

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		conn       *sql.DB
		patients   auth.PatientRepository
		listing    patienthandler.Lister
		otpStore   otp.Store
		auditRepo  auditrepo.Repository
		healthPing healthhandler.Pinger
	)
	if cfg.DatabaseURL != "" {
		conn, err = db.Open(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("db: %v", err)
		}
		defer conn.Close()
		pg := patientrepo.NewPostgresRepository(conn)
		patients, listing = pg, pg
		otpStore = otprepo.NewPostgresStore(conn)
		auditRepo = auditrepo.NewPostgresRepository(conn)
		healthPing = conn
	} else {
		log.Println("DATABASE_URL not set; using in-memory stores (development only)")
		mem := patientrepo.NewMemoryRepository()
		patients, listing = mem, mem
		otpStore = otp.NewMemoryStore()
	}

	// Session revocation: shared Redis list when configured, else in-process.
	var revocations revocation.Registry
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		defer client.Close()
		revocations = revocation.NewRedis(client)
	} else {
		revocations = revocation.NewMemory()
	}

	limiter := ratelimit.NewMemory(rateLimits(cfg))

	// OTP delivery: SMS in normal mode, dev store when OTP_RETURN_TO_CLIENT.
	var (
		sender   otp.CodeSender
		recorder otp.CodeRecorder
		devStore devotp.Store
	)
	if cfg.OTPReturnToClient {
		devStore = devotp.NewMemoryStore()
		recorder = devStore
		log.Println("dev OTP mode enabled: codes served at GET /v1/dev/otp")
	} else {
		sender = notify.NewSMSLocalClient(cfg.SMSLocalAPIKey, cfg.SMSLocalBaseURL, cfg.SMSLocalSender)
	}
	ledger := otp.NewLedger(otpStore, limiter, sender, recorder, cfg.OTPDuration(), cfg.OTPMaxAttempts)

	policy, err := accesspolicy.NewOPAEvaluator()
	if err != nil {
		log.Fatalf("access policy: %v", err)
	}

	svc := auth.NewService(patients, ledger, tokens, revocations, security.NewHasher(cfg.BcryptCost))

	// Audit trail: Postgres plus the telemetry pipeline (Kafka and OTel logs).
	kafkaProducer, err := producer.NewKafkaProducer(cfg.TelemetryKafkaBrokersList(), cfg.TelemetryKafkaTopic)
	if err != nil {
		log.Fatalf("kafka: %v", err)
	}
	var emitters telemetry.MultiEmitter
	if kafkaProducer != nil {
		defer kafkaProducer.Close()
		emitters = append(emitters, kafkaProducer)
	}
	emitters = append(emitters, telemetryotel.NewEventEmitter(providers.LoggerProvider))
	auditLog := audit.Multi{
		audit.NewLogger(auditRepo, middleware.ClientIPFromContext),
		&telemetry.AuditEmitter{
			Emitter:     emitters,
			Source:      serviceName,
			IPExtractor: middleware.ClientIPFromContext,
		},
	}

	var devHandler *devhandler.HTTPHandler
	if devStore != nil {
		devHandler = devhandler.NewHTTPHandler(devStore)
	}

	router := server.NewRouter(server.Deps{
		ServiceName: serviceName,
		Auth:        authhandler.NewHTTPHandler(svc, ledger),
		Patients:    patienthandler.NewHTTPHandler(listing),
		Health:      healthhandler.NewHTTPHandler(healthPing, policy),
		Dev:         devHandler,
		Tokens:      tokens,
		Revocations: revocations,
		Policy:      policy,
		Limiter:     limiter,
		Audit:       auditLog,
	})

	pruneCtx, stopPrune := context.WithCancel(ctx)
	defer stopPrune()
	go prune(pruneCtx, limiter, otpStore, revocations)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	// Let in-flight async telemetry finish before tearing providers down.
	time.Sleep(telemetry.ShutdownDrainDuration)
	if err := providers.Shutdown(shutdownCtx); err != nil {
		log.Printf("telemetry shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// rateLimits translates the configured "count/window" strings into limiter
// classes. Empty strings disable a class; malformed ones were rejected by
// config.Load.
func rateLimits(cfg *config.Config) map[ratelimit.Class]ratelimit.Limit {
	out := make(map[ratelimit.Class]ratelimit.Limit)
	add := func(class ratelimit.Class, raw string) {
		if raw == "" {
			return
		}
		count, window, err := config.ParseRate(raw)
		if err != nil {
			return
		}
		out[class] = ratelimit.Limit{Max: count, Window: window}
	}
	add(ratelimit.ClassOTPRequest, cfg.RateOTPRequest)
	add(ratelimit.ClassOTPVerify, cfg.RateOTPVerify)
	add(ratelimit.ClassRegister, cfg.RateRegister)
	add(ratelimit.ClassMutation, cfg.RateMutation)
	return out
}

// prune periodically drops expired limiter buckets, OTP challenges, and
// revocation entries so the in-memory stores do not grow without bound.
func prune(ctx context.Context, limiter *ratelimit.Memory, otpStore otp.Store, revocations revocation.Registry) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			limiter.Prune(now)
			switch s := otpStore.(type) {
			case *otp.MemoryStore:
				s.Prune(now)
			case *otprepo.PostgresStore:
				if err := s.Prune(ctx); err != nil {
					log.Printf("otp: prune failed: %v", err)
				}
			}
			if mem, ok := revocations.(*revocation.Memory); ok {
				mem.Prune(now)
			}
		}
	}
}
