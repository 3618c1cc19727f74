package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	api "github.com/mind-engage/mindengage-courses/internal/api/http"
	auth "github.com/mind-engage/mindengage-courses/internal/auth/middleware"
	"github.com/mind-engage/mindengage-courses/internal/cache"
	"github.com/mind-engage/mindengage-courses/internal/catalog"
	"github.com/mind-engage/mindengage-courses/internal/certificate"
	"github.com/mind-engage/mindengage-courses/internal/config"
	"github.com/mind-engage/mindengage-courses/internal/db"
	"github.com/mind-engage/mindengage-courses/internal/jobs"
	"github.com/mind-engage/mindengage-courses/internal/ledger"
	"github.com/mind-engage/mindengage-courses/internal/logging"
	"github.com/mind-engage/mindengage-courses/internal/metrics"
	"github.com/mind-engage/mindengage-courses/internal/payment"
	"github.com/mind-engage/mindengage-courses/internal/quiz"
	"github.com/mind-engage/mindengage-courses/internal/render"
	"github.com/mind-engage/mindengage-courses/internal/storage"
)

func main() {
	cfg := config.Load()
	log := logging.New("mindengage-courses", cfg.LogLevel)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.WithError(err).Fatal("db open failed")
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.WithError(err).Fatal("blob store")
	}

	ready := map[string]api.Pinger{"db": dbh.PingContext}

	// --- Verification cache (optional) ---
	var verifyCache cache.VerifyCache = cache.Nop{}
	if cfg.RedisAddr != "" {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.VerifyCacheTTL)
		if err != nil {
			log.WithError(err).WithField("addr", cfg.RedisAddr).Warn("redis unavailable; verification cache disabled")
		} else {
			defer rc.Close()
			verifyCache = rc
			ready["redis"] = rc.Ping
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	// --- Services ---
	cat := catalog.NewSQLStore(dbh)
	quizStore := quiz.NewSQLStore(dbh)
	subs := ledger.NewSQLStore(dbh)

	certs := certificate.NewService(certificate.Deps{
		Store:            certificate.NewSQLStore(dbh),
		Catalog:          cat,
		Submissions:      subs,
		Quizzes:          quizStore,
		Blobs:            bs,
		Renderer:         render.New(cfg.PublicURL),
		Cache:            verifyCache,
		Log:              log,
		Metrics:          m,
		PublicURL:        cfg.PublicURL,
		ScorecardHistory: cfg.ScorecardHistory,
	})
	queue := jobs.New(jobs.NewSQLStore(dbh), func(ctx context.Context, userID, courseID string) (string, error) {
		rec, err := certs.IssueOrFetch(ctx, userID, courseID)
		return rec.ID, err
	}, cfg.IssueMaxAttempts, log, m)

	sched := cron.New()
	if _, err := queue.Schedule(sched, cfg.IssueRetrySpec); err != nil {
		log.WithError(err).WithField("spec", cfg.IssueRetrySpec).Fatal("schedule issuance retrier")
	}
	sched.Start()

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, logging.RequestLogger(log), m.Middleware, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	api.Mount(r, api.Deps{
		Auth:            authSvc,
		Catalog:         cat,
		Quizzes:         quiz.NewService(quizStore, cat),
		Ledger:          ledger.NewService(subs, quizStore, cat, catalog.NewGate(cat), queue, log, m),
		Certificates:    certs,
		Issuer:          queue,
		Payments:        payment.NewService(cfg.RazorpayKeySecret, cat),
		EnableLocalAuth: cfg.EnableLocalAuth,
		Ready:           ready,
		Metrics:         promhttp.Handler(),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	go func() {
		log.WithFields(logrus.Fields{
			"addr": cfg.HTTPAddr,
			"mode": cfg.Mode,
			"db":   cfg.DBDriver,
		}).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("http server")
		}
	}()

	<-stop
	log.Info("shutting down")
	shutdownCtx, done := context.WithTimeout(context.Background(), 15*time.Second)
	defer done()
	<-sched.Stop().Done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
}
