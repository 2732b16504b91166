package router

import (
	"net/http"

	_ "med-reminder/docs"
	mem "med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/domain/adherence"
	"med-reminder/internal/domain/medications"
	"med-reminder/internal/middleware"
	"med-reminder/internal/platform/logger"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	// Opcional: si no viene, in-memory.
	Store medications.Repository

	// Opcional: el mismo sweeper que corre el scheduler, así el endpoint
	// manual comparte el run-lock. Si no viene, se crea uno sobre Store.
	Sweeper *adherence.Sweeper

	Logger      logger.Logger
	CORSOrigins []string
	Swagger     bool
}

func NewRouter(opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = logger.Nop()
	}

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-User-ID", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.UserContext)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	store := opts.Store
	if store == nil {
		store = mem.NewMedicationRepo()
	}

	sweeper := opts.Sweeper
	if sweeper == nil {
		sweeper = adherence.NewSweeper(store, log, adherence.Options{})
	}

	medsSvc := medications.NewService(store, log)

	medications.RegisterRoutes(r, medsSvc)
	adherence.RegisterRoutes(r, sweeper)

	if opts.Swagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	return r
}
