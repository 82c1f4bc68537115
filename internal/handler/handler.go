package handler

import (
	"context"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/locales/zh"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	zh_translations "github.com/go-playground/validator/v10/translations/zh"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/availability"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/config"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// Repository 是 handler 用到的数据库操作，由 repository.Repository 实现
type Repository interface {
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	GetActiveUsersByRole(ctx context.Context, role domain.Role) ([]*domain.User, error)

	ListShiftTemplates(ctx context.Context, stationID int64) ([]domain.ShiftTemplate, error)
	GetShiftTemplate(ctx context.Context, id int64) (*domain.ShiftTemplate, error)
	CreateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error
	UpdateShiftTemplate(ctx context.Context, t *domain.ShiftTemplate) error
	DeleteShiftTemplate(ctx context.Context, id int64) error
}

type Handler struct {
	validate    *validator.Validate
	config      *config.Config
	repository  Repository
	translator  ut.Translator
	mailChannel *amqp.Channel
	redisClient *redis.Client
	checker     *availability.Checker
	coverage    coverage.Config

	Mux *chi.Mux
}

func NewHandler(cfg *config.Config, repo Repository, mailCh *amqp.Channel, rdb *redis.Client, checker *availability.Checker) (*Handler, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())
	zh := zh.New()
	uni := ut.New(zh, zh)
	trans, _ := uni.GetTranslator("zh")
	if err := zh_translations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	return &Handler{
		validate:    validate,
		config:      cfg,
		repository:  repo,
		translator:  trans,
		mailChannel: mailCh,
		redisClient: rdb,
		checker:     checker,
		coverage: coverage.Config{
			IntervalMinutes: cfg.Coverage.IntervalMinutes,
			PreBuffer:       cfg.Coverage.PreBuffer,
			PostBuffer:      cfg.Coverage.PostBuffer,
			FallbackStart:   cfg.Coverage.FallbackStart,
			FallbackEnd:     cfg.Coverage.FallbackEnd,
			MaxRangeHours:   cfg.Coverage.MaxRangeHours,
		},

		Mux: chi.NewRouter(),
	}, nil
}

func (h *Handler) RegisterRoutes() {
	h.Mux.Use(h.requestID)
	h.Mux.Use(h.logger)
	h.Mux.Use(h.recoverer)

	// 认证相关
	h.Mux.Route("/auth", func(r chi.Router) {
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
	})

	// 以下 API 必须要在登录后才允许调用
	h.Mux.Group(func(r chi.Router) {
		r.Use(h.auth)
		r.With(h.myInfo).Get("/my-info", h.GetMyInfo)

		r.Route("/shift-templates", func(r chi.Router) {
			r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Post("/", h.CreateShiftTemplate)
			r.Get("/", h.ListShiftTemplates)
			r.Route("/{id}", func(r chi.Router) {
				r.Use(h.shiftTemplate)
				r.Get("/", h.GetShiftTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Patch("/", h.UpdateShiftTemplate)
				r.With(h.RequiredRole([]domain.Role{domain.RoleManager})).Delete("/", h.DeleteShiftTemplate)
			})
		})

		r.Route("/coverage", func(r chi.Router) {
			r.Get("/range", h.GetCoverageRange)
			r.Get("/slots", h.GetCoverageSlots)
			r.Get("/gaps", h.GetCoverageGaps)
			r.Post("/conflicts", h.DetectConflicts)
			r.Post("/availability", h.CheckAvailability)
		})
	})
}

func (h *Handler) redisTimeout() time.Duration {
	return time.Duration(h.config.Redis.OperationExpiration) * time.Second
}
