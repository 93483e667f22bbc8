// Package backend реализует эталонный HTTP-сервер витрины. Всё состояние
// хранится в памяти: каталог, сессии на JWT, серверная корзина и заказы.
package backend

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vladislavdragonenkov/marazul/internal/contract"
	"github.com/vladislavdragonenkov/marazul/internal/domain"
	"github.com/vladislavdragonenkov/marazul/internal/metrics"
)

// Config: настройки сервера.
type Config struct {
	JWTSecret string
	TokenTTL  time.Duration
	// LoginRate: допустимое число попыток входа в минуту с одного IP.
	LoginRate  int
	LoginBurst int
}

// DefaultConfig возвращает настройки для локального запуска.
func DefaultConfig() Config {
	return Config{
		JWTSecret:  "marazul-dev-secret",
		TokenTTL:   24 * time.Hour,
		LoginRate:  30,
		LoginBurst: 10,
	}
}

// Server обслуживает API витрины.
type Server struct {
	store     *Store
	tokens    *TokenIssuer
	publisher domain.EventPublisher
	limiter   *ipRateLimiter
	logger    *log.Entry
	metrics   *metrics.StorefrontMetrics
}

// NewServer создаёт сервер. При nil publisher события не публикуются.
func NewServer(cfg Config, store *Store, publisher domain.EventPublisher, m *metrics.StorefrontMetrics, logger *log.Entry) (*Server, error) {
	tokens, err := NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	setupValidator()
	if publisher == nil {
		publisher = domain.NoopPublisher{}
	}
	if logger == nil {
		logger = log.WithField("component", "backend")
	}
	if cfg.LoginRate <= 0 {
		cfg.LoginRate = DefaultConfig().LoginRate
	}
	if cfg.LoginBurst <= 0 {
		cfg.LoginBurst = DefaultConfig().LoginBurst
	}

	return &Server{
		store:     store,
		tokens:    tokens,
		publisher: publisher,
		limiter:   newIPRateLimiter(rate.Every(time.Minute/time.Duration(cfg.LoginRate)), cfg.LoginBurst),
		logger:    logger,
		metrics:   m,
	}, nil
}

// Router собирает gin-маршруты.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")

	authGroup := api.Group("/auth")
	authGroup.POST("/login", s.rateLimitLogin(), s.handleLogin)
	authGroup.POST("/register", s.rateLimitLogin(), s.handleRegister)
	authGroup.GET("/me", s.requireAuth(), s.handleMe)
	authGroup.PUT("/profile", s.requireAuth(), s.handleUpdateProfile)

	api.GET("/products", s.handleProducts)
	api.GET("/products/:id", s.handleProduct)
	api.GET("/categories", s.handleCategories)

	cart := api.Group("/cart", s.requireAuth())
	cart.GET("", s.handleCart)
	cart.POST("", s.handleAddToCart)
	cart.PUT("", s.handleUpdateCart)
	cart.DELETE("", s.handleClearCart)
	cart.DELETE("/:productId", s.handleRemoveFromCart)

	orders := api.Group("/orders", s.requireAuth())
	orders.POST("", s.handleCreateOrder)
	orders.GET("", s.handleOrders)
	orders.GET("/:id", s.handleOrder)

	addresses := api.Group("/addresses", s.requireAuth())
	addresses.GET("", s.handleAddresses)
	addresses.POST("", s.handleCreateAddress)
	addresses.DELETE("/:id", s.handleDeleteAddress)

	api.POST("/contact", s.handleContact)
	api.GET("/reviews", s.handleReviews)
	api.POST("/reviews", s.requireAuth(), s.handleCreateReview)

	r.NoRoute(func(c *gin.Context) {
		fail(c, http.StatusNotFound, "route not found")
	})
	return r
}

func ok(c *gin.Context, status int, data any) {
	c.JSON(status, contract.Envelope{Success: true, Data: data})
}

func fail(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, contract.Envelope{Success: false, Message: message})
}

// failWith переводит доменную ошибку в HTTP-статус.
func failWith(c *gin.Context, err error) {
	fail(c, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case domain.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrOutOfStock),
		errors.Is(err, domain.ErrAmountMismatch):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmailRequired),
		errors.Is(err, domain.ErrPasswordRequired),
		errors.Is(err, domain.ErrProductIDRequired),
		errors.Is(err, domain.ErrItemQtyInvalid),
		errors.Is(err, domain.ErrItemPriceInvalid),
		errors.Is(err, domain.ErrItemsRequired),
		errors.Is(err, domain.ErrReviewRatingInvalid):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
