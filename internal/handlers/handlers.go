package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"stockfolio/internal/auth"
	"stockfolio/internal/catalog"
	"stockfolio/internal/models"
	"stockfolio/internal/portfolio"
	"stockfolio/internal/service"
	"stockfolio/internal/store"
)

type Handler struct {
	store     *store.Store
	catalog   *catalog.Catalog
	auth      *auth.Service
	refresher *service.SnapshotRefresher
	log       *logrus.Logger
}

func NewHandler(st *store.Store, cat *catalog.Catalog, au *auth.Service, ref *service.SnapshotRefresher, log *logrus.Logger) *Handler {
	return &Handler{store: st, catalog: cat, auth: au, refresher: ref, log: log}
}

// Register mounts every route on r.
func (h *Handler) Register(r gin.IRouter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.POST("/signup", h.Signup)
	r.POST("/login", h.Login)
	r.GET("/stocks", h.ListStocks)
	r.GET("/stocks/:symbol", h.GetStock)
	r.POST("/stocks/refresh", h.RefreshStocks)
	r.GET("/portfolio/:userId", h.GetPortfolio)
	r.POST("/transaction", h.PostTransaction)
}

func (h *Handler) Signup(c *gin.Context) {
	var req models.SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid signup body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.auth.Register(c.Request.Context(), req.Username, req.Password, req.Email)
	if errors.Is(err, auth.ErrUsernameTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "username already taken"})
		return
	}
	if err != nil {
		h.log.Errorf("register failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user_id": id, "username": req.Username})
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.auth.Authenticate(c.Request.Context(), req.Username, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.log.Errorf("login failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": id, "username": req.Username})
}

func (h *Handler) ListStocks(c *gin.Context) {
	stocks, err := h.catalog.List(c.Request.Context())
	if err != nil {
		h.log.Errorf("list stocks failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, stocks)
}

func (h *Handler) GetStock(c *gin.Context) {
	s, err := h.catalog.Get(c.Request.Context(), c.Param("symbol"))
	if errors.Is(err, catalog.ErrUnknownSymbol) {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown symbol"})
		return
	}
	if err != nil {
		h.log.Errorf("get stock failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h *Handler) RefreshStocks(c *gin.Context) {
	n, err := h.refresher.Refresh(c.Request.Context())
	if err != nil {
		h.log.Errorf("refresh failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID := c.Param("userId")
	cash, records, err := h.store.Load(c.Request.Context(), userID)
	if err != nil {
		h.log.Errorf("load portfolio failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}

	p := portfolio.New(cash, h.log)
	p.LoadRecords(records)
	c.JSON(http.StatusOK, portfolioView(userID, p))
}

// PostTransaction validates the symbol against the catalog, then runs the
// load-mutate-save sequence under the store's per-user lock.
func (h *Handler) PostTransaction(c *gin.Context) {
	var req models.TransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warnf("invalid transaction body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid price format"})
		return
	}

	symbol := strings.ToUpper(req.Symbol)
	ok, err := h.catalog.Exists(c.Request.Context(), symbol)
	if err != nil {
		h.log.Errorf("symbol lookup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "unknown symbol"})
		return
	}

	var p *portfolio.Portfolio
	err = h.store.Do(req.UserID, func() error {
		cash, records, err := h.store.Load(c.Request.Context(), req.UserID)
		if err != nil {
			return err
		}
		p = portfolio.New(cash, h.log)
		p.LoadRecords(records)

		switch req.Type {
		case "buy":
			err = p.Buy(symbol, req.Quantity, price)
		case "sell":
			err = p.Sell(symbol, req.Quantity, price)
		}
		if err != nil {
			return err
		}
		return h.store.Save(c.Request.Context(), req.UserID, p.CashBalance(), p.Holdings())
	})
	if err != nil {
		h.writeTransactionError(c, err)
		return
	}
	c.JSON(http.StatusOK, portfolioView(req.UserID, p))
}

func (h *Handler) writeTransactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, portfolio.ErrInvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrInsufficientFunds):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, portfolio.ErrInsufficientShares):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.log.Errorf("transaction failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "transaction failed"})
	}
}

func portfolioView(userID string, p *portfolio.Portfolio) models.PortfolioView {
	holdings := []models.HoldingView{}
	for _, h := range p.Holdings() {
		holdings = append(holdings, models.HoldingView{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost.StringFixed(4),
		})
	}
	return models.PortfolioView{
		UserID:      userID,
		CashBalance: p.CashBalance().StringFixed(4),
		Holdings:    holdings,
	}
}
