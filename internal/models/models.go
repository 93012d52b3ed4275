package models

type SignupRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required,min=4"`
	Email    string `json:"email"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TransactionRequest is a market buy or sell. Price rides as a string so a
// client can state an exact decimal amount.
type TransactionRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Type     string `json:"type" binding:"required,oneof=buy sell"`
	Symbol   string `json:"symbol" binding:"required"`
	Quantity int64  `json:"quantity" binding:"required"`
	Price    string `json:"price" binding:"required"`
}

type HoldingView struct {
	Symbol      string `json:"symbol"`
	Quantity    int64  `json:"quantity"`
	AverageCost string `json:"average_cost"`
}

type PortfolioView struct {
	UserID      string        `json:"user_id"`
	CashBalance string        `json:"cash_balance"`
	Holdings    []HoldingView `json:"holdings"`
}
