package handlers

import (
	"errors"
	"io"
	"net/http"

	paymentRequest "github.com/LavaJover/shvark-payment-service/internal/delivery/http/dto/payment/request"
	paymentResponse "github.com/LavaJover/shvark-payment-service/internal/delivery/http/dto/payment/response"
	"github.com/LavaJover/shvark-payment-service/internal/domain"
	paymentdto "github.com/LavaJover/shvark-payment-service/internal/usecase/dto/payment"
	usecase "github.com/LavaJover/shvark-payment-service/internal/usecase/payment"
	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	uc usecase.PaymentUsecase
}

func NewPaymentHandler(uc usecase.PaymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc}
}

func (h *PaymentHandler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	api.POST("/payments/:contextId/:reservationId", h.InitiatePayment)
	api.GET("/payments/:contextId/:reservationId", h.GetTransaction)
	api.GET("/payments/:contextId/:reservationId/info", h.GetPaymentInfo)
	api.POST("/payments/:contextId/:reservationId/refund", h.RefundPayment)
	api.POST("/payments/:contextId/:reservationId/invalidate", h.InvalidatePayment)
	api.POST("/payments/:contextId/:reservationId/token", h.ClientToken)

	api.POST("/webhook/:proxy/:contextId/:reservationId", h.Webhook)

	api.GET("/methods/:contextId", h.ActiveMethods)

	api.POST("/transactions/:transactionId/confirm", h.ConfirmOfflinePayment)
	api.POST("/transactions/:transactionId/discard", h.DiscardMatchedPayment)

	api.GET("/connect/:proxy/:organizationId", h.ConnectURL)
	api.POST("/connect/:proxy/:organizationId", h.ExchangeConnectCode)
}

func (h *PaymentHandler) InitiatePayment(c *gin.Context) {
	var req paymentRequest.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: err.Error()})
		return
	}

	input := &paymentdto.InitiatePaymentInput{
		ReservationID: c.Param("reservationId"),
		PurchaseContextID: c.Param("contextId"),
		Method: domain.PaymentMethod(req.Method),
		GatewayToken: req.GatewayToken,
		Locale: req.Locale,
		BillingAddress: domain.BillingAddress{
			Line1: req.BillingAddress.Line1,
			Line2: req.BillingAddress.Line2,
			Zip: req.BillingAddress.Zip,
			City: req.BillingAddress.City,
			Country: req.BillingAddress.Country,
		},
	}

	output, err := h.uc.InitiatePayment(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentResponse.PaymentResultResponse{
		Status: string(output.Status),
		TransactionID: output.TransactionID,
		RedirectURL: output.RedirectURL,
		FailureCode: string(output.FailureCode),
	})
}

// Webhook receives asynchronous provider confirmations. The raw body is passed
// through untouched: signature verification needs the exact bytes.
func (h *PaymentHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: "failed to read body"})
		return
	}

	input := &paymentdto.WebhookInput{
		Proxy: domain.PaymentProxy(c.Param("proxy")),
		PurchaseContextID: c.Param("contextId"),
		ReservationID: c.Param("reservationId"),
		Payload: payload,
		Signature: webhookSignature(c),
	}

	output, err := h.uc.ProcessWebhook(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, paymentResponse.WebhookResponse{
		Applied: output.Applied,
		Status: string(output.Status),
	})
}

func webhookSignature(c *gin.Context) string {
	if sig := c.GetHeader("Stripe-Signature"); sig != "" {
		return sig
	}
	return c.GetHeader("X-Signature")
}

func (h *PaymentHandler) GetTransaction(c *gin.Context) {
	tx, err := h.uc.GetTransactionByReservation(c.Request.Context(), c.Param("reservationId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse.TransactionResponse{
		ID: tx.ID,
		ReservationID: tx.ReservationID,
		Proxy: string(tx.Proxy),
		Status: string(tx.Status),
		PriceCents: tx.PriceCents,
		Currency: tx.Currency,
		GatewayTransactionID: tx.GatewayTransactionID,
		Timestamp: tx.Timestamp,
	})
}

func (h *PaymentHandler) GetPaymentInfo(c *gin.Context) {
	info, err := h.uc.GetPaymentInfo(c.Request.Context(), c.Param("reservationId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse.PaymentInfoResponse{
		PaidCents: info.PaidCents,
		RefundedCents: info.RefundedCents,
		GatewayFeeCents: info.GatewayFeeCents,
		PlatformFeeCents: info.PlatformFeeCents,
	})
}

func (h *PaymentHandler) RefundPayment(c *gin.Context) {
	var req paymentRequest.RefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: err.Error()})
		return
	}
	err := h.uc.RefundPayment(c.Request.Context(), &paymentdto.RefundInput{
		ReservationID: c.Param("reservationId"),
		AmountCents: req.AmountCents,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) InvalidatePayment(c *gin.Context) {
	var req paymentRequest.InvalidateRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: err.Error()})
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "MANUAL"
	}
	if err := h.uc.InvalidatePayment(c.Request.Context(), c.Param("reservationId"), reason); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) ClientToken(c *gin.Context) {
	var req paymentRequest.InitiatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: err.Error()})
		return
	}
	token, err := h.uc.ClientToken(c.Request.Context(), &paymentdto.InitiatePaymentInput{
		ReservationID: c.Param("reservationId"),
		PurchaseContextID: c.Param("contextId"),
		Method: domain.PaymentMethod(req.Method),
		GatewayToken: req.GatewayToken,
		Locale: req.Locale,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse.ClientTokenResponse{Token: token})
}

func (h *PaymentHandler) ActiveMethods(c *gin.Context) {
	scope := domain.ConfigScope{
		PurchaseContextID: c.Param("contextId"),
		OrganizationID: c.Query("organization_id"),
	}
	methods := h.uc.ActiveMethods(c.Request.Context(), scope)

	out := make([]paymentResponse.MethodResponse, 0, len(methods))
	for _, m := range methods {
		caps := make([]string, 0, len(m.Capabilities))
		for _, capability := range m.Capabilities {
			caps = append(caps, string(capability))
		}
		out = append(out, paymentResponse.MethodResponse{
			Method: string(m.Method),
			Proxy: string(m.Proxy),
			Capabilities: caps,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (h *PaymentHandler) ConfirmOfflinePayment(c *gin.Context) {
	if err := h.uc.ConfirmOfflinePayment(c.Request.Context(), c.Param("transactionId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) DiscardMatchedPayment(c *gin.Context) {
	if err := h.uc.DiscardMatchedPayment(c.Request.Context(), c.Param("transactionId")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PaymentHandler) ConnectURL(c *gin.Context) {
	url, err := h.uc.ConnectURL(domain.PaymentProxy(c.Param("proxy")), c.Param("organizationId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse.ConnectURLResponse{URL: url})
}

func (h *PaymentHandler) ExchangeConnectCode(c *gin.Context) {
	var req paymentRequest.ExchangeCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{Error: err.Error()})
		return
	}
	accountID, err := h.uc.ExchangeConnectCode(c.Request.Context(), domain.PaymentProxy(c.Param("proxy")), req.Code, c.Param("organizationId"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentResponse.ConnectAccountResponse{AccountID: accountID})
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrReservationNotFound),
		errors.Is(err, domain.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, paymentResponse.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrInvalidSignature):
		c.JSON(http.StatusUnauthorized, paymentResponse.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrNoProviderAvailable),
		errors.Is(err, domain.ErrCapabilityNotSupported):
		c.JSON(http.StatusUnprocessableEntity, paymentResponse.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrTransactionTerminal),
		errors.Is(err, domain.ErrMatchSuperseded):
		c.JSON(http.StatusConflict, paymentResponse.ErrorResponse{Error: err.Error()})
	default:
		var paymentErr *domain.PaymentError
		if errors.As(err, &paymentErr) {
			if paymentErr.Category == domain.CategoryUser {
				c.JSON(http.StatusBadRequest, paymentResponse.ErrorResponse{
					Error: paymentErr.Error(),
					Code: string(paymentErr.Code),
				})
				return
			}
			// configuration and transient failures surface uniformly
			c.JSON(http.StatusBadGateway, paymentResponse.ErrorResponse{
				Error: "payment temporarily unavailable",
				Code: string(domain.ErrorCodeUnavailable),
			})
			return
		}
		c.JSON(http.StatusInternalServerError, paymentResponse.ErrorResponse{Error: err.Error()})
	}
}
