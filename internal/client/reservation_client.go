package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/LavaJover/shvark-payment-service/internal/domain"
)

// HTTPReservationClient talks to the reservation service over its JSON API.
// It implements domain.ReservationService.
type HTTPReservationClient struct {
	Address string
	client  *http.Client
}

func NewHTTPReservationClient(address string) (*HTTPReservationClient, error) {
	return &HTTPReservationClient{
		Address: address,
		client: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

type reservationResponse struct {
	ID                string    `json:"id"`
	PurchaseContextID string    `json:"purchase_context_id"`
	Status            string    `json:"status"`
	PriceCents        int64     `json:"price_cents"`
	Currency          string    `json:"currency"`
	PurchaserName     string    `json:"purchaser_name"`
	PurchaserEmail    string    `json:"purchaser_email"`
	InvoiceNumber     string    `json:"invoice_number"`
	ValidUntil        time.Time `json:"valid_until"`
}

type purchaseContextResponse struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	DisplayName    string    `json:"display_name"`
	Currency       string    `json:"currency"`
	TimeZone       string    `json:"time_zone"`
	EventBegin     time.Time `json:"event_begin"`
	EventEnd       time.Time `json:"event_end"`
}

type shortCodeResponse struct {
	ShortCode string `json:"short_code"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (c *HTTPReservationClient) getJSON(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	response, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode == http.StatusNotFound {
		return domain.ErrReservationNotFound
	}
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		var errResp errorResponse
		if err := json.Unmarshal(responseBodyBytes, &errResp); err != nil {
			return fmt.Errorf("reservation service returned status %d", response.StatusCode)
		}
		return errors.New(errResp.Error)
	}

	return json.Unmarshal(responseBodyBytes, out)
}

func (c *HTTPReservationClient) postJSON(ctx context.Context, url string, body interface{}) error {
	var reader io.Reader
	if body != nil {
		requestBodyBytes, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewBuffer(requestBodyBytes)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer response.Body.Close()
	responseBodyBytes, err := io.ReadAll(response.Body)
	if err != nil {
		return err
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return nil
	}
	var errResp errorResponse
	if err := json.Unmarshal(responseBodyBytes, &errResp); err != nil {
		return fmt.Errorf("reservation service returned status %d", response.StatusCode)
	}
	return errors.New(errResp.Error)
}

func (c *HTTPReservationClient) ReservationByID(ctx context.Context, id string) (*domain.Reservation, error) {
	var resp reservationResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/reservations/%s", c.Address, id), &resp); err != nil {
		return nil, err
	}
	return &domain.Reservation{
		ID: resp.ID,
		PurchaseContextID: resp.PurchaseContextID,
		Status: resp.Status,
		PriceCents: resp.PriceCents,
		Currency: resp.Currency,
		PurchaserName: resp.PurchaserName,
		PurchaserEmail: resp.PurchaserEmail,
		InvoiceNumber: resp.InvoiceNumber,
		ValidUntil: resp.ValidUntil,
	}, nil
}

func (c *HTTPReservationClient) PurchaseContextByID(ctx context.Context, id string) (*domain.PurchaseContext, error) {
	var resp purchaseContextResponse
	if err := c.getJSON(ctx, fmt.Sprintf("%s/purchase-contexts/%s", c.Address, id), &resp); err != nil {
		return nil, err
	}
	return &domain.PurchaseContext{
		ID: resp.ID,
		OrganizationID: resp.OrganizationID,
		DisplayName: resp.DisplayName,
		Currency: resp.Currency,
		TimeZone: resp.TimeZone,
		EventBegin: resp.EventBegin,
		EventEnd: resp.EventEnd,
	}, nil
}

func (c *HTTPReservationClient) ExtendValidity(ctx context.Context, reservationID string, deadline time.Time) error {
	return c.postJSON(ctx, fmt.Sprintf("%s/reservations/%s/extend", c.Address, reservationID), map[string]interface{}{
		"valid_until": deadline,
	})
}

func (c *HTTPReservationClient) ConfirmReservation(ctx context.Context, reservationID string) error {
	return c.postJSON(ctx, fmt.Sprintf("%s/reservations/%s/confirm", c.Address, reservationID), nil)
}

func (c *HTTPReservationClient) RevertToPending(ctx context.Context, reservationID string) error {
	return c.postJSON(ctx, fmt.Sprintf("%s/reservations/%s/revert", c.Address, reservationID), nil)
}

func (c *HTTPReservationClient) ShortCode(ctx context.Context, pc *domain.PurchaseContext, reservationID string) (string, error) {
	var resp shortCodeResponse
	url := fmt.Sprintf("%s/purchase-contexts/%s/reservations/%s/short-code", c.Address, pc.ID, reservationID)
	if err := c.getJSON(ctx, url, &resp); err != nil {
		return "", err
	}
	return resp.ShortCode, nil
}
