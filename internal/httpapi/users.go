package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"LajmeCurator/internal/domain"
	"LajmeCurator/internal/usecase"
)

type quotaDTO struct {
	UserID    string `json:"user_id"`
	Used      int64  `json:"used"`
	Limit     int64  `json:"limit"`
	Remaining int64  `json:"remaining"`
	Unlimited bool   `json:"unlimited"`
}

type subscriptionDTO struct {
	UserID    string    `json:"user_id"`
	Plan      string    `json:"plan"`
	ExpiresAt time.Time `json:"expires_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Active    bool      `json:"active"`
}

type subscriptionRequest struct {
	Plan      string    `json:"plan" validate:"required,oneof=monthly yearly"`
	ExpiresAt time.Time `json:"expires_at" validate:"required"`
}

func toQuotaDTO(st domain.QuotaStatus) quotaDTO {
	return quotaDTO{
		UserID:    st.UserID,
		Used:      st.Used,
		Limit:     st.Limit,
		Remaining: st.Remaining,
		Unlimited: st.Unlimited,
	}
}

func toSubscriptionDTO(sub domain.Subscription, now time.Time) subscriptionDTO {
	return subscriptionDTO{
		UserID:    sub.UserID,
		Plan:      sub.Plan,
		ExpiresAt: sub.ExpiresAt.UTC(),
		UpdatedAt: sub.UpdatedAt.UTC(),
		Active:    sub.Active(now),
	}
}

func quotaStatus(svc *usecase.QuotaService, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if svc == nil {
			return unavailable("quota")
		}
		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		st, err := svc.Status(ctx, c.Param("id"))
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toQuotaDTO(st))
	}
}

func recordView(svc *usecase.QuotaService, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if svc == nil {
			return unavailable("quota")
		}
		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		st, err := svc.RecordView(ctx, c.Param("id"))
		if errors.Is(err, usecase.ErrQuotaExceeded) {
			return c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: err.Error(), Details: toQuotaDTO(st)})
		}
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toQuotaDTO(st))
	}
}

func getSubscription(svc *usecase.QuotaService, now func() time.Time, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if svc == nil {
			return unavailable("quota")
		}
		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		sub, found, err := svc.Subscription(ctx, c.Param("id"))
		if err != nil {
			return err
		}
		if !found {
			return echo.NewHTTPError(http.StatusNotFound, "subscription not found")
		}
		return c.JSON(http.StatusOK, toSubscriptionDTO(sub, now()))
	}
}

func putSubscription(svc *usecase.QuotaService, now func() time.Time, opts Options) echo.HandlerFunc {
	return func(c echo.Context) error {
		if svc == nil {
			return unavailable("quota")
		}

		var req subscriptionRequest
		if err := c.Bind(&req); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
		}
		if err := c.Validate(&req); err != nil {
			return err
		}

		ctx, cancel := requestContext(c, opts.RequestTimeout)
		defer cancel()

		saved, err := svc.Subscribe(ctx, domain.Subscription{
			UserID:    c.Param("id"),
			Plan:      req.Plan,
			ExpiresAt: req.ExpiresAt.UTC(),
		})
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, toSubscriptionDTO(saved, now()))
	}
}
