// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package handlers exposes the nominee escrow over a JSON API.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"codeberg.org/walletsurance/nominee/internal/i18n"
	"codeberg.org/walletsurance/nominee/internal/repository"
	"codeberg.org/walletsurance/nominee/internal/services/claim"
	"codeberg.org/walletsurance/nominee/internal/services/escrow"
	"codeberg.org/walletsurance/nominee/internal/services/monitor"
	"codeberg.org/walletsurance/nominee/internal/services/nominee"
	"codeberg.org/walletsurance/nominee/internal/services/offramp"
	"github.com/labstack/echo/v4"
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	repo        *repository.Repository
	nominees    *nominee.Service
	monitor     *monitor.Service
	claims      *claim.Service
	offramp     *offramp.Service
	errorDetail bool
}

// Deps lists the services the handlers call.
type Deps struct {
	Repo        *repository.Repository
	Nominees    *nominee.Service
	Monitor     *monitor.Service
	Claims      *claim.Service
	Offramp     *offramp.Service
	ErrorDetail bool
}

// New creates a new Handlers instance.
func New(d Deps) *Handlers {
	return &Handlers{
		repo:        d.Repo,
		nominees:    d.Nominees,
		monitor:     d.Monitor,
		claims:      d.Claims,
		offramp:     d.Offramp,
		errorDetail: d.ErrorDetail,
	}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready reports whether the store answers.
func (h *Handlers) Ready(c echo.Context) error {
	if err := h.repo.Ping(c.Request().Context()); err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ready",
	})
}

type registerRequest struct {
	DepositorAccountID string  `json:"depositor_account_id"`
	BeneficiaryPhone   string  `json:"beneficiary_phone"`
	BeneficiaryAddress string  `json:"beneficiary_stellar_address"`
	Question           string  `json:"question"`
	Answer             string  `json:"answer"`
	InactivityDays     FlexInt `json:"inactivity_days"`
}

type registerResponse struct {
	SweepPublicKey string `json:"sweep_public_key"`
	Message        string `json:"message"`
	Instruction    string `json:"instruction"`
}

// Register escrows a fresh sweep key for the depositor's nominee.
func (h *Handlers) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, bindError("request body", err))
	}

	ctx := c.Request().Context()
	res, err := h.nominees.Register(ctx, nominee.RegisterParams{
		DepositorAccountID: req.DepositorAccountID,
		BeneficiaryPhone:   req.BeneficiaryPhone,
		BeneficiaryAddress: req.BeneficiaryAddress,
		Question:           req.Question,
		Answer:             req.Answer,
		InactivityDays:     req.InactivityDays.Ptr(),
	})
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, registerResponse{
		SweepPublicKey: res.SweepPublicKey,
		Message:        i18n.T(ctx, "register_success"),
		Instruction: i18n.TData(ctx, "register_instruction", map[string]any{
			"SweepPublicKey": res.SweepPublicKey,
		}),
	})
}

// GetNominee returns the public part of a depositor's registration. The
// security question is not part of it.
func (h *Handlers) GetNominee(c echo.Context) error {
	n, err := h.nominees.GetByDepositor(c.Request().Context(), c.Param("depositor"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, n)
}

type addSignerRequest struct {
	AccountPublicKey string `json:"account_public_key"`
	SignerPublicKey  string `json:"signer_public_key"`
}

type addSignerResponse struct {
	TransactionXDR string `json:"transaction_xdr"`
}

// BuildAddSigner returns the unsigned transaction that makes a sweep key a
// co-signer of the depositor's account.
func (h *Handlers) BuildAddSigner(c echo.Context) error {
	var req addSignerRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, bindError("request body", err))
	}

	envelope, err := h.nominees.BuildAddSigner(c.Request().Context(), nominee.AddSignerParams{
		AccountPublicKey: req.AccountPublicKey,
		SignerPublicKey:  req.SignerPublicKey,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, addSignerResponse{TransactionXDR: envelope})
}

type checkResponse struct {
	Message string `json:"message"`
	SMSSent int    `json:"sms_sent"`
	*monitor.Result
}

// CheckNominees runs one inactivity pass.
func (h *Handlers) CheckNominees(c echo.Context) error {
	// A client hanging up must not abort a pass halfway.
	ctx := context.WithoutCancel(c.Request().Context())

	res, err := h.monitor.CheckInactivity(ctx)
	if err != nil {
		return h.respondError(c, err)
	}

	return c.JSON(http.StatusOK, checkResponse{
		Message: i18n.T(ctx, "check_complete"),
		SMSSent: res.Notified,
		Result:  res,
	})
}

// ClaimData returns the escrow payload behind a claim link.
func (h *Handlers) ClaimData(c echo.Context) error {
	payload, err := h.claims.Payload(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, payload)
}

// KDF returns the key derivation parameters claimants must use.
func (h *Handlers) KDF(c echo.Context) error {
	return c.JSON(http.StatusOK, escrow.Params())
}

type submitRequest struct {
	SignedEnvelopeXDR string `json:"signed_envelope_xdr"`
	ClaimToken        string `json:"claim_token"`
}

// ClaimSubmit relays the claimant's signed sweep transaction.
func (h *Handlers) ClaimSubmit(c echo.Context) error {
	var req submitRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, bindError("request body", err))
	}

	res, err := h.claims.Submit(c.Request().Context(), claim.SubmitParams{
		SignedEnvelopeXDR: req.SignedEnvelopeXDR,
		ClaimToken:        req.ClaimToken,
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

type offrampRequest struct {
	ClaimToken    string     `json:"claim_token"`
	AccountHolder string     `json:"bank_account_holder"`
	AccountNumber string     `json:"bank_account_number"`
	IFSC          string     `json:"bank_ifsc"`
	BankName      string     `json:"bank_name"`
	AmountXLM     FlexString `json:"amount_xlm"`
}

// ClaimOfframp requests a mocked bank payout for a claimant.
func (h *Handlers) ClaimOfframp(c echo.Context) error {
	var req offrampRequest
	if err := c.Bind(&req); err != nil {
		return h.respondError(c, bindError("request body", err))
	}

	payout, err := h.offramp.RequestPayout(c.Request().Context(), offramp.PayoutParams{
		ClaimToken:    req.ClaimToken,
		AccountHolder: req.AccountHolder,
		AccountNumber: req.AccountNumber,
		IFSC:          req.IFSC,
		BankName:      req.BankName,
		AmountXLM:     string(req.AmountXLM),
	})
	if err != nil {
		return h.respondError(c, err)
	}
	return c.JSON(http.StatusOK, payout)
}

func bindError(field string, err error) error {
	return &nominee.ValidationError{Field: field, Message: bindMessage(err)}
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil {
			return he.Internal.Error()
		}
		if msg, ok := he.Message.(string); ok {
			return msg
		}
	}
	return err.Error()
}
