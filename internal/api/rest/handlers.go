package rest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinicdesk-backend/internal/domain/billing"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/errors"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/payment"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/report"
	"github.com/clinicdesk/clinicdesk-backend/internal/domain/values"
	"github.com/clinicdesk/clinicdesk-backend/internal/service/ledger"
)

// Handler exposes the ledger over HTTP. It loads the entities a flow
// acts on, renders the intent into a payment and hands both to the
// ledger; it never mutates balances or reports itself.
type Handler struct {
	ledger    ledger.Service
	factory   *payment.Factory
	patients  ledger.PatientRepository
	employees ledger.EmployeeRepository
	checks    ledger.CheckRepository
	payments  ledger.PaymentRepository
	logger    *slog.Logger
	validator *validator.Validate
}

// NewHandler creates a new ledger API handler
func NewHandler(
	svc ledger.Service,
	factory *payment.Factory,
	patients ledger.PatientRepository,
	employees ledger.EmployeeRepository,
	checks ledger.CheckRepository,
	payments ledger.PaymentRepository,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		ledger:    svc,
		factory:   factory,
		patients:  patients,
		employees: employees,
		checks:    checks,
		payments:  payments,
		logger:    logger,
		validator: validator.New(),
	}
}

// RegisterRoutes registers all ledger routes on the mux
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/payments/check", h.handlePayCheck)
	mux.HandleFunc("POST /api/v1/payments/payout", h.handlePayout)
	mux.HandleFunc("POST /api/v1/payments/refund", h.handleRefund)
	mux.HandleFunc("POST /api/v1/payments/adjustment", h.handleAdjustment)
	mux.HandleFunc("POST /api/v1/payments/spending", h.handleSpending)
	mux.HandleFunc("POST /api/v1/collections", h.handleCollectCash)
	mux.HandleFunc("DELETE /api/v1/payments/{id}", h.handleCancelPayment)
	mux.HandleFunc("PATCH /api/v1/payments/{id}/methods/{index}", h.handleChangeMethod)
	mux.HandleFunc("GET /api/v1/reports/today", h.handleTodayReport)
}

type methodRequest struct {
	Kind   string `json:"kind" validate:"required,oneof=cash bank_terminal card"`
	Amount string `json:"amount" validate:"required"`
}

type payCheckRequest struct {
	CheckID string          `json:"check_id" validate:"required,uuid"`
	Methods []methodRequest `json:"methods" validate:"required,min=1,dive"`
}

func (h *Handler) handlePayCheck(w http.ResponseWriter, r *http.Request) {
	var req payCheckRequest
	if !h.decode(w, r, &req) {
		return
	}

	check, err := h.checks.GetByID(r.Context(), uuid.MustParse(req.CheckID))
	if err != nil {
		writeError(w, err)
		return
	}
	if check.IsPaid() {
		writeError(w, errors.ErrCheckAlreadyPaid)
		return
	}
	patient, err := h.patients.GetByID(r.Context(), check.PatientID)
	if err != nil {
		writeError(w, err)
		return
	}
	methods, err := parseMethods(req.Methods)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	intent := payment.PayCheck{Check: check, Patient: patient, Methods: methods}
	p := h.factory.Build(intent, actingUser(r))
	if err := h.ledger.Process(r.Context(), p, intent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type payoutRequest struct {
	EmployeeID string          `json:"employee_id" validate:"required,uuid"`
	Methods    []methodRequest `json:"methods" validate:"required,min=1,dive"`
}

func (h *Handler) handlePayout(w http.ResponseWriter, r *http.Request) {
	var req payoutRequest
	if !h.decode(w, r, &req) {
		return
	}

	employee, err := h.employees.GetByID(r.Context(), uuid.MustParse(req.EmployeeID))
	if err != nil {
		writeError(w, err)
		return
	}
	methods, err := parseMethods(req.Methods)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	intent := payment.PayoutEmployee{Employee: employee, Methods: methods}
	p := h.factory.Build(intent, actingUser(r))
	if err := h.ledger.Process(r.Context(), p, intent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type refundRequest struct {
	CheckID        string   `json:"check_id" validate:"required,uuid"`
	ServiceIDs     []string `json:"service_ids" validate:"omitempty,dive,uuid"`
	Method         string   `json:"method" validate:"required,oneof=cash bank_terminal card"`
	IncludeBalance bool     `json:"include_balance"`
}

// handleRefund reverses services of a paid check: charges are
// reversed and the refund linked first, then the payout of the owed
// amount is recorded. An empty service list refunds the whole check.
func (h *Handler) handleRefund(w http.ResponseWriter, r *http.Request) {
	var req refundRequest
	if !h.decode(w, r, &req) {
		return
	}

	check, err := h.checks.GetByID(r.Context(), uuid.MustParse(req.CheckID))
	if err != nil {
		writeError(w, err)
		return
	}
	patient, err := h.patients.GetByID(r.Context(), check.PatientID)
	if err != nil {
		writeError(w, err)
		return
	}

	services, err := selectServices(check, req.ServiceIDs)
	if err != nil {
		writeError(w, err)
		return
	}
	refund := billing.NewRefund(time.Now(), services)

	if err := h.ledger.AttachRefund(r.Context(), check, refund); err != nil {
		writeError(w, err)
		return
	}

	intent := payment.RefundCheck{
		Check:          check,
		Patient:        patient,
		Refund:         refund,
		Method:         payment.MethodKind(req.Method),
		IncludeBalance: req.IncludeBalance,
	}
	p := h.factory.Build(intent, actingUser(r))
	if err := h.ledger.Process(r.Context(), p, intent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type adjustmentRequest struct {
	PersonType string `json:"person_type" validate:"required,oneof=patient employee"`
	PersonID   string `json:"person_id" validate:"required,uuid"`
	Kind       string `json:"kind" validate:"required,oneof=replenish payout"`
	Amount     string `json:"amount" validate:"required"`
	Method     string `json:"method" validate:"required,oneof=cash bank_terminal card"`
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var req adjustmentRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := values.NewMoneyFromString(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	intent := payment.AdjustBalance{
		Kind:   payment.AdjustKind(req.Kind),
		Amount: amount,
		Method: payment.MethodKind(req.Method),
	}
	personID := uuid.MustParse(req.PersonID)
	if req.PersonType == "patient" {
		patient, err := h.patients.GetByID(r.Context(), personID)
		if err != nil {
			writeError(w, err)
			return
		}
		intent.Person = patient
	} else {
		employee, err := h.employees.GetByID(r.Context(), personID)
		if err != nil {
			writeError(w, err)
			return
		}
		intent.Person = employee
	}

	p := h.factory.Build(intent, actingUser(r))
	if err := h.ledger.Process(r.Context(), p, intent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type spendingRequest struct {
	Category string `json:"category" validate:"required,oneof=equipment consumables building"`
	Amount   string `json:"amount" validate:"required"`
	Method   string `json:"method" validate:"required,oneof=cash bank_terminal card"`
	Note     string `json:"note" validate:"max=500"`
}

func (h *Handler) handleSpending(w http.ResponseWriter, r *http.Request) {
	var req spendingRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := values.NewMoneyFromString(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	intent := payment.RecordSpending{
		Category: payment.PurposeKind(req.Category),
		Amount:   amount,
		Method:   payment.MethodKind(req.Method),
		Note:     req.Note,
	}
	p := h.factory.Build(intent, actingUser(r))
	if err := h.ledger.Process(r.Context(), p, intent); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

type collectionRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func (h *Handler) handleCollectCash(w http.ResponseWriter, r *http.Request) {
	var req collectionRequest
	if !h.decode(w, r, &req) {
		return
	}

	amount, err := values.NewMoneyFromString(req.Amount)
	if err != nil {
		writeValidationError(w, err)
		return
	}

	if err := h.ledger.CollectCash(r.Context(), amount, actingUser(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeValidationError(w, fmt.Errorf("invalid payment id: %w", err))
		return
	}

	if err := h.ledger.CancelPayment(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusNoContent, nil)
}

type changeMethodRequest struct {
	Kind string `json:"kind" validate:"required,oneof=cash bank_terminal card"`
}

// handleChangeMethod corrects the channel of one recorded method, the
// only mutation a recorded payment allows.
func (h *Handler) handleChangeMethod(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		writeValidationError(w, fmt.Errorf("invalid payment id: %w", err))
		return
	}
	var index int
	if _, err := fmt.Sscanf(r.PathValue("index"), "%d", &index); err != nil {
		writeValidationError(w, fmt.Errorf("invalid method index: %w", err))
		return
	}
	var req changeMethodRequest
	if !h.decode(w, r, &req) {
		return
	}

	p, err := h.payments.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := p.ChangeMethodKind(index, payment.MethodKind(req.Kind)); err != nil {
		writeValidationError(w, err)
		return
	}
	if err := h.payments.Save(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (h *Handler) handleTodayReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.ledger.TodayReport(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportResponse(rep))
}

// decode reads, parses and validates a JSON request body
func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeValidationError(w, fmt.Errorf("invalid request body: %w", err))
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		writeValidationError(w, err)
		return false
	}
	return true
}

// actingUser resolves the acting user from the X-User-ID header; an
// absent or malformed header degrades to the nil UUID until real
// authentication fronts this API.
func actingUser(r *http.Request) uuid.UUID {
	id, err := uuid.Parse(r.Header.Get("X-User-ID"))
	if err != nil {
		return uuid.Nil
	}
	return id
}

func parseMethods(reqs []methodRequest) ([]payment.Method, error) {
	methods := make([]payment.Method, len(reqs))
	for i, m := range reqs {
		amount, err := values.NewMoneyFromString(m.Amount)
		if err != nil {
			return nil, fmt.Errorf("method %d: %w", i, err)
		}
		methods[i] = payment.Method{Kind: payment.MethodKind(m.Kind), Amount: amount}
	}
	return methods, nil
}

// selectServices picks the check services named by IDs, or all of them
// when none are named.
func selectServices(check *billing.Check, ids []string) ([]*billing.BillableService, error) {
	if len(ids) == 0 {
		return check.Services(), nil
	}

	byID := make(map[uuid.UUID]*billing.BillableService, len(check.Services()))
	for _, svc := range check.Services() {
		byID[svc.ID] = svc
	}

	services := make([]*billing.BillableService, 0, len(ids))
	for _, raw := range ids {
		id := uuid.MustParse(raw)
		svc, ok := byID[id]
		if !ok {
			return nil, errors.NewNotFoundError("check service")
		}
		services = append(services, svc)
	}
	return services, nil
}

type paymentResponse struct {
	ID        uuid.UUID        `json:"id"`
	Date      time.Time        `json:"date"`
	Purpose   string           `json:"purpose"`
	Detail    string           `json:"detail,omitempty"`
	Methods   []payment.Method `json:"methods"`
	Total     string           `json:"total"`
	SubjectID *uuid.UUID       `json:"subject_id,omitempty"`
	CreatedBy uuid.UUID        `json:"created_by"`
}

func toPaymentResponse(p *payment.Payment) paymentResponse {
	return paymentResponse{
		ID:        p.ID,
		Date:      p.Date,
		Purpose:   string(p.Purpose.Kind),
		Detail:    p.Purpose.Detail,
		Methods:   p.Methods,
		Total:     p.TotalAmount().String(),
		SubjectID: p.SubjectID,
		CreatedBy: p.CreatedBy,
	}
}

type reportResponse struct {
	ID           uuid.UUID         `json:"id"`
	Date         time.Time         `json:"date"`
	StartingCash string            `json:"starting_cash"`
	Profit       string            `json:"profit"`
	Income       string            `json:"income"`
	Expense      string            `json:"expense"`
	BillsIncome  string            `json:"bills_income"`
	OthersIncome string            `json:"others_income"`
	Collected    string            `json:"collected"`
	CashBalance  string            `json:"cash_balance"`
	Payments     []paymentResponse `json:"payments"`
}

func toReportResponse(r *report.Report) reportResponse {
	payments := make([]paymentResponse, 0, len(r.Payments()))
	for _, p := range r.Payments() {
		payments = append(payments, toPaymentResponse(p))
	}
	return reportResponse{
		ID:           r.ID,
		Date:         r.Date,
		StartingCash: r.StartingCash.String(),
		Profit:       r.Reporting(report.KindProfit, nil).String(),
		Income:       r.Reporting(report.KindIncome, nil).String(),
		Expense:      r.Reporting(report.KindExpense, nil).String(),
		BillsIncome:  r.BillsIncome(nil).String(),
		OthersIncome: r.OthersIncome(nil).String(),
		Collected:    r.Collected().String(),
		CashBalance:  r.CashBalance().String(),
		Payments:     payments,
	}
}
