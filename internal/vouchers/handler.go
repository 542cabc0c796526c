package vouchers

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-books/internal/accounting"
	"github.com/odyssey-erp/odyssey-books/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-books/internal/shared"
)

// Tenant and actor are resolved by the fronting gateway.
const (
	HeaderTenantID = "X-Tenant-ID"
	HeaderActorID  = "X-Actor-ID"
)

// Handler exposes the voucher lifecycle over JSON.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New()}
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req VoucherRequest
	payload, err := h.decode(r, &req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if payload.VoucherType == "" {
		httpx.RespondError(w, fmt.Errorf("%w: voucherType is required", httpx.ErrBadRequest))
		return
	}
	v, err := h.service.Create(r.Context(), tenantID, actorID, payload, CreateOptions{Status: req.Status})
	if err != nil {
		h.fail(w, "create voucher", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := voucherID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Get(r.Context(), tenantID, id)
	if err != nil {
		h.fail(w, "get voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := voucherID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req VoucherRequest
	payload, err := h.decode(r, &req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.Update(r.Context(), tenantID, id, actorID, payload)
	if err != nil {
		h.fail(w, "update voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := voucherID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	v, err := h.service.PostDraft(r.Context(), tenantID, id, actorID)
	if err != nil {
		h.fail(w, "post voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Void(w http.ResponseWriter, r *http.Request) {
	tenantID, actorID, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := voucherID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	var req VoidRequest
	if err := httpx.DecodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.RespondError(w, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err))
		return
	}
	v, err := h.service.Void(r.Context(), tenantID, id, actorID, req.Reason)
	if err != nil {
		h.fail(w, "void voucher", err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

func (h *Handler) Logs(w http.ResponseWriter, r *http.Request) {
	tenantID, _, err := identity(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	id, err := voucherID(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	page := shared.PageRequest{}
	if v, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		page.Page = v
	}
	if v, err := strconv.Atoi(r.URL.Query().Get("perPage")); err == nil {
		page.PerPage = v
	}
	logs, err := h.service.ListLogs(r.Context(), tenantID, id, page)
	if err != nil {
		h.fail(w, "list voucher logs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"data": logs})
}

func (h *Handler) decode(r *http.Request, req *VoucherRequest) (accounting.Payload, error) {
	if err := httpx.DecodeJSON(r, req); err != nil {
		return accounting.Payload{}, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return accounting.Payload{}, fmt.Errorf("%w: %s failed %s", httpx.ErrBadRequest, fe.Field(), fe.Tag())
		}
		return accounting.Payload{}, fmt.Errorf("%w: %v", httpx.ErrBadRequest, err)
	}
	return req.Payload()
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	var domainErr *shared.Error
	if !errors.As(err, &domainErr) || domainErr.Kind == shared.ErrSystemIntegrity {
		h.logger.Error(action, slog.Any("error", err))
	}
	httpx.RespondError(w, err)
}

func identity(r *http.Request) (int64, int64, error) {
	tenantID, err := strconv.ParseInt(r.Header.Get(HeaderTenantID), 10, 64)
	if err != nil || tenantID <= 0 {
		return 0, 0, fmt.Errorf("%w: missing %s", httpx.ErrUnauthorized, HeaderTenantID)
	}
	var actorID int64
	if raw := r.Header.Get(HeaderActorID); raw != "" {
		actorID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("%w: invalid %s", httpx.ErrBadRequest, HeaderActorID)
		}
	}
	return tenantID, actorID, nil
}

func voucherID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: invalid voucher id", httpx.ErrBadRequest)
	}
	return id, nil
}
