package withdrawals

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/vrcamacho/sitestock-backend/api/middleware"
	"github.com/vrcamacho/sitestock-backend/api/responses"
	"github.com/vrcamacho/sitestock-backend/api/validators"
	withdrawalsvc "github.com/vrcamacho/sitestock-backend/internal/withdrawals"
	"github.com/vrcamacho/sitestock-backend/pkg/enums"
	pkgerrors "github.com/vrcamacho/sitestock-backend/pkg/errors"
	"github.com/vrcamacho/sitestock-backend/pkg/logger"
	"github.com/vrcamacho/sitestock-backend/pkg/pagination"
)

type createRequest struct {
	ItemID         uuid.UUID  `json:"item_id" validate:"required"`
	ProjectID      uuid.UUID  `json:"project_id" validate:"required"`
	Quantity       int        `json:"quantity" validate:"required"`
	Purpose        string     `json:"purpose" validate:"required,max=500"`
	ReceiverName   string     `json:"receiver_name" validate:"required,max=100"`
	ExpectedReturn *time.Time `json:"expected_return,omitempty"`
	Notes          *string    `json:"notes,omitempty"`
}

type notesRequest struct {
	Notes *string `json:"notes,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// Create handles POST /api/v1/withdrawals. The requester comes from the
// authenticated context, never the body.
func Create(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result := svc.CreateWithdrawalRequest(r.Context(), withdrawalsvc.CreateWithdrawalInput{
			ItemID:         body.ItemID,
			ProjectID:      body.ProjectID,
			Quantity:       body.Quantity,
			Purpose:        validators.SanitizeString(body.Purpose, 500),
			ReceiverName:   validators.SanitizeString(body.ReceiverName, 100),
			WithdrawnBy:    actorID,
			ExpectedReturn: body.ExpectedReturn,
			Notes:          body.Notes,
		})
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result.Data)
	}
}

// Transition handles the POST {id}/verify|approve|release|return endpoints.
func Transition(svc withdrawalsvc.Service, logg *logger.Logger, operation string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body notesRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &body); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWithdrawalID(ctx, id.String())
		}
		var result withdrawalsvc.Result
		switch operation {
		case "verify":
			result = svc.VerifyWithdrawal(ctx, id, actorID, body.Notes)
		case "approve":
			result = svc.ApproveWithdrawal(ctx, id, actorID, body.Notes)
		case "release":
			result = svc.ReleaseWithdrawal(ctx, id, actorID, body.Notes)
		case "return":
			result = svc.ReturnWithdrawal(ctx, id, actorID, body.Notes)
		default:
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "unknown operation"))
			return
		}
		if !result.Success {
			responses.WriteError(ctx, logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Cancel handles POST {id}/cancel. A reason is mandatory.
func Cancel(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		actorID, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body cancelRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithWithdrawalID(ctx, id.String())
		}
		result := svc.CancelWithdrawal(ctx, id, actorID, validators.SanitizeString(body.Reason, 500))
		if !result.Success {
			responses.WriteError(ctx, logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Detail handles GET /api/v1/withdrawals/{id}.
func Detail(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuidParam(r, "withdrawalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.GetWithdrawal(r.Context(), id)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// List handles GET /api/v1/withdrawals with filters and paging.
func List(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, params, err := parseListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.ListWithdrawals(r.Context(), filters, params)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Overdue handles GET /api/v1/withdrawals/overdue.
func Overdue(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svc.ListOverdueWithdrawals(r.Context())
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Report handles GET /api/v1/withdrawals/report?from=&to=.
func Report(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		from, err := requiredDateQuery(r, "from")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		to, err := requiredDateQuery(r, "to")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.GetReport(r.Context(), from, to)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Stats handles GET /api/v1/withdrawals/stats.
func Stats(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := parseStatsQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.GetStatistics(r.Context(), filters)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// Dashboard handles GET /api/v1/withdrawals/stats/dashboard.
func Dashboard(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := svc.GetDashboard(r.Context())
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// ItemAvailability handles GET /api/v1/items/{id}/availability?quantity=.
func ItemAvailability(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		quantity, err := validators.ParseQueryInt(r, "quantity", 1, 1, 1_000_000)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.CheckItemAvailability(r.Context(), itemID, quantity)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// ItemHistory handles GET /api/v1/items/{id}/withdrawals.
func ItemHistory(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.ListItemWithdrawals(r.Context(), itemID)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

// ProjectConsumables handles GET /api/v1/projects/{id}/consumables.
func ProjectConsumables(svc withdrawalsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		projectID, err := uuidParam(r, "projectId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result := svc.ListAvailableConsumables(r.Context(), projectID)
		if !result.Success {
			responses.WriteError(r.Context(), logg, w, result.Err())
			return
		}
		responses.WriteSuccess(w, result.Data)
	}
}

func actorFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.ActorIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing actor identity")
	}
	actorID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid actor identity")
	}
	return actorID, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]string{name: "must be a uuid"})
	}
	return id, nil
}

func parseListQuery(r *http.Request) (withdrawalsvc.Filters, pagination.Params, error) {
	var filters withdrawalsvc.Filters
	q := r.URL.Query()

	if raw := q.Get("status"); raw != "" {
		status, err := enums.ParseWithdrawalStatus(raw)
		if err != nil {
			return filters, pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter").
				WithDetails(map[string]string{"status": raw})
		}
		filters.Status = &status
	}
	for _, field := range []struct {
		key  string
		dest **uuid.UUID
	}{
		{"project_id", &filters.ProjectID},
		{"item_id", &filters.ItemID},
		{"withdrawn_by", &filters.WithdrawnBy},
	} {
		if raw := q.Get(field.key); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				return filters, pagination.Params{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid filter").
					WithDetails(map[string]string{field.key: raw})
			}
			*field.dest = &id
		}
	}
	if raw := q.Get("from"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return filters, pagination.Params{}, err
		}
		filters.From = &at
	}
	if raw := q.Get("to"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return filters, pagination.Params{}, err
		}
		filters.To = &at
	}
	filters.Search = validators.SanitizeString(q.Get("search"), 100)

	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1_000_000)
	if err != nil {
		return filters, pagination.Params{}, err
	}
	perPage, err := validators.ParseQueryInt(r, "per_page", pagination.DefaultPerPage, 1, pagination.MaxPerPage)
	if err != nil {
		return filters, pagination.Params{}, err
	}
	return filters, pagination.Params{Page: page, PerPage: perPage}, nil
}

func parseStatsQuery(r *http.Request) (withdrawalsvc.StatsFilters, error) {
	var filters withdrawalsvc.StatsFilters
	q := r.URL.Query()

	if raw := q.Get("project_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.New(pkgerrors.CodeValidation, "invalid uuid filter").
				WithDetails(map[string]string{"project_id": raw})
		}
		filters.ProjectID = &id
	}
	if raw := q.Get("from"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.From = &at
	}
	if raw := q.Get("to"); raw != "" {
		at, err := parseDate(raw)
		if err != nil {
			return filters, err
		}
		filters.To = &at
	}
	return filters, nil
}

func requiredDateQuery(r *http.Request, key string) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "missing date parameter").
			WithDetails(map[string]string{key: "is required"})
	}
	return parseDate(raw)
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if at, err := time.Parse(layout, raw); err == nil {
			return at, nil
		}
	}
	return time.Time{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid date parameter").
		WithDetails(map[string]string{"value": raw, "format": "RFC3339 or YYYY-MM-DD"})
}
