// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/store/audit"
	"github.com/dalemusser/accredithub/internal/app/system/inputval"
	"github.com/dalemusser/accredithub/internal/app/system/paging"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
)

const (
	historyLimit = 200
	dateLayout   = "2006-01-02"
)

// ServeList handles GET /api/audit.
//
// Query: category, eventType, organizationProfileId, startDate, endDate
// (YYYY-MM-DD, inclusive), page.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	category := strings.TrimSpace(q.Get("category"))
	eventType := strings.TrimSpace(q.Get("eventType"))

	if category != "" && eventTypesForCategory(category) == nil {
		respond.Error(w, h.Log, inputval.Field("category", "unknown category"))
		return
	}

	page := paging.Parse(r)
	filter := audit.QueryFilter{
		Category:  category,
		EventType: eventType,
		Limit:     page.Limit(),
		Offset:    page.Skip(),
	}

	profileID, err := inputval.OptionalObjectID("organizationProfileId", q.Get("organizationProfileId"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	filter.OrganizationProfileID = profileID

	if s := strings.TrimSpace(q.Get("startDate")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, h.Log, inputval.Field("startDate", "use YYYY-MM-DD"))
			return
		}
		filter.StartTime = &t
	}
	if s := strings.TrimSpace(q.Get("endDate")); s != "" {
		t, err := time.Parse(dateLayout, s)
		if err != nil {
			respond.Error(w, h.Log, inputval.Field("endDate", "use YYYY-MM-DD"))
			return
		}
		// end of day
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndTime = &end
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	store := audit.New(h.DB)
	events, err := store.Query(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	total, err := store.CountByFilter(ctx, filter)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	respond.OK(w, listResult{
		Items:      events,
		Page:       page.Number,
		TotalPages: page.TotalPages(total),
		Total:      total,
	})
}

// ServeTargetHistory handles GET /api/audit/targets/{id}: every event
// recorded against one document, roster, proposal, or other record.
func (h *Handler) ServeTargetHistory(w http.ResponseWriter, r *http.Request) {
	id, err := inputval.ObjectID("id", chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	events, err := audit.New(h.DB).GetByTarget(ctx, id, historyLimit)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, events)
}

// ServeEventTypes handles GET /api/audit/event-types.
func (h *Handler) ServeEventTypes(w http.ResponseWriter, r *http.Request) {
	respond.OK(w, allCategories())
}
