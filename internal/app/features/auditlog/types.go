// internal/app/features/auditlog/types.go
package auditlog

import "github.com/dalemusser/accredithub/internal/app/store/audit"

// listResult is one page of the audit log.
type listResult struct {
	Items      []audit.Event `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	Total      int64         `json:"total"`
}

type categoryOption struct {
	Value      string   `json:"value"`
	Label      string   `json:"label"`
	EventTypes []string `json:"eventTypes"`
}

// allCategories returns the filter options with the event types of each.
func allCategories() []categoryOption {
	return []categoryOption{
		{Value: audit.CategoryAuth, Label: "Authentication", EventTypes: eventTypesForCategory(audit.CategoryAuth)},
		{Value: audit.CategoryReview, Label: "Review", EventTypes: eventTypesForCategory(audit.CategoryReview)},
		{Value: audit.CategoryAdmin, Label: "Administration", EventTypes: eventTypesForCategory(audit.CategoryAdmin)},
	}
}

// eventTypesForCategory returns the event types of a category, every type
// when category is empty, and nil for an unknown category.
func eventTypesForCategory(category string) []string {
	authEvents := []string{
		audit.EventLoginSuccess,
		audit.EventLoginFailedUserNotFound,
		audit.EventLoginFailedWrongPassword,
		audit.EventLoginFailedRateLimit,
		audit.EventLogout,
		audit.EventVerificationCodeSent,
		audit.EventVerificationCodeFailed,
		audit.EventUserRegistered,
	}

	reviewEvents := []string{
		audit.EventReviewDecision,
		audit.EventDocumentUpdated,
		audit.EventFileDeleteFail,
		audit.EventRosterCompleted,
		audit.EventConductCreated,
		audit.EventReceiptAdded,
		audit.EventReceiptRemoved,
	}

	adminEvents := []string{
		audit.EventProfileRegistered,
		audit.EventProfileReused,
		audit.EventProfileReuseAllowed,
		audit.EventAccreditationDeactivated,
		audit.EventPresidentReplaced,
		audit.EventStaffAccountCreated,
	}

	switch category {
	case audit.CategoryAuth:
		return authEvents
	case audit.CategoryReview:
		return reviewEvents
	case audit.CategoryAdmin:
		return adminEvents
	case "":
		all := make([]string, 0, len(authEvents)+len(reviewEvents)+len(adminEvents))
		all = append(all, authEvents...)
		all = append(all, reviewEvents...)
		all = append(all, adminEvents...)
		return all
	default:
		return nil
	}
}
