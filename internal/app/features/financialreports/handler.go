// internal/app/features/financialreports/handler.go
package financialreports

import (
	"context"
	"net/http"

	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	documentstore "github.com/dalemusser/accredithub/internal/app/store/documents"
	financialreportstore "github.com/dalemusser/accredithub/internal/app/store/financialreports"
	profilestore "github.com/dalemusser/accredithub/internal/app/store/profiles"
	"github.com/dalemusser/accredithub/internal/app/system/auditlog"
	"github.com/dalemusser/accredithub/internal/app/system/authz"
	"github.com/dalemusser/accredithub/internal/app/system/respond"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type Handler struct {
	DB       *mongo.Database
	Log      *zap.Logger
	AuditLog *auditlog.Logger
}

func NewHandler(db *mongo.Database, audit *auditlog.Logger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:       db,
		Log:      logger,
		AuditLog: audit,
	}
}

func (h *Handler) reports() *financialreportstore.Store {
	return financialreportstore.New(h.DB, h.Log)
}

// requireProfile checks tenancy and that the profile exists.
func (h *Handler) requireProfile(ctx context.Context, r *http.Request, profileID primitive.ObjectID) error {
	if err := authz.RequireProfile(r, profileID); err != nil {
		return err
	}
	ok, err := profilestore.New(h.DB).Exists(ctx, profileID)
	if err != nil {
		return err
	}
	if !ok {
		return respond.NotFound("organization profile not found")
	}
	return nil
}

// linkAccreditation records the report on the active accreditation when the
// link is still empty. Failures are logged; the next read retries.
func (h *Handler) linkAccreditation(ctx context.Context, profileID, reportID primitive.ObjectID) {
	if _, err := accreditationstore.New(h.DB).LinkIfUnset(ctx, profileID, accreditationstore.LinkFinancialReport, reportID); err != nil {
		h.Log.Warn("link financial report to accreditation failed",
			zap.String("profile_id", profileID.Hex()),
			zap.String("financial_report_id", reportID.Hex()),
			zap.Error(err))
	}
}

type receiptView struct {
	models.Receipt
	Document *models.Document `json:"document"`
}

type reportView struct {
	models.FinancialReport
	Reimbursements []receiptView `json:"reimbursements"`
	Disbursements  []receiptView `json:"disbursements"`
	OpeningBalance models.Money  `json:"openingBalance"`
	EndingBalance  models.Money  `json:"endingBalance"`
}

// view resolves the report's receipts and their backing documents.
func (h *Handler) view(ctx context.Context, fr models.FinancialReport) (reportView, error) {
	receipts, err := h.reports().Receipts(ctx, fr.ID)
	if err != nil {
		return reportView{}, err
	}
	ids := make([]primitive.ObjectID, 0, len(receipts))
	for _, rc := range receipts {
		ids = append(ids, rc.DocumentID)
	}
	docs, err := documentstore.New(h.DB).GetByIDs(ctx, ids)
	if err != nil {
		return reportView{}, err
	}
	byID := make(map[primitive.ObjectID]models.Document, len(docs))
	for _, d := range docs {
		byID[d.ID] = d
	}

	v := reportView{
		FinancialReport: fr,
		Reimbursements:  []receiptView{},
		Disbursements:   []receiptView{},
		EndingBalance:   fr.InitialBalance,
		OpeningBalance:  fr.InitialBalance,
	}
	for _, rc := range receipts {
		rv := receiptView{Receipt: rc}
		if d, ok := byID[rc.DocumentID]; ok {
			rv.Document = &d
		}
		v.OpeningBalance -= rc.Kind.Signed(rc.Amount)
		if rc.Kind == models.ReceiptDisbursement {
			v.Disbursements = append(v.Disbursements, rv)
		} else {
			v.Reimbursements = append(v.Reimbursements, rv)
		}
	}
	return v, nil
}
