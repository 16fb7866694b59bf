package financialreports_test

import (
	"net/http"
	"testing"

	"github.com/dalemusser/accredithub/internal/app/features/financialreports"
	accreditationstore "github.com/dalemusser/accredithub/internal/app/store/accreditations"
	financialreportstore "github.com/dalemusser/accredithub/internal/app/store/financialreports"
	"github.com/dalemusser/accredithub/internal/app/system/indexes"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"github.com/dalemusser/accredithub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*financialreports.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("EnsureAll failed: %v", err)
	}
	return financialreports.NewHandler(db, nil, zap.NewNop()), testutil.NewFixtures(t, db)
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

func count(t *testing.T, fx *testutil.Fixtures, coll string) int64 {
	t.Helper()
	ctx, cancel := testutil.TestContext()
	defer cancel()
	n, err := fx.DB().Collection(coll).CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count %s: %v", coll, err)
	}
	return n
}

func addReceipt(t *testing.T, h *financialreports.Handler, user testutil.TestUser, body map[string]any) reportView {
	t.Helper()
	rec := testutil.NewRecorder()
	h.HandleAddReceipt(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), user))
	rec.AssertStatus(t, http.StatusCreated)
	var v reportView
	rec.DecodeEnvelope(t, &v)
	return v
}

func TestHandleAddReceipt_MissingDocumentWritesNothing(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	_, other := fx.CreateOrgWithProfile(ctx, "Math Club", "MC")
	foreignDoc := fx.CreateDocument(ctx, other.ID, "Receipt", "x.pdf")

	base := func(doc string) map[string]any {
		b := map[string]any{
			"organizationProfileId": p.ID.Hex(),
			"type":                  "reimbursement",
			"description":           "Snacks",
			"amount":                150.25,
		}
		if doc != "" {
			b["documentId"] = doc
		}
		return b
	}

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing document", base("")},
		{"malformed document", base("nope")},
		{"unknown document", base(primitive.NewObjectID().Hex())},
		{"document of another profile", base(foreignDoc.ID.Hex())},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleAddReceipt(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/", tt.body), testutil.StudentLeader(p.ID)))
			rec.AssertStatus(t, http.StatusBadRequest)
		})
	}

	if n := count(t, fx, "receipts"); n != 0 {
		t.Errorf("receipts = %d, want 0", n)
	}
	if n := count(t, fx, "financial_reports"); n != 0 {
		t.Errorf("financial_reports = %d, want 0", n)
	}
}

func TestHandleAddReceipt_Invalid(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	doc := fx.CreateDocument(ctx, p.ID, "Receipt", "r.pdf")

	tests := []struct {
		name string
		edit func(map[string]any)
		user testutil.TestUser
		want int
	}{
		{"zero amount", func(b map[string]any) { b["amount"] = 0 }, testutil.StudentLeader(p.ID), http.StatusBadRequest},
		{"negative amount", func(b map[string]any) { b["amount"] = -5 }, testutil.StudentLeader(p.ID), http.StatusBadRequest},
		{"unknown type", func(b map[string]any) { b["type"] = "refund" }, testutil.StudentLeader(p.ID), http.StatusBadRequest},
		{"no description", func(b map[string]any) { delete(b, "description") }, testutil.StudentLeader(p.ID), http.StatusBadRequest},
		{"other tenant", func(map[string]any) {}, testutil.StudentLeader(primitive.NewObjectID()), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]any{
				"organizationProfileId": p.ID.Hex(),
				"documentId":            doc.ID.Hex(),
				"type":                  "disbursement",
				"description":           "Venue",
				"amount":                100,
			}
			tt.edit(body)
			rec := testutil.NewRecorder()
			h.HandleAddReceipt(rec, testutil.WithUser(testutil.NewJSONRequest("POST", "/", body), tt.user))
			rec.AssertStatus(t, tt.want)
		})
	}
	if n := count(t, fx, "receipts"); n != 0 {
		t.Errorf("receipts = %d, want 0", n)
	}
}

func TestReceipts_BalanceFollowsSignedAmounts(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	org, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	acc, _, err := accreditationstore.New(fx.DB()).GetOrCreateActive(ctx, p.ID, org.ID)
	if err != nil {
		t.Fatalf("GetOrCreateActive: %v", err)
	}
	doc := fx.CreateDocument(ctx, p.ID, "Receipts", "r.pdf")
	leader := testutil.StudentLeader(p.ID)

	receipt := func(kind string, amount float64, date string) map[string]any {
		return map[string]any{
			"organizationProfileId": p.ID.Hex(),
			"documentId":            doc.ID.Hex(),
			"type":                  kind,
			"description":           kind,
			"amount":                amount,
			"date":                  date,
		}
	}

	addReceipt(t, h, leader, receipt("reimbursement", 500, "2026-01-10T00:00:00Z"))
	addReceipt(t, h, leader, receipt("disbursement", 120.50, "2026-01-20T00:00:00Z"))
	v := addReceipt(t, h, leader, receipt("reimbursement", 80, "2026-02-03T00:00:00Z"))

	if want := models.Pesos(459.50); v.InitialBalance != want || v.EndingBalance != want {
		t.Errorf("balance = %v ending %v, want %v", v.InitialBalance, v.EndingBalance, want)
	}
	if v.OpeningBalance != 0 {
		t.Errorf("opening = %v, want 0", v.OpeningBalance)
	}
	if len(v.Reimbursements) != 2 || len(v.Disbursements) != 1 {
		t.Fatalf("reimbursements %d disbursements %d", len(v.Reimbursements), len(v.Disbursements))
	}
	if v.Disbursements[0].Document == nil || v.Disbursements[0].Document.ID != doc.ID {
		t.Errorf("receipt document not populated")
	}

	acc, err = accreditationstore.New(fx.DB()).GetByID(ctx, acc.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if acc.FinancialReportID == nil || *acc.FinancialReportID != v.ID {
		t.Errorf("accreditation link = %v, want %v", acc.FinancialReportID, v.ID)
	}

	// monthly breakdown
	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("GET", "/", leader), "profileID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeMonthly(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var ledger financialreportstore.Ledger
	rec.DecodeEnvelope(t, &ledger)
	if len(ledger.Months) != 2 {
		t.Fatalf("months = %+v", ledger.Months)
	}
	if ledger.Months[0].Month != "2026-01" || ledger.Months[0].EndingBalance != models.Pesos(379.50) {
		t.Errorf("january = %+v", ledger.Months[0])
	}
	if ledger.Months[1].EndingBalance != ledger.EndingBalance {
		t.Errorf("last month ending %v != ledger ending %v", ledger.Months[1].EndingBalance, ledger.EndingBalance)
	}

	// removing the disbursement backs it out
	disb := v.Disbursements[0].ID
	req = testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("DELETE", "/", leader), "receiptID", disb.Hex())
	rec = testutil.NewRecorder()
	h.HandleRemoveReceipt(rec, req)
	rec.AssertStatus(t, http.StatusOK)
	var after reportView
	rec.DecodeEnvelope(t, &after)
	if want := models.Pesos(580); after.EndingBalance != want {
		t.Errorf("ending after remove = %v, want %v", after.EndingBalance, want)
	}
	if len(after.Disbursements) != 0 {
		t.Errorf("disbursements = %d, want 0", len(after.Disbursements))
	}

	rec = testutil.NewRecorder()
	h.HandleRemoveReceipt(rec, testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("DELETE", "/", leader), "receiptID", disb.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
}

func TestHandleRemoveReceipt_Tenancy(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")
	_, other := fx.CreateOrgWithProfile(ctx, "Math Club", "MC")
	doc := fx.CreateDocument(ctx, p.ID, "Receipts", "r.pdf")

	v := addReceipt(t, h, testutil.StudentLeader(p.ID), map[string]any{
		"organizationProfileId": p.ID.Hex(),
		"documentId":            doc.ID.Hex(),
		"type":                  "reimbursement",
		"description":           "Dues",
		"amount":                50,
	})

	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("DELETE", "/", testutil.StudentLeader(other.ID)), "receiptID", v.Reimbursements[0].ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRemoveReceipt(rec, req)
	rec.AssertStatus(t, http.StatusForbidden)

	if n := count(t, fx, "receipts"); n != 1 {
		t.Errorf("receipts = %d, want 1", n)
	}
}

func TestServeReport_CreatesEmpty(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	_, p := fx.CreateOrgWithProfile(ctx, "Computer Society", "CS")

	req := testutil.WithChiURLParam(testutil.NewAuthenticatedRequest("GET", "/", testutil.AdviserUser()), "profileID", p.ID.Hex())
	rec := testutil.NewRecorder()
	h.ServeReport(rec, req)
	rec.AssertStatus(t, http.StatusOK)

	var v reportView
	rec.DecodeEnvelope(t, &v)
	if !v.IsActive || v.EndingBalance != 0 || len(v.Reimbursements) != 0 {
		t.Errorf("report = %+v", v)
	}
	if n := count(t, fx, "financial_reports"); n != 1 {
		t.Errorf("financial_reports = %d, want 1", n)
	}
}
