// internal/app/store/financialreports/financialreportstore.go
package financialreportstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dalemusser/accredithub/internal/app/system/provision"
	"github.com/dalemusser/accredithub/internal/app/system/txn"
	"github.com/dalemusser/accredithub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	ErrNotFound        = errors.New("financial report not found")
	ErrReceiptNotFound = errors.New("receipt not found")
	ErrInvalidReceipt  = errors.New("invalid receipt")
)

// Store owns financial reports and their receipts. The report balance is
// changed only with $inc by a receipt's signed amount, so concurrent receipts
// never lose updates and the order they land in does not matter.
type Store struct {
	client   *mongo.Client
	reports  *mongo.Collection
	receipts *mongo.Collection
	log      *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		client:   db.Client(),
		reports:  db.Collection("financial_reports"),
		receipts: db.Collection("receipts"),
		log:      log,
	}
}

// GetOrCreate returns the report of an organization profile, creating an
// empty one on first access.
func (s *Store) GetOrCreate(ctx context.Context, profileID primitive.ObjectID) (models.FinancialReport, bool, error) {
	now := time.Now().UTC()
	var fr models.FinancialReport
	created, err := provision.FindOrCreate(ctx, s.reports,
		bson.M{"organization_profile_id": profileID},
		bson.M{
			"initial_balance": models.Money(0),
			"reimbursements":  bson.A{},
			"disbursements":   bson.A{},
			"is_active":       true,
			"created_at":      now,
			"updated_at":      now,
		},
		&fr)
	if err != nil {
		return models.FinancialReport{}, false, err
	}
	return fr, created, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FinancialReport, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Store) GetByProfile(ctx context.Context, profileID primitive.ObjectID) (models.FinancialReport, error) {
	return s.findOne(ctx, bson.M{"organization_profile_id": profileID})
}

func (s *Store) findOne(ctx context.Context, filter bson.M) (models.FinancialReport, error) {
	var fr models.FinancialReport
	if err := s.reports.FindOne(ctx, filter).Decode(&fr); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.FinancialReport{}, ErrNotFound
		}
		return models.FinancialReport{}, err
	}
	return fr, nil
}

// AddReceipt inserts r under reportID and applies it to the report: the id
// is pushed onto the array for its kind and the balance moves by the signed
// amount. Both writes share a transaction when the deployment supports one.
func (s *Store) AddReceipt(ctx context.Context, reportID primitive.ObjectID, r models.Receipt) (models.Receipt, models.FinancialReport, error) {
	if !r.Kind.Valid() {
		return models.Receipt{}, models.FinancialReport{}, fmt.Errorf("%w: unknown type %q", ErrInvalidReceipt, r.Kind)
	}
	if r.Amount <= 0 {
		return models.Receipt{}, models.FinancialReport{}, fmt.Errorf("%w: amount must be positive", ErrInvalidReceipt)
	}
	if r.DocumentID.IsZero() {
		return models.Receipt{}, models.FinancialReport{}, fmt.Errorf("%w: document is required", ErrInvalidReceipt)
	}

	now := time.Now().UTC()
	r.ID = primitive.NewObjectID()
	r.FinancialReportID = reportID
	r.Description = strings.TrimSpace(r.Description)
	r.ExpenseType = strings.TrimSpace(r.ExpenseType)
	if r.Date.IsZero() {
		r.Date = now
	}
	r.CreatedAt = now

	var fr models.FinancialReport
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		if _, err := s.receipts.InsertOne(ctx, r); err != nil {
			return fmt.Errorf("insert receipt: %w", err)
		}
		err := s.reports.FindOneAndUpdate(ctx,
			bson.M{"_id": reportID},
			bson.M{
				"$push": bson.M{r.Kind.Field(): r.ID},
				"$inc":  bson.M{"initial_balance": r.Kind.Signed(r.Amount)},
				"$set":  bson.M{"updated_at": now},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&fr)
		if err != nil {
			// without a transaction the receipt is already written
			_, _ = s.receipts.DeleteOne(ctx, bson.M{"_id": r.ID})
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("apply receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, models.FinancialReport{}, err
	}
	return r, fr, nil
}

// RemoveReceipt deletes a receipt and backs its amount out of the report.
func (s *Store) RemoveReceipt(ctx context.Context, receiptID primitive.ObjectID) (models.Receipt, models.FinancialReport, error) {
	var (
		r  models.Receipt
		fr models.FinancialReport
	)
	err := txn.Run(ctx, s.client, s.log, func(ctx context.Context) error {
		if err := s.receipts.FindOneAndDelete(ctx, bson.M{"_id": receiptID}).Decode(&r); err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrReceiptNotFound
			}
			return fmt.Errorf("delete receipt: %w", err)
		}
		err := s.reports.FindOneAndUpdate(ctx,
			bson.M{"_id": r.FinancialReportID},
			bson.M{
				"$pull": bson.M{r.Kind.Field(): r.ID},
				"$inc":  bson.M{"initial_balance": -r.Kind.Signed(r.Amount)},
				"$set":  bson.M{"updated_at": time.Now().UTC()},
			},
			options.FindOneAndUpdate().SetReturnDocument(options.After),
		).Decode(&fr)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				return ErrNotFound
			}
			return fmt.Errorf("reverse receipt: %w", err)
		}
		return nil
	})
	if err != nil {
		return models.Receipt{}, models.FinancialReport{}, err
	}
	return r, fr, nil
}

func (s *Store) GetReceipt(ctx context.Context, id primitive.ObjectID) (models.Receipt, error) {
	var r models.Receipt
	if err := s.receipts.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Receipt{}, ErrReceiptNotFound
		}
		return models.Receipt{}, err
	}
	return r, nil
}

// Receipts lists the receipts of a report in date order.
func (s *Store) Receipts(ctx context.Context, reportID primitive.ObjectID) ([]models.Receipt, error) {
	cur, err := s.receipts.Find(ctx, bson.M{"financial_report_id": reportID},
		options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Receipt{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Totals sums receipt amounts by kind.
type Totals struct {
	Reimbursements models.Money `json:"reimbursements"`
	Disbursements  models.Money `json:"disbursements"`
}

// Net is the signed effect of the totals on the balance.
func (t Totals) Net() models.Money {
	return t.Reimbursements - t.Disbursements
}

// Month is one row of the monthly breakdown. EndingBalance is the running
// balance after every receipt dated in or before the month.
type Month struct {
	Month         string       `json:"month"` // YYYY-MM, UTC
	Totals
	EndingBalance models.Money `json:"endingBalance"`
}

// Ledger is the derived view of a report.
type Ledger struct {
	OpeningBalance models.Money `json:"openingBalance"`
	EndingBalance  models.Money `json:"endingBalance"`
	Totals         Totals       `json:"totals"`
	Months         []Month      `json:"months"`
}

// Monthly groups the report's receipts by calendar month and derives the
// opening balance by backing every receipt out of the running total.
func (s *Store) Monthly(ctx context.Context, fr models.FinancialReport) (Ledger, error) {
	amountIf := func(kind models.ReceiptKind) bson.M {
		return bson.M{"$sum": bson.M{"$cond": bson.A{
			bson.M{"$eq": bson.A{"$kind", string(kind)}}, "$amount", 0,
		}}}
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"financial_report_id": fr.ID}}},
		{{Key: "$group", Value: bson.M{
			"_id":            bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$date"}},
			"reimbursements": amountIf(models.ReceiptReimbursement),
			"disbursements":  amountIf(models.ReceiptDisbursement),
		}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}
	cur, err := s.receipts.Aggregate(ctx, pipeline)
	if err != nil {
		return Ledger{}, err
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month          string       `bson:"_id"`
		Reimbursements models.Money `bson:"reimbursements"`
		Disbursements  models.Money `bson:"disbursements"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return Ledger{}, err
	}

	var total Totals
	for _, row := range rows {
		total.Reimbursements += row.Reimbursements
		total.Disbursements += row.Disbursements
	}

	l := Ledger{
		EndingBalance:  fr.InitialBalance,
		OpeningBalance: fr.InitialBalance - total.Net(),
		Totals:         total,
		Months:         make([]Month, 0, len(rows)),
	}
	running := l.OpeningBalance
	for _, row := range rows {
		t := Totals{Reimbursements: row.Reimbursements, Disbursements: row.Disbursements}
		running += t.Net()
		l.Months = append(l.Months, Month{Month: row.Month, Totals: t, EndingBalance: running})
	}
	return l, nil
}
