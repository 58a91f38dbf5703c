// Package mongostore persists expenses in a MongoDB collection.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	expenseDatamodel "github.com/frahmantamala/expense-tracker/internal/core/datamodel/expense"
	"github.com/frahmantamala/expense-tracker/internal/expense"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ExpensesCollection = "expenses"

// DataStore is the subset of *mongo.Collection the repository needs.
type DataStore interface {
	InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) *mongo.SingleResult
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) (*mongo.Cursor, error)
}

// caseInsensitive compares strings at strength 2: case is ignored, accents are not.
var caseInsensitive = &options.Collation{Locale: "en", Strength: 2}

type ExpenseRepository struct {
	store DataStore
}

func NewExpenseRepository(store DataStore) *ExpenseRepository {
	return &ExpenseRepository{store: store}
}

// ConnectToMongoDB establishes a connection to MongoDB.
func ConnectToMongoDB(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	logger.DebugContext(ctx, "Attempting to connect to MongoDB")

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	logger.InfoContext(ctx, "Successfully established connection to MongoDB")
	return client, nil
}

// EnsureIndexes creates the indexes the repository relies on. The unique
// index only covers documents that carry a key, so any number of expenses
// may omit one.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	models := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "idempotency_key", Value: 1}},
			Options: options.Index().
				SetName("uniq_idempotency_key").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$type": "string"}}),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index().SetName("idx_category_ci").SetCollation(caseInsensitive),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_created_at"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_date_created_at"),
		},
	}

	if _, err := coll.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("failed to create expense indexes: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) Create(ctx context.Context, exp *expenseDatamodel.Expense) error {
	_, err := r.store.InsertOne(ctx, exp)
	if err != nil {
		if exp.IdempotencyKey != nil && mongo.IsDuplicateKeyError(err) {
			return expense.ErrIdempotencyConflict
		}
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return nil
}

func (r *ExpenseRepository) GetByIdempotencyKey(ctx context.Context, key string) (*expenseDatamodel.Expense, error) {
	var exp expenseDatamodel.Expense
	err := r.store.FindOne(ctx, bson.M{"idempotency_key": key}).Decode(&exp)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, expense.ErrExpenseNotFound
		}
		return nil, fmt.Errorf("failed to find expense by idempotency key: %w", err)
	}
	exp.CreatedAt = exp.CreatedAt.UTC()
	return &exp, nil
}

func (r *ExpenseRepository) List(ctx context.Context, query expense.ListExpensesQuery) ([]*expenseDatamodel.Expense, error) {
	cursor, err := r.store.Find(ctx, listFilter(query), listOptions(query))
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	expenses := make([]*expenseDatamodel.Expense, 0)
	if err := cursor.All(ctx, &expenses); err != nil {
		return nil, fmt.Errorf("failed to decode expenses: %w", err)
	}
	for _, e := range expenses {
		e.CreatedAt = e.CreatedAt.UTC()
	}
	return expenses, nil
}

func listFilter(query expense.ListExpensesQuery) bson.M {
	if query.Category == "" {
		return bson.M{}
	}
	return bson.M{"category": query.Category}
}

func listOptions(query expense.ListExpensesQuery) *options.FindOptions {
	opts := options.Find().SetCollation(caseInsensitive)
	switch query.Sort {
	case expense.SortDateDesc:
		opts.SetSort(bson.D{{Key: "date", Value: -1}, {Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	default:
		opts.SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	}
	return opts
}
