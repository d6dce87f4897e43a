// Package mongo implements storage.Store on a MongoDB database.
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

const (
	usersCollection      = "users"
	expensesCollection   = "expenses"
	categoriesCollection = "categories"
)

// Ensure interface conformance
var _ storage.Store = (*Repository)(nil)

// Repository is a MongoDB-backed store. One Repository (and its underlying
// client/connection pool) is created at process start and shared; the driver
// handles per-request sessions internally.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
}

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Email     string             `bson:"email"`
	Password  string             `bson:"password"`
	CreatedAt time.Time          `bson:"createdAt"`
}

type expenseDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	UserID      string             `bson:"userId"`
	Amount      float64            `bson:"amount"`
	Description string             `bson:"description"`
	Category    string             `bson:"category"`
	Date        time.Time          `bson:"date"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

type categoryDoc struct {
	UserID   string `bson:"userId"`
	Category string `bson:"category"`
}

// New connects to MongoDB, pings it, and runs index migrations.
func New(ctx context.Context, uri, dbName string) (*Repository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if err := RunMigrations(client, dbName); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.InfoContext(ctx, "MongoDB repository initialized", "database", dbName)

	return &Repository{
		client: client,
		db:     client.Database(dbName),
	}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// CreateUser inserts a new user. No unique index backs the email field; the
// pre-insert existence check lives in the auth service and can race under
// concurrent duplicate registrations.
func (r *Repository) CreateUser(ctx context.Context, user *core.User) error {
	doc := userDoc{
		Email:     user.Email,
		Password:  user.PasswordHash,
		CreatedAt: user.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	res, err := r.db.Collection(usersCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	user.ID = oid.Hex()
	user.CreatedAt = doc.CreatedAt
	return nil
}

func (r *Repository) GetUserByEmail(ctx context.Context, email string) (*core.User, error) {
	var doc userDoc
	err := r.db.Collection(usersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	return &core.User{
		ID:           doc.ID.Hex(),
		Email:        doc.Email,
		PasswordHash: doc.Password,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *Repository) CreateExpense(ctx context.Context, expense *core.Expense) error {
	doc := expenseDoc{
		UserID:      expense.UserID,
		Amount:      expense.Amount,
		Description: expense.Description,
		Category:    expense.Category,
		Date:        expense.Date,
		CreatedAt:   time.Now().UTC(),
	}

	res, err := r.db.Collection(expensesCollection).InsertOne(ctx, doc)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	oid, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return fmt.Errorf("unexpected inserted ID type %T", res.InsertedID)
	}
	expense.ID = oid.Hex()
	expense.CreatedAt = doc.CreatedAt
	return nil
}

// ownerScopedID builds the {_id, userId} filter every single-record expense
// operation must use. A token for one user can never reach another user's
// records, even with a guessed ID.
func ownerScopedID(ownerID, expenseID string) (bson.M, error) {
	oid, err := primitive.ObjectIDFromHex(expenseID)
	if err != nil {
		return nil, core.ErrNotFound
	}
	return bson.M{"_id": oid, "userId": ownerID}, nil
}

func (r *Repository) GetExpense(ctx context.Context, ownerID, expenseID string) (*core.Expense, error) {
	filter, err := ownerScopedID(ownerID, expenseID)
	if err != nil {
		// A malformed ID is indistinguishable from a missing record.
		return nil, nil
	}

	var doc expenseDoc
	err = r.db.Collection(expensesCollection).FindOne(ctx, filter).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find expense: %w", err)
	}

	e := docToExpense(doc)
	return &e, nil
}

func (r *Repository) ListExpenses(ctx context.Context, ownerID string, filter core.ExpenseFilter) ([]core.Expense, error) {
	query := bson.M{"userId": ownerID}

	dateRange := bson.M{}
	if !filter.StartDate.IsZero() {
		dateRange["$gte"] = filter.StartDate
	}
	if !filter.EndDate.IsZero() {
		dateRange["$lte"] = filter.EndDate
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}
	if filter.Category != "" {
		query["category"] = filter.Category
	}

	cur, err := r.db.Collection(expensesCollection).Find(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer cur.Close(ctx)

	var docs []expenseDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode expenses: %w", err)
	}

	expenses := make([]core.Expense, 0, len(docs))
	for _, doc := range docs {
		expenses = append(expenses, docToExpense(doc))
	}
	return expenses, nil
}

func (r *Repository) UpdateExpense(ctx context.Context, ownerID, expenseID string, expense core.Expense) error {
	filter, err := ownerScopedID(ownerID, expenseID)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"amount":      expense.Amount,
		"description": expense.Description,
		"category":    expense.Category,
		"date":        expense.Date,
	}}

	res, err := r.db.Collection(expensesCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	if res.MatchedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *Repository) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	filter, err := ownerScopedID(ownerID, expenseID)
	if err != nil {
		return err
	}

	res, err := r.db.Collection(expensesCollection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if res.DeletedCount == 0 {
		return core.ErrNotFound
	}
	return nil
}

// EnsureCategory registers a custom category for the owner once. The
// check-then-insert is not transactional, so concurrent first uses of the same
// category can insert duplicates. Known gap, kept deliberately.
func (r *Repository) EnsureCategory(ctx context.Context, ownerID, category string) error {
	coll := r.db.Collection(categoriesCollection)
	filter := bson.M{"userId": ownerID, "category": category}

	err := coll.FindOne(ctx, filter).Err()
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return fmt.Errorf("find category: %w", err)
	}

	if _, err := coll.InsertOne(ctx, categoryDoc{UserID: ownerID, Category: category}); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	return nil
}

func (r *Repository) ListCategories(ctx context.Context, ownerID string) ([]string, error) {
	cur, err := r.db.Collection(categoriesCollection).Find(ctx, bson.M{"userId": ownerID})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer cur.Close(ctx)

	var docs []categoryDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode categories: %w", err)
	}

	out := make([]string, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Category)
	}
	return out, nil
}

func (r *Repository) SpendingByMonth(ctx context.Context, ownerID string, start, end time.Time) ([]core.MonthlySpending, error) {
	match := bson.M{"userId": ownerID}
	dateRange := bson.M{}
	if !start.IsZero() {
		dateRange["$gte"] = start
	}
	if !end.IsZero() {
		dateRange["$lte"] = end
	}
	if len(dateRange) > 0 {
		match["date"] = dateRange
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$project", Value: bson.M{
			"amount": 1,
			"month":  bson.M{"$dateToString": bson.M{"format": "%Y-%m", "date": "$date"}},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$month",
			"totalAmount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}

	cur, err := r.db.Collection(expensesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate spending by month: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Month       string  `bson:"_id"`
		TotalAmount float64 `bson:"totalAmount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode monthly spending: %w", err)
	}

	out := make([]core.MonthlySpending, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.MonthlySpending{Month: row.Month, TotalAmount: row.TotalAmount})
	}
	return out, nil
}

func (r *Repository) SpendingByCategory(ctx context.Context, ownerID string) ([]core.CategorySpending, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"userId": ownerID}}},
		{{Key: "$group", Value: bson.M{
			"_id":         "$category",
			"totalAmount": bson.M{"$sum": "$amount"},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "totalAmount", Value: -1}}}},
	}

	cur, err := r.db.Collection(expensesCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate spending by category: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		Category    string  `bson:"_id"`
		TotalAmount float64 `bson:"totalAmount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode category spending: %w", err)
	}

	out := make([]core.CategorySpending, 0, len(rows))
	for _, row := range rows {
		out = append(out, core.CategorySpending{Category: row.Category, TotalAmount: row.TotalAmount})
	}
	return out, nil
}

func docToExpense(doc expenseDoc) core.Expense {
	return core.Expense{
		ID:          doc.ID.Hex(),
		UserID:      doc.UserID,
		Amount:      doc.Amount,
		Description: doc.Description,
		Category:    doc.Category,
		Date:        doc.Date,
		CreatedAt:   doc.CreatedAt,
	}
}
