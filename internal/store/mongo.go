package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/insightdelivered/statement-pipeline/internal/models"
)

const (
	statementsCollection   = "bank_statements"
	transactionsCollection = "bank_transactions"
)

// Mongo is the MongoDB-backed Store. Amounts are persisted as
// Decimal128 so server-side aggregation stays exact.
type Mongo struct {
	client       *mongo.Client
	statements   *mongo.Collection
	transactions *mongo.Collection
}

// NewMongo connects, pings and prepares the two collections.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrStoreUnavailable, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("%w: ping: %v", ErrStoreUnavailable, err)
	}

	db := client.Database(database)
	m := &Mongo{
		client:       client,
		statements:   db.Collection(statementsCollection),
		transactions: db.Collection(transactionsCollection),
	}
	if err := m.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Close disconnects the underlying client.
func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

func (m *Mongo) ensureIndexes(ctx context.Context) error {
	_, err := m.statements.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: statement indexes: %v", ErrStoreUnavailable, err)
	}
	_, err = m.transactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "statementId", Value: 1}, {Key: "date", Value: 1}}},
		{Keys: bson.D{{Key: "userId", Value: 1}, {Key: "bankType", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("%w: transaction indexes: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *Mongo) Ping(ctx context.Context) error {
	if err := m.client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

// Ingest writes the children first and the parent last. Reads resolve
// transactions through the parent, so until the parent lands nothing
// from the batch is reachable. Any mid-batch failure triggers a
// best-effort cleanup of already-written children by statementId.
func (m *Mongo) Ingest(ctx context.Context, stmt *models.Statement, txns []models.Transaction) (string, error) {
	if err := prepare(stmt, txns, time.Now().UTC()); err != nil {
		return "", err
	}

	docs := make([]interface{}, len(txns))
	for i, txn := range txns {
		doc, err := toTransactionDoc(txn)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		docs[i] = doc
	}
	stmtDoc, err := toStatementDoc(*stmt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if _, err := m.transactions.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true)); err != nil {
		m.cleanup(stmt.ID)
		return "", fmt.Errorf("%w: inserting transactions: %v", ErrStoreUnavailable, err)
	}
	if _, err := m.statements.InsertOne(ctx, stmtDoc); err != nil {
		m.cleanup(stmt.ID)
		return "", fmt.Errorf("%w: inserting statement: %v", ErrStoreUnavailable, err)
	}
	return stmt.ID, nil
}

// cleanup removes stranded children after a failed ingest. The request
// context may already be dead, so it runs on its own deadline.
func (m *Mongo) cleanup(statementID string) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _ = m.transactions.DeleteMany(ctx, bson.M{"statementId": statementID})
}

func (m *Mongo) Statement(ctx context.Context, userID, statementID string) (*models.Statement, error) {
	var doc statementDoc
	err := m.statements.FindOne(ctx, bson.M{"_id": statementID, "userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: fetching statement: %v", ErrStoreUnavailable, err)
	}
	stmt := doc.model()
	return &stmt, nil
}

func (m *Mongo) Statements(ctx context.Context, userID string, bankType models.BankType) ([]models.Statement, error) {
	filter := bson.M{"userId": userID}
	if bankType != "" {
		filter["bankType"] = string(bankType)
	}

	cur, err := m.statements.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: listing statements: %v", ErrStoreUnavailable, err)
	}
	var docs []statementDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding statements: %v", ErrStoreUnavailable, err)
	}

	out := make([]models.Statement, len(docs))
	for i, doc := range docs {
		out[i] = doc.model()
	}
	return out, nil
}

// ownedStatementIDs returns the ids of the user's statements, the
// anchor every child read resolves through.
func (m *Mongo) ownedStatementIDs(ctx context.Context, userID string, bankType models.BankType) ([]string, error) {
	filter := bson.M{"userId": userID}
	if bankType != "" {
		filter["bankType"] = string(bankType)
	}
	raw, err := m.statements.Distinct(ctx, "_id", filter)
	if err != nil {
		return nil, fmt.Errorf("%w: resolving statement ids: %v", ErrStoreUnavailable, err)
	}
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			ids = append(ids, s)
		}
	}
	return ids, nil
}

func (m *Mongo) Transactions(ctx context.Context, userID string, f TransactionFilter) ([]models.Transaction, error) {
	var filter bson.M
	if f.StatementID != "" {
		// Ownership check first; a foreign statementId must look
		// exactly like a missing one.
		if _, err := m.Statement(ctx, userID, f.StatementID); err != nil {
			return nil, err
		}
		filter = bson.M{"statementId": f.StatementID}
	} else {
		ids, err := m.ownedStatementIDs(ctx, userID, f.BankType)
		if err != nil {
			return nil, err
		}
		filter = bson.M{"statementId": bson.M{"$in": ids}}
	}
	if f.BankType != "" {
		filter["bankType"] = string(f.BankType)
	}

	cur, err := m.transactions.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: listing transactions: %v", ErrStoreUnavailable, err)
	}
	var docs []transactionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decoding transactions: %v", ErrStoreUnavailable, err)
	}

	out := make([]models.Transaction, len(docs))
	for i, doc := range docs {
		out[i] = doc.model()
	}
	return out, nil
}

// Delete removes the parent first, making the children unreachable,
// then cascades. No transaction may keep referencing a deleted
// statement.
func (m *Mongo) Delete(ctx context.Context, userID, statementID string) error {
	res, err := m.statements.DeleteOne(ctx, bson.M{"_id": statementID, "userId": userID})
	if err != nil {
		return fmt.Errorf("%w: deleting statement: %v", ErrStoreUnavailable, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, statementID)
	}
	if _, err := m.transactions.DeleteMany(ctx, bson.M{"statementId": statementID}); err != nil {
		return fmt.Errorf("%w: cascading transaction delete: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (m *Mongo) CategorySpend(ctx context.Context, userID string, bankType models.BankType) ([]CategorySpend, error) {
	ids, err := m.ownedStatementIDs(ctx, userID, bankType)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"statementId": bson.M{"$in": ids},
			"direction":   string(models.Debit),
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":              "$category",
			"totalAmount":      bson.M{"$sum": "$amount"},
			"transactionCount": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"totalAmount": -1}}},
	}

	cur, err := m.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: category spend aggregation: %v", ErrStoreUnavailable, err)
	}
	var rows []struct {
		Category         string               `bson:"_id"`
		TotalAmount      primitive.Decimal128 `bson:"totalAmount"`
		TransactionCount int                  `bson:"transactionCount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding category spend: %v", ErrStoreUnavailable, err)
	}

	out := make([]CategorySpend, len(rows))
	for i, row := range rows {
		total, err := fromDecimal128(row.TotalAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		out[i] = CategorySpend{Category: row.Category, TotalAmount: total, TransactionCount: row.TransactionCount}
	}
	return out, nil
}

func (m *Mongo) BankSpend(ctx context.Context, userID string) ([]BankSpend, error) {
	ids, err := m.ownedStatementIDs(ctx, userID, "")
	if err != nil {
		return nil, err
	}

	debitCond := bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$direction", string(models.Debit)}}, "$amount", 0}}
	creditCond := bson.M{"$cond": bson.A{bson.M{"$eq": bson.A{"$direction", string(models.Credit)}}, "$amount", 0}}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"statementId": bson.M{"$in": ids}}}},
		{{Key: "$group", Value: bson.M{
			"_id":              "$bankType",
			"totalDebit":       bson.M{"$sum": debitCond},
			"totalCredit":      bson.M{"$sum": creditCond},
			"transactionCount": bson.M{"$sum": 1},
		}}},
		{{Key: "$sort", Value: bson.M{"totalDebit": -1}}},
	}

	cur, err := m.transactions.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("%w: bank spend aggregation: %v", ErrStoreUnavailable, err)
	}
	var rows []struct {
		BankType         string               `bson:"_id"`
		TotalDebit       primitive.Decimal128 `bson:"totalDebit"`
		TotalCredit      primitive.Decimal128 `bson:"totalCredit"`
		TransactionCount int                  `bson:"transactionCount"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: decoding bank spend: %v", ErrStoreUnavailable, err)
	}

	out := make([]BankSpend, len(rows))
	for i, row := range rows {
		debit, err := fromDecimal128(row.TotalDebit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		credit, err := fromDecimal128(row.TotalCredit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
		out[i] = BankSpend{
			BankType:         models.BankType(row.BankType),
			TotalDebit:       debit,
			TotalCredit:      credit,
			TransactionCount: row.TransactionCount,
			NetAmount:        credit.Sub(debit),
		}
	}
	return out, nil
}

func (m *Mongo) UserSummary(ctx context.Context, userID string, bankType models.BankType) (*Summary, error) {
	spends, err := m.BankSpend(ctx, userID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{TotalDebit: decimal.Zero, TotalCredit: decimal.Zero}
	for _, row := range spends {
		if bankType != "" && row.BankType != bankType {
			continue
		}
		sum.TotalDebit = sum.TotalDebit.Add(row.TotalDebit)
		sum.TotalCredit = sum.TotalCredit.Add(row.TotalCredit)
		sum.TransactionCount += row.TransactionCount
	}
	sum.NetFlow = sum.TotalCredit.Sub(sum.TotalDebit)
	return sum, nil
}
