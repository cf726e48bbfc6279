// Package txn runs multi-collection writes inside a MongoDB transaction when
// the deployment supports one, and sequentially otherwise.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn inside a session transaction. Standalone servers reject
// transactions; in that case fn is run again without one so cascades still
// happen on development setups.
func Run(ctx context.Context, db *mongo.Database, fn func(ctx context.Context) error) error {
	sess, err := db.Client().StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return fn(ctx)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		zap.L().Debug("transactions not supported; running without one", zap.Error(err))
		return fn(ctx)
	}
	return err
}

// Runner binds Run to a database so services can depend on a one-method
// interface instead of *mongo.Database.
type Runner struct {
	db *mongo.Database
}

// NewRunner returns a Runner for db.
func NewRunner(db *mongo.Database) Runner {
	return Runner{db: db}
}

// Run executes fn via the package-level Run.
func (r Runner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return Run(ctx, r.db, fn)
}

// IsNotSupported reports whether err indicates the server cannot run
// multi-document transactions (standalone mongod, some managed tiers).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	switch {
	case strings.Contains(s, "transaction") && strings.Contains(s, "replica set"),
		strings.Contains(s, "transaction") && strings.Contains(s, "session"),
		strings.Contains(s, "session") && strings.Contains(s, "not supported"),
		strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}
