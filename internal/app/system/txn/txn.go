// Package txn runs multi-document writes inside a MongoDB transaction when the
// deployment supports one, and falls back to running them directly on a
// standalone server.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Run executes fn in a transaction on client. When transactions are not
// supported (standalone mongod, some emulators) fn is run once more without
// a transaction and a warning is logged.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return runDirect(ctx, log, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return runDirect(ctx, log, err, fn)
	}
	return err
}

func runDirect(ctx context.Context, log *zap.Logger, cause error, fn func(ctx context.Context) error) error {
	if log != nil {
		log.Warn("transactions not supported; running without one", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the server cannot run transactions.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, // IllegalOperation
			51,  // UnknownError (older standalone replies)
			263: // OperationNotSupportedInTransaction
			return true
		}
	}

	s := strings.ToLower(err.Error())
	hasTxn := strings.Contains(s, "transaction")
	hasSession := strings.Contains(s, "session")
	switch {
	case hasTxn && strings.Contains(s, "replica set"):
		return true
	case hasTxn && hasSession:
		return true
	case hasSession && strings.Contains(s, "not supported"):
		return true
	case strings.Contains(s, "illegal operation"):
		return true
	}
	return false
}
