// internal/app/system/txn/txn.go
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes meaning the deployment cannot run multi-document
// transactions (standalone server, or an operation not allowed in one).
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // NoSuchTransaction on some standalone builds
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means transactions are unavailable,
// so the caller should run the work without one.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if notSupportedCodes[ce.Code] {
			return true
		}
	}

	msg := strings.ToLower(err.Error())
	has := func(a, b string) bool { return strings.Contains(msg, a) && strings.Contains(msg, b) }
	switch {
	case has("transaction", "replica set"):
		return true
	case has("session", "not supported"):
		return true
	case has("transaction", "session"):
		return true
	case strings.Contains(msg, "illegal operation"):
		return true
	}
	return false
}

// Run executes fn inside a transaction. When the deployment cannot run
// transactions, fn runs once more without one.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
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
		if log != nil {
			log.Debug("transactions unavailable, running without", zap.Error(err))
		}
		return fn(ctx)
	}
	return err
}
