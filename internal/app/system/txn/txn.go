// Package txn runs multi-document writes atomically when MongoDB allows it.
//
// Only replica sets and sharded clusters support transactions. On a
// standalone server (typical in development) Run falls back to executing the
// writes in order without a session.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that mean "transactions are not available here".
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation: transaction numbers only allowed on replica set
	51:  true,
	263: true, // OperationNotSupportedInTransaction
}

var notSupportedWords = []string{
	"transaction",
	"replica set",
	"session",
	"not supported",
	"illegal operation",
}

// IsNotSupported reports whether err means the deployment cannot run
// transactions. Driver messages vary by server version, so besides the known
// codes it matches on at least two of a small set of keywords.
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
	hits := 0
	for _, w := range notSupportedWords {
		if strings.Contains(msg, w) {
			hits++
		}
	}
	return hits >= 2
}

// Run executes fn inside a transaction on client. When the deployment does
// not support transactions, fn is executed once more without a session and
// the downgrade is logged under op.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, op string, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		log.Warn("transaction session unavailable, writing sequentially",
			zap.String("operation", op), zap.Error(err))
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions not supported, writing sequentially",
			zap.String("operation", op), zap.Error(err))
		return fn(ctx)
	}
	return err
}
