package database

import "context"

type txKey struct{}

type txInfo struct {
	tx    Transaction
	owned bool
}

// WithTx stores tx in ctx. owned marks the unit of work that must finish it.
func WithTx(ctx context.Context, tx Transaction, owned bool) context.Context {
	return context.WithValue(ctx, txKey{}, txInfo{tx: tx, owned: owned})
}

// TxFromContext returns the active transaction, or nil.
func TxFromContext(ctx context.Context) Transaction {
	info, _ := ctx.Value(txKey{}).(txInfo)
	return info.tx
}

func ownsTx(ctx context.Context) (Transaction, bool) {
	info, _ := ctx.Value(txKey{}).(txInfo)
	return info.tx, info.owned
}

// ExecutorFromContext prefers the transaction in ctx over conn, so
// repositories join a unit of work transparently.
func ExecutorFromContext(ctx context.Context, conn Connection) Executor {
	if tx := TxFromContext(ctx); tx != nil {
		return tx
	}
	return conn
}
