package database

import (
	"context"
	"errors"
)

var errNoTransaction = errors.New("no transaction in context")

// UnitOfWork implements application.UnitOfWork on top of a Connection.
// Nested Begin calls join the outer transaction.
type UnitOfWork struct {
	conn Connection
}

// NewUnitOfWork creates a unit of work for conn.
func NewUnitOfWork(conn Connection) *UnitOfWork {
	return &UnitOfWork{conn: conn}
}

func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if tx := TxFromContext(ctx); tx != nil {
		return WithTx(ctx, tx, false), nil
	}
	tx, err := u.conn.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	return WithTx(ctx, tx, true), nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, owned := ownsTx(ctx)
	if tx == nil {
		return errNoTransaction
	}
	if !owned {
		return nil
	}
	return tx.Commit(ctx)
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, owned := ownsTx(ctx)
	if tx == nil {
		return errNoTransaction
	}
	if !owned {
		return nil
	}
	return tx.Rollback(ctx)
}
