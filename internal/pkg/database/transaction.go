package database

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type txKey struct{}

// InTx runs fn inside one transaction. The *gorm.DB of the transaction
// travels in ctx; a nested InTx joins the outer one instead of opening a
// savepoint. fn returning an error rolls everything back.
func (db *DB) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFrom(ctx); ok {
		return fn(ctx)
	}
	return db.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
			db.logger.WithContext(ctx).Debug("transaction rolled back", zap.Error(err))
			return err
		}
		return nil
	})
}

// GetDBFromContext returns the transaction carried by ctx, or the pool
func (db *DB) GetDBFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := txFrom(ctx); ok {
		return tx
	}
	return db.DB.WithContext(ctx)
}

func txFrom(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey{}).(*gorm.DB)
	return tx, ok
}
