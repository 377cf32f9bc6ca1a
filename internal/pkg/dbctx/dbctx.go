package dbctx

import (
	"context"

	"gorm.io/gorm"
)

// Context bundles a request context with an optional GORM transaction.
type Context struct {
	Ctx context.Context
	Tx  *gorm.DB
}

// New wraps ctx with no transaction.
func New(ctx context.Context) Context {
	return Context{Ctx: ctx}
}

// Conn returns the transaction when one is set, otherwise fallback, bound to Ctx.
func (c Context) Conn(fallback *gorm.DB) *gorm.DB {
	conn := c.Tx
	if conn == nil {
		conn = fallback
	}
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}
	return conn.WithContext(ctx)
}
