package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// ORM is the subset of gorm the sandbox store uses, returning wrapped errors.
type ORM interface {
	AutoMigrate(dst ...any) error
	Count(count *int64) ORM
	Create(value any) ORM
	Delete(value any, conds ...any) ORM
	Find(dest any, conds ...any) ORM
	First(dest any, conds ...any) ORM
	Limit(limit int) ORM
	Model(value any) ORM
	Offset(offset int) ORM
	Order(value any) ORM
	Save(value any) ORM
	Transaction(fc func(tx ORM) error, opts ...*sql.TxOptions) error
	Where(query any, args ...any) ORM
	WithContext(ctx context.Context) ORM

	Error() error
}

var ErrRecordNotFound = errors.New("record not found")

// DB chains gorm statements. Each call returns a copy so a partially built
// query can be reused as a base.
type DB struct {
	*gorm.DB
	autoMigrationEnabled bool
	timeout              time.Duration
}

var _ ORM = (*DB)(nil)

func (d DB) Error() error {
	switch {
	case errors.Is(d.DB.Error, gorm.ErrRecordNotFound):
		return ErrRecordNotFound
	case d.DB.Error != nil:
		return fmt.Errorf("database error: %w", d.DB.Error)
	default:
		return nil
	}
}

func (d DB) AutoMigrate(dst ...any) error {
	if !d.autoMigrationEnabled {
		return nil
	}
	return d.DB.AutoMigrate(dst...)
}

func (d DB) Count(value *int64) ORM {
	return d.finish("count", d.DB.Count(value))
}

func (d DB) Create(value any) ORM {
	return d.finish("create", d.DB.Create(value))
}

func (d DB) Delete(value any, conds ...any) ORM {
	return d.finish("delete", d.DB.Delete(value, conds...))
}

func (d DB) Find(dest any, conds ...any) ORM {
	return d.finish("find", d.DB.Find(dest, conds...))
}

func (d DB) First(dest any, conds ...any) ORM {
	return d.finish("first", d.DB.First(dest, conds...))
}

func (d DB) Save(value any) ORM {
	return d.finish("save", d.DB.Save(value))
}

func (d DB) Limit(limit int) ORM {
	return d.with(d.DB.Limit(limit))
}

func (d DB) Model(value any) ORM {
	return d.with(d.DB.Model(value))
}

func (d DB) Offset(offset int) ORM {
	return d.with(d.DB.Offset(offset))
}

func (d DB) Order(value any) ORM {
	return d.with(d.DB.Order(value))
}

func (d DB) Where(query any, args ...any) ORM {
	return d.with(d.DB.Where(query, args...))
}

// WithContext binds ctx to the statement, bounded by the ORM timeout when
// one is configured.
func (d DB) WithContext(ctx context.Context) ORM {
	if d.timeout <= 0 {
		return d.with(d.DB.WithContext(ctx))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, d.timeout)
	go func() {
		<-timeoutCtx.Done()
		cancel()
	}()
	return d.with(d.DB.WithContext(timeoutCtx))
}

func (d DB) Transaction(fn func(ORM) error, opts ...*sql.TxOptions) error {
	return d.DB.Transaction(func(tx *gorm.DB) error {
		return fn(d.with(tx))
	}, opts...)
}

func (d DB) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("getting sql db: %w", err)
	}
	return sqlDB.Close()
}

func (d DB) with(tx *gorm.DB) *DB {
	d.DB = tx
	return &d
}

// finish records the executed operation on the request span.
func (d DB) finish(operation string, tx *gorm.DB) *DB {
	if ctx := tx.Statement.Context; ctx != nil {
		if span := trace.SpanFromContext(ctx); span.IsRecording() {
			span.SetAttributes(
				attribute.String("db.system", tx.Dialector.Name()),
				attribute.String("db.operation", operation),
				attribute.String("db.collection.name", tx.Statement.Table),
				attribute.Int64("db.rows_affected", tx.RowsAffected),
			)
		}
	}
	return d.with(tx)
}
