package builtins

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"
	"wisp/internal/object"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

var (
	ErrUnknownHandle = errors.New("unknown database handle")
	ErrTxOpen        = errors.New("transaction already open")
	ErrNoTx          = errors.New("no open transaction")
)

// executor is the part of *sql.DB and *sql.Tx that db-exec and db-query use.
type executor interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
}

type dbHandle struct {
	db *sql.DB
	tx *sql.Tx
}

// Registry owns the database connections opened by db-open. Handles are
// small integers issued in order. The handle table and each handle's open
// transaction are guarded by mu.
type Registry struct {
	mu      sync.Mutex
	nextID  int64
	handles map[int64]*dbHandle
}

func NewRegistry() *Registry {
	return &Registry{handles: map[int64]*dbHandle{}}
}

// Open connects with the named driver and returns the new handle id.
func (r *Registry) Open(driver, dsn string) (int64, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return 0, fmt.Errorf("failed to open connection: %w", err)
	}
	if driver == "sqlite3" {
		// every pooled connection to ":memory:" would see its own database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return 0, fmt.Errorf("failed to ping database: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.handles[r.nextID] = &dbHandle{db: db}
	slog.Debug("database opened", slog.String("driver", driver), slog.Int64("handle", r.nextID))
	return r.nextID, nil
}

func (r *Registry) get(id int64) (*dbHandle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	return h, nil
}

// conn returns the handle's open transaction when there is one, otherwise
// its pool.
func (r *Registry) conn(id int64) (executor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	if h.tx != nil {
		return h.tx, nil
	}
	return h.db, nil
}

// Begin starts a transaction on the handle. Only one may be open at a time.
func (r *Registry) Begin(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	if h.tx != nil {
		return ErrTxOpen
	}
	tx, err := h.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	h.tx = tx
	return nil
}

// Finish commits or rolls back the handle's open transaction. The
// transaction is cleared even when the driver reports an error.
func (r *Registry) Finish(id int64, commit bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	h, ok := r.handles[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	if h.tx == nil {
		return ErrNoTx
	}
	tx := h.tx
	h.tx = nil
	if commit {
		return tx.Commit()
	}
	return tx.Rollback()
}

// Close closes one handle, rolling back any open transaction.
func (r *Registry) Close(id int64) error {
	r.mu.Lock()
	h, ok := r.handles[id]
	delete(r.handles, id)
	var tx *sql.Tx
	if ok {
		tx, h.tx = h.tx, nil
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownHandle, id)
	}
	if tx != nil {
		_ = tx.Rollback()
	}
	return h.db.Close()
}

// CloseAll closes every open handle and returns the first error seen.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	ids := make([]int64, 0, len(r.handles))
	for id := range r.handles {
		ids = append(ids, id)
	}
	r.mu.Unlock()

	var first error
	for _, id := range ids {
		if err := r.Close(id); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (l *library) handleArg(a object.Allocator, name string, o object.Object) (int64, *object.Error) {
	n, ok := o.(*object.Integer)
	if !ok {
		return 0, wrongType(a, name, "INTEGER", o)
	}
	if _, err := l.db.get(n.Value); err != nil {
		return 0, object.NewError(a, "%s: %v", name, err)
	}
	return n.Value, nil
}

func textArg(a object.Allocator, name string, o object.Object) (string, *object.Error) {
	switch v := o.(type) {
	case *object.String:
		return v.Value, nil
	case *object.Symbol:
		return v.Name, nil
	}
	return "", wrongType(a, name, "STRING", o)
}

func sqlParams(args []object.Object) []any {
	params := make([]any, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case *object.Integer:
			params[i] = v.Value
		case *object.Real:
			params[i] = v.Value
		case *object.String:
			params[i] = v.Value
		case *object.Nil:
			params[i] = nil
		default:
			params[i] = arg.Inspect()
		}
	}
	return params
}

// dbOpen is (db-open driver dsn); drivers are sqlite3, mysql and postgres.
func (l *library) dbOpen(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 2 {
		return object.NIL
	}
	driver, errObj := textArg(a, "db-open", args[0])
	if errObj != nil {
		return errObj
	}
	dsn, errObj := textArg(a, "db-open", args[1])
	if errObj != nil {
		return errObj
	}

	id, err := l.db.Open(driver, dsn)
	if err != nil {
		return object.NewError(a, "db-open: %v", err)
	}
	return object.NewInteger(a, id)
}

// dbExec is (db-exec handle sql args...) and returns (rows-affected last-insert-id).
func (l *library) dbExec(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) < 2 {
		return object.NIL
	}
	id, errObj := l.handleArg(a, "db-exec", args[0])
	if errObj != nil {
		return errObj
	}
	query, errObj := textArg(a, "db-exec", args[1])
	if errObj != nil {
		return errObj
	}

	conn, err := l.db.conn(id)
	if err != nil {
		return object.NewError(a, "db-exec: %v", err)
	}
	result, err := conn.Exec(query, sqlParams(args[2:])...)
	if err != nil {
		return object.NewError(a, "exec failed: %v", err)
	}

	affected, _ := result.RowsAffected()
	lastID, _ := result.LastInsertId()
	return object.NewList(a, []object.Object{
		object.NewInteger(a, affected),
		object.NewInteger(a, lastID),
	})
}

// dbQuery is (db-query handle sql args...) and returns one list per row.
func (l *library) dbQuery(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) < 2 {
		return object.NIL
	}
	id, errObj := l.handleArg(a, "db-query", args[0])
	if errObj != nil {
		return errObj
	}
	query, errObj := textArg(a, "db-query", args[1])
	if errObj != nil {
		return errObj
	}

	conn, err := l.db.conn(id)
	if err != nil {
		return object.NewError(a, "db-query: %v", err)
	}
	rows, err := conn.Query(query, sqlParams(args[2:])...)
	if err != nil {
		return object.NewError(a, "query failed: %v", err)
	}
	defer rows.Close()

	return renderRows(a, rows)
}

func (l *library) dbBegin(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	id, errObj := l.handleArg(a, "db-begin", args[0])
	if errObj != nil {
		return errObj
	}
	if err := l.db.Begin(id); err != nil {
		return object.NewError(a, "db-begin: %v", err)
	}
	return args[0]
}

func (l *library) dbCommit(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	return l.finishTx(a, "db-commit", args, true)
}

func (l *library) dbRollback(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	return l.finishTx(a, "db-rollback", args, false)
}

func (l *library) finishTx(a object.Allocator, name string, args []object.Object, commit bool) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	id, errObj := l.handleArg(a, name, args[0])
	if errObj != nil {
		return errObj
	}
	if err := l.db.Finish(id, commit); err != nil {
		return object.NewError(a, "%s: %v", name, err)
	}
	return args[0]
}

func (l *library) dbClose(a object.Allocator, _ *object.Environment, args []object.Object) object.Object {
	if len(args) != 1 {
		return object.NIL
	}
	id, errObj := l.handleArg(a, "db-close", args[0])
	if errObj != nil {
		return errObj
	}
	if err := l.db.Close(id); err != nil {
		return object.NewError(a, "db-close: %v", err)
	}
	return object.NIL
}

func renderRows(a object.Allocator, rows *sql.Rows) object.Object {
	columns, err := rows.Columns()
	if err != nil {
		return object.NewError(a, "query failed: %v", err)
	}

	var result []object.Object
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return object.NewError(a, "scan failed: %v", err)
		}

		row := make([]object.Object, len(values))
		for i, v := range values {
			row[i] = mapValue(a, v)
		}
		result = append(result, object.NewList(a, row))
	}
	if err := rows.Err(); err != nil {
		return object.NewError(a, "query failed: %v", err)
	}
	return object.NewList(a, result)
}

func mapValue(a object.Allocator, v any) object.Object {
	switch x := v.(type) {
	case nil:
		return object.NIL
	case int64:
		return object.NewInteger(a, x)
	case float64:
		return object.NewReal(a, x)
	case bool:
		return truth(a, x)
	case []byte:
		s := string(x)
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return object.NewInteger(a, i)
		}
		return object.NewString(a, s)
	case string:
		return object.NewString(a, x)
	case time.Time:
		return object.NewString(a, x.Format(time.RFC3339))
	}
	return object.NewString(a, fmt.Sprint(v))
}
