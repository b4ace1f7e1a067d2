package builtins

import (
	"database/sql"
	"errors"
	"testing"
)

func TestSqliteRoundTrip(t *testing.T) {
	result, _ := testEval(t, `
(set 'h (db-open "sqlite3" ":memory:"))
(db-exec h "create table people (id integer primary key, name text, score real)")
(db-exec h "insert into people (name, score) values (?, ?)" "ada" 9.5)
(db-exec h "insert into people (name, score) values (?, ?)" "bob" nil)
(db-query h "select id, name, score from people order by id")
`)
	expected := "((1 ada 9.5) (2 bob nil))"
	if result.Inspect() != expected {
		t.Fatalf("rows wrong. expected=%q, got=%q", expected, result.Inspect())
	}
}

func TestSqliteExecReportsCounts(t *testing.T) {
	result, _ := testEval(t, `
(set 'h (db-open "sqlite3" ":memory:"))
(db-exec h "create table t (v integer)")
(db-exec h "insert into t (v) values (1), (2), (3)")
`)
	if result.Inspect() != "(3 3)" {
		t.Fatalf("exec result wrong. got=%s", result.Inspect())
	}
}

func TestSqliteTransactions(t *testing.T) {
	result, _ := testEval(t, `
(set 'h (db-open "sqlite3" ":memory:"))
(db-exec h "create table t (v integer)")
(db-begin h)
(db-exec h "insert into t (v) values (1)")
(db-rollback h)
(db-begin h)
(db-exec h "insert into t (v) values (2)")
(db-commit h)
(db-query h "select v from t")
`)
	if result.Inspect() != "((2))" {
		t.Fatalf("transaction result wrong. got=%s", result.Inspect())
	}
}

func TestDatabaseErrors(t *testing.T) {
	runCases(t, []evalCase{
		{"(db-query 42 \"select 1\")", "(Err db-query: unknown database handle: 42)"},
		{"(db-open \"sqlite3\")", "nil"},
		{"(db-commit (db-open \"sqlite3\" \":memory:\"))", "(Err db-commit: no open transaction)"},
		{"(set 'h (db-open \"sqlite3\" \":memory:\")) (db-close h) (db-close h)", "(Err db-close: unknown database handle: 1)"},
		{"(set 'h (db-open \"sqlite3\" \":memory:\")) (db-begin h) (db-begin h)", "(Err db-begin: transaction already open)"},
	})
}

func TestRegistryCloseAll(t *testing.T) {
	reg := NewRegistry()
	id, err := reg.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := reg.CloseAll(); err != nil {
		t.Fatalf("close all failed: %v", err)
	}
	if err := reg.Close(id); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle after CloseAll, got=%v", err)
	}
}

func TestRegistryTransactions(t *testing.T) {
	reg := NewRegistry()
	defer reg.CloseAll()
	id, err := reg.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}

	if err := reg.Finish(id, true); !errors.Is(err, ErrNoTx) {
		t.Fatalf("expected ErrNoTx before Begin, got=%v", err)
	}
	if err := reg.Begin(id); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := reg.Begin(id); !errors.Is(err, ErrTxOpen) {
		t.Fatalf("expected ErrTxOpen on second Begin, got=%v", err)
	}

	conn, err := reg.conn(id)
	if err != nil {
		t.Fatalf("conn failed: %v", err)
	}
	if _, ok := conn.(*sql.Tx); !ok {
		t.Fatalf("expected *sql.Tx while a transaction is open, got=%T", conn)
	}

	if err := reg.Finish(id, false); err != nil {
		t.Fatalf("rollback failed: %v", err)
	}
	conn, err = reg.conn(id)
	if err != nil {
		t.Fatalf("conn failed: %v", err)
	}
	if _, ok := conn.(*sql.DB); !ok {
		t.Fatalf("expected *sql.DB after Finish, got=%T", conn)
	}
	if err := reg.Begin(99); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle, got=%v", err)
	}
}

func TestRegistryCloseRollsBackOpenTransaction(t *testing.T) {
	reg := NewRegistry()
	id, err := reg.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	if err := reg.Begin(id); err != nil {
		t.Fatalf("begin failed: %v", err)
	}
	if err := reg.Close(id); err != nil {
		t.Fatalf("close with open transaction failed: %v", err)
	}
	if err := reg.Finish(id, true); !errors.Is(err, ErrUnknownHandle) {
		t.Fatalf("expected ErrUnknownHandle after Close, got=%v", err)
	}
}
