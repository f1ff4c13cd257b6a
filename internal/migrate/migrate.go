// Package migrate applies the identity-store schema and seed SQL. Files come
// from any fs.FS, so callers can point it at a directory or an embedded tree.
package migrate

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"
)

const (
	upSuffix   = ".up.sql"
	downSuffix = ".down.sql"
	seedSuffix = ".sql"

	migrationsTable = "schema_migrations"
	seedsTable      = "schema_seeds"
)

// Runner executes versioned SQL against the identity database.
type Runner struct {
	db    *sql.DB
	files fs.FS
	seeds fs.FS
}

// NewRunner builds a runner. files holds *.up.sql / *.down.sql pairs, seeds
// holds idempotent *.sql seed files; either may be nil.
func NewRunner(db *sql.DB, files, seeds fs.FS) (*Runner, error) {
	if db == nil {
		return nil, errors.New("migrate: database handle is required")
	}
	return &Runner{db: db, files: files, seeds: seeds}, nil
}

// Up applies every pending migration in lexical order.
func (r *Runner) Up(ctx context.Context) error {
	if err := r.ensureBookkeeping(ctx); err != nil {
		return err
	}
	applied, err := r.appliedSet(ctx, migrationsTable)
	if err != nil {
		return err
	}
	names, err := listSQL(r.files, upSuffix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := r.apply(ctx, r.files, name, migrationsTable); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", name, err)
		}
	}
	return nil
}

// Down rolls back the most recently applied migration using its .down.sql
// counterpart.
func (r *Runner) Down(ctx context.Context) error {
	if err := r.ensureBookkeeping(ctx); err != nil {
		return err
	}
	history, err := r.history(ctx, migrationsTable)
	if err != nil {
		return err
	}
	if len(history) == 0 {
		return errors.New("migrate: nothing to roll back")
	}
	last := history[len(history)-1]
	downName := strings.TrimSuffix(last, upSuffix) + downSuffix
	if _, err := fs.Stat(r.files, downName); err != nil {
		return fmt.Errorf("migrate: missing down file for %s", last)
	}
	if err := r.execFile(ctx, r.files, downName); err != nil {
		return fmt.Errorf("migrate: roll back %s: %w", last, err)
	}
	_, err = r.db.ExecContext(ctx,
		fmt.Sprintf(`delete from %s where name = $1`, migrationsTable), last)
	return err
}

// Status returns applied migrations in application order.
func (r *Runner) Status(ctx context.Context) ([]string, error) {
	if err := r.ensureBookkeeping(ctx); err != nil {
		return nil, err
	}
	return r.history(ctx, migrationsTable)
}

// Seed applies each seed file at most once.
func (r *Runner) Seed(ctx context.Context) error {
	if err := r.ensureBookkeeping(ctx); err != nil {
		return err
	}
	applied, err := r.appliedSet(ctx, seedsTable)
	if err != nil {
		return err
	}
	names, err := listSQL(r.seeds, seedSuffix)
	if err != nil {
		return err
	}
	for _, name := range names {
		if applied[name] {
			continue
		}
		if err := r.apply(ctx, r.seeds, name, seedsTable); err != nil {
			return fmt.Errorf("migrate: seed %s: %w", name, err)
		}
	}
	return nil
}

func (r *Runner) ensureBookkeeping(ctx context.Context) error {
	for _, table := range []string{migrationsTable, seedsTable} {
		ddl := fmt.Sprintf(`
			create table if not exists %s (
				name text primary key,
				applied_at timestamptz not null default now()
			)`, table)
		if _, err := r.db.ExecContext(ctx, ddl); err != nil {
			return err
		}
	}
	return nil
}

// apply runs one file and records it, both inside a single transaction-ish
// sequence: the record insert happens only after the file committed.
func (r *Runner) apply(ctx context.Context, src fs.FS, name, table string) error {
	if err := r.execFile(ctx, src, name); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf(`insert into %s(name, applied_at) values ($1, $2)`, table),
		name, time.Now().UTC())
	return err
}

func (r *Runner) execFile(ctx context.Context, src fs.FS, name string) error {
	raw, err := fs.ReadFile(src, name)
	if err != nil {
		return err
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()
	for _, stmt := range splitStatements(string(raw)) {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Runner) appliedSet(ctx context.Context, table string) (map[string]bool, error) {
	names, err := r.history(ctx, table)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set, nil
}

func (r *Runner) history(ctx context.Context, table string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		fmt.Sprintf(`select name from %s order by applied_at asc`, table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func listSQL(src fs.FS, suffix string) ([]string, error) {
	if src == nil {
		return nil, nil
	}
	entries, err := fs.ReadDir(src, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), suffix) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// splitStatements splits on semicolons outside single-quoted strings.
func splitStatements(sql string) []string {
	var (
		stmts    []string
		current  strings.Builder
		inString bool
	)
	for _, r := range sql {
		current.WriteRune(r)
		switch r {
		case '\'':
			inString = !inString
		case ';':
			if !inString {
				stmts = append(stmts, current.String())
				current.Reset()
			}
		}
	}
	if strings.TrimSpace(current.String()) != "" {
		stmts = append(stmts, current.String())
	}
	return stmts
}
