package db

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Merge describes how imported rows replace existing ones.
type Merge struct {
	Table   string   // may carry a schema prefix
	Columns []string // column order of each row
	Key     []string // unique key matched against existing rows
	Keep    []string // columns an existing row keeps when re-imported
}

// staging names the temp table rows are copied into before the merge.
func (m Merge) staging() string {
	return strings.ReplaceAll(m.Table, ".", "_") + "_import"
}

// updates lists the columns overwritten on a key match.
func (m Merge) updates() []string {
	var cols []string
	for _, c := range m.Columns {
		if !slices.Contains(m.Key, c) && !slices.Contains(m.Keep, c) {
			cols = append(cols, c)
		}
	}
	return cols
}

func (m Merge) validate() error {
	switch {
	case len(m.Columns) == 0:
		return eris.New("db: merge: no columns")
	case len(m.Key) == 0:
		return eris.New("db: merge: no key columns")
	}
	for _, k := range m.Key {
		if !slices.Contains(m.Columns, k) {
			return eris.Errorf("db: merge: key column %q is not imported", k)
		}
	}
	return nil
}

// stagingSQL creates the temp table, shaped like the target.
func (m Merge) stagingSQL() string {
	return "CREATE TEMP TABLE " + pgx.Identifier{m.staging()}.Sanitize() +
		" (LIKE " + identifier(m.Table).Sanitize() + " INCLUDING DEFAULTS) ON COMMIT DROP"
}

// mergeSQL moves staged rows into the target. Rows whose key is new are
// inserted; the rest update every column outside Key and Keep, or are left
// alone when no such column exists.
func (m Merge) mergeSQL() string {
	cols := quoteAndJoin(m.Columns)

	var b strings.Builder
	b.WriteString("INSERT INTO " + identifier(m.Table).Sanitize() + " (" + cols + ")")
	b.WriteString(" SELECT " + cols + " FROM " + pgx.Identifier{m.staging()}.Sanitize())
	b.WriteString(" ON CONFLICT (" + quoteAndJoin(m.Key) + ")")

	updates := m.updates()
	if len(updates) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String()
	}
	set := make([]string, len(updates))
	for i, c := range updates {
		q := pgx.Identifier{c}.Sanitize()
		set[i] = q + " = EXCLUDED." + q
	}
	b.WriteString(" DO UPDATE SET " + strings.Join(set, ", "))
	return b.String()
}

// MergeRows imports rows in one transaction: COPY into a staging table,
// then a single INSERT ... ON CONFLICT into the target. It returns the
// number of rows inserted or updated.
func MergeRows(ctx context.Context, pool Pool, m Merge, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := m.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: merge: begin")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, m.stagingSQL()); err != nil {
		return 0, eris.Wrapf(err, "db: merge: stage %s", m.Table)
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{m.staging()}, m.Columns, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: merge: copy %d rows into %s", len(rows), m.staging())
	}

	tag, err := tx.Exec(ctx, m.mergeSQL())
	if err != nil {
		return 0, eris.Wrapf(err, "db: merge: into %s", m.Table)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: merge: commit")
	}
	return tag.RowsAffected(), nil
}

func identifier(table string) pgx.Identifier {
	return pgx.Identifier(strings.SplitN(table, ".", 2))
}

func quoteAndJoin(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
