package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/warpdl/stickers/internal/sticker"
)

const selectColumns = `id, title, state, "left", "top", width, height, top_most, color, type, content, created_at, updated_at`

// Order selects the timestamp List sorts by.
type Order int

const (
	OrderCreated Order = iota
	OrderUpdated
)

// ListOptions filters and orders List results.
type ListOptions struct {
	// Search is a case-insensitive substring matched against the title.
	Search string
	// SearchContent extends Search to the content payload.
	SearchContent bool
	OrderBy       Order
	Desc          bool
	// Limit caps the number of rows; zero means no limit.
	Limit  int
	Offset int
}

// Patch names the columns an Update changes. Nil fields are left alone.
type Patch struct {
	Title   *string
	State   *sticker.State
	Rect    *sticker.Rect
	TopMost *bool
	Color   *sticker.Color
	Content *string
}

// Insert stores a new sticker and, on success, sets its ID and timestamps.
func (s *Store) Insert(ctx context.Context, st *sticker.Sticker) (int64, error) {
	var id, created int64
	err := s.withTx(ctx, func(tx *sql.Tx, ts int64) error {
		res, err := tx.ExecContext(ctx, `
			INSERT INTO stickers (title, state, "left", "top", width, height, top_most, color, type, content, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			st.Title, string(st.State), st.Rect.Left, st.Rect.Top, st.Rect.Width, st.Rect.Height,
			st.TopMost, string(st.Color), string(st.Kind), st.Content, ts, ts,
		)
		if err != nil {
			return err
		}
		if id, err = res.LastInsertId(); err != nil {
			return err
		}
		created = ts
		return nil
	})
	if err != nil {
		return 0, storageErr("insert", 0, err)
	}
	st.ID, st.CreatedAt, st.UpdatedAt = id, created, created
	return id, nil
}

// Update applies p to the row with the given ID and returns the new
// updated_at. An empty patch still bumps updated_at.
func (s *Store) Update(ctx context.Context, id int64, p Patch) (int64, error) {
	var updatedAt int64
	err := s.withTx(ctx, func(tx *sql.Tx, ts int64) error {
		sets := make([]string, 0, 8)
		args := make([]any, 0, 10)
		if p.Title != nil {
			sets = append(sets, "title = ?")
			args = append(args, *p.Title)
		}
		if p.State != nil {
			sets = append(sets, "state = ?")
			args = append(args, string(*p.State))
		}
		if p.Rect != nil {
			sets = append(sets, `"left" = ?`, `"top" = ?`, "width = ?", "height = ?")
			args = append(args, p.Rect.Left, p.Rect.Top, p.Rect.Width, p.Rect.Height)
		}
		if p.TopMost != nil {
			sets = append(sets, "top_most = ?")
			args = append(args, *p.TopMost)
		}
		if p.Color != nil {
			sets = append(sets, "color = ?")
			args = append(args, string(*p.Color))
		}
		if p.Content != nil {
			sets = append(sets, "content = ?")
			args = append(args, *p.Content)
		}
		sets = append(sets, "updated_at = ?")
		args = append(args, ts, id)

		res, err := tx.ExecContext(ctx,
			"UPDATE stickers SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		updatedAt = ts
		return nil
	})
	if errors.Is(err, ErrNotFound) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, storageErr("update", id, err)
	}
	return updatedAt, nil
}

// Delete removes the row with the given ID. Deleting a missing row is not
// an error.
func (s *Store) Delete(ctx context.Context, id int64) error {
	err := s.withTx(ctx, func(tx *sql.Tx, _ int64) error {
		_, err := tx.ExecContext(ctx, `DELETE FROM stickers WHERE id = ?`, id)
		return err
	})
	return storageErr("delete", id, err)
}

// Get returns the row with the given ID or ErrNotFound.
func (s *Store) Get(ctx context.Context, id int64) (*sticker.Sticker, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+selectColumns+` FROM stickers WHERE id = ?`, id)
	st, err := scanSticker(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, storageErr("get", id, err)
	}
	return st, nil
}

// List returns the stickers matching opts.
func (s *Store) List(ctx context.Context, opts ListOptions) ([]*sticker.Sticker, error) {
	where, args := searchClause(opts.Search, opts.SearchContent)
	q := `SELECT ` + selectColumns + ` FROM stickers` + where + orderClause(opts)
	if opts.Limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	} else if opts.Offset > 0 {
		q += " LIMIT -1 OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, storageErr("list", 0, err)
	}
	defer rows.Close()

	var out []*sticker.Sticker
	for rows.Next() {
		st, err := scanSticker(rows)
		if err != nil {
			return nil, storageErr("list", 0, err)
		}
		out = append(out, st)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list", 0, err)
	}
	return out, nil
}

// Count returns how many stickers match search.
func (s *Store) Count(ctx context.Context, search string, searchContent bool) (int, error) {
	where, args := searchClause(search, searchContent)
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stickers`+where, args...).Scan(&n); err != nil {
		return 0, storageErr("count", 0, err)
	}
	return n, nil
}

// OpenIDs returns the IDs of stickers whose window is open, oldest first.
func (s *Store) OpenIDs(ctx context.Context) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM stickers WHERE state = ? ORDER BY created_at ASC, id ASC`, string(sticker.StateOpen))
	if err != nil {
		return nil, storageErr("open ids", 0, err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, storageErr("open ids", 0, err)
		}
		ids = append(ids, id)
	}
	return ids, storageErr("open ids", 0, rows.Err())
}

func orderClause(opts ListOptions) string {
	col := "created_at"
	if opts.OrderBy == OrderUpdated {
		col = "updated_at"
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id %s", col, dir, dir)
}

func searchClause(search string, withContent bool) (string, []any) {
	search = strings.TrimSpace(search)
	if search == "" {
		return "", nil
	}
	pattern := "%" + escapeLike(foldString(search)) + "%"
	if withContent {
		return ` WHERE (` + foldFunc + `(title) LIKE ? ESCAPE '\' OR ` + foldFunc + `(content) LIKE ? ESCAPE '\')`, []any{pattern, pattern}
	}
	return ` WHERE ` + foldFunc + `(title) LIKE ? ESCAPE '\'`, []any{pattern}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSticker(r rowScanner) (*sticker.Sticker, error) {
	var (
		st                 sticker.Sticker
		state, color, kind string
	)
	err := r.Scan(&st.ID, &st.Title, &state, &st.Rect.Left, &st.Rect.Top, &st.Rect.Width, &st.Rect.Height,
		&st.TopMost, &color, &kind, &st.Content, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if st.State, err = sticker.ParseState(state); err != nil {
		return nil, fmt.Errorf("row %d: %w", st.ID, err)
	}
	if st.Kind, err = sticker.ParseKind(kind); err != nil {
		return nil, fmt.Errorf("row %d: %w", st.ID, err)
	}
	st.Color = sticker.ParseColor(color)
	return &st, nil
}
