package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"folio/api/internal/util"
)

var (
	ErrUnknownResource = errors.New("unknown resource")
	ErrInvalidField    = errors.New("invalid field")
	ErrNotFound        = errors.New("not found")
	ErrEmptyPatch      = errors.New("empty patch")
)

// PostgresStore owns every write path the admin surface exposes, plus the
// contact-email and admin-user rows. Content reads live in internal/content.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// PatchSection applies a partial update to a section's singleton row.
func (s *PostgresStore) PatchSection(ctx context.Context, section string, patch map[string]any) error {
	def, err := sectionByName(section)
	if err != nil {
		return err
	}
	columns, err := normalizePatch(patch)
	if err != nil {
		return err
	}
	set, args, err := buildSet(columns, 1)
	if err != nil {
		return err
	}
	args = append(args, "en")
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE language_code = $%d AND is_active`, def.table, set, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch section %s: %w", section, err)
	}
	return requireRows(result, section)
}

func (s *PostgresStore) ListItems(ctx context.Context, section, itemType string) ([]map[string]any, error) {
	def, err := sectionByName(section)
	if err != nil {
		return nil, err
	}
	item, err := def.itemType(itemType)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`SELECT * FROM %s WHERE 1=1`, item.table)
	var args []any
	for _, column := range sortedKeys(item.fixed) {
		args = append(args, item.fixed[column])
		query += fmt.Sprintf(" AND %s = $%d", column, len(args))
	}
	query += " ORDER BY sort_order"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s %s: %w", section, itemType, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *PostgresStore) InsertItem(ctx context.Context, section, itemType string, fields map[string]any) (string, error) {
	def, err := sectionByName(section)
	if err != nil {
		return "", err
	}
	item, err := def.itemType(itemType)
	if err != nil {
		return "", err
	}
	parentID, err := s.sectionRowID(ctx, def.table)
	if err != nil {
		return "", err
	}

	columns, err := normalizePatch(fields)
	if err != nil {
		return "", err
	}
	id := util.NewID(item.idPrefix)
	columns["id"] = id
	columns[item.parentCol] = parentID
	for column, value := range item.fixed {
		columns[column] = value
	}
	if err := s.insert(ctx, item.table, columns); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) PatchItem(ctx context.Context, section, itemType, id string, patch map[string]any) error {
	def, err := sectionByName(section)
	if err != nil {
		return err
	}
	item, err := def.itemType(itemType)
	if err != nil {
		return err
	}
	return s.patchByID(ctx, item.table, id, patch)
}

func (s *PostgresStore) DeleteItem(ctx context.Context, section, itemType, id string) error {
	def, err := sectionByName(section)
	if err != nil {
		return err
	}
	item, err := def.itemType(itemType)
	if err != nil {
		return err
	}
	return s.deleteByID(ctx, item.table, id)
}

func (s *PostgresStore) ListNested(ctx context.Context, parentTable, parentID, nestedType string) ([]map[string]any, error) {
	def, err := nestedByName(parentTable, nestedType)
	if err != nil {
		return nil, err
	}
	query := fmt.Sprintf(`SELECT * FROM %s WHERE %s = $1 ORDER BY sort_order`, def.table, def.parentCol)
	rows, err := s.db.QueryContext(ctx, query, parentID)
	if err != nil {
		return nil, fmt.Errorf("list nested %s/%s: %w", parentTable, nestedType, err)
	}
	defer rows.Close()
	return scanRows(rows)
}

func (s *PostgresStore) InsertNested(ctx context.Context, parentTable, parentID, nestedType string, fields map[string]any) (string, error) {
	def, err := nestedByName(parentTable, nestedType)
	if err != nil {
		return "", err
	}
	columns, err := normalizePatch(fields)
	if err != nil {
		return "", err
	}
	id := util.NewID(def.idPrefix)
	columns["id"] = id
	columns[def.parentCol] = parentID
	if err := s.insert(ctx, def.table, columns); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) PatchNested(ctx context.Context, parentTable, nestedType, id string, patch map[string]any) error {
	def, err := nestedByName(parentTable, nestedType)
	if err != nil {
		return err
	}
	return s.patchByID(ctx, def.table, id, patch)
}

func (s *PostgresStore) DeleteNested(ctx context.Context, parentTable, nestedType, id string) error {
	def, err := nestedByName(parentTable, nestedType)
	if err != nil {
		return err
	}
	return s.deleteByID(ctx, def.table, id)
}

func (s *PostgresStore) sectionRowID(ctx context.Context, table string) (string, error) {
	query := fmt.Sprintf(`SELECT id FROM %s WHERE language_code = $1 AND is_active LIMIT 1`, table)
	var id string
	err := s.db.QueryRowContext(ctx, query, "en").Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: no %s row", ErrNotFound, table)
	}
	if err != nil {
		return "", fmt.Errorf("lookup %s row: %w", table, err)
	}
	return id, nil
}

func (s *PostgresStore) insert(ctx context.Context, table string, columns map[string]any) error {
	names := sortedAnyKeys(columns)
	placeholders := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = columns[name]
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		table, strings.Join(names, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

func (s *PostgresStore) patchByID(ctx context.Context, table, id string, patch map[string]any) error {
	columns, err := normalizePatch(patch)
	if err != nil {
		return err
	}
	set, args, err := buildSet(columns, 1)
	if err != nil {
		return err
	}
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE %s SET %s WHERE id = $%d`, table, set, len(args))
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("patch %s: %w", table, err)
	}
	return requireRows(result, id)
}

func (s *PostgresStore) deleteByID(ctx context.Context, table, id string) error {
	result, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, table), id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	return requireRows(result, id)
}

func buildSet(columns map[string]any, firstArg int) (string, []any, error) {
	if len(columns) == 0 {
		return "", nil, ErrEmptyPatch
	}
	names := sortedAnyKeys(columns)
	clauses := make([]string, len(names))
	args := make([]any, len(names))
	for i, name := range names {
		clauses[i] = fmt.Sprintf("%s = $%d", name, firstArg+i)
		args[i] = columns[name]
	}
	return strings.Join(clauses, ", "), args, nil
}

func requireRows(result sql.Result, subject string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, subject)
	}
	return nil
}

// scanRows reads arbitrary rows into camelCase maps. Byte slices become
// strings so the admin panel sees plain JSON values.
func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("row columns: %w", err)
	}

	items := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		item := make(map[string]any, len(columns))
		for i, column := range columns {
			value := values[i]
			if raw, ok := value.([]byte); ok {
				value = string(raw)
			}
			item[SnakeToCamel(column)] = value
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return items, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedAnyKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
