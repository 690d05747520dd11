// Package store persists named snapshots of the forecast grid ("versions")
// in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/rgehrsitz/whatif/internal/domain"
	"github.com/rgehrsitz/whatif/internal/logging"
	"github.com/shopspring/decimal"

	_ "modernc.org/sqlite" // register sqlite driver
)

// ErrNotFound is returned when a version ID does not exist.
var ErrNotFound = errors.New("version not found")

// ErrYearMismatch is returned when activating a version for a year it was not
// saved under.
var ErrYearMismatch = errors.New("version year mismatch")

// timeLayout sorts lexically in creation order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// insertBatch bounds the rows per INSERT to stay under SQLite's variable limit.
const insertBatch = 500

var psql = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

// Version describes one saved grid snapshot.
type Version struct {
	ID          string    `json:"id"`
	Year        int       `json:"year"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	CellCount   int       `json:"cell_count"`
}

// AccountDiff compares one account's total forecast across two versions.
type AccountDiff struct {
	AccountCode     string          `json:"account_code"`
	From            decimal.Decimal `json:"from"`
	To              decimal.Decimal `json:"to"`
	Variance        decimal.Decimal `json:"variance"`
	VariancePercent decimal.Decimal `json:"variance_percent"`
}

// VersionDiff is the per-account comparison of two versions.
type VersionDiff struct {
	From      Version         `json:"from"`
	To        Version         `json:"to"`
	Accounts  []AccountDiff   `json:"accounts"`
	FromTotal decimal.Decimal `json:"from_total"`
	ToTotal   decimal.Decimal `json:"to_total"`
	Variance  decimal.Decimal `json:"variance"`
}

// VersionStore reads and writes versions.
type VersionStore struct {
	db     *sql.DB
	Logger logging.Logger
	Actor  string
	now    func() time.Time
}

// Open opens or creates the version database at dbPath.
func Open(dbPath string) (*VersionStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("open store db: %w", err)
	}

	s := New(db)
	if err := s.Migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database without creating the schema.
func New(db *sql.DB) *VersionStore {
	return &VersionStore{db: db, Logger: logging.NopLogger{}, now: time.Now}
}

// Migrate creates the schema when missing.
func (s *VersionStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *VersionStore) Close() error {
	return s.db.Close()
}

// SetLogger replaces the store logger; nil installs a no-op logger.
func (s *VersionStore) SetLogger(l logging.Logger) {
	s.Logger = logging.OrNop(l)
}

// SaveVersion stores cells as a new inactive version and returns its ID.
func (s *VersionStore) SaveVersion(ctx context.Context, year int, name, description string, cells []domain.ForecastCell) (string, error) {
	if name == "" {
		return "", fmt.Errorf("save version: name is required")
	}
	if year <= 0 {
		return "", fmt.Errorf("save version: year is required")
	}

	id := uuid.NewString()
	created := s.now().UTC().Format(timeLayout)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("save version: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query, args, err := psql.Insert("versions").
		Columns("id", "year", "name", "description", "is_active", "created_by", "created_at").
		Values(id, year, name, description, 0, s.Actor, created).
		ToSql()
	if err != nil {
		return "", fmt.Errorf("save version: build insert: %w", err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return "", fmt.Errorf("save version: insert version: %w", err)
	}

	for start := 0; start < len(cells); start += insertBatch {
		end := min(start+insertBatch, len(cells))
		ins := psql.Insert("version_cells").
			Columns("version_id", "account_code", "year", "month", "forecast", "actual")
		for _, c := range cells[start:end] {
			actual := decimal.NullDecimal{}
			if c.Actual != nil {
				actual = decimal.NewNullDecimal(*c.Actual)
			}
			ins = ins.Values(id, c.AccountCode, c.Period.Year, int(c.Period.Month), c.Forecast, actual)
		}
		query, args, err := ins.ToSql()
		if err != nil {
			return "", fmt.Errorf("save version: build cell insert: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return "", fmt.Errorf("save version: insert cells: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("save version: commit: %w", err)
	}

	logging.OrNop(s.Logger).Debugf("saved version %s (%s) with %d cells", id, name, len(cells))
	return id, nil
}

func versionSelect() squirrel.SelectBuilder {
	return psql.Select(
		"v.id", "v.year", "v.name", "v.description", "v.is_active",
		"v.created_by", "v.created_at", "COUNT(c.account_code)",
	).
		From("versions v").
		LeftJoin("version_cells c ON c.version_id = v.id").
		GroupBy("v.id", "v.year", "v.name", "v.description", "v.is_active", "v.created_by", "v.created_at")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVersion(row rowScanner) (Version, error) {
	var (
		v       Version
		active  int64
		created string
	)
	if err := row.Scan(&v.ID, &v.Year, &v.Name, &v.Description, &active, &v.CreatedBy, &created, &v.CellCount); err != nil {
		return Version{}, err
	}
	v.IsActive = active != 0
	t, err := time.Parse(timeLayout, created)
	if err != nil {
		return Version{}, fmt.Errorf("version %s: bad created_at %q: %w", v.ID, created, err)
	}
	v.CreatedAt = t
	return v, nil
}

// ListVersions returns versions newest first. Year 0 lists every year.
func (s *VersionStore) ListVersions(ctx context.Context, year int) ([]Version, error) {
	q := versionSelect().OrderBy("v.created_at DESC", "v.id")
	if year != 0 {
		q = q.Where(squirrel.Eq{"v.year": year})
	}
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("list versions: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Version
	for rows.Next() {
		v, err := scanVersion(rows)
		if err != nil {
			return nil, fmt.Errorf("list versions: scan: %w", err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	return out, nil
}

// GetVersion returns the version metadata for id.
func (s *VersionStore) GetVersion(ctx context.Context, id string) (Version, error) {
	query, args, err := versionSelect().Where(squirrel.Eq{"v.id": id}).ToSql()
	if err != nil {
		return Version{}, fmt.Errorf("get version: build query: %w", err)
	}

	v, err := scanVersion(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("get version %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("get version %s: %w", id, err)
	}
	return v, nil
}

// GetVersionCells returns the snapshot cells of id ordered by account and
// month.
func (s *VersionStore) GetVersionCells(ctx context.Context, id string) ([]domain.ForecastCell, error) {
	if _, err := s.GetVersion(ctx, id); err != nil {
		return nil, err
	}

	query, args, err := psql.Select("account_code", "year", "month", "forecast", "actual").
		From("version_cells").
		Where(squirrel.Eq{"version_id": id}).
		OrderBy("account_code", "year", "month").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("get version cells: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get version cells: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var cells []domain.ForecastCell
	for rows.Next() {
		var (
			c      domain.ForecastCell
			month  int
			actual decimal.NullDecimal
		)
		if err := rows.Scan(&c.AccountCode, &c.Period.Year, &month, &c.Forecast, &actual); err != nil {
			return nil, fmt.Errorf("get version cells: scan: %w", err)
		}
		c.Period.Month = domain.Month(month)
		if actual.Valid {
			a := actual.Decimal
			c.Actual = &a
		}
		cells = append(cells, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("get version cells: %w", err)
	}
	return cells, nil
}

// SetActive marks id as the active version of year and clears the flag on
// every other version of that year. Year 0 uses the version's own year.
func (s *VersionStore) SetActive(ctx context.Context, id string, year int) error {
	v, err := s.GetVersion(ctx, id)
	if err != nil {
		return err
	}
	if year == 0 {
		year = v.Year
	}
	if v.Year != year {
		return fmt.Errorf("set active: version %s belongs to %d, not %d: %w", id, v.Year, year, ErrYearMismatch)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set active: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	clearQuery, clearArgs, err := psql.Update("versions").
		Set("is_active", 0).
		Where(squirrel.Eq{"year": year}).
		ToSql()
	if err != nil {
		return fmt.Errorf("set active: build clear: %w", err)
	}
	if _, err := tx.ExecContext(ctx, clearQuery, clearArgs...); err != nil {
		return fmt.Errorf("set active: clear: %w", err)
	}

	mark, markArgs, err := psql.Update("versions").
		Set("is_active", 1).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("set active: build mark: %w", err)
	}
	if _, err := tx.ExecContext(ctx, mark, markArgs...); err != nil {
		return fmt.Errorf("set active: mark: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set active: commit: %w", err)
	}
	logging.OrNop(s.Logger).Infof("version %s is now active for %d", id, year)
	return nil
}

// ActiveVersion returns the active version of year.
func (s *VersionStore) ActiveVersion(ctx context.Context, year int) (Version, error) {
	query, args, err := versionSelect().
		Where(squirrel.Eq{"v.year": year, "v.is_active": 1}).
		ToSql()
	if err != nil {
		return Version{}, fmt.Errorf("active version: build query: %w", err)
	}

	v, err := scanVersion(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return Version{}, fmt.Errorf("active version for %d: %w", year, ErrNotFound)
	}
	if err != nil {
		return Version{}, fmt.Errorf("active version for %d: %w", year, err)
	}
	return v, nil
}

// DeleteVersion removes a version and its cells.
func (s *VersionStore) DeleteVersion(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete version: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	cellsQuery, cellsArgs, err := psql.Delete("version_cells").Where(squirrel.Eq{"version_id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("delete version: build query: %w", err)
	}
	if _, err := tx.ExecContext(ctx, cellsQuery, cellsArgs...); err != nil {
		return fmt.Errorf("delete version cells: %w", err)
	}

	query, args, err := psql.Delete("versions").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("delete version: build query: %w", err)
	}
	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete version: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete version %s: %w", id, ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete version: commit: %w", err)
	}
	return nil
}

// Diff totals every account's forecast in both versions and reports the
// variance from fromID to toID. Accounts present in only one version count
// as zero in the other.
func (s *VersionStore) Diff(ctx context.Context, fromID, toID string) (*VersionDiff, error) {
	from, err := s.GetVersion(ctx, fromID)
	if err != nil {
		return nil, err
	}
	to, err := s.GetVersion(ctx, toID)
	if err != nil {
		return nil, err
	}

	fromTotals, err := s.accountTotals(ctx, fromID)
	if err != nil {
		return nil, err
	}
	toTotals, err := s.accountTotals(ctx, toID)
	if err != nil {
		return nil, err
	}

	codes := make(map[string]bool, len(fromTotals)+len(toTotals))
	for code := range fromTotals {
		codes[code] = true
	}
	for code := range toTotals {
		codes[code] = true
	}
	sorted := make([]string, 0, len(codes))
	for code := range codes {
		sorted = append(sorted, code)
	}
	sort.Strings(sorted)

	diff := &VersionDiff{From: from, To: to, FromTotal: decimal.Zero, ToTotal: decimal.Zero}
	for _, code := range sorted {
		a, b := fromTotals[code], toTotals[code]
		diff.Accounts = append(diff.Accounts, AccountDiff{
			AccountCode:     code,
			From:            a,
			To:              b,
			Variance:        b.Sub(a),
			VariancePercent: variancePercent(a, b),
		})
		diff.FromTotal = diff.FromTotal.Add(a)
		diff.ToTotal = diff.ToTotal.Add(b)
	}
	diff.Variance = diff.ToTotal.Sub(diff.FromTotal)
	return diff, nil
}

func (s *VersionStore) accountTotals(ctx context.Context, id string) (map[string]decimal.Decimal, error) {
	query, args, err := psql.Select("account_code", "forecast").
		From("version_cells").
		Where(squirrel.Eq{"version_id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("account totals: build query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	// Summed in Go: SQLite SUM over TEXT would round through float64.
	totals := make(map[string]decimal.Decimal)
	for rows.Next() {
		var (
			code   string
			amount decimal.Decimal
		)
		if err := rows.Scan(&code, &amount); err != nil {
			return nil, fmt.Errorf("account totals: scan: %w", err)
		}
		totals[code] = totals[code].Add(amount)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("account totals: %w", err)
	}
	return totals, nil
}

func variancePercent(from, to decimal.Decimal) decimal.Decimal {
	if from.IsZero() {
		return decimal.Zero
	}
	return to.Sub(from).Div(from.Abs()).Mul(decimal.NewFromInt(100)).Round(2)
}
