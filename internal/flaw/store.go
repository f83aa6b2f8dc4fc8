package flaw

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/d10n/osidb/internal/database"
)

// Store provides persistence for flaws
type Store interface {
	// Save persists a flaw, inserting or overwriting by UUID
	Save(ctx context.Context, f *Flaw) error

	// Get retrieves a flaw by UUID
	Get(ctx context.Context, id uuid.UUID) (*Flaw, error)

	// GetByCVE retrieves a flaw by its CVE identifier
	GetByCVE(ctx context.Context, cveID string) (*Flaw, error)

	// List retrieves flaws with optional filtering, newest first
	List(ctx context.Context, filter *Filter) ([]*Flaw, error)

	// Delete removes a flaw
	Delete(ctx context.Context, id uuid.UUID) error

	// Count returns the total number of stored flaws
	Count(ctx context.Context) (int, error)
}

// Filter provides filtering options for flaw queries
type Filter struct {
	Impact       *Impact
	WorkflowName *string
	StateName    *string
	Embargoed    *bool
	MissingNVD   bool
	SearchText   *string
	Limit        int
}

// NewFilter creates a new empty filter
func NewFilter() *Filter {
	return &Filter{}
}

// WithImpact filters by aggregate impact
func (f *Filter) WithImpact(impact Impact) *Filter {
	f.Impact = &impact
	return f
}

// WithClassification filters by stored workflow and state
func (f *Filter) WithClassification(workflowName, stateName string) *Filter {
	f.WorkflowName = &workflowName
	f.StateName = &stateName
	return f
}

// WithEmbargoed filters by embargo status
func (f *Filter) WithEmbargoed(embargoed bool) *Filter {
	f.Embargoed = &embargoed
	return f
}

// WithMissingNVD selects flaws carrying a CVE but no NVD CVSSv3 score yet
func (f *Filter) WithMissingNVD() *Filter {
	f.MissingNVD = true
	return f
}

// WithLimit caps the number of returned flaws
func (f *Filter) WithLimit(limit int) *Filter {
	f.Limit = limit
	return f
}

// DBStore implements Store using the SQLite database with tracing
type DBStore struct {
	db     *database.DB
	tracer trace.Tracer
}

// StoreOption is a functional option for configuring DBStore
type StoreOption func(*DBStore)

// WithTracer sets the OpenTelemetry tracer for the store
func WithTracer(tracer trace.Tracer) StoreOption {
	return func(s *DBStore) {
		s.tracer = tracer
	}
}

// NewDBStore creates a new database-backed flaw store
func NewDBStore(db *database.DB, opts ...StoreOption) *DBStore {
	store := &DBStore{
		db:     db,
		tracer: trace.NewNoopTracerProvider().Tracer("flaw-store"),
	}

	for _, opt := range opts {
		opt(store)
	}

	return store
}

const flawColumns = `
	uuid, cve_id, cwe_id, type, impact, component, title, description,
	summary, statement, mitigation, source,
	cvss2, cvss2_score, cvss3, cvss3_score, nvd_cvss2, nvd_cvss3,
	is_major_incident, embargoed,
	affects, cvss_scores, package_versions,
	workflow_name, state_name,
	created_dt, updated_dt, reported_dt, unembargo_dt
`

// Save persists a flaw, inserting or overwriting by UUID
func (s *DBStore) Save(ctx context.Context, f *Flaw) error {
	ctx, span := s.tracer.Start(ctx, "DBStore.Save")
	defer span.End()

	if f.UUID == uuid.Nil {
		return NewInvalidFlawError("flaw has no UUID")
	}
	f.UpdatedDt = time.Now().UTC()

	affectsJSON, err := json.Marshal(f.Affects)
	if err != nil {
		return NewStoreError("save", fmt.Errorf("failed to marshal affects: %w", err))
	}
	cvssScoresJSON, err := json.Marshal(f.CVSSScores)
	if err != nil {
		return NewStoreError("save", fmt.Errorf("failed to marshal cvss_scores: %w", err))
	}
	packagesJSON, err := json.Marshal(f.PackageVersions)
	if err != nil {
		return NewStoreError("save", fmt.Errorf("failed to marshal package_versions: %w", err))
	}

	query := `
		INSERT INTO flaws (` + flawColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(uuid) DO UPDATE SET
			cve_id = excluded.cve_id,
			cwe_id = excluded.cwe_id,
			type = excluded.type,
			impact = excluded.impact,
			component = excluded.component,
			title = excluded.title,
			description = excluded.description,
			summary = excluded.summary,
			statement = excluded.statement,
			mitigation = excluded.mitigation,
			source = excluded.source,
			cvss2 = excluded.cvss2,
			cvss2_score = excluded.cvss2_score,
			cvss3 = excluded.cvss3,
			cvss3_score = excluded.cvss3_score,
			nvd_cvss2 = excluded.nvd_cvss2,
			nvd_cvss3 = excluded.nvd_cvss3,
			is_major_incident = excluded.is_major_incident,
			embargoed = excluded.embargoed,
			affects = excluded.affects,
			cvss_scores = excluded.cvss_scores,
			package_versions = excluded.package_versions,
			workflow_name = excluded.workflow_name,
			state_name = excluded.state_name,
			updated_dt = excluded.updated_dt,
			reported_dt = excluded.reported_dt,
			unembargo_dt = excluded.unembargo_dt
	`

	_, err = s.db.ExecContext(ctx, query,
		f.UUID.String(),
		f.CVEID,
		f.CWEID,
		string(f.Type),
		string(f.Impact),
		f.Component,
		f.Title,
		f.Description,
		f.Summary,
		f.Statement,
		f.Mitigation,
		f.Source,
		f.CVSS2,
		f.CVSS2Score,
		f.CVSS3,
		f.CVSS3Score,
		f.NvdCVSS2,
		f.NvdCVSS3,
		f.IsMajorIncident,
		f.Embargoed,
		string(affectsJSON),
		string(cvssScoresJSON),
		string(packagesJSON),
		f.WorkflowName,
		f.StateName,
		nullableTime(f.CreatedDt),
		nullableTime(f.UpdatedDt),
		nullableTime(f.ReportedDt),
		nullableTime(f.UnembargoDt),
	)
	if err != nil {
		return NewStoreError("save", err)
	}

	return nil
}

// Get retrieves a flaw by UUID
func (s *DBStore) Get(ctx context.Context, id uuid.UUID) (*Flaw, error) {
	ctx, span := s.tracer.Start(ctx, "DBStore.Get")
	defer span.End()

	query := "SELECT " + flawColumns + " FROM flaws WHERE uuid = ?"
	row := s.db.QueryRowContext(ctx, query, id.String())

	f, err := scanFlaw(row)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError(id.String())
	}
	if err != nil {
		return nil, NewStoreError("get", err)
	}
	return f, nil
}

// GetByCVE retrieves a flaw by its CVE identifier
func (s *DBStore) GetByCVE(ctx context.Context, cveID string) (*Flaw, error) {
	ctx, span := s.tracer.Start(ctx, "DBStore.GetByCVE")
	defer span.End()

	query := "SELECT " + flawColumns + " FROM flaws WHERE cve_id = ?"
	row := s.db.QueryRowContext(ctx, query, cveID)

	f, err := scanFlaw(row)
	if err == sql.ErrNoRows {
		return nil, NewNotFoundError(cveID)
	}
	if err != nil {
		return nil, NewStoreError("get_by_cve", err)
	}
	return f, nil
}

// List retrieves flaws with optional filtering, newest first
func (s *DBStore) List(ctx context.Context, filter *Filter) ([]*Flaw, error) {
	ctx, span := s.tracer.Start(ctx, "DBStore.List")
	defer span.End()

	var conditions []string
	var args []any

	if filter != nil {
		if filter.Impact != nil {
			conditions = append(conditions, "impact = ?")
			args = append(args, string(*filter.Impact))
		}
		if filter.WorkflowName != nil {
			conditions = append(conditions, "workflow_name = ?")
			args = append(args, *filter.WorkflowName)
		}
		if filter.StateName != nil {
			conditions = append(conditions, "state_name = ?")
			args = append(args, *filter.StateName)
		}
		if filter.Embargoed != nil {
			conditions = append(conditions, "embargoed = ?")
			args = append(args, *filter.Embargoed)
		}
		if filter.MissingNVD {
			conditions = append(conditions, "cve_id != '' AND (nvd_cvss3 IS NULL OR nvd_cvss3 = '')")
		}
		if filter.SearchText != nil {
			conditions = append(conditions, "(title LIKE ? OR description LIKE ?)")
			pattern := "%" + *filter.SearchText + "%"
			args = append(args, pattern, pattern)
		}
	}

	query := "SELECT " + flawColumns + " FROM flaws"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY updated_dt DESC"
	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, NewStoreError("list", err)
	}
	defer rows.Close()

	return scanFlaws(rows)
}

// Delete removes a flaw
func (s *DBStore) Delete(ctx context.Context, id uuid.UUID) error {
	ctx, span := s.tracer.Start(ctx, "DBStore.Delete")
	defer span.End()

	result, err := s.db.ExecContext(ctx, "DELETE FROM flaws WHERE uuid = ?", id.String())
	if err != nil {
		return NewStoreError("delete", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return NewStoreError("delete", err)
	}
	if affected == 0 {
		return NewNotFoundError(id.String())
	}
	return nil
}

// Count returns the total number of stored flaws
func (s *DBStore) Count(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM flaws").Scan(&count)
	if err != nil {
		return 0, NewStoreError("count", err)
	}
	return count, nil
}

// scanFlaw scans a single database row into a Flaw
func scanFlaw(scanner interface {
	Scan(dest ...any) error
}) (*Flaw, error) {
	var f Flaw
	var (
		uuidStr        string
		flawType       string
		impact         string
		affectsJSON    sql.NullString
		cvssScoresJSON sql.NullString
		packagesJSON   sql.NullString
		createdDt      sql.NullTime
		updatedDt      sql.NullTime
		reportedDt     sql.NullTime
		unembargoDt    sql.NullTime
	)

	err := scanner.Scan(
		&uuidStr,
		&f.CVEID,
		&f.CWEID,
		&flawType,
		&impact,
		&f.Component,
		&f.Title,
		&f.Description,
		&f.Summary,
		&f.Statement,
		&f.Mitigation,
		&f.Source,
		&f.CVSS2,
		&f.CVSS2Score,
		&f.CVSS3,
		&f.CVSS3Score,
		&f.NvdCVSS2,
		&f.NvdCVSS3,
		&f.IsMajorIncident,
		&f.Embargoed,
		&affectsJSON,
		&cvssScoresJSON,
		&packagesJSON,
		&f.WorkflowName,
		&f.StateName,
		&createdDt,
		&updatedDt,
		&reportedDt,
		&unembargoDt,
	)
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(uuidStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse flaw UUID: %w", err)
	}
	f.UUID = id
	f.Type = FlawType(flawType)
	f.Impact = Impact(impact)

	if affectsJSON.Valid && affectsJSON.String != "" {
		if err := json.Unmarshal([]byte(affectsJSON.String), &f.Affects); err != nil {
			return nil, fmt.Errorf("failed to unmarshal affects: %w", err)
		}
	}
	if cvssScoresJSON.Valid && cvssScoresJSON.String != "" {
		if err := json.Unmarshal([]byte(cvssScoresJSON.String), &f.CVSSScores); err != nil {
			return nil, fmt.Errorf("failed to unmarshal cvss_scores: %w", err)
		}
	}
	if packagesJSON.Valid && packagesJSON.String != "" {
		if err := json.Unmarshal([]byte(packagesJSON.String), &f.PackageVersions); err != nil {
			return nil, fmt.Errorf("failed to unmarshal package_versions: %w", err)
		}
	}

	if createdDt.Valid {
		f.CreatedDt = createdDt.Time
	}
	if updatedDt.Valid {
		f.UpdatedDt = updatedDt.Time
	}
	if reportedDt.Valid {
		f.ReportedDt = reportedDt.Time
	}
	if unembargoDt.Valid {
		f.UnembargoDt = unembargoDt.Time
	}

	return &f, nil
}

// scanFlaws scans SQL rows into Flaw structs
func scanFlaws(rows *sql.Rows) ([]*Flaw, error) {
	flaws := make([]*Flaw, 0)

	for rows.Next() {
		f, err := scanFlaw(rows)
		if err != nil {
			return nil, NewStoreError("scan", err)
		}
		flaws = append(flaws, f)
	}

	if err := rows.Err(); err != nil {
		return nil, NewStoreError("scan", err)
	}

	return flaws, nil
}

// nullableTime maps the zero time to NULL
func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

// Ensure DBStore implements Store at compile time
var _ Store = (*DBStore)(nil)
