package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/vigicrawl/vigicrawl/internal/model"
)

// Store errors.
var (
	// ErrJobNotFound is returned when a crawl job id is unknown.
	ErrJobNotFound = errors.New("crawl job not found")

	// ErrInvalidTransition is returned when a status update would violate
	// the job state machine, including any attempt to leave a terminal
	// state.
	ErrInvalidTransition = errors.New("invalid job status transition")
)

// Store provides SQLite-backed persistence for the crawl engine.
// It manages a single connection pool; SQLite supports one writer, so the
// pool is sized accordingly.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent reads.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates the store at the specified directory.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "vigicrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{db: db, dbPath: dbPath}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}
	if _, err := db.ExecContext(context.Background(), "PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	-- One audit per unique site origin; resubmission upserts.
	CREATE TABLE IF NOT EXISTS audits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL UNIQUE,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	-- One row per crawl execution attempt; many per audit.
	CREATE TABLE IF NOT EXISTS crawl_jobs (
		id TEXT PRIMARY KEY,
		audit_id INTEGER NOT NULL REFERENCES audits(id),
		status TEXT NOT NULL,
		max_depth INTEGER NOT NULL,
		max_pages INTEGER NOT NULL,
		pages_crawled INTEGER NOT NULL DEFAULT 0,
		pages_discovered INTEGER NOT NULL DEFAULT 0,
		error_message TEXT,
		cancel_requested INTEGER NOT NULL DEFAULT 0,
		latest_page_url TEXT,
		latest_page_title TEXT,
		started_at DATETIME,
		completed_at DATETIME,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_audit ON crawl_jobs(audit_id);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON crawl_jobs(status);

	CREATE TABLE IF NOT EXISTS crawled_pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_job_id TEXT NOT NULL REFERENCES crawl_jobs(id),
		url TEXT NOT NULL,
		normalized_url TEXT NOT NULL,
		title TEXT,
		depth INTEGER NOT NULL,
		http_status INTEGER,
		response_time_ms INTEGER,
		content_type TEXT,
		category TEXT NOT NULL,
		category_confidence REAL NOT NULL,
		has_form INTEGER NOT NULL DEFAULT 0,
		has_table INTEGER NOT NULL DEFAULT 0,
		has_multimedia INTEGER NOT NULL DEFAULT 0,
		has_documents INTEGER NOT NULL DEFAULT 0,
		has_authentication INTEGER NOT NULL DEFAULT 0,
		layout_signature TEXT,
		screenshot_url TEXT,
		selected_for_audit INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(crawl_job_id, normalized_url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_job ON crawled_pages(crawl_job_id);
	CREATE INDEX IF NOT EXISTS idx_pages_category ON crawled_pages(category);

	-- Durable completion markers for workflow steps.
	CREATE TABLE IF NOT EXISTS job_steps (
		crawl_job_id TEXT NOT NULL REFERENCES crawl_jobs(id),
		step_name TEXT NOT NULL,
		completed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (crawl_job_id, step_name)
	);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// UpsertAudit creates or refreshes the audit row for a site origin and
// returns its id. The origin URL is the natural key: resubmitting the same
// origin never duplicates the row.
func (s *Store) UpsertAudit(ctx context.Context, originURL string) (int64, error) {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO audits (url) VALUES (?)
	ON CONFLICT(url) DO NOTHING
	`, originURL)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert audit: %w", err)
	}

	var id int64
	if err := s.db.QueryRowContext(ctx, `SELECT id FROM audits WHERE url = ?`, originURL).Scan(&id); err != nil {
		return 0, fmt.Errorf("failed to read audit id: %w", err)
	}
	return id, nil
}

// GetAudit retrieves an audit by origin URL, or nil when absent.
func (s *Store) GetAudit(ctx context.Context, originURL string) (*model.Audit, error) {
	var audit model.Audit
	var createdAt string
	err := s.db.QueryRowContext(ctx, `
	SELECT id, url, created_at FROM audits WHERE url = ?
	`, originURL).Scan(&audit.ID, &audit.URL, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	audit.CreatedAt = parseTimestamp(createdAt)
	return &audit, nil
}

// CreateJob inserts a new crawl job in its initial state.
func (s *Store) CreateJob(ctx context.Context, job *model.CrawlJob) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO crawl_jobs (id, audit_id, status, max_depth, max_pages)
	VALUES (?, ?, ?, ?, ?)
	`, job.ID, job.AuditID, job.Status.String(), job.MaxDepth, job.MaxPages)
	if err != nil {
		return fmt.Errorf("failed to create crawl job: %w", err)
	}
	return nil
}

// GetJob retrieves a crawl job by id.
func (s *Store) GetJob(ctx context.Context, jobID string) (*model.CrawlJob, error) {
	var (
		job          model.CrawlJob
		status       string
		errorMessage sql.NullString
		latestURL    sql.NullString
		latestTitle  sql.NullString
		cancel       int
		startedAt    sql.NullString
		completedAt  sql.NullString
		createdAt    string
		updatedAt    string
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT id, audit_id, status, max_depth, max_pages, pages_crawled,
	       pages_discovered, error_message, latest_page_url,
	       latest_page_title, cancel_requested,
	       started_at, completed_at, created_at, updated_at
	FROM crawl_jobs WHERE id = ?
	`, jobID).Scan(
		&job.ID, &job.AuditID, &status, &job.MaxDepth, &job.MaxPages,
		&job.PagesCrawled, &job.PagesDiscovered, &errorMessage, &latestURL,
		&latestTitle, &cancel,
		&startedAt, &completedAt, &createdAt, &updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crawl job: %w", err)
	}

	job.Status = model.Status(status)
	job.ErrorMessage = errorMessage.String
	job.LatestPageURL = latestURL.String
	job.LatestPageTitle = latestTitle.String
	job.CancelRequested = cancel != 0
	if startedAt.Valid {
		t := parseTimestamp(startedAt.String)
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := parseTimestamp(completedAt.String)
		job.CompletedAt = &t
	}
	job.CreatedAt = parseTimestamp(createdAt)
	job.UpdatedAt = parseTimestamp(updatedAt)
	return &job, nil
}

// UpdateJobStatus transitions a job to the next status, enforcing the state
// machine. Entering running stamps started_at; entering a terminal state
// stamps completed_at.
func (s *Store) UpdateJobStatus(ctx context.Context, jobID string, next model.Status, errorMessage string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM crawl_jobs WHERE id = ?`, jobID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read job status: %w", err)
	}

	if !model.Status(current).CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, next)
	}

	query := `UPDATE crawl_jobs SET status = ?, error_message = ?, updated_at = CURRENT_TIMESTAMP`
	if next == model.StatusRunning {
		query += `, started_at = CURRENT_TIMESTAMP`
	}
	if next.IsTerminal() {
		query += `, completed_at = CURRENT_TIMESTAMP`
	}
	query += ` WHERE id = ?`

	if _, err := tx.ExecContext(ctx, query, next.String(), errorMessage, jobID); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return tx.Commit()
}

// UpdateJobProgress writes the progress counters and the page currently
// being processed. Counters are last-write-wins; pollers only need eventual
// consistency.
func (s *Store) UpdateJobProgress(ctx context.Context, jobID string, crawled, discovered int, currentURL, currentTitle string) error {
	_, err := s.db.ExecContext(ctx, `
	UPDATE crawl_jobs
	SET pages_crawled = ?, pages_discovered = ?,
	    latest_page_url = ?, latest_page_title = ?,
	    updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, crawled, discovered, currentURL, currentTitle, jobID)
	if err != nil {
		return fmt.Errorf("failed to update job progress: %w", err)
	}
	return nil
}

// RequestCancel marks a job cancelled. The request is advisory: it prevents
// the job from being treated as active and is observed cooperatively by the
// scheduler between page attempts, but it does not interrupt an in-flight
// fetch. Cancelling a terminal job returns ErrInvalidTransition.
func (s *Store) RequestCancel(ctx context.Context, jobID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	var current string
	err = tx.QueryRowContext(ctx, `SELECT status FROM crawl_jobs WHERE id = ?`, jobID).Scan(&current)
	if err == sql.ErrNoRows {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to read job status: %w", err)
	}
	if !model.Status(current).CanTransitionTo(model.StatusCancelled) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current, model.StatusCancelled)
	}

	_, err = tx.ExecContext(ctx, `
	UPDATE crawl_jobs
	SET status = ?, cancel_requested = 1,
	    completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
	WHERE id = ?
	`, model.StatusCancelled.String(), jobID)
	if err != nil {
		return fmt.Errorf("failed to cancel job: %w", err)
	}
	return tx.Commit()
}

// CancelRequested reports whether an advisory cancel exists for the job.
// Unknown jobs report false; the caller handles missing jobs elsewhere.
func (s *Store) CancelRequested(ctx context.Context, jobID string) bool {
	var cancel int
	err := s.db.QueryRowContext(ctx, `
	SELECT cancel_requested FROM crawl_jobs WHERE id = ?
	`, jobID).Scan(&cancel)
	return err == nil && cancel != 0
}

// InsertPages bulk-inserts the pages of a finished crawl in one transaction,
// assigning ids and the owning job in place. Discovery order is preserved
// through insertion order.
//
// Idempotent per job: any rows a previous attempt committed before crashing
// (its completion marker never written) are replaced, so a resumed job can
// re-save without tripping the normalized-URL uniqueness constraint.
func (s *Store) InsertPages(ctx context.Context, jobID string, pages []*model.CrawledPage) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx, `DELETE FROM crawled_pages WHERE crawl_job_id = ?`, jobID); err != nil {
		return fmt.Errorf("failed to clear pages of earlier attempt: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO crawled_pages (
		crawl_job_id, url, normalized_url, title, depth,
		http_status, response_time_ms, content_type,
		category, category_confidence,
		has_form, has_table, has_multimedia, has_documents, has_authentication,
		layout_signature, screenshot_url, selected_for_audit
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, page := range pages {
		page.CrawlJobID = jobID
		res, err := stmt.ExecContext(ctx,
			jobID, page.URL, page.NormalizedURL, page.Title, page.Depth,
			page.HTTPStatus, page.ResponseTime.Milliseconds(), page.ContentType,
			page.Category.String(), page.CategoryConfidence,
			boolToInt(page.Characteristics.HasForm),
			boolToInt(page.Characteristics.HasTable),
			boolToInt(page.Characteristics.HasMultimedia),
			boolToInt(page.Characteristics.HasDocuments),
			boolToInt(page.Characteristics.HasAuthentication),
			page.Characteristics.LayoutSignature,
			page.ScreenshotURL,
			boolToInt(page.SelectedForAudit),
		)
		if err != nil {
			return fmt.Errorf("failed to insert page %s: %w", page.URL, err)
		}
		if page.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("failed to read page id: %w", err)
		}
	}

	return tx.Commit()
}

// PagesForJob returns a job's pages in discovery (insertion) order.
func (s *Store) PagesForJob(ctx context.Context, jobID string) ([]*model.CrawledPage, error) {
	rows, err := s.db.QueryContext(ctx, pageSelect+`
	WHERE crawl_job_id = ? ORDER BY id
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query pages: %w", err)
	}
	defer rows.Close()

	var pages []*model.CrawledPage
	for rows.Next() {
		page, err := scanPage(rows)
		if err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

// LatestPage returns the most recently inserted page of a job, or nil when
// the job has no pages yet.
func (s *Store) LatestPage(ctx context.Context, jobID string) (*model.CrawledPage, error) {
	rows, err := s.db.QueryContext(ctx, pageSelect+`
	WHERE crawl_job_id = ? ORDER BY id DESC LIMIT 1
	`, jobID)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest page: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	return scanPage(rows)
}

// CountPages returns the number of pages persisted for a job.
func (s *Store) CountPages(ctx context.Context, jobID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM crawled_pages WHERE crawl_job_id = ?
	`, jobID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// MarkSelected flags the given pages as selected for audit.
// The selector computes the set; this writes it in one statement.
func (s *Store) MarkSelected(ctx context.Context, pageIDs []int64) error {
	if len(pageIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(pageIDs)), ",")
	args := make([]interface{}, len(pageIDs))
	for i, id := range pageIDs {
		args[i] = id
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE crawled_pages SET selected_for_audit = 1 WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to mark selected pages: %w", err)
	}
	return nil
}

// MarkStepDone records a durable completion marker for a workflow step.
// Idempotent: re-marking a completed step is a no-op.
func (s *Store) MarkStepDone(ctx context.Context, jobID, stepName string) error {
	_, err := s.db.ExecContext(ctx, `
	INSERT OR IGNORE INTO job_steps (crawl_job_id, step_name) VALUES (?, ?)
	`, jobID, stepName)
	if err != nil {
		return fmt.Errorf("failed to mark step done: %w", err)
	}
	return nil
}

// StepDone reports whether a step's completion marker exists.
func (s *Store) StepDone(ctx context.Context, jobID, stepName string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
	SELECT COUNT(*) FROM job_steps WHERE crawl_job_id = ? AND step_name = ?
	`, jobID, stepName).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check step marker: %w", err)
	}
	return count > 0, nil
}

// EraseAll destroys every crawled page, step marker, job and audit in one
// transaction. Irreversible; screenshot blobs are the caller's concern.
func (s *Store) EraseAll(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	for _, table := range []string{"crawled_pages", "job_steps", "crawl_jobs", "audits"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to erase %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// Counts returns the row counts of the three principal tables.
func (s *Store) Counts(ctx context.Context) (audits, jobs, pages int64, err error) {
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM audits`).Scan(&audits); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count audits: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crawl_jobs`).Scan(&jobs); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count jobs: %w", err)
	}
	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM crawled_pages`).Scan(&pages); err != nil {
		return 0, 0, 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return audits, jobs, pages, nil
}

// pageSelect is the shared column list for page queries.
const pageSelect = `
	SELECT id, crawl_job_id, url, normalized_url, title, depth,
	       http_status, response_time_ms, content_type,
	       category, category_confidence,
	       has_form, has_table, has_multimedia, has_documents, has_authentication,
	       layout_signature, screenshot_url, selected_for_audit, created_at
	FROM crawled_pages
`

// scanPage reads one page row.
func scanPage(rows *sql.Rows) (*model.CrawledPage, error) {
	var (
		page           model.CrawledPage
		title          sql.NullString
		httpStatus     sql.NullInt64
		responseTimeMs sql.NullInt64
		contentType    sql.NullString
		category       string
		hasForm        int
		hasTable       int
		hasMultimedia  int
		hasDocuments   int
		hasAuth        int
		layoutSig      sql.NullString
		screenshotURL  sql.NullString
		selected       int
		createdAt      string
	)
	err := rows.Scan(
		&page.ID, &page.CrawlJobID, &page.URL, &page.NormalizedURL, &title, &page.Depth,
		&httpStatus, &responseTimeMs, &contentType,
		&category, &page.CategoryConfidence,
		&hasForm, &hasTable, &hasMultimedia, &hasDocuments, &hasAuth,
		&layoutSig, &screenshotURL, &selected, &createdAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan page: %w", err)
	}

	page.Title = title.String
	page.HTTPStatus = int(httpStatus.Int64)
	page.ResponseTime = time.Duration(responseTimeMs.Int64) * time.Millisecond
	page.ContentType = contentType.String
	page.Category = model.Category(category)
	page.Characteristics = model.Characteristics{
		HasForm:           hasForm != 0,
		HasTable:          hasTable != 0,
		HasMultimedia:     hasMultimedia != 0,
		HasDocuments:      hasDocuments != 0,
		HasAuthentication: hasAuth != 0,
		LayoutSignature:   layoutSig.String,
	}
	page.ScreenshotURL = screenshotURL.String
	page.SelectedForAudit = selected != 0
	page.CreatedAt = parseTimestamp(createdAt)
	return &page, nil
}

// boolToInt converts a bool to its SQLite representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999",
}

// parseTimestamp attempts to parse a timestamp string using multiple
// formats. SQLite may return timestamps in different formats depending on
// configuration; unparsable input yields the zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
