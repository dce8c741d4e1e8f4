package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

const runColumns = `id, sequence, file_name, file_size, stage, material_count, materials, csv_path, error_kind, error_message, created_at, updated_at, deleted_at`

// RunRepository implements [models.Repository] for workflow [models.Run] history.
type RunRepository struct {
	db *sql.DB
}

var _ models.Repository[*models.Run] = (*RunRepository)(nil)

// NewRunRepository creates a new [RunRepository] with the given database connection
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create inserts a new run with generated ID and sequence
func (r *RunRepository) Create(run *models.Run) error {
	sequence, err := NextSequence(r.db, "runs")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	run.SetID(shared.GenerateID())
	run.SetSequence(sequence)

	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	materials, err := encodeMaterials(run.Materials)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO runs (id, sequence, file_name, file_size, stage, material_count, materials, csv_path, error_kind, error_message, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		run.ID(), sequence, run.FileName, run.FileSize, string(run.Stage), len(run.Materials), materials,
		nullString(run.CSVPath), nullString(run.ErrorKind), nullString(run.ErrorMessage),
		run.CreatedAt(), run.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	return nil
}

// Get retrieves a run by ID, excluding soft-deleted runs
func (r *RunRepository) Get(id string) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", shared.ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// GetBySequence retrieves a run by its sequence number
func (r *RunRepository) GetBySequence(sequence int) (*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE sequence = ? AND deleted_at IS NULL`

	run, err := scanRun(r.db.QueryRow(query, sequence))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: #%d", shared.ErrRunNotFound, sequence)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query run: %w", err)
	}

	return run, nil
}

// Update writes every mutable field of run
func (r *RunRepository) Update(run *models.Run) error {
	if err := run.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	materials, err := encodeMaterials(run.Materials)
	if err != nil {
		return err
	}

	now := time.Now()
	run.SetUpdatedAt(now)

	query := `
		UPDATE runs
		SET stage = ?, material_count = ?, materials = ?, csv_path = ?, error_kind = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	return r.exec("update", run.ID(), query,
		string(run.Stage), len(run.Materials), materials,
		nullString(run.CSVPath), nullString(run.ErrorKind), nullString(run.ErrorMessage),
		now, run.ID(),
	)
}

// MarkProcessed stores the extracted materials and clears any previous error
func (r *RunRepository) MarkProcessed(id string, materials models.MaterialList) error {
	encoded, err := encodeMaterials(materials)
	if err != nil {
		return err
	}

	query := `
		UPDATE runs
		SET stage = ?, material_count = ?, materials = ?, error_kind = NULL, error_message = NULL, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.exec("mark processed", id, query, string(models.RunProcessed), len(materials), encoded, time.Now(), id)
}

// MarkDownloaded records where the CSV export was saved
func (r *RunRepository) MarkDownloaded(id, csvPath string) error {
	query := `
		UPDATE runs
		SET stage = ?, csv_path = ?, error_kind = NULL, error_message = NULL, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.exec("mark downloaded", id, query, string(models.RunDownloaded), csvPath, time.Now(), id)
}

// MarkFailed moves the run to the failed stage with the error that ended it
func (r *RunRepository) MarkFailed(id, kind, message string) error {
	query := `
		UPDATE runs
		SET stage = ?, error_kind = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.exec("mark failed", id, query, string(models.RunFailed), kind, message, time.Now(), id)
}

// SetError records an error without changing the stage (a failed download keeps the extracted materials)
func (r *RunRepository) SetError(id, kind, message string) error {
	query := `
		UPDATE runs
		SET error_kind = ?, error_message = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.exec("set error", id, query, kind, message, time.Now(), id)
}

// Delete soft-deletes a run by ID
func (r *RunRepository) Delete(id string) error {
	query := `
		UPDATE runs
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`
	return r.exec("delete", id, query, time.Now(), id)
}

// List retrieves runs newest first, excluding soft-deleted runs.
//
// Supported criteria: "stage" (string) and "limit" (int).
func (r *RunRepository) List(criteria map[string]any) ([]*models.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE deleted_at IS NULL`
	args := []any{}

	if stage, ok := criteria["stage"].(string); ok && stage != "" {
		query += " AND stage = ?"
		args = append(args, stage)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return runs, nil
}

func (r *RunRepository) exec(op, id, query string, args ...any) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s run: %w", op, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w or already deleted: %s", shared.ErrRunNotFound, id)
	}

	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.Run, error) {
	var (
		id            string
		sequence      int
		fileName      string
		fileSize      int64
		stage         string
		materialCount int
		materials     sql.NullString
		csvPath       sql.NullString
		errorKind     sql.NullString
		errorMessage  sql.NullString
		createdAt     time.Time
		updatedAt     time.Time
		deletedAt     sql.NullTime
	)

	err := row.Scan(&id, &sequence, &fileName, &fileSize, &stage, &materialCount, &materials,
		&csvPath, &errorKind, &errorMessage, &createdAt, &updatedAt, &deletedAt)
	if err != nil {
		return nil, err
	}

	run := models.NewRun(sequence, fileName, fileSize)
	run.SetID(id)
	run.Stage = models.RunStage(stage)
	run.MaterialCount = materialCount
	run.CSVPath = csvPath.String
	run.ErrorKind = errorKind.String
	run.ErrorMessage = errorMessage.String
	run.SetCreatedAt(createdAt)
	run.SetUpdatedAt(updatedAt)
	if deletedAt.Valid {
		run.SetDeletedAt(&deletedAt.Time)
	}

	if materials.Valid && materials.String != "" {
		if err := json.Unmarshal([]byte(materials.String), &run.Materials); err != nil {
			return nil, fmt.Errorf("failed to decode materials: %w", err)
		}
	}

	return run, nil
}

func encodeMaterials(materials models.MaterialList) (sql.NullString, error) {
	if materials == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(materials)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode materials: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
