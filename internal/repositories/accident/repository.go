package accident

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Ramsey-B/clover/pkg/analytics"
	"github.com/Ramsey-B/clover/pkg/database"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/output"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/huandu/go-sqlbuilder"
)

// Query pages through the accidents of one run.
type Query struct {
	Filter analytics.Filter
	Limit  int
	Offset int
}

// AccidentRepository defines the interface for consolidated accident data access
type AccidentRepository interface {
	SaveRun(ctx context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) error
	GetRun(ctx context.Context, runID string) (*output.Manifest, error)
	LatestRun(ctx context.Context, year int) (*output.Manifest, error)
	ListRuns(ctx context.Context, year, limit int) ([]*output.Manifest, error)
	Get(ctx context.Context, runID, numAcc string) (*models.ConsolidatedAccident, error)
	List(ctx context.Context, runID string, query Query) ([]models.ConsolidatedAccident, int, error)
	All(ctx context.Context, runID string, filter analytics.Filter) ([]models.ConsolidatedAccident, error)
}

// Repository implements AccidentRepository
type Repository struct {
	db             database.DB
	logger         ectologger.Logger
	batchSize      int
	accidentStruct *database.Struct
	runStruct      *database.Struct
}

// NewRepository creates a new accident repository. Accidents are inserted
// batchSize rows per statement.
func NewRepository(db database.DB, logger ectologger.Logger, batchSize int) *Repository {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Repository{
		db:             db,
		logger:         logger,
		batchSize:      batchSize,
		accidentStruct: database.NewStruct(new(AccidentRow), db.Flavor()),
		runStruct:      database.NewStruct(new(RunRow), db.Flavor()),
	}
}

// SaveRun replaces the rows of the run with the given accidents in a single
// transaction, so re-running a consolidation is idempotent.
func (r *Repository) SaveRun(ctx context.Context, manifest *output.Manifest, accidents []models.ConsolidatedAccident) (err error) {
	ctx, span := tracing.StartSpan(ctx, "AccidentRepository.SaveRun")
	defer span.End()

	persistErr := func(msg string, cause error) error {
		r.logger.WithContext(ctx).WithError(cause).Error(msg)
		return clerrors.NewStageErrorf("%s: %w", msg, cause).AddStage(clerrors.StagePersist).AddKey(manifest.RunID)
	}

	ctx, tx, err := r.db.GetTx(ctx, nil)
	if err != nil {
		return persistErr("failed to begin transaction", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback(ctx)
		}
	}()

	del := r.accidentStruct.DeleteFrom(accidentsTable)
	del.Where(del.Equal("run_id", manifest.RunID))
	query, args := del.Build()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return persistErr("failed to clear previous rows", err)
	}

	query, args = r.runStruct.InsertInto(runsTable, FromManifest(manifest)).
		OnConflictUpdate([]string{"run_id"}, "year", "locale", "started_at", "finished_at", "accidents", "manifest").
		Build()
	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return persistErr("failed to save run", err)
	}

	for start := 0; start < len(accidents); start += r.batchSize {
		if err = ctx.Err(); err != nil {
			return persistErr("run cancelled", err)
		}
		end := min(start+r.batchSize, len(accidents))
		rows := make([]any, 0, end-start)
		for i := start; i < end; i++ {
			rows = append(rows, FromAccident(manifest.RunID, &accidents[i]))
		}
		query, args = r.accidentStruct.InsertInto(accidentsTable, rows...).Build()
		if _, err = tx.ExecContext(ctx, query, args...); err != nil {
			return persistErr("failed to insert accidents", err)
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return persistErr("failed to commit run", err)
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":    manifest.RunID,
		"year":      manifest.Year,
		"accidents": len(accidents),
	}).Infof("Persisted %d accidents", len(accidents))
	return nil
}

// GetRun retrieves a run manifest by id
func (r *Repository) GetRun(ctx context.Context, runID string) (*output.Manifest, error) {
	ctx, span := tracing.StartSpan(ctx, "AccidentRepository.GetRun")
	defer span.End()

	sb := r.runStruct.SelectFrom(runsTable)
	sb.Where(sb.Equal("run_id", runID))
	query, args := sb.Build()

	var row RunRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "run not found").AddMetaValue("run_id", runID)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get run")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get run")
	}
	return ToManifest(&row), nil
}

// LatestRun retrieves the most recent run, restricted to a dataset year when
// year is not zero.
func (r *Repository) LatestRun(ctx context.Context, year int) (*output.Manifest, error) {
	runs, err := r.ListRuns(ctx, year, 1)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, httperror.NewHTTPError(http.StatusNotFound, "no consolidation run found")
	}
	return runs[0], nil
}

// ListRuns lists runs, most recent first
func (r *Repository) ListRuns(ctx context.Context, year, limit int) ([]*output.Manifest, error) {
	ctx, span := tracing.StartSpan(ctx, "AccidentRepository.ListRuns")
	defer span.End()

	sb := r.runStruct.SelectFrom(runsTable)
	if year != 0 {
		sb.Where(sb.Equal("year", year))
	}
	sb.OrderBy("finished_at").Desc()
	if limit > 0 {
		sb.Limit(limit)
	}
	query, args := sb.Build()

	var rows []RunRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list runs")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}

	runs := make([]*output.Manifest, len(rows))
	for i := range rows {
		runs[i] = ToManifest(&rows[i])
	}
	return runs, nil
}

// Get retrieves one accident of a run
func (r *Repository) Get(ctx context.Context, runID, numAcc string) (*models.ConsolidatedAccident, error) {
	ctx, span := tracing.StartSpan(ctx, "AccidentRepository.Get")
	defer span.End()

	sb := r.accidentStruct.SelectFrom(accidentsTable)
	sb.Where(sb.Equal("run_id", runID), sb.Equal("num_acc", numAcc))
	query, args := sb.Build()

	var row AccidentRow
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "accident not found").AddMetaValue("Num_Acc", numAcc)
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get accident")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get accident")
	}

	a := ToAccident(&row)
	return &a, nil
}

// List returns one page of the run's accidents matching the filter, ordered
// by accident id, with the total number of matches.
func (r *Repository) List(ctx context.Context, runID string, q Query) ([]models.ConsolidatedAccident, int, error) {
	ctx, span := tracing.StartSpan(ctx, "AccidentRepository.List")
	defer span.End()

	cb := database.NewSelectBuilder(r.db.Flavor())
	cb.Select("COUNT(*)").From(accidentsTable)
	applyFilter(cb.SelectBuilder, runID, q.Filter)
	query, args := cb.Build()

	var total int
	if err := r.db.GetContext(ctx, &total, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count accidents")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list accidents")
	}

	sb := r.accidentStruct.SelectFrom(accidentsTable)
	applyFilter(sb.SelectBuilder, runID, q.Filter)
	sb.OrderBy("num_acc").Asc()
	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}
	if q.Offset > 0 {
		sb.Offset(q.Offset)
	}
	query, args = sb.Build()

	var rows []AccidentRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list accidents")
		return nil, 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list accidents")
	}

	return ToAccidents(rows), total, nil
}

// All returns every accident of the run matching the filter
func (r *Repository) All(ctx context.Context, runID string, filter analytics.Filter) ([]models.ConsolidatedAccident, error) {
	accidents, _, err := r.List(ctx, runID, Query{Filter: filter})
	return accidents, err
}

// applyFilter mirrors analytics.Filter in SQL.
func applyFilter(sb *sqlbuilder.SelectBuilder, runID string, f analytics.Filter) {
	sb.Where(sb.Equal("run_id", runID))
	if f.From.Valid {
		sb.Where(sb.GreaterEqualThan("accident_date", f.From.String()))
	}
	if f.To.Valid {
		sb.Where(sb.LessEqualThan("accident_date", f.To.String()))
	}
	if len(f.Departments) > 0 {
		sb.Where(sb.In("dep", sqlbuilder.Flatten(f.Departments)...))
	}
	if f.ExcludeFatal {
		sb.Where(sb.Equal("accident_mortel", 0))
	}
	if f.ExcludeHospitalized {
		sb.Where(sb.Equal("nb_blesses_hospitalises", 0))
	}
	if f.ExcludeLightInjury {
		sb.Where(sb.Equal("nb_blesses_legers", 0))
	}
	if f.Metropolitan {
		sb.Where(
			sb.Or(sb.IsNull("latitude"), sb.Between("latitude", analytics.MinLat, analytics.MaxLat)),
			sb.Or(sb.IsNull("longitude"), sb.Between("longitude", analytics.MinLong, analytics.MaxLong)),
		)
	}
}
