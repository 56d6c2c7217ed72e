package attempts

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/photoform/internal/common"
	"github.com/dmitrijs2005/photoform/internal/models"
	"github.com/google/go-cmp/cmp"
)

const (
	insertAttemptQ = `INSERT INTO attempts \(id, form_id, outcome, file_count, urls, error, created_at\)`
	insertTaskQ    = `INSERT INTO upload_tasks`
	selectAttemptQ = `SELECT id, form_id, outcome, file_count, urls, error, created_at FROM attempts WHERE id=\$1`
	selectTasksQ   = `SELECT attempt_id, position, file_name, content_type, size, destination_key, status, url, error\s+FROM upload_tasks WHERE attempt_id=\$1 ORDER BY position`
)

var attemptCols = []string{"id", "form_id", "outcome", "file_count", "urls", "error", "created_at"}
var taskCols = []string{"attempt_id", "position", "file_name", "content_type", "size", "destination_key", "status", "url", "error"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

func sampleAttempt() models.Attempt {
	return models.Attempt{
		ID:        "7f0e4b9a-0000-4000-8000-000000000001",
		FormID:    "quote",
		Outcome:   models.OutcomeSubmitted,
		FileCount: 2,
		URLs:      []string{"https://cdn/a.jpg", "https://cdn/b.jpg"},
		CreatedAt: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAttempt()
	mock.ExpectExec(insertAttemptQ).
		WithArgs(a.ID, "quote", "submitted", int64(2), "https://cdn/a.jpg\nhttps://cdn/b.jpg", "", a.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertAttemptQ).WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), sampleAttempt())
	if err == nil || !regexp.MustCompile(`insert attempt: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_RowsAffectedErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertAttemptQ).WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

	err := repo.Create(context.Background(), sampleAttempt())
	if err == nil || !regexp.MustCompile(`rows affected error: .*rows-err`).MatchString(err.Error()) {
		t.Fatalf("expected rows affected error, got %v", err)
	}
}

func TestCreate_UnexpectedRowsAffected(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertAttemptQ).WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), sampleAttempt())
	if err == nil || err.Error() != "unexpected rows affected: 0" {
		t.Fatalf("expected unexpected rows affected error, got %v", err)
	}
}

func TestAddTask(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rec := models.TaskRecord{
		AttemptID: "a1", Position: 1, FileName: "b.jpg", ContentType: "image/jpeg", Size: 42,
		DestinationKey: "quote-uploads/1-ab-b.jpg", Status: models.TaskFailed, Error: "boom",
	}
	mock.ExpectExec(insertTaskQ).
		WithArgs("a1", int64(1), "b.jpg", "image/jpeg", int64(42), "quote-uploads/1-ab-b.jpg", "failed", "", "boom").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(insertTaskQ).WillReturnError(errors.New("fk violation"))

	if err := repo.AddTask(context.Background(), rec); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := repo.AddTask(context.Background(), rec)
	if err == nil || !regexp.MustCompile(`insert upload task: .*fk violation`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestGet_OK(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	a := sampleAttempt()
	mock.ExpectQuery(selectAttemptQ).
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows(attemptCols).
			AddRow(a.ID, "quote", "submitted", int64(2), "https://cdn/a.jpg\nhttps://cdn/b.jpg", "", a.CreatedAt))
	mock.ExpectQuery(selectTasksQ).
		WithArgs(a.ID).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow(a.ID, 0, "a.jpg", "image/jpeg", int64(1), "k/a", "succeeded", "https://cdn/a.jpg", "").
			AddRow(a.ID, 1, "b.jpg", "image/jpeg", int64(2), "k/b", "succeeded", "https://cdn/b.jpg", ""))

	got, tasks, err := repo.Get(context.Background(), a.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff(&a, got); diff != "" {
		t.Fatalf("attempt mismatch (-want +got):\n%s", diff)
	}
	if len(tasks) != 2 || tasks[1].FileName != "b.jpg" || tasks[1].Status != models.TaskSucceeded {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGet_EmptyURLs(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectAttemptQ).
		WillReturnRows(sqlmock.NewRows(attemptCols).
			AddRow("a1", "quote", "rejected", 9, "", "too_many_files: Please upload up to 8 photos.", time.Now()))
	mock.ExpectQuery(selectTasksQ).WillReturnRows(sqlmock.NewRows(taskCols))

	got, tasks, err := repo.Get(context.Background(), "a1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.URLs != nil || tasks != nil || got.Outcome != models.OutcomeRejected {
		t.Fatalf("unexpected result: %+v %+v", got, tasks)
	}
}

func TestGet_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectAttemptQ).WithArgs("nope").WillReturnError(sql.ErrNoRows)

	_, _, err := repo.Get(context.Background(), "nope")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want ErrorNotFound, got %v", err)
	}
}

func TestGet_QueryErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectAttemptQ).WillReturnError(errors.New("db err"))

	_, _, err := repo.Get(context.Background(), "a1")
	if err == nil || !regexp.MustCompile(`select attempt: .*db err`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped select error, got %v", err)
	}
}

func TestGet_TasksErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectAttemptQ).
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow("a1", "quote", "submitted", 1, "u", "", time.Now()))
	mock.ExpectQuery(selectTasksQ).WillReturnError(errors.New("tasks down"))

	_, _, err := repo.Get(context.Background(), "a1")
	if err == nil || !regexp.MustCompile(`select upload tasks: .*tasks down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped tasks error, got %v", err)
	}
}

func TestGet_TaskRowsErr(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectAttemptQ).
		WillReturnRows(sqlmock.NewRows(attemptCols).AddRow("a1", "quote", "submitted", 1, "u", "", time.Now()))
	mock.ExpectQuery(selectTasksQ).
		WillReturnRows(sqlmock.NewRows(taskCols).
			AddRow("a1", 0, "a.jpg", "image/jpeg", int64(1), "k", "succeeded", "u", "").
			RowError(0, errors.New("row-err")))

	_, _, err := repo.Get(context.Background(), "a1")
	if err == nil || err.Error() != "row-err" {
		t.Fatalf("expected rows.Err 'row-err', got %v", err)
	}
}
