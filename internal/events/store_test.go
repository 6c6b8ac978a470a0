package events

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/academic-calendar/internal/database"
)

// mockConnector hands out the same sqlmock-backed *sql.DB as the session.
type mockConnector struct {
	db       *sql.DB
	err      error
	connects int
}

func (c *mockConnector) Connect(context.Context) (database.Session, error) {
	c.connects++
	if c.err != nil {
		return nil, &database.ConnectionError{Err: c.err}
	}
	return c.db, nil
}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, mock.ExpectationsWereMet()) })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStore(&mockConnector{db: db}, logger), mock
}

func eventRows() *sqlmock.Rows {
	return sqlmock.NewRowsWithColumnDefinition(
		sqlmock.NewColumn("id").OfType("INT", int64(0)),
		sqlmock.NewColumn("event_date").OfType("DATE", time.Time{}),
		sqlmock.NewColumn("start_time").OfType("TIME", []byte{}),
		sqlmock.NewColumn("event_type").OfType("VARCHAR", []byte{}),
		sqlmock.NewColumn("title").OfType("VARCHAR", []byte{}).Nullable(true),
	)
}

func TestStore_InDuration(t *testing.T) {
	store, mock := newMockStore(t)

	rows := eventRows().
		AddRow(int64(1), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), []byte("09:00:00"), []byte("Exam"), []byte("Midterm")).
		AddRow(int64(2), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), []byte("13:30:00"), []byte("Lecture"), nil)

	mock.ExpectQuery(queryInDuration).
		WithArgs("2024-01-01", "2024-01-31").
		WillReturnRows(rows)
	mock.ExpectClose()

	events, err := store.InDuration(context.Background(), "2024-01-01", "2024-01-31")
	require.NoError(t, err)
	require.Len(t, events, 2)

	first := events[0]
	id, ok := first.ID()
	assert.True(t, ok)
	assert.EqualValues(t, 1, id)

	date, ok := first.EventDate()
	assert.True(t, ok)
	assert.Equal(t, "2024-01-15", date.Format("2006-01-02"))

	start, ok := first.StartTime()
	assert.True(t, ok)
	assert.Equal(t, TimeOfDay(9*time.Hour), start)
	assert.Equal(t, "Exam", first.EventType())

	columns := make([]string, 0, len(first.Fields))
	for _, f := range first.Fields {
		columns = append(columns, f.Column)
	}
	assert.Equal(t, []string{"id", "event_date", "start_time", "event_type", "title"}, columns)

	title, ok := events[1].Get("title")
	assert.True(t, ok)
	assert.Nil(t, title)
}

func TestStore_ByType(t *testing.T) {
	store, mock := newMockStore(t)

	rows := eventRows().
		AddRow(int64(7), time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), []byte("10:00:00"), []byte("exam"), []byte("Final"))

	// The argument reaches the database unchanged; case folding happens in SQL.
	mock.ExpectQuery(queryByType).
		WithArgs("EXAM").
		WillReturnRows(rows)
	mock.ExpectClose()

	events, err := store.ByType(context.Background(), "EXAM")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "exam", events[0].EventType())
}

func TestStore_EmptyResult(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(queryByType).
		WithArgs("holiday").
		WillReturnRows(eventRows())
	mock.ExpectClose()

	events, err := store.ByType(context.Background(), "holiday")
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestStore_QueryError(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(queryInDuration).
		WithArgs("not-a-date", "2024-01-31").
		WillReturnError(errors.New("Error 1292: Incorrect DATE value: 'not-a-date'"))
	mock.ExpectClose()

	_, err := store.InDuration(context.Background(), "not-a-date", "2024-01-31")
	require.Error(t, err)
	assert.Equal(t, "failed to query events: Error 1292: Incorrect DATE value: 'not-a-date'", err.Error())
	assert.NotErrorIs(t, err, database.ErrConnectionFailed)
}

func TestStore_RowError(t *testing.T) {
	store, mock := newMockStore(t)

	rows := eventRows().
		AddRow(int64(1), time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), []byte("09:00:00"), []byte("Exam"), nil).
		RowError(0, errors.New("connection reset"))

	mock.ExpectQuery(queryByType).WithArgs("exam").WillReturnRows(rows)
	mock.ExpectClose()

	_, err := store.ByType(context.Background(), "exam")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "error iterating rows: connection reset")
}

func TestStore_CloseErrorIsNotReturned(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(queryByType).WithArgs("exam").WillReturnRows(eventRows())
	mock.ExpectClose().WillReturnError(errors.New("close failed"))

	_, err := store.ByType(context.Background(), "exam")
	assert.NoError(t, err)
}

func TestStore_ConnectFailure(t *testing.T) {
	connector := &mockConnector{err: errors.New("dial tcp 127.0.0.1:4000: connect: connection refused")}
	store := NewStore(connector, nil)

	_, err := store.InDuration(context.Background(), "2024-01-01", "2024-01-31")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConnectionFailed)
	assert.Equal(t, "failed to connect to the database: dial tcp 127.0.0.1:4000: connect: connection refused", err.Error())
	assert.Equal(t, 1, connector.connects)
}

func TestStore_SessionPerCall(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	connector := &mockConnector{db: db}
	store := NewStore(connector, nil)

	mock.ExpectQuery(queryByType).WithArgs("a").WillReturnRows(eventRows())
	mock.ExpectClose()

	_, err = store.ByType(context.Background(), "a")
	require.NoError(t, err)
	_, _ = store.ByType(context.Background(), "b")

	assert.Equal(t, 2, connector.connects)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_RecordsSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(previous)
		_ = tp.Shutdown(context.Background())
	})

	store, mock := newMockStore(t)
	mock.ExpectQuery(queryByType).WithArgs("exam").WillReturnError(errors.New("boom"))
	mock.ExpectClose()

	_, err := store.ByType(context.Background(), "exam")
	require.Error(t, err)

	spans := recorder.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "db.events.by_type", spans[0].Name())
	assert.Equal(t, codes.Error, spans[0].Status().Code)
}
