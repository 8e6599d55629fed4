package observability

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// StartSpan starts a new span from context
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, name, opts...)
}

// StartServiceSpan starts a span for service operations
func StartServiceSpan(ctx context.Context, service, operation string) (context.Context, trace.Span) {
	return StartSpan(ctx, fmt.Sprintf("%s.%s", service, operation),
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("service.component", service),
			Operation(operation),
		),
	)
}

// RecordError records an error on the span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSuccess marks the span as successful
func SetSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// DatabaseMetrics holds database-related metrics
type DatabaseMetrics struct {
	queryDuration metric.Float64Histogram
	queryCount    metric.Int64Counter
	errorCount    metric.Int64Counter
}

// NewDatabaseMetrics creates database metrics instruments
func NewDatabaseMetrics() (*DatabaseMetrics, error) {
	meter := otel.Meter(instrumentationName)

	queryDuration, err := meter.Float64Histogram(
		"db.query.duration",
		metric.WithDescription("Database query duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	queryCount, err := meter.Int64Counter(
		"db.query.count",
		metric.WithDescription("Total number of database queries"),
		metric.WithUnit("{queries}"),
	)
	if err != nil {
		return nil, err
	}

	errorCount, err := meter.Int64Counter(
		"db.error.count",
		metric.WithDescription("Total number of database errors"),
		metric.WithUnit("{errors}"),
	)
	if err != nil {
		return nil, err
	}

	return &DatabaseMetrics{
		queryDuration: queryDuration,
		queryCount:    queryCount,
		errorCount:    errorCount,
	}, nil
}

// RecordQuery records database query metrics. A nil receiver records nothing.
func (m *DatabaseMetrics) RecordQuery(ctx context.Context, system, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("db.system", system),
		attribute.String("db.operation", operation),
	)

	m.queryCount.Add(ctx, 1, attrs)
	m.queryDuration.Record(ctx, float64(duration.Microseconds())/1000, attrs)
	if err != nil {
		m.errorCount.Add(ctx, 1, attrs)
	}
}

// Querier is the query surface shared by *sql.DB and *sql.Tx
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// TraceDB wraps a Querier with tracing and query metrics
type TraceDB struct {
	q       Querier
	system  string
	metrics *DatabaseMetrics
}

// NewTraceDB creates a traced wrapper around q.
// system names the database ("postgresql", "sqlite"); metrics may be nil.
func NewTraceDB(q Querier, system string, metrics *DatabaseMetrics) *TraceDB {
	return &TraceDB{
		q:       q,
		system:  system,
		metrics: metrics,
	}
}

func (t *TraceDB) startSpan(ctx context.Context, name, query string) (context.Context, trace.Span, string) {
	op := queryOperation(query)
	ctx, span := StartSpan(ctx, fmt.Sprintf("%s %s", name, op),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", t.system),
			attribute.String("db.operation", op),
			attribute.String("db.statement", truncateQuery(query)),
		),
	)
	return ctx, span, op
}

// QueryContext executes a query with tracing
func (t *TraceDB) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	ctx, span, op := t.startSpan(ctx, "DB Query", query)
	defer span.End()

	start := time.Now()
	rows, err := t.q.QueryContext(ctx, query, args...)
	t.finish(ctx, span, op, time.Since(start), err)
	return rows, err
}

// ExecContext executes a statement with tracing
func (t *TraceDB) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	ctx, span, op := t.startSpan(ctx, "DB Exec", query)
	defer span.End()

	start := time.Now()
	result, err := t.q.ExecContext(ctx, query, args...)
	if err == nil {
		if rowsAffected, raErr := result.RowsAffected(); raErr == nil {
			span.SetAttributes(attribute.Int64("db.rows_affected", rowsAffected))
		}
	}
	t.finish(ctx, span, op, time.Since(start), err)
	return result, err
}

// QueryRowContext executes a query that returns a single row with tracing.
// Errors surface on Scan, so the span only covers issuing the query.
func (t *TraceDB) QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row {
	ctx, span, op := t.startSpan(ctx, "DB QueryRow", query)
	defer span.End()

	start := time.Now()
	row := t.q.QueryRowContext(ctx, query, args...)
	t.finish(ctx, span, op, time.Since(start), row.Err())
	return row
}

func (t *TraceDB) finish(ctx context.Context, span trace.Span, op string, duration time.Duration, err error) {
	if err != nil {
		RecordError(span, err)
	} else {
		SetSuccess(span)
	}
	span.SetAttributes(attribute.Int64("db.query_duration_ms", duration.Milliseconds()))
	t.metrics.RecordQuery(ctx, t.system, op, duration, err)
}

// queryOperation returns the leading SQL verb of query
func queryOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return "UNKNOWN"
	}
	return strings.ToUpper(fields[0])
}

func truncateQuery(query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if len(query) > 500 {
		return query[:500] + "..."
	}
	return query
}
