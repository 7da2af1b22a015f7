package db

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/getsentry/sentry-go"
	"github.com/jackc/pgx/v5"
)

const maxSpanDescription = 512

var tablePattern = regexp.MustCompile(`(?i)\b(?:from|into|update|join)\s+("?[a-z_][a-z0-9_]*"?)`)

type spanKey struct{}

// sentryTracer records one child span per statement when the request already
// carries a Sentry transaction.
type sentryTracer struct{}

func newQueryTracer() pgx.QueryTracer {
	return sentryTracer{}
}

func (sentryTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	if sentry.SpanFromContext(ctx) == nil {
		return ctx
	}

	statement := compactSQL(data.SQL)
	span := sentry.StartSpan(ctx, "db.sql.query",
		sentry.WithDescription(statement),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	span.SetData("db.system", "postgresql")
	if op := statementVerb(statement); op != "" {
		span.SetData("db.operation", op)
	}
	if table := statementTable(statement); table != "" {
		span.SetData("db.sql.table", table)
	}

	return context.WithValue(span.Context(), spanKey{}, span)
}

func (sentryTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span, ok := ctx.Value(spanKey{}).(*sentry.Span)
	if !ok || span == nil {
		return
	}
	defer span.Finish()

	switch {
	case data.Err == nil:
		span.Status = sentry.SpanStatusOK
		span.SetData("db.rows_affected", data.CommandTag.RowsAffected())
	case errors.Is(data.Err, pgx.ErrNoRows):
		span.Status = sentry.SpanStatusNotFound
	case errors.Is(data.Err, context.DeadlineExceeded):
		span.Status = sentry.SpanStatusDeadlineExceeded
	default:
		span.Status = sentry.SpanStatusInternalError
		span.SetData("db.error", data.Err.Error())
	}
}

func compactSQL(sql string) string {
	compact := strings.Join(strings.Fields(sql), " ")
	if compact == "" {
		return "sql.query"
	}
	if len(compact) > maxSpanDescription {
		return compact[:maxSpanDescription]
	}
	return compact
}

func statementVerb(sql string) string {
	verb, _, _ := strings.Cut(sql, " ")
	if verb == "sql.query" {
		return ""
	}
	return strings.ToUpper(verb)
}

func statementTable(sql string) string {
	match := tablePattern.FindStringSubmatch(sql)
	if len(match) < 2 {
		return ""
	}
	return strings.ToLower(strings.Trim(match[1], `"`))
}
