package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

// Storage sources recognised by Dump.
const (
	SourcePostgres = "postgres"
	SourceSQLite   = "sqlite"
	SourceRedis    = "redis"
)

// ErrorDump flattens an error chain and any slot backend driver error for logging.
type ErrorDump struct {
	TopMessage string `json:"top_message"`
	Code       Code   `json:"code,omitempty"`

	Chain []string `json:"chain,omitempty"`

	Source string `json:"source,omitempty"`

	DriverCode   string `json:"driver_code,omitempty"`
	DriverDetail string `json:"driver_detail,omitempty"`
	Constraint   string `json:"constraint,omitempty"`
	Table        string `json:"table,omitempty"`
}

func Dump(err error) ErrorDump {
	if err == nil {
		return ErrorDump{}
	}

	d := ErrorDump{TopMessage: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	if errors.As(err, &pgxErr) {
		d.Source = SourcePostgres
		d.DriverCode = pgxErr.Code
		d.DriverDetail = firstNonEmpty(pgxErr.Detail, pgxErr.Message)
		d.Constraint = pgxErr.ConstraintName
		d.Table = pgxErr.TableName
		return d
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		d.Source = SourcePostgres
		d.DriverCode = string(pqErr.Code)
		d.DriverDetail = firstNonEmpty(pqErr.Detail, pqErr.Message)
		d.Constraint = pqErr.Constraint
		d.Table = pqErr.Table
		return d
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		d.Source = SourceSQLite
		d.DriverCode = fmt.Sprintf("%d/%d", int(liteErr.Code), int(liteErr.ExtendedCode))
		d.DriverDetail = liteErr.Error()
		return d
	}

	var redisErr redis.Error
	if errors.As(err, &redisErr) {
		d.Source = SourceRedis
		d.DriverDetail = redisErr.Error()
	}
	return d
}

// Fields returns the populated dump entries keyed for structured logs.
func (d ErrorDump) Fields() map[string]any {
	fields := map[string]any{"error": d.TopMessage}
	set := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	set("error_code", string(d.Code))
	set("error_source", d.Source)
	set("driver_code", d.DriverCode)
	set("driver_detail", d.DriverDetail)
	set("constraint", d.Constraint)
	set("table", d.Table)
	if len(d.Chain) > 1 {
		fields["error_chain"] = d.Chain
	}
	return fields
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
