package snowflake

import (
	"context"
	"database/sql"
	"database/sql/driver"
	stderrors "errors"
	"net"
	"strings"

	"github.com/matzehuels/lineagewalk/pkg/cache"
)

// Querier is the subset of *sql.DB used by this package.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Options tunes warehouse access.
type Options struct {
	Retry cache.RetryPolicy // Transient failure handling (default: cache.DefaultRetryPolicy)
}

func (o Options) withDefaults() Options {
	if o.Retry.Attempts == 0 {
		o.Retry = cache.DefaultRetryPolicy
	}
	return o
}

// transient marks connection drops and timeouts as retryable.
func transient(err error) error {
	if err == nil {
		return nil
	}
	var ne net.Error
	if stderrors.Is(err, driver.ErrBadConn) || (stderrors.As(err, &ne) && ne.Timeout()) {
		return cache.Retryable(err)
	}
	return err
}

// unwrapRetryable strips the retry marker so callers see the driver error.
func unwrapRetryable(err error) error {
	var re *cache.RetryableError
	if stderrors.As(err, &re) {
		return re.Err
	}
	return err
}

// quoteLiteral renders s as a single-quoted SQL string literal.
func quoteLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
