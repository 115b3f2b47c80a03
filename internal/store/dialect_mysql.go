package store

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL/MariaDB via go-sql-driver/mysql.
type MySQLDialect struct{}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

func (d *MySQLDialect) NewParamBuilder() ParamBuilder {
	return &mysqlParamBuilder{}
}

func (d *MySQLDialect) CastText(expr string) string {
	return fmt.Sprintf("CAST(%s AS CHAR)", expr)
}

func (d *MySQLDialect) CastInt(expr string) string {
	return fmt.Sprintf("CAST(%s AS UNSIGNED)", expr)
}

func (d *MySQLDialect) Concat(parts ...string) string { return concatFunc(parts) }

func (d *MySQLDialect) FilterCountExpr(condition string) string {
	return sumCaseExpr(condition)
}

func (d *MySQLDialect) ReturningID() bool { return false }

// MySQL server error numbers.
const (
	mysqlErrDupEntry        = 1062
	mysqlErrRowIsReferenced = 1451
	mysqlErrNoReferencedRow = 1452
)

func (d *MySQLDialect) MapError(err error) error {
	if err == nil {
		return nil
	}
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return err
	}
	switch myErr.Number {
	case mysqlErrDupEntry:
		return fmt.Errorf("%w: %w", ErrUniqueViolation, err)
	case mysqlErrRowIsReferenced, mysqlErrNoReferencedRow:
		return fmt.Errorf("%w: %w", ErrForeignKeyViolation, err)
	}
	return err
}
