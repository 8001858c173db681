package log

import (
	"context"
	"database/sql/driver"
	"fmt"
	"io"
	"os"
	"reflect"
	"regexp"
	"time"
	"unicode"

	"github.com/sri-ravi13/Orphan-Management-System/common/claims"

	"github.com/go-kit/log"
)

const (
	LvlDebug = "DEBUG"
	LvlInfo  = "INFO"
	LvlWarn  = "WARNING"
	LvlErr   = "ERROR"
)

func NewLogger(component string) *Logger {
	return NewLoggerWithWriter(component, os.Stderr)
}

func NewLoggerWithWriter(component string, w io.Writer) *Logger {
	var kitlogger log.Logger
	kitlogger = log.NewJSONLogger(log.NewSyncWriter(w))
	kitlogger = log.With(kitlogger, "ts", log.DefaultTimestampUTC)
	kitlogger = log.With(kitlogger, "component", component)

	return &Logger{
		kitlogger,
	}
}

type Logger struct {
	log.Logger
}

func (l *Logger) Debug(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlDebug, message, keyvals)
}

func (l *Logger) Info(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlInfo, message, keyvals)
}

func (l *Logger) Warn(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlWarn, message, keyvals)
}

func (l *Logger) Err(ctx context.Context, message string, keyvals ...interface{}) {
	l.logWithLvl(ctx, LvlErr, message, keyvals)
}

// re-implement gorm logger
func (l *Logger) Print(v ...interface{}) {
	if len(v) < 2 {
		return
	}
	keyvals := []interface{}{}

	if v[0] == "sql" && len(v) >= 5 {
		if d, ok := v[2].(time.Duration); ok {
			keyvals = append(keyvals, "duration", fmt.Sprintf("%.2fms", float64(d.Nanoseconds()/1e4)/100.0))
		}
		query, _ := v[3].(string)
		values, _ := v[4].([]interface{})
		keyvals = append(keyvals, "query", formatQuery(query, values))
	} else {
		keyvals = append(keyvals, "source", v[1])
		keyvals = append(keyvals, "details", fmt.Sprint(v[2:]...))
	}
	l.logWithLvl(context.Background(), LvlDebug, "new database query", keyvals)
}

func (l *Logger) logWithLvl(ctx context.Context, lvl string, message string, keyvals []interface{}) {
	if caller, ok := claims.GetCaller(ctx); ok {
		keyvals = append(keyvals, "userId", caller.UserId, "role", caller.Role)
	}
	keyvals = append(keyvals, "level", lvl, "msg", message)
	l.Log(keyvals...)
}

var (
	sqlRegexp = regexp.MustCompile(`(\$\d+)|\?`)
)

func formatQuery(query string, values []interface{}) string {
	var formattedValues []string
	for _, value := range values {
		indirectValue := reflect.Indirect(reflect.ValueOf(value))
		if !indirectValue.IsValid() {
			formattedValues = append(formattedValues, "NULL")
			continue
		}
		value = indirectValue.Interface()
		switch t := value.(type) {
		case time.Time:
			formattedValues = append(formattedValues, fmt.Sprintf("'%v'", t.Format(time.RFC3339)))
		case []byte:
			if str := string(t); isPrintable(str) {
				formattedValues = append(formattedValues, fmt.Sprintf("'%v'", str))
			} else {
				formattedValues = append(formattedValues, "'<binary>'")
			}
		case driver.Valuer:
			if value, err := t.Value(); err == nil && value != nil {
				formattedValues = append(formattedValues, fmt.Sprintf("'%v'", value))
			} else {
				formattedValues = append(formattedValues, "NULL")
			}
		default:
			formattedValues = append(formattedValues, fmt.Sprintf("'%v'", value))
		}
	}

	var sql string
	for index, value := range sqlRegexp.Split(query, -1) {
		sql += value
		if index < len(formattedValues) {
			sql += formattedValues[index]
		}
	}
	return sql
}

func isPrintable(s string) bool {
	for _, r := range s {
		if !unicode.IsPrint(r) {
			return false
		}
	}
	return true
}
