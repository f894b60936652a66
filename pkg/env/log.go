package env

import (
	"bytes"
	"fmt"
	golog "log"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"gopkg.in/inconshreveable/log15.v2"
)

const (
	logBufferSize  = 256
	timeFormat     = "2006-01-02T15:04:05-0700"
	floatFormat    = 'f'
	floatPrecision = 3
	errorKey       = "ERROR"
	redacted       = "<redacted>"
)

// logging prefixes for different log levels
// see <http://0pointer.de/public/systemd-man/sd-daemon.html>
const (
	sdCrit    = "<2>"
	sdErr     = "<3>"
	sdWarning = "<4>"
	sdInfo    = "<6>"
	sdDebug   = "<7>"
)

// keys containing one of these (case insensitive) never have their value logged
var sensitiveKeys = []string{
	"secret",
	"token",
	"authorization",
	"password",
	"pin",
}

// Log is the root logger of the SDK. Packages derive their loggers from it.
var Log log15.Logger

var (
	lvlMu   sync.Mutex
	handler log15.Handler
)

func init() {
	handler = log15.StreamHandler(os.Stderr, DaemonFormat())
	Log = log15.New()
	Log.SetHandler(log15.LvlFilterHandler(log15.LvlInfo, handler))
	golog.SetOutput(logBridge{Log})
}

// SetLevel filters the root logger output to the given level and above.
//
// Valid levels are debug, info, warn, error and crit.
func SetLevel(lvl string) error {
	l, err := log15.LvlFromString(strings.ToLower(lvl))
	if err != nil {
		return err
	}
	lvlMu.Lock()
	Log.SetHandler(log15.LvlFilterHandler(l, handler))
	lvlMu.Unlock()
	return nil
}

// logBridge acts as a Writer for the log pkg
// It will log to log15
type logBridge struct {
	log log15.Logger
}

// logBridge Writer implementation
// will log all log pkg messages as log15.Info messages
func (l logBridge) Write(msg []byte) (int, error) {
	l.log.Info("log pkg message", log15.Ctx{"message": strings.TrimRight(string(msg), "\n")})
	return len(msg), nil
}

var bufferPool = &sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, logBufferSize))
	},
}

// DaemonFormat returns a log15.Format, which produces records which can be forwarded to
// syslog by the init system
func DaemonFormat() log15.Format {
	return log15.FormatFunc(func(r *log15.Record) []byte {
		common := []interface{}{r.KeyNames.Time, r.Time, r.KeyNames.Lvl, r.Lvl, r.KeyNames.Msg, r.Msg}
		buf := bufferPool.Get().(*bytes.Buffer)
		buf.Reset()
		logLevel(buf, r.Lvl)
		logRecord(buf, append(common, r.Ctx...))
		b := append([]byte(nil), buf.Bytes()...)
		bufferPool.Put(buf)
		return b
	})
}

func logLevel(buf *bytes.Buffer, lvl log15.Lvl) {
	switch lvl {
	case log15.LvlCrit:
		buf.WriteString(sdCrit)
	case log15.LvlError:
		buf.WriteString(sdErr)
	case log15.LvlWarn:
		buf.WriteString(sdWarning)
	case log15.LvlInfo:
		buf.WriteString(sdInfo)
	case log15.LvlDebug:
		buf.WriteString(sdDebug)
	}
}

func sensitive(key string) bool {
	key = strings.ToLower(key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

func logRecord(buf *bytes.Buffer, ctx []interface{}) {
	for i := 0; i < len(ctx); i += 2 {
		if i != 0 {
			buf.WriteByte(' ')
		}
		k, ok := ctx[i].(string)
		var v string
		if i+1 < len(ctx) {
			v = logValue(ctx[i+1])
		} else {
			v = "nil"
		}
		if !ok {
			k, v = errorKey, logValue(ctx[i])
		} else if sensitive(k) {
			v = redacted
		}

		fmt.Fprintf(buf, "%s=%s", k, v)
	}
	buf.WriteByte('\n')
}

func logValue(value interface{}) string {
	if value == nil {
		return "nil"
	}

	switch v := value.(type) {
	case time.Time:
		return v.Format(timeFormat)
	case time.Duration:
		return v.String()
	case log15.Lvl:
		return v.String()
	case error:
		return escapeString(v.Error())
	case fmt.Stringer:
		return escapeString(v.String())
	case bool:
		return strconv.FormatBool(v)
	case float32:
		return strconv.FormatFloat(float64(v), floatFormat, floatPrecision, 64)
	case float64:
		return strconv.FormatFloat(v, floatFormat, floatPrecision, 64)
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprintf("%d", v)
	case string:
		return escapeString(v)
	default:
		return escapeString(fmt.Sprintf("%+v", v))
	}
}

func escapeString(s string) string {
	needQuotes := s == ""
	e := bufferPool.Get().(*bytes.Buffer)
	e.Reset()
	e.WriteByte('"')
	for _, r := range s {
		if r <= ' ' || r == '=' || r == '"' {
			needQuotes = true
		}

		switch r {
		case '\\', '"':
			e.WriteByte('\\')
			e.WriteByte(byte(r))
		case '\n':
			e.WriteByte('\\')
			e.WriteByte('n')
		case '\r':
			e.WriteByte('\\')
			e.WriteByte('r')
		case '\t':
			e.WriteByte('\\')
			e.WriteByte('t')
		default:
			e.WriteRune(r)
		}
	}
	e.WriteByte('"')
	start, stop := 0, e.Len()
	if !needQuotes {
		start, stop = 1, stop-1
	}
	eStr := string(e.Bytes()[start:stop])
	bufferPool.Put(e)
	return eStr
}
