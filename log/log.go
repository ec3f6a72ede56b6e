package log

import (
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// Log absolutely nothing
	LOGLEVEL_NONE int = iota
	// Log situations that are not expected to happen and
	// are difficult to handle (e.g. a socket that cannot be bound)
	LOGLEVEL_ERRORS
	// Log non-critical situations that might happen, but shouldn't (e.g. an unroutable reply)
	LOGLEVEL_WARNINGS
	// Log situations that are expected, but important for the operation
	LOGLEVEL_INFO
	// Log everything
	LOGLEVEL_DEBUG
)

var logger zerolog.Logger
var loglevel int = LOGLEVEL_WARNINGS

var loglevel_strings []string = []string{"none", "error", "warn", "info", "debug"}

var zerolog_levels []zerolog.Level = []zerolog.Level{
	zerolog.Disabled, zerolog.ErrorLevel, zerolog.WarnLevel, zerolog.InfoLevel, zerolog.DebugLevel}

func init() {
	SetOutput(os.Stderr)
}

// Redirect all log output to w, formatted for humans.
func SetOutput(w io.Writer) {
	logger = zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05.000000"}).
		With().Timestamp().Logger()
}

// Set the global log level
func SetLoglevel(ll int) {
	if ll < LOGLEVEL_NONE {
		ll = LOGLEVEL_NONE
	} else if ll > LOGLEVEL_DEBUG {
		ll = LOGLEVEL_DEBUG
	}
	loglevel = ll
}

// Returns the level set with SetLoglevel().
func Loglevel() int {
	return loglevel
}

// Parses one of "none", "error", "warn", "info", "debug".
func ParseLoglevel(s string) (int, error) {
	for i, name := range loglevel_strings {
		if strings.EqualFold(s, name) {
			return i, nil
		}
	}
	return LOGLEVEL_NONE, fmt.Errorf("unknown log level %q", s)
}

// Performance-enhancer: Prevent unnecessary log calls
func IsLoggingEnabled(ll int) bool {
	return loglevel >= ll
}

// Log the arguments (formatted like fmt.Sprint) if ll is enabled.
func Log(ll int, what ...interface{}) {
	if ll <= LOGLEVEL_NONE || ll > loglevel {
		return
	}
	logger.WithLevel(zerolog_levels[ll]).Msg(strings.TrimSuffix(fmt.Sprintln(what...), "\n"))
}

// Returns a structured logger tagged with the component name. The returned logger
// honours the global log level at the time of the call.
func Component(name string) zerolog.Logger {
	return logger.Level(zerolog_levels[loglevel]).With().Str("component", name).Logger()
}

func mapToChar(i int) byte {
	i = i % (10 + 26 + 26)
	if i < 10 {
		return byte('0' + i)
	} else if i < 10+26 {
		return byte('A' + i - 10)
	} else if i < 10+26+26 {
		return byte('a' + i - 10 - 26)
	}
	return byte('_')
}

var token_lock sync.Mutex
var token_rand = rand.New(rand.NewSource(time.Now().UnixNano()))

// Returns a short random alphanumeric string.
// This is used to tag simulated requests in order to track them across log lines.
func GetLogToken() string {
	token_lock.Lock()
	defer token_lock.Unlock()

	str := make([]byte, 6)
	for i := range str {
		str[i] = mapToChar(token_rand.Int())
	}
	return string(str)
}
