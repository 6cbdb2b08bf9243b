package migrate

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mandelsoft/vfs/pkg/vfs"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"go.hackfix.me/schemamigrate/driver"
)

// Option configures an Engine, following the teacher's firewall.Option /
// app.Option pattern: a function applied in order, able to fail.
type Option func(*Engine) error

// WithSchemaName sets the schema name under which migration directories are
// looked up and bookkeeping rows are recorded (spec §6.3). If omitted, it
// defaults to DesiredVersionSource with every "::" replaced by "-".
func WithSchemaName(name string) Option {
	return func(e *Engine) error {
		e.schemaName = name
		return nil
	}
}

// WithDesiredVersion sets the version the engine migrates to explicitly,
// overriding the auto-target rule of spec §4.4.
func WithDesiredVersion(v string) Option {
	return func(e *Engine) error {
		e.desiredVersion = &v
		return nil
	}
}

// WithDesiredVersionSource sets an implementation-defined source string
// (spec §6.3) that WithSchemaName's default derives from, and that callers
// may also resolve their own desired version against (e.g. an application's
// own release identifier).
func WithDesiredVersionSource(source string) Option {
	return func(e *Engine) error {
		e.desiredVersionSource = source
		return nil
	}
}

// WithDriverName overrides the driver identifier used to select the
// on-disk driver directory (spec §4.1), instead of the name reported by
// the detected driver.Driver.
func WithDriverName(name string) Option {
	return func(e *Engine) error {
		e.driverName = name
		return nil
	}
}

// WithDriver overrides driver detection with an explicit driver.Driver
// implementation, for callers using a driver library this module doesn't
// auto-detect.
func WithDriver(d driver.Driver) Option {
	return func(e *Engine) error {
		e.driver = d
		return nil
	}
}

// WithBasePath sets the root directory under which schema directories are
// looked up (spec §6.1's <base>).
func WithBasePath(path string) Option {
	return func(e *Engine) error {
		e.basePath = path
		return nil
	}
}

// WithSchemaPath sets the driver's script directory directly, instead of
// resolving it under <base>/<schema-name> (spec §6.3). The path's parent
// directory is used as the schema root for _common lookups, and the
// _generic fallback is not applied.
func WithSchemaPath(path string) Option {
	return func(e *Engine) error {
		e.schemaPath = &path
		return nil
	}
}

// WithLogger sets the logger used by the Engine, following app/option.go's
// WithLogger. The logger is used as given; WithPrettyLogger builds a
// tint-backed one instead.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) error {
		e.logger = logger
		return nil
	}
}

// WithPrettyLogger installs a tint-backed default logger writing to w,
// matching the teacher's app/option.go WithLogger construction, for callers
// that want the engine's own log style instead of supplying one.
func WithPrettyLogger(w interface {
	Write([]byte) (int, error)
}, noColor bool) Option {
	return func(e *Engine) error {
		lvl := &slog.LevelVar{}
		lvl.Set(slog.LevelInfo)
		e.logger = slog.New(tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			NoColor:    noColor,
			TimeFormat: "2006-01-02 15:04:05.000",
		}))
		return nil
	}
}

// PrettyWriter wraps f the way cmd/sesame/main.go wraps its own stdout and
// stderr before handing them to the application: through go-colorable, so
// the ANSI sequences tint emits still render on a Windows console that
// doesn't natively process them, paired with the go-isatty check that
// decides whether f is actually a terminal worth coloring at all. Callers
// pass the returned writer and the negation of the returned bool to
// WithPrettyLogger.
func PrettyWriter(f *os.File) (io.Writer, bool) {
	return colorable.NewColorable(f), isatty.IsTerminal(f.Fd())
}

// WithTimeSource sets the clock the engine's bookkeeping writes and log
// timestamps use, following models.TimeSource / app.WithTimeNow.
func WithTimeSource(clock TimeSource) Option {
	return func(e *Engine) error {
		e.clock = clock
		return nil
	}
}

// WithFS sets the filesystem scripts are read through, following
// app/app.go's default of memoryfs.New() and cmd/sesame/main.go's
// production wiring of osfs.New(). Without WithFS, the engine reads the
// real disk through osfs.New().
func WithFS(fsys vfs.FileSystem) Option {
	return func(e *Engine) error {
		e.fs = fsys
		return nil
	}
}

// systemClock implements TimeSource with the real wall clock, the engine's
// default absent WithTimeSource, mirroring cmd/sesame/main.go's osTime.
type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// defaultOptions returns the Engine defaults applied before user options,
// following firewall.DefaultOptions.
func defaultOptions() []Option {
	return []Option{
		WithTimeSource(systemClock{}),
		WithLogger(slog.Default()),
	}
}

// deriveSchemaName implements spec §6.3's schema-name default: a
// transformation of desired-version-source replacing "::" with "-".
func deriveSchemaName(source string) string {
	return strings.ReplaceAll(source, "::", "-")
}

func (e *Engine) applyDefaultsAndValidate() error {
	if e.schemaName == "" {
		if e.desiredVersionSource == "" {
			return fmt.Errorf("schema name is required: set WithSchemaName or WithDesiredVersionSource")
		}
		e.schemaName = deriveSchemaName(e.desiredVersionSource)
	}

	if e.schemaPath == nil {
		if e.basePath == "" {
			return fmt.Errorf("base path is required: set WithBasePath or WithSchemaPath")
		}
	}

	return nil
}
