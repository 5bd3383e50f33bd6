package relocate

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/macropower/charon/pkg/log"
)

// Reason explains why a move did not happen.
type Reason int

const (
	ReasonNone Reason = iota
	// ReasonAlreadyExists means a file with the same name is already in the
	// destination directory. Nothing was touched.
	ReasonAlreadyExists
	// ReasonIOFailure means a filesystem operation failed. The error is
	// attached to the [Outcome].
	ReasonIOFailure
	// ReasonInPlace means the file is already in the destination directory.
	ReasonInPlace
)

func (r Reason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonAlreadyExists:
		return "already exists"
	case ReasonIOFailure:
		return "io failure"
	case ReasonInPlace:
		return "in place"
	}

	return fmt.Sprintf("Reason(%d)", int(r))
}

var (
	ErrAlreadyExists = errors.New("destination already exists")
	ErrIOFailure     = errors.New("io failure")
)

// Outcome is the result of a single [Relocator.Relocate] call.
type Outcome struct {
	Err         error
	Source      string
	Destination string
	Reason      Reason
	Succeeded   bool
}

func (o Outcome) String() string {
	if o.Succeeded {
		return fmt.Sprintf("moved %s to %s", o.Source, o.Destination)
	}

	return fmt.Sprintf("not moved %s: %s", o.Source, o.Reason)
}

// LogValue implements [slog.LogValuer].
func (o Outcome) LogValue() slog.Value {
	attrs := []slog.Attr{
		slog.Bool("succeeded", o.Succeeded),
		slog.String("destination", o.Destination),
	}
	if !o.Succeeded {
		attrs = append(attrs, slog.String("reason", o.Reason.String()))
	}

	if o.Err != nil {
		attrs = append(attrs, slog.Any("err", o.Err))
	}

	return slog.GroupValue(attrs...)
}

// Relocator moves files between directories.
type Relocator struct {
	fs     afero.Fs
	tracer trace.Tracer
	home   func() (string, error)
}

// Opt configures a [Relocator].
type Opt func(*Relocator)

// WithFs sets the filesystem. Defaults to [afero.NewOsFs].
func WithFs(fsys afero.Fs) Opt {
	return func(r *Relocator) {
		r.fs = fsys
	}
}

// WithHomeDir sets the directory "~" expands to. Defaults to
// [os.UserHomeDir].
func WithHomeDir(dir string) Opt {
	return func(r *Relocator) {
		r.home = func() (string, error) {
			return dir, nil
		}
	}
}

// New creates a new [Relocator].
func New(opts ...Opt) *Relocator {
	r := &Relocator{
		fs:     afero.NewOsFs(),
		tracer: otel.Tracer("relocator"),
		home:   os.UserHomeDir,
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// ExpandPath expands a leading "~" in dir to the user's home directory and
// makes the result absolute.
func (r *Relocator) ExpandPath(dir string) (string, error) {
	dir = strings.TrimSpace(dir)

	if dir == "~" || strings.HasPrefix(dir, "~/") {
		home, err := r.home()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}

		dir = filepath.Join(home, strings.TrimPrefix(dir, "~"))
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", dir, err)
	}

	return abs, nil
}

// Relocate moves source into destinationDir, keeping its base name. The
// directory is created when missing. An existing file at the target is
// never overwritten, and a failed move is not retried. A source that is
// already in destinationDir is left alone with [ReasonInPlace].
func (r *Relocator) Relocate(ctx context.Context, source, destinationDir string) Outcome {
	ctx, span := r.tracer.Start(ctx, "relocate", trace.WithAttributes(
		attribute.String("source", source),
		attribute.String("destination_dir", destinationDir),
	))
	defer span.End()

	logger := log.WithContext(ctx).With(slog.String("path", source))

	out := Outcome{Source: source}

	fail := func(reason Reason, err error) Outcome {
		out.Reason = reason
		out.Err = err

		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("reason", reason.String()))

		return out
	}

	dir, err := r.ExpandPath(destinationDir)
	if err != nil {
		return fail(ReasonIOFailure, fmt.Errorf("%w: %w", ErrIOFailure, err))
	}

	out.Destination = filepath.Join(dir, filepath.Base(source))

	if abs, absErr := filepath.Abs(source); absErr == nil && abs == out.Destination {
		out.Reason = ReasonInPlace
		span.SetAttributes(attribute.String("reason", ReasonInPlace.String()))

		return out
	}

	err = r.fs.MkdirAll(dir, 0o755)
	if err != nil {
		return fail(ReasonIOFailure, fmt.Errorf("%w: create directory: %w", ErrIOFailure, err))
	}

	// Lstat, so that a dangling symlink still counts as an existing file.
	_, err = r.lstat(out.Destination)
	if err == nil {
		return fail(ReasonAlreadyExists, fmt.Errorf("%w: %s", ErrAlreadyExists, out.Destination))
	}

	if !errors.Is(err, fs.ErrNotExist) {
		return fail(ReasonIOFailure, fmt.Errorf("%w: %w", ErrIOFailure, err))
	}

	info, err := r.fs.Stat(source)
	if err != nil {
		return fail(ReasonIOFailure, fmt.Errorf("%w: %w", ErrIOFailure, err))
	}

	err = r.move(source, out.Destination)
	if errors.Is(err, fs.ErrExist) {
		return fail(ReasonAlreadyExists, fmt.Errorf("%w: %s", ErrAlreadyExists, out.Destination))
	}

	if err != nil {
		return fail(ReasonIOFailure, fmt.Errorf("%w: move: %w", ErrIOFailure, err))
	}

	out.Succeeded = true

	logger.InfoContext(ctx, "moved file",
		slog.String("destination", out.Destination),
		slog.String("size", humanize.Bytes(uint64(max(0, info.Size())))), //nolint:gosec // Uses max.
	)

	return out
}

func (r *Relocator) lstat(path string) (fs.FileInfo, error) {
	if l, ok := r.fs.(afero.Lstater); ok {
		info, _, err := l.LstatIfPossible(path)

		return info, err //nolint:wrapcheck // Wrapped by the caller.
	}

	return r.fs.Stat(path) //nolint:wrapcheck // Wrapped by the caller.
}

// move renames source to target. On the OS filesystem the target is never
// replaced, even if it appeared after the existence check; other
// filesystems fall back to [afero.Fs.Rename].
func (r *Relocator) move(source, target string) error {
	if _, ok := r.fs.(*afero.OsFs); ok {
		return renameNoReplace(source, target)
	}

	return r.fs.Rename(source, target) //nolint:wrapcheck // Wrapped by the caller.
}

// linkAndRemove moves source to target with a hard link, which fails with
// [fs.ErrExist] instead of replacing target. Filesystems without hard links
// get a plain rename.
func linkAndRemove(source, target string) error {
	err := os.Link(source, target)
	if errors.Is(err, fs.ErrExist) {
		return err //nolint:wrapcheck // Wrapped by the caller.
	}

	if err != nil {
		return os.Rename(source, target) //nolint:wrapcheck // Wrapped by the caller.
	}

	err = os.Remove(source)
	if err != nil {
		return fmt.Errorf("remove source after link: %w", err)
	}

	return nil
}
