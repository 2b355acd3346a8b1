package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"
	"strings"
	"time"
)

// classified is implemented by the config, samplesheet and fileutil errors.
type classified interface {
	ErrorKind() string
}

// newJSONHandler writes one object per line with short top-level keys
// (ts, level, msg, source). Durations are rendered in seconds and classified
// errors as {"message", "kind"} so log processors can group failures.
func newJSONHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   addSource,
		ReplaceAttr: replaceJSONAttr,
	})
}

func replaceJSONAttr(groups []string, attr slog.Attr) slog.Attr {
	if len(groups) == 0 {
		switch attr.Key {
		case slog.TimeKey:
			attr.Key = "ts"
			if attr.Value.Kind() == slog.KindTime {
				attr.Value = slog.StringValue(attr.Value.Time().UTC().Format(time.RFC3339Nano))
			}
			return attr
		case slog.LevelKey:
			attr.Value = slog.StringValue(strings.ToLower(attr.Value.String()))
			return attr
		case slog.SourceKey:
			if src, ok := attr.Value.Any().(*slog.Source); ok && src != nil {
				attr.Value = slog.StringValue(fmt.Sprintf("%s:%d", filepath.Base(src.File), src.Line))
			}
			return attr
		}
	}

	switch attr.Value.Kind() {
	case slog.KindDuration:
		attr.Value = slog.Float64Value(math.Round(attr.Value.Duration().Seconds()*1000) / 1000)
	case slog.KindAny:
		err, ok := attr.Value.Any().(error)
		if !ok || err == nil {
			break
		}
		var kinded classified
		if errors.As(err, &kinded) {
			attr.Value = slog.GroupValue(
				slog.String("message", err.Error()),
				slog.String("kind", kinded.ErrorKind()),
			)
		} else {
			attr.Value = slog.StringValue(err.Error())
		}
	}
	return attr
}
