package logger

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

// logSite stands in for a logging method so getCaller skips the same
// number of frames as it does in production.
func logSite() string { return getCaller() }

func TestCallerAnnotation(t *testing.T) {
	Convey("Given the caller helper", t, func() {
		Convey("When resolving the call site through a logging-method frame", func() {
			loc := logSite()

			Convey("Then it names this test file and a line number", func() {
				So(loc, ShouldContainSubstring, "caller_test.go:")
				parts := strings.Split(loc, ":")
				So(len(parts), ShouldEqual, 2)
				So(parts[1], ShouldNotBeEmpty)
			})
		})
	})
}

func TestRecordsCarrySource(t *testing.T) {
	Convey("Given a logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		l := &slogLogger{logger: slog.New(slog.NewTextHandler(&buf, nil))}

		Convey("When logging at each level", func() {
			ctx := context.Background()
			l.Info(ctx, "info message", String("k", "v"))
			l.Warn(ctx, "warn message")
			l.Error(ctx, "error message")

			Convey("Then every record carries its call site", func() {
				out := buf.String()
				So(strings.Count(out, "source="), ShouldEqual, 3)
				So(out, ShouldContainSubstring, "caller_test.go")
			})
		})
	})
}
