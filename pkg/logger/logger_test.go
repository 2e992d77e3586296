package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLoggerInit(t *testing.T) {
	err := Init()
	if err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}
	defer func() {
		if err := Sync(); err != nil {
			t.Errorf("failed to sync logger: %v", err)
		}
	}()

	logger := Get()
	if logger == nil {
		t.Fatal("logger is nil after initialization")
	}

	if err := Init(WithFormat("xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLoggerNamed(t *testing.T) {
	var buf bytes.Buffer
	if err := Init(WithWriter(&buf)); err != nil {
		t.Fatalf("failed to initialize logger: %v", err)
	}

	namedLogger := Named("loader")
	if namedLogger == nil {
		t.Fatal("named logger is nil")
	}

	namedLogger.Info(context.Background(), "test message")
	if !strings.Contains(buf.String(), "component=loader") {
		t.Fatalf("expected component attribute, got %q", buf.String())
	}
}

func TestLoggerStructured(t *testing.T) {
	Convey("Given a JSON logger", t, func() {
		var buf bytes.Buffer
		So(Init(WithFormat("json"), WithWriter(&buf)), ShouldBeNil)

		Convey("When logging with fields", func() {
			Get().With(String("session", "abc")).Info(context.Background(), "table loaded",
				Int("rows", 3),
				Bool("cached", true),
				Duration("took", 1500*time.Millisecond),
			)

			var entry map[string]any
			So(json.Unmarshal(buf.Bytes(), &entry), ShouldBeNil)

			Convey("Then every field is rendered", func() {
				So(entry["msg"], ShouldEqual, "table loaded")
				So(entry["session"], ShouldEqual, "abc")
				So(entry["rows"], ShouldEqual, float64(3))
				So(entry["cached"], ShouldEqual, true)
				So(entry["took"], ShouldEqual, "1.5s")
				So(entry["source"], ShouldContainSubstring, "logger_test.go")
			})
		})

		Convey("When logging inside a request carrying a request id", func() {
			var ctx context.Context
			h := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx = r.Context()
			}))
			h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
			Get().Info(ctx, "search")

			Convey("Then the request id is attached", func() {
				So(buf.String(), ShouldContainSubstring, `"request_id"`)
			})
		})

		Convey("When the level is raised above the message level", func() {
			So(SetLevelString("warn"), ShouldBeNil)
			Get().Info(context.Background(), "hidden")
			So(buf.Len(), ShouldEqual, 0)
			So(SetLevelString("info"), ShouldBeNil)
		})

		Convey("When an unknown level is given", func() {
			So(SetLevelString("verbose"), ShouldNotBeNil)
		})
	})
}
