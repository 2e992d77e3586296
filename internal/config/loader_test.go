package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/cyclingdb/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 30_000)
				convey.So(cfg.MaxResultLimit, convey.ShouldEqual, 1000)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("CYCLINGDB_ADDR", ":8080")
			_ = os.Setenv("CYCLINGDB_FETCH_TIMEOUT_MS", "5000")
			_ = os.Setenv("CYCLINGDB_FETCH_RETRIES", "4")
			_ = os.Setenv("CYCLINGDB_CACHE_PATH", "/tmp/riders.csv")
			_ = os.Setenv("CYCLINGDB_SPECIALIZATION_MODE", "derived")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchTimeoutMS, convey.ShouldEqual, 5000)
				convey.So(cfg.FetchRetries, convey.ShouldEqual, 4)
				convey.So(cfg.CachePath, convey.ShouldEqual, "/tmp/riders.csv")
				convey.So(cfg.SpecializationMode, convey.ShouldEqual, "derived")
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
source_url: "http://localhost:8000/riders.csv"
max_result_limit: 500
default_result_limit: 50
`)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.SourceURL, convey.ShouldEqual, "http://localhost:8000/riders.csv")
				convey.So(cfg.MaxResultLimit, convey.ShouldEqual, 500)
				convey.So(cfg.DefaultResultLimit, convey.ShouldEqual, 50)
				convey.So(cfg.FetchRetries, convey.ShouldEqual, 2)
			})
		})

		convey.Convey("When the file path comes from CYCLINGDB_CONFIG", func() {
			tmpFile := createTempConfigFile(t, `addr: ":7070"`)
			_ = os.Setenv("CYCLINGDB_CONFIG", tmpFile)

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then the file is used", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			tmpFile := createTempConfigFile(t, `
addr: ":9090"
fetch_retries: 1
`)
			_ = os.Setenv("CYCLINGDB_ADDR", ":8080")

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.FetchRetries, convey.ShouldEqual, 1)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(t, `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, tmpFile)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			cfg, err := config.Load(ctx, "/non/existent/file.yaml")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("CYCLINGDB_FETCH_RETRIES", "not_a_number")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the loaded values fail validation", func() {
			_ = os.Setenv("CYCLINGDB_SPECIALIZATION_MODE", "guess")

			cfg, err := config.Load(ctx, "")

			convey.Convey("Then it should return a validation error", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "specialization_mode")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"CYCLINGDB_CONFIG",
		"CYCLINGDB_ADDR",
		"CYCLINGDB_FETCH_TIMEOUT_MS",
		"CYCLINGDB_FETCH_RETRIES",
		"CYCLINGDB_CACHE_PATH",
		"CYCLINGDB_SPECIALIZATION_MODE",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cyclingdb.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
