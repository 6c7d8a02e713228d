package config_test

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/okian/trackfield/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()

		convey.Convey("When loading config with defaults only", func() {
			clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldNotBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "data")
				convey.So(cfg.ReadyTimeoutMS, convey.ShouldEqual, 7000)
				convey.So(cfg.AutoProceed, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("TF_DATA_DIR", "/tmp/tf")
			_ = os.Setenv("TF_READY_TIMEOUT_MS", "2500")
			_ = os.Setenv("TF_AUTO_PROCEED", "true")
			_ = os.Setenv("TF_COMPETITORS", "bots/a.cfg, bots/b.cfg")
			_ = os.Setenv("TF_EVENTS", "DemolitionDerby")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/tmp/tf")
				convey.So(cfg.ReadyTimeoutMS, convey.ShouldEqual, 2500)
				convey.So(cfg.AutoProceed, convey.ShouldBeTrue)
				convey.So(cfg.Competitors, convey.ShouldResemble, []string{"bots/a.cfg", "bots/b.cfg"})
				convey.So(cfg.Events, convey.ShouldResemble, []string{"DemolitionDerby"})
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			yamlContent := `
data_dir: "/srv/trackfield"
derby_max_duration: 90
derby_perma_death: false
race_waypoint_count: 6
competitors:
  - bots/atba.cfg
  - bots/kickoff.cfg
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TF_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/trackfield")
				convey.So(cfg.DerbyMaxDuration, convey.ShouldEqual, 90)
				convey.So(cfg.DerbyPermaDeath, convey.ShouldBeFalse)
				convey.So(cfg.RaceWaypointCount, convey.ShouldEqual, 6)
				convey.So(cfg.Competitors, convey.ShouldResemble, []string{"bots/atba.cfg", "bots/kickoff.cfg"})
				convey.So(cfg.RaceWaypointTolerance, convey.ShouldEqual, 100) // From defaults
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			yamlContent := `
data_dir: "/srv/trackfield"
ready_timeout_ms: 4000
`
			tmpFile := createTempConfigFile(yamlContent)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TF_CONFIG", tmpFile)
			_ = os.Setenv("TF_READY_TIMEOUT_MS", "9000")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DataDir, convey.ShouldEqual, "/srv/trackfield") // From file
				convey.So(cfg.ReadyTimeoutMS, convey.ShouldEqual, 9000)       // Overridden by env
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempConfigFile(`invalid: yaml: content: [`)
			defer func() { _ = os.Remove(tmpFile) }()

			_ = os.Setenv("TF_CONFIG", tmpFile)
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("TF_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty data dir", func() {
			_ = os.Setenv("TF_DATA_DIR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, "data_dir must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("TF_READY_TIMEOUT_MS", "soon")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with a non-positive timeout", func() {
			_ = os.Setenv("TF_READY_TIMEOUT_MS", "0")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then validation rejects it", func() {
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})
	})
}

// Helper functions.

func clearConfigEnvVars() {
	envVars := []string{
		"TF_CONFIG",
		"TF_DATA_DIR",
		"TF_READY_TIMEOUT_MS",
		"TF_AUTO_PROCEED",
		"TF_COMPETITORS",
		"TF_EVENTS",
	}
	for _, envVar := range envVars {
		_ = os.Unsetenv(envVar)
	}
}

func createTempConfigFile(content string) string {
	tmpFile, err := os.CreateTemp("", "trackfield-config-*.yaml")
	if err != nil {
		panic(err)
	}
	if _, err := tmpFile.WriteString(content); err != nil {
		panic(err)
	}
	if err := tmpFile.Close(); err != nil {
		panic(err)
	}
	return tmpFile.Name()
}
