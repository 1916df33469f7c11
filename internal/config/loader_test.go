package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/smartystreets/goconvey/convey"

	"github.com/okian/collegeapi/internal/config"
)

var managedEnv = []string{
	"COLLEGEAPI_CONFIG", "COLLEGEAPI_ADDR", "COLLEGEAPI_LOG_LEVEL", "COLLEGEAPI_STORE_DRIVER",
	"COLLEGEAPI_DATABASE_URL", "COLLEGEAPI_LLM_PROVIDER", "COLLEGEAPI_OPENAI_MODEL",
	"COLLEGEAPI_SCORECARD_API_KEY", "COLLEGEAPI_SCORECARD_TIMEOUT_MS", "COLLEGEAPI_CORS_ORIGINS",
	"COLLEGEAPI_SUPABASE_URL", "COLLEGEAPI_SUPABASE_KEY",
	"COLLEGE_SCORECARD_API_KEY", "COLLEGE_SCORECARD_BASE_URL",
	"SUPABASE_URL", "EXPO_PUBLIC_SUPABASE_URL", "SUPABASE_KEY", "EXPO_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY",
	"OPENAI_API_KEY", "OPENAI_MODEL", "GEMINI_API_KEY", "DATABASE_URL",
}

// clearConfigEnv unsets every variable Load reads and restores them when t ends.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, name := range managedEnv {
		t.Setenv(name, "")
		_ = os.Unsetenv(name)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StoreMemory)
			convey.So(cfg.LLMProvider, convey.ShouldEqual, config.ProviderOpenAI)
			convey.So(cfg.OpenAIModel, convey.ShouldEqual, "gpt-4o-mini")
			convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.MaxUploadBytes, convey.ShouldEqual, int64(10<<20))
			convey.So(cfg.ScorecardTimeout().Seconds(), convey.ShouldEqual, 15.0)
			convey.So(cfg.AuthTimeout().Seconds(), convey.ShouldEqual, 10.0)
			convey.So(cfg.LLMTimeout().Seconds(), convey.ShouldEqual, 60.0)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestLoad_Defaults(t *testing.T) {
	clearConfigEnv(t)
	convey.Convey("When loading config with defaults only", t, func() {
		cfg, err := config.Load(context.Background())

		convey.So(err, convey.ShouldBeNil)
		convey.So(cfg.Addr, convey.ShouldEqual, ":5000")
		convey.So(cfg.ScorecardAPIKey, convey.ShouldEqual, "")
		convey.So(cfg.ScorecardTimeoutMS, convey.ShouldEqual, 15000)
	})
}

func TestLoad_PrefixedEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("COLLEGEAPI_ADDR", ":8080")
	t.Setenv("COLLEGEAPI_SCORECARD_TIMEOUT_MS", "2500")
	t.Setenv("COLLEGEAPI_SCORECARD_API_KEY", "prefixed")
	t.Setenv("COLLEGE_SCORECARD_API_KEY", "legacy")
	t.Setenv("COLLEGEAPI_CORS_ORIGINS", "https://a.example,https://b.example")

	convey.Convey("When prefixed env vars are set", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then they override defaults and win over legacy names", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
			convey.So(cfg.ScorecardTimeoutMS, convey.ShouldEqual, 2500)
			convey.So(cfg.ScorecardAPIKey, convey.ShouldEqual, "prefixed")
			convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://a.example", "https://b.example"})
		})
	})
}

func TestLoad_LegacyEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("COLLEGE_SCORECARD_API_KEY", "scorecard-key")
	t.Setenv("EXPO_PUBLIC_SUPABASE_URL", "https://proj.supabase.co")
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")

	convey.Convey("When only legacy env names are set", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then they fill the unset settings", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.ScorecardAPIKey, convey.ShouldEqual, "scorecard-key")
			convey.So(cfg.SupabaseURL, convey.ShouldEqual, "https://proj.supabase.co")
			convey.So(cfg.SupabaseKey, convey.ShouldEqual, "anon")
			convey.So(cfg.OpenAIAPIKey, convey.ShouldEqual, "sk-test")
			convey.So(cfg.OpenAIModel, convey.ShouldEqual, "gpt-4.1-mini")
		})
	})
}

func TestLoad_File(t *testing.T) {
	clearConfigEnv(t)
	path := writeConfig(t, `
addr: ":9090"
log_level: debug
llm_provider: gemini
gemini_model: gemini-2.5-pro
cors_origins:
  - https://app.example
store_driver: postgres
database_url: postgres://localhost/colleges
`)
	t.Setenv("COLLEGEAPI_CONFIG", path)
	t.Setenv("COLLEGEAPI_ADDR", ":7070")

	convey.Convey("When loading config with a YAML file and env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the file is applied and env wins", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			convey.So(cfg.LLMProvider, convey.ShouldEqual, config.ProviderGemini)
			convey.So(cfg.GeminiModel, convey.ShouldEqual, "gemini-2.5-pro")
			convey.So(cfg.CORSOrigins, convey.ShouldResemble, []string{"https://app.example"})
			convey.So(cfg.StoreDriver, convey.ShouldEqual, config.StorePostgres)
		})
	})
}

func TestLoad_Errors(t *testing.T) {
	convey.Convey("Given invalid configuration sources", t, func() {
		convey.Convey("A missing config file is a load error", func() {
			clearConfigEnv(t)
			t.Setenv("COLLEGEAPI_CONFIG", "/non/existent/file.yaml")
			_, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("An unknown store driver is invalid", func() {
			clearConfigEnv(t)
			t.Setenv("COLLEGEAPI_STORE_DRIVER", "redis")
			_, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("Postgres without a database url is invalid", func() {
			clearConfigEnv(t)
			t.Setenv("COLLEGEAPI_STORE_DRIVER", "postgres")
			_, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("The legacy DATABASE_URL satisfies the postgres driver", func() {
			clearConfigEnv(t)
			t.Setenv("COLLEGEAPI_STORE_DRIVER", "postgres")
			t.Setenv("DATABASE_URL", "postgres://localhost/colleges")
			cfg, err := config.Load(context.Background())
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.DatabaseURL, convey.ShouldEqual, "postgres://localhost/colleges")
		})

		convey.Convey("An unknown provider is invalid", func() {
			clearConfigEnv(t)
			t.Setenv("COLLEGEAPI_LLM_PROVIDER", "llama")
			_, err := config.Load(context.Background())
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
