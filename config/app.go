package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type PracticeMatchMode string

const (
	PracticeMatchSubstring PracticeMatchMode = "substring"
	PracticeMatchExact     PracticeMatchMode = "exact"
)

type AppConfig struct {
	Port        string
	Environment string
	LogLevel    string
	CORSOrigins []string
	// DebugRoutes exposes the unauthenticated pending-moderation listing.
	DebugRoutes bool

	Search   SearchConfig
	Workflow WorkflowConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

type SearchConfig struct {
	MaxLimit        int
	PracticeMatch   PracticeMatchMode
	IncludeEvidence bool
	ExtendedSort    bool
}

type WorkflowConfig struct {
	// StrictAnalysisEnums rejects researchType/participantType values outside
	// their enums instead of storing them verbatim.
	StrictAnalysisEnums bool
	// RequireApprovalForAnalysis refuses Analyze unless the article is approved.
	RequireApprovalForAnalysis bool
}

type AuthConfig struct {
	// VerifyUserOnRequest reloads the user on every authenticated request and
	// uses the stored role instead of the token claim.
	VerifyUserOnRequest bool
	// AllowRoleSelection lets public registration ask for a role other than
	// submitter.
	AllowRoleSelection bool
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	Path            string
	MaxIdleConns    int
	MaxOpenConns    int
	ConnMaxLifetime time.Duration
}

// Load reads the given dotenv files (".env" when none) and the process
// environment. It reports whether the files were loaded.
func Load(envFiles ...string) (*AppConfig, bool) {
	envLoaded := godotenv.Load(envFiles...) == nil
	SetJWTSecret(os.Getenv("JWT_SECRET"))

	return &AppConfig{
		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    os.Getenv("LOG_LEVEL"),
		CORSOrigins: splitList(getEnv("CORS_ORIGIN", "http://localhost:3000")),
		DebugRoutes: getEnvBool("DEBUG_ROUTES", false),
		Search: SearchConfig{
			MaxLimit:        getEnvInt("SEARCH_MAX_LIMIT", 100),
			PracticeMatch:   parsePracticeMatch(os.Getenv("SE_PRACTICE_MATCH")),
			IncludeEvidence: getEnvBool("SEARCH_INCLUDE_EVIDENCE", true),
			ExtendedSort:    getEnvBool("SEARCH_EXTENDED_SORT", false),
		},
		Workflow: WorkflowConfig{
			StrictAnalysisEnums:        getEnvBool("STRICT_ANALYSIS_ENUMS", true),
			RequireApprovalForAnalysis: getEnvBool("REQUIRE_APPROVAL_FOR_ANALYSIS", false),
		},
		Auth: AuthConfig{
			VerifyUserOnRequest: getEnvBool("AUTH_VERIFY_USER", false),
			AllowRoleSelection:  getEnvBool("AUTH_ALLOW_ROLE_SELECTION", false),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "postgres"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        os.Getenv("DB_PASSWORD"),
			Name:            getEnv("DB_NAME", "speed"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			Path:            getEnv("DB_PATH", "speed.db"),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 20),
			ConnMaxLifetime: time.Duration(getEnvInt("DB_CONN_MAX_LIFETIME", 300)) * time.Second,
		},
	}, envLoaded
}

// Defaults returns the configuration used when no environment is set.
func Defaults() *AppConfig {
	return &AppConfig{
		Port:        "8080",
		Environment: "development",
		CORSOrigins: []string{"http://localhost:3000"},
		Search: SearchConfig{
			MaxLimit:        100,
			PracticeMatch:   PracticeMatchSubstring,
			IncludeEvidence: true,
		},
		Workflow: WorkflowConfig{StrictAnalysisEnums: true},
	}
}

func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production"
}

func parsePracticeMatch(v string) PracticeMatchMode {
	if strings.EqualFold(v, string(PracticeMatchExact)) {
		return PracticeMatchExact
	}
	return PracticeMatchSubstring
}

func getEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getEnvBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
