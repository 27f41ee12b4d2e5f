// Package config loads devpulse configuration from YAML, environment
// files, and environment-variable overrides.
package config

import (
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/devpulse/devpulse/internal/models"
	"github.com/devpulse/devpulse/internal/pulseerr"
)

// Platform selects the provider variant.
type Platform string

const (
	PlatformHostedA    Platform = "hostedA"
	PlatformHostedB    Platform = "hostedB"
	PlatformEnterprise Platform = "enterprise"
	PlatformLocalClone Platform = "localClone"
)

type Config struct {
	Project      ProjectConfig      `mapstructure:"project"`
	Git          GitConfig          `mapstructure:"git"`
	Thresholds   Thresholds         `mapstructure:"thresholds"`
	WorkingHours WorkingHours       `mapstructure:"working_hours"`
	Analysis     AnalysisConfig     `mapstructure:"analysis"`
	Repositories []RepositoryConfig `mapstructure:"repositories"`
	Web          WebConfig          `mapstructure:"web"`
	Fetch        FetchConfig        `mapstructure:"fetch"`
	Output       OutputConfig       `mapstructure:"output"`
	Notify       NotifyConfig       `mapstructure:"notify"`
}

type ProjectConfig struct {
	Name string `mapstructure:"name"`
}

type GitConfig struct {
	Platform          Platform `mapstructure:"platform"`
	Token             string   `mapstructure:"token"`
	Org               string   `mapstructure:"org"`
	BaseURL           string   `mapstructure:"base_url"`
	EnterpriseOrgID   string   `mapstructure:"enterprise_org_id"`
	EnterpriseProject string   `mapstructure:"enterprise_project"`
}

type Thresholds struct {
	LargeCommit       int     `mapstructure:"large_commit"`
	TinyCommit        int     `mapstructure:"tiny_commit"`
	ChurnDays         int     `mapstructure:"churn_days"`
	ChurnCount        int     `mapstructure:"churn_count"`
	ChurnRateWarning  float64 `mapstructure:"churn_rate_warning"`
	ChurnRateDanger   float64 `mapstructure:"churn_rate_danger"`
	ReworkAddDays     int     `mapstructure:"rework_add_days"`
	ReworkDeleteDays  int     `mapstructure:"rework_delete_days"`
	ReworkRateWarning float64 `mapstructure:"rework_rate_warning"`
	ReworkRateDanger  float64 `mapstructure:"rework_rate_danger"`
	HotspotDays       int     `mapstructure:"hotspot_days"`
	HotspotCount      int     `mapstructure:"hotspot_count"`
	LargeFile         int     `mapstructure:"large_file"`
	MultiAuthorCount  int     `mapstructure:"multi_author_count"`
	HealthExcellent   int     `mapstructure:"health_score_excellent"`
	HealthGood        int     `mapstructure:"health_score_good"`
	HealthWarning     int     `mapstructure:"health_score_warning"`
}

// WorkingHours holds HH:MM clock strings. The late-night window may
// cross midnight (start later than end).
type WorkingHours struct {
	NormalStart    string `mapstructure:"normal_start"`
	NormalEnd      string `mapstructure:"normal_end"`
	OvertimeStart  string `mapstructure:"overtime_start"`
	OvertimeEnd    string `mapstructure:"overtime_end"`
	LateNightStart string `mapstructure:"late_night_start"`
	LateNightEnd   string `mapstructure:"late_night_end"`
}

type AnalysisConfig struct {
	ExcludePatterns []string `mapstructure:"exclude_patterns"`
	ExcludeDirs     []string `mapstructure:"exclude_dirs"`
}

type RepositoryConfig struct {
	ID         string `mapstructure:"id"`
	Name       string `mapstructure:"name"`
	URL        string `mapstructure:"url"`
	Type       string `mapstructure:"type"`
	MainBranch string `mapstructure:"main_branch"`
}

type WebConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type FetchConfig struct {
	Workers int           `mapstructure:"workers"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type OutputConfig struct {
	ReportsDir   string `mapstructure:"reports_dir"`
	DashboardDir string `mapstructure:"dashboard_dir"`
}

type NotifyConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Project: ProjectConfig{Name: "devpulse"},
		Git:     GitConfig{Platform: PlatformLocalClone},
		Thresholds: Thresholds{
			LargeCommit:       500,
			TinyCommit:        10,
			ChurnDays:         3,
			ChurnCount:        5,
			ChurnRateWarning:  10,
			ChurnRateDanger:   30,
			ReworkAddDays:     7,
			ReworkDeleteDays:  3,
			ReworkRateWarning: 15,
			ReworkRateDanger:  30,
			HotspotDays:       7,
			HotspotCount:      10,
			LargeFile:         1000,
			MultiAuthorCount:  3,
			HealthExcellent:   80,
			HealthGood:        60,
			HealthWarning:     40,
		},
		WorkingHours: WorkingHours{
			NormalStart:    "09:00",
			NormalEnd:      "18:00",
			OvertimeStart:  "18:00",
			OvertimeEnd:    "21:00",
			LateNightStart: "22:00",
			LateNightEnd:   "06:00",
		},
		Analysis: AnalysisConfig{
			ExcludePatterns: []string{
				"*.md", "*.txt", "*.json", "*.xml", "*.yaml", "*.yml",
				"package-lock.json", "pom.xml", ".gitignore", "LICENSE",
			},
			ExcludeDirs: []string{
				"node_modules", ".git", ".idea", "__pycache__",
				"target", "build", "dist", "venv", ".venv",
			},
		},
		Fetch:  FetchConfig{Workers: 4, Timeout: 30 * time.Second},
		Output: OutputConfig{ReportsDir: "reports", DashboardDir: "dashboard"},
	}
}

// Load reads configuration from the given path (or the default search
// locations when path is empty), applies environment overrides, and
// expands ${VAR} references in string values.
func Load(path string) (*Config, error) {
	loadEnvFiles()

	v := viper.New()
	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("devpulse")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".devpulse"))
		}
	}

	setDefaults(v)

	v.SetEnvPrefix("DEVPULSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); path != "" || !notFound {
			return nil, pulseerr.WrapErr(pulseerr.ErrConfig, err, "read config")
		}
		logrus.Debug("no config file found, using defaults")
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, pulseerr.WrapErr(pulseerr.ErrConfig, err, "parse config")
	}

	applyEnvOverrides(cfg)
	expandAll(cfg)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadEnvFiles() {
	for _, name := range []string{".env.local", ".env"} {
		if _, err := os.Stat(name); err == nil {
			if err := godotenv.Load(name); err != nil {
				logrus.WithError(err).Warnf("failed to load %s", name)
			}
		}
	}
	if home, err := os.UserHomeDir(); err == nil {
		p := filepath.Join(home, ".devpulse", ".env")
		if _, err := os.Stat(p); err == nil {
			_ = godotenv.Load(p)
		}
	}
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("project.name", d.Project.Name)
	v.SetDefault("git.platform", string(d.Git.Platform))
	v.SetDefault("thresholds.large_commit", d.Thresholds.LargeCommit)
	v.SetDefault("thresholds.tiny_commit", d.Thresholds.TinyCommit)
	v.SetDefault("thresholds.churn_days", d.Thresholds.ChurnDays)
	v.SetDefault("thresholds.churn_count", d.Thresholds.ChurnCount)
	v.SetDefault("thresholds.churn_rate_warning", d.Thresholds.ChurnRateWarning)
	v.SetDefault("thresholds.churn_rate_danger", d.Thresholds.ChurnRateDanger)
	v.SetDefault("thresholds.rework_add_days", d.Thresholds.ReworkAddDays)
	v.SetDefault("thresholds.rework_delete_days", d.Thresholds.ReworkDeleteDays)
	v.SetDefault("thresholds.rework_rate_warning", d.Thresholds.ReworkRateWarning)
	v.SetDefault("thresholds.rework_rate_danger", d.Thresholds.ReworkRateDanger)
	v.SetDefault("thresholds.hotspot_days", d.Thresholds.HotspotDays)
	v.SetDefault("thresholds.hotspot_count", d.Thresholds.HotspotCount)
	v.SetDefault("thresholds.large_file", d.Thresholds.LargeFile)
	v.SetDefault("thresholds.multi_author_count", d.Thresholds.MultiAuthorCount)
	v.SetDefault("thresholds.health_score_excellent", d.Thresholds.HealthExcellent)
	v.SetDefault("thresholds.health_score_good", d.Thresholds.HealthGood)
	v.SetDefault("thresholds.health_score_warning", d.Thresholds.HealthWarning)
	v.SetDefault("working_hours.normal_start", d.WorkingHours.NormalStart)
	v.SetDefault("working_hours.normal_end", d.WorkingHours.NormalEnd)
	v.SetDefault("working_hours.overtime_start", d.WorkingHours.OvertimeStart)
	v.SetDefault("working_hours.overtime_end", d.WorkingHours.OvertimeEnd)
	v.SetDefault("working_hours.late_night_start", d.WorkingHours.LateNightStart)
	v.SetDefault("working_hours.late_night_end", d.WorkingHours.LateNightEnd)
	v.SetDefault("analysis.exclude_patterns", d.Analysis.ExcludePatterns)
	v.SetDefault("analysis.exclude_dirs", d.Analysis.ExcludeDirs)
	v.SetDefault("fetch.workers", d.Fetch.Workers)
	v.SetDefault("fetch.timeout", d.Fetch.Timeout)
	v.SetDefault("output.reports_dir", d.Output.ReportsDir)
	v.SetDefault("output.dashboard_dir", d.Output.DashboardDir)
}

// applyEnvOverrides handles the legacy flat variable names that predate
// the DEVPULSE_ prefix. Set variables always win over file values.
func applyEnvOverrides(cfg *Config) {
	if s := os.Getenv("GIT_PLATFORM"); s != "" {
		cfg.Git.Platform = Platform(s)
	}
	if s := os.Getenv("GIT_TOKEN"); s != "" {
		cfg.Git.Token = s
	}
	if s := os.Getenv("GIT_ORG"); s != "" {
		cfg.Git.Org = s
	}
	if s := os.Getenv("GIT_BASE_URL"); s != "" {
		cfg.Git.BaseURL = s
	}
	if s := os.Getenv("ENTERPRISE_ORG_ID"); s != "" {
		cfg.Git.EnterpriseOrgID = s
	}
	if s := os.Getenv("ENTERPRISE_PROJECT"); s != "" {
		cfg.Git.EnterpriseProject = s
	}
	if s := os.Getenv("PROJECT_NAME"); s != "" {
		cfg.Project.Name = s
	}
	if s := os.Getenv("WEB_BASE_URL"); s != "" {
		cfg.Web.BaseURL = s
	}
	if s := os.Getenv("NOTIFY_WEBHOOK_URL"); s != "" {
		cfg.Notify.WebhookURL = s
	}
	applyThresholdEnv(cfg)
	if s := os.Getenv("REPOSITORIES"); s != "" {
		if repos := ParseRepositoriesEnv(s); len(repos) > 0 {
			cfg.Repositories = repos
		}
	}
}

func applyThresholdEnv(cfg *Config) {
	ints := map[string]*int{
		"THRESHOLD_LARGE_COMMIT":       &cfg.Thresholds.LargeCommit,
		"THRESHOLD_TINY_COMMIT":        &cfg.Thresholds.TinyCommit,
		"THRESHOLD_CHURN_DAYS":         &cfg.Thresholds.ChurnDays,
		"THRESHOLD_CHURN_COUNT":        &cfg.Thresholds.ChurnCount,
		"THRESHOLD_HOTSPOT_DAYS":       &cfg.Thresholds.HotspotDays,
		"THRESHOLD_HOTSPOT_COUNT":      &cfg.Thresholds.HotspotCount,
		"THRESHOLD_LARGE_FILE":         &cfg.Thresholds.LargeFile,
		"THRESHOLD_MULTI_AUTHOR_COUNT": &cfg.Thresholds.MultiAuthorCount,
	}
	for name, dst := range ints {
		if s := os.Getenv(name); s != "" {
			if n, err := strconv.Atoi(s); err == nil {
				*dst = n
			} else {
				logrus.Warnf("ignoring %s=%q: not an integer", name, s)
			}
		}
	}
}

// ParseRepositoriesEnv parses the REPOSITORIES fallback format:
// comma-separated "name|url|type|main_branch" entries, trailing fields
// optional.
func ParseRepositoriesEnv(s string) []RepositoryConfig {
	var repos []RepositoryConfig
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		parts := strings.Split(item, "|")
		repo := RepositoryConfig{Name: strings.TrimSpace(parts[0])}
		if repo.Name == "" {
			continue
		}
		if len(parts) > 1 {
			repo.URL = strings.TrimSpace(parts[1])
		}
		if len(parts) > 2 {
			repo.Type = strings.TrimSpace(parts[2])
		}
		if len(parts) > 3 {
			repo.MainBranch = strings.TrimSpace(parts[3])
		}
		repos = append(repos, repo)
	}
	return repos
}

var envRefPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// Expand substitutes ${VAR} and ${VAR:-default} references with
// environment values. Unset variables without a default expand to "".
func Expand(s string) string {
	return envRefPattern.ReplaceAllStringFunc(s, func(ref string) string {
		m := envRefPattern.FindStringSubmatch(ref)
		if val, ok := os.LookupEnv(m[1]); ok && val != "" {
			return val
		}
		return m[2]
	})
}

func expandAll(cfg *Config) {
	cfg.Project.Name = Expand(cfg.Project.Name)
	cfg.Git.Token = Expand(cfg.Git.Token)
	cfg.Git.Org = Expand(cfg.Git.Org)
	cfg.Git.BaseURL = Expand(cfg.Git.BaseURL)
	cfg.Git.EnterpriseOrgID = Expand(cfg.Git.EnterpriseOrgID)
	cfg.Git.EnterpriseProject = Expand(cfg.Git.EnterpriseProject)
	cfg.Web.BaseURL = Expand(cfg.Web.BaseURL)
	cfg.Notify.WebhookURL = Expand(cfg.Notify.WebhookURL)
	for i := range cfg.Repositories {
		cfg.Repositories[i].URL = Expand(cfg.Repositories[i].URL)
	}
}

func validate(cfg *Config) error {
	switch cfg.Git.Platform {
	case PlatformHostedA, PlatformHostedB, PlatformEnterprise, PlatformLocalClone:
	default:
		return pulseerr.Wrap(pulseerr.ErrConfig, "unknown git.platform %q", cfg.Git.Platform)
	}
	if cfg.Fetch.Workers <= 0 {
		return pulseerr.Wrap(pulseerr.ErrConfig, "fetch.workers must be positive, got %d", cfg.Fetch.Workers)
	}
	if cfg.Thresholds.LargeCommit <= 0 {
		return pulseerr.Wrap(pulseerr.ErrConfig, "thresholds.large_commit must be positive")
	}
	for _, clock := range []string{
		cfg.WorkingHours.NormalStart, cfg.WorkingHours.NormalEnd,
		cfg.WorkingHours.OvertimeStart, cfg.WorkingHours.OvertimeEnd,
		cfg.WorkingHours.LateNightStart, cfg.WorkingHours.LateNightEnd,
	} {
		if _, err := ParseClock(clock); err != nil {
			return err
		}
	}
	return nil
}

// Clock is a minute-of-day value parsed from an HH:MM string.
type Clock int

// Hour returns the hour component.
func (c Clock) Hour() int { return int(c) / 60 }

// Minutes returns the total minutes since midnight.
func (c Clock) Minutes() int { return int(c) }

// ParseClock parses "HH:MM" into a Clock.
func ParseClock(s string) (Clock, error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, pulseerr.Wrap(pulseerr.ErrConfig, "invalid clock %q", s)
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, pulseerr.Wrap(pulseerr.ErrConfig, "invalid clock %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, pulseerr.Wrap(pulseerr.ErrConfig, "invalid clock %q", s)
	}
	return Clock(h*60 + m), nil
}

// RepoType maps the configured type string to the model enum.
func (r RepositoryConfig) RepoType() models.RepoType {
	switch strings.ToLower(r.Type) {
	case "java":
		return models.RepoTypeJava
	case "python":
		return models.RepoTypePython
	case "vue", "web", "web-frontend", "frontend":
		return models.RepoTypeWeb
	case "flutter", "mobile", "android", "ios":
		return models.RepoTypeMobile
	case "go", "golang":
		return models.RepoTypeGo
	case "rust":
		return models.RepoTypeRust
	case "infra":
		return models.RepoTypeInfra
	default:
		return models.RepoTypeUnknown
	}
}
