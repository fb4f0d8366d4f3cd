package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	configPathEnv    = "MARKET_RADAR_CONFIG"
	databasePathEnv  = "MARKET_RADAR_DB"
	geminiAPIKeyEnv  = "GEMINI_API_KEY"
	pushTokenEnv     = "PUSHPLUS_TOKEN"
	githubTokenEnv   = "GITHUB_TOKEN"
	xSessionEnv      = "X_SESSION_COOKIE"
	proxyURLEnv      = "MARKET_RADAR_PROXY"
)

// Config holds all settings handed to the core at startup.
type Config struct {
	Logging    LoggingConfig    `yaml:"logging"`
	Network    NetworkConfig    `yaml:"network"`
	Storage    StorageConfig    `yaml:"storage"`
	Scheduler  SchedulerConfig  `yaml:"scheduler"`
	GitHub     GitHubConfig     `yaml:"github"`
	HackerNews HackerNewsConfig `yaml:"hackernews"`
	XSearch    XSearchConfig    `yaml:"xsearch"`
	Feeds      []FeedConfig     `yaml:"feeds"`
	Keywords   KeywordsConfig   `yaml:"keywords"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	Push       PushConfig       `yaml:"push"`
	Report     ReportConfig     `yaml:"report"`
	Retry      RetryConfig      `yaml:"retry"`
}

// LoggingConfig selects the console log level.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// NetworkConfig applies to the shared HTTP client used by all adapters.
type NetworkConfig struct {
	ProxyURL       string `yaml:"proxyUrl"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
}

// Timeout returns the per-request HTTP timeout.
func (n NetworkConfig) Timeout() time.Duration {
	if n.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(n.TimeoutSeconds) * time.Second
}

// StorageConfig locates the dedup ledger database file.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// SchedulerConfig defines daemon cadence and the per-cycle deadline.
type SchedulerConfig struct {
	IntervalSeconds     int `yaml:"intervalSeconds"`
	CycleTimeoutSeconds int `yaml:"cycleTimeoutSeconds"`
}

// Interval returns the daemon loop interval.
func (s SchedulerConfig) Interval() time.Duration {
	if s.IntervalSeconds <= 0 {
		return time.Hour
	}
	return time.Duration(s.IntervalSeconds) * time.Second
}

// CycleTimeout returns the deadline for one ingestion cycle; zero disables it.
func (s SchedulerConfig) CycleTimeout() time.Duration {
	return time.Duration(s.CycleTimeoutSeconds) * time.Second
}

// GitHubConfig tunes the code-host search adapter.
type GitHubConfig struct {
	Token             string   `yaml:"token"`
	Keywords          []string `yaml:"keywords"`
	MinStars          int      `yaml:"minStars"`
	FreshnessDays     int      `yaml:"freshnessDays"`
	KeywordsPerCycle  int      `yaml:"keywordsPerCycle"`
	ResultsPerQuery   int      `yaml:"resultsPerQuery"`
	QueryDelaySeconds int      `yaml:"queryDelaySeconds"`
}

// QueryDelay returns the pause between successive search requests.
func (g GitHubConfig) QueryDelay() time.Duration {
	return time.Duration(g.QueryDelaySeconds) * time.Second
}

// HackerNewsConfig tunes the news-aggregator adapter.
type HackerNewsConfig struct {
	TopStories int `yaml:"topStories"`
	MinScore   int `yaml:"minScore"`
}

// XSearchConfig tunes the micro-blog search adapter.
type XSearchConfig struct {
	SessionCookie   string `yaml:"sessionCookie"`
	QueriesPerCycle int    `yaml:"queriesPerCycle"`
	ResultsPerQuery int    `yaml:"resultsPerQuery"`
	QueryDelayMS    int    `yaml:"queryDelayMs"`
}

// QueryDelay returns the minimum spacing between search requests.
func (x XSearchConfig) QueryDelay() time.Duration {
	if x.QueryDelayMS <= 0 {
		return time.Second
	}
	return time.Duration(x.QueryDelayMS) * time.Millisecond
}

// FeedConfig describes one RSS/Atom feed or HTML-only page to poll.
type FeedConfig struct {
	Name     string `yaml:"name"`
	URL      string `yaml:"url"`
	Category string `yaml:"category"`
	// HTML marks pages without a feed, scraped instead of parsed.
	HTML bool `yaml:"html"`
}

// KeywordsConfig groups every keyword list driving filtering and
// classification. Category lists are checked in funding > startup >
// technology order; Exclude feeds the spam filter; Pain maps a product name
// to the complaint terms searched on the micro-blog provider.
type KeywordsConfig struct {
	Pain       map[string][]string `yaml:"pain"`
	Funding    []string            `yaml:"funding"`
	Startup    []string            `yaml:"startup"`
	Technology []string            `yaml:"technology"`
	Exclude    []string            `yaml:"exclude"`
}

// GeminiConfig defines how to contact the generative-language API.
type GeminiConfig struct {
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`
	APIKey   string `yaml:"apiKey"`
}

// PushConfig wires the report webhook.
type PushConfig struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

// ReportConfig locates rendered report documents.
type ReportConfig struct {
	OutputDir string `yaml:"outputDir"`
}

// RetryConfig bounds retries around the summarization call.
type RetryConfig struct {
	Attempts     int `yaml:"attempts"`
	DelaySeconds int `yaml:"delaySeconds"`
}

// Delay returns the base pause between retry attempts.
func (r RetryConfig) Delay() time.Duration {
	if r.DelaySeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(r.DelaySeconds) * time.Second
}

// Load reads YAML configuration (if present) and applies environment
// overrides on top of built-in defaults.
func Load() Config {
	cfg := defaultConfig()

	if path := os.Getenv(configPathEnv); path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(databasePathEnv); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(geminiAPIKeyEnv); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv(pushTokenEnv); v != "" {
		c.Push.Token = v
	}
	if v := os.Getenv(githubTokenEnv); v != "" {
		c.GitHub.Token = v
	}
	if v := os.Getenv(xSessionEnv); v != "" {
		c.XSearch.SessionCookie = v
	}
	if v := os.Getenv(proxyURLEnv); v != "" {
		c.Network.ProxyURL = v
	}
}

func mergeConfig(base, override Config) Config {
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}
	if override.Network.ProxyURL != "" {
		base.Network.ProxyURL = override.Network.ProxyURL
	}
	if override.Network.TimeoutSeconds > 0 {
		base.Network.TimeoutSeconds = override.Network.TimeoutSeconds
	}
	if override.Storage.Path != "" {
		base.Storage = override.Storage
	}
	if override.Scheduler.IntervalSeconds > 0 {
		base.Scheduler.IntervalSeconds = override.Scheduler.IntervalSeconds
	}
	if override.Scheduler.CycleTimeoutSeconds > 0 {
		base.Scheduler.CycleTimeoutSeconds = override.Scheduler.CycleTimeoutSeconds
	}

	if override.GitHub.Token != "" {
		base.GitHub.Token = override.GitHub.Token
	}
	if len(override.GitHub.Keywords) > 0 {
		base.GitHub.Keywords = override.GitHub.Keywords
	}
	if override.GitHub.MinStars > 0 {
		base.GitHub.MinStars = override.GitHub.MinStars
	}
	if override.GitHub.FreshnessDays > 0 {
		base.GitHub.FreshnessDays = override.GitHub.FreshnessDays
	}
	if override.GitHub.KeywordsPerCycle > 0 {
		base.GitHub.KeywordsPerCycle = override.GitHub.KeywordsPerCycle
	}
	if override.GitHub.ResultsPerQuery > 0 {
		base.GitHub.ResultsPerQuery = override.GitHub.ResultsPerQuery
	}
	if override.GitHub.QueryDelaySeconds > 0 {
		base.GitHub.QueryDelaySeconds = override.GitHub.QueryDelaySeconds
	}

	if override.HackerNews.TopStories > 0 {
		base.HackerNews.TopStories = override.HackerNews.TopStories
	}
	if override.HackerNews.MinScore > 0 {
		base.HackerNews.MinScore = override.HackerNews.MinScore
	}

	if override.XSearch.SessionCookie != "" {
		base.XSearch.SessionCookie = override.XSearch.SessionCookie
	}
	if override.XSearch.QueriesPerCycle > 0 {
		base.XSearch.QueriesPerCycle = override.XSearch.QueriesPerCycle
	}
	if override.XSearch.ResultsPerQuery > 0 {
		base.XSearch.ResultsPerQuery = override.XSearch.ResultsPerQuery
	}
	if override.XSearch.QueryDelayMS > 0 {
		base.XSearch.QueryDelayMS = override.XSearch.QueryDelayMS
	}

	if len(override.Feeds) > 0 {
		base.Feeds = override.Feeds
	}

	if len(override.Keywords.Pain) > 0 {
		base.Keywords.Pain = override.Keywords.Pain
	}
	if len(override.Keywords.Funding) > 0 {
		base.Keywords.Funding = override.Keywords.Funding
	}
	if len(override.Keywords.Startup) > 0 {
		base.Keywords.Startup = override.Keywords.Startup
	}
	if len(override.Keywords.Technology) > 0 {
		base.Keywords.Technology = override.Keywords.Technology
	}
	if len(override.Keywords.Exclude) > 0 {
		base.Keywords.Exclude = override.Keywords.Exclude
	}

	if override.Gemini.Endpoint != "" {
		base.Gemini.Endpoint = override.Gemini.Endpoint
	}
	if override.Gemini.Model != "" {
		base.Gemini.Model = override.Gemini.Model
	}
	if override.Gemini.APIKey != "" {
		base.Gemini.APIKey = override.Gemini.APIKey
	}

	if override.Push.Endpoint != "" {
		base.Push.Endpoint = override.Push.Endpoint
	}
	if override.Push.Token != "" {
		base.Push.Token = override.Push.Token
	}

	if override.Report.OutputDir != "" {
		base.Report = override.Report
	}

	if override.Retry.Attempts > 0 {
		base.Retry.Attempts = override.Retry.Attempts
	}
	if override.Retry.DelaySeconds > 0 {
		base.Retry.DelaySeconds = override.Retry.DelaySeconds
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Logging: LoggingConfig{Level: "info"},
		Network: NetworkConfig{TimeoutSeconds: 15},
		Storage: StorageConfig{Path: "./my_market_brain/signals.db"},
		Scheduler: SchedulerConfig{
			IntervalSeconds:     3600,
			CycleTimeoutSeconds: 300,
		},
		GitHub: GitHubConfig{
			Keywords: []string{
				"AI agent framework", "LLM agent", "autonomous agent",
				"agent orchestration", "multi-agent",
				"RAG pipeline", "retrieval augmented", "vector database",
				"semantic search", "knowledge graph",
				"prompt engineering", "prompt optimization",
				"workflow automation", "browser automation",
				"LLM framework", "generative AI",
			},
			MinStars:          300,
			FreshnessDays:     90,
			KeywordsPerCycle:  5,
			ResultsPerQuery:   3,
			QueryDelaySeconds: 1,
		},
		HackerNews: HackerNewsConfig{
			TopStories: 15,
			MinScore:   150,
		},
		XSearch: XSearchConfig{
			QueriesPerCycle: 5,
			ResultsPerQuery: 3,
			QueryDelayMS:    1000,
		},
		Feeds: []FeedConfig{
			{Name: "Reddit - LocalLLaMA", URL: "https://www.reddit.com/r/LocalLLaMA/new/.rss", Category: "Community"},
			{Name: "Reddit - OpenAI", URL: "https://www.reddit.com/r/OpenAI/new/.rss", Category: "Community"},
			{Name: "Reddit - Machine Learning", URL: "https://www.reddit.com/r/MachineLearning/new/.rss", Category: "Research"},
			{Name: "Y Combinator - Launches", URL: "https://www.ycombinator.com/rss", Category: "Startup"},
			{Name: "Product Hunt - Daily", URL: "https://www.producthunt.com/feed.xml", Category: "Product"},
			{Name: "Hugging Face - Daily Papers", URL: "https://huggingface.co/papers", Category: "Research", HTML: true},
		},
		Keywords: KeywordsConfig{
			Pain: map[string][]string{
				"ChatGPT":    {"can't", "doesn't work", "error", "failed", "slow", "expensive"},
				"Claude":     {"can't", "doesn't support", "bug", "api down", "rate limit"},
				"DeepSeek":   {"slow", "error", "hallucination", "quality issue"},
				"Cursor":     {"bug", "crash", "doesn't work", "indexing fail"},
				"Midjourney": {"hands weird", "broken", "consistency", "text fail"},
			},
			Funding:    []string{"funding", "series", "raised", "investment"},
			Startup:    []string{"startup", "founded", "launch"},
			Technology: []string{"breakthrough", "sota", "release", "open source"},
			Exclude: []string{
				"100+ AI Tools", "Check my bio", "Sign up now", "Top 10 tools",
				"Affiliate", "Giveaway", "NFT", "crypto", "bitcoin",
				"follow me", "DM me",
			},
		},
		Gemini: GeminiConfig{
			Endpoint: "https://generativelanguage.googleapis.com",
			Model:    "gemini-2.5-flash",
		},
		Push: PushConfig{
			Endpoint: "https://www.pushplus.plus/send",
		},
		Report: ReportConfig{OutputDir: "."},
		Retry: RetryConfig{
			Attempts:     3,
			DelaySeconds: 5,
		},
	}
}
