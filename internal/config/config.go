package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Feeds      []FeedConfig     `yaml:"feeds" mapstructure:"feeds"`
	Selector   SelectorConfig   `yaml:"selector" mapstructure:"selector"`
	Gates      GatesConfig      `yaml:"gates" mapstructure:"gates"`
	Quality    QualityConfig    `yaml:"quality" mapstructure:"quality"`
	Escalation EscalationConfig `yaml:"escalation" mapstructure:"escalation"`
	Shadow     ShadowConfig     `yaml:"shadow" mapstructure:"shadow"`
	Pipeline   PipelineConfig   `yaml:"pipeline" mapstructure:"pipeline"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings and the model tiers used by
// the pipeline: Primary for normal extraction, Escalation for documents the
// quality gate rejects, Understudy for shadow runs.
type AnthropicConfig struct {
	Key             string `yaml:"key" mapstructure:"key"`
	PrimaryModel    string `yaml:"primary_model" mapstructure:"primary_model"`
	EscalationModel string `yaml:"escalation_model" mapstructure:"escalation_model"`
	UnderstudyModel string `yaml:"understudy_model" mapstructure:"understudy_model"`
	MaxTokens       int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// FeedConfig describes one RSS feed and its trust metadata.
type FeedConfig struct {
	Name        string `yaml:"name" mapstructure:"name"`
	URL         string `yaml:"url" mapstructure:"url"`
	Tier        int    `yaml:"tier" mapstructure:"tier"`     // 1 = wire/official, 3 = aggregator
	Signal      string `yaml:"signal" mapstructure:"signal"` // primary|commentary|community|echo
	MaxAgeHours int    `yaml:"max_age_hours" mapstructure:"max_age_hours"`
}

// SelectorConfig configures document scoring and budget selection.
type SelectorConfig struct {
	Budget           int     `yaml:"budget" mapstructure:"budget"`
	StretchMax       int     `yaml:"stretch_max" mapstructure:"stretch_max"`
	MinPerFeed       int     `yaml:"min_per_feed" mapstructure:"min_per_feed"`
	StretchThreshold float64 `yaml:"stretch_threshold" mapstructure:"stretch_threshold"`
	MinQuality       float64 `yaml:"min_quality" mapstructure:"min_quality"`

	// Word-count ramp thresholds for the document scorer.
	WordCountLow   int `yaml:"word_count_low" mapstructure:"word_count_low"`
	WordCountIdeal int `yaml:"word_count_ideal" mapstructure:"word_count_ideal"`
	WordCountHigh  int `yaml:"word_count_high" mapstructure:"word_count_high"`

	// Component weights. Should sum to 1.
	WordCountWeight float64 `yaml:"word_count_weight" mapstructure:"word_count_weight"`
	MetadataWeight  float64 `yaml:"metadata_weight" mapstructure:"metadata_weight"`
	TierWeight      float64 `yaml:"tier_weight" mapstructure:"tier_weight"`
	SignalWeight    float64 `yaml:"signal_weight" mapstructure:"signal_weight"`
}

// GatesConfig holds the gate thresholds.
type GatesConfig struct {
	EvidenceMatchRateMin float64 `yaml:"evidence_match_rate_min" mapstructure:"evidence_match_rate_min"`
	HighConfidenceMin    float64 `yaml:"high_confidence_min" mapstructure:"high_confidence_min"`
	ZeroValueMinChars    int     `yaml:"zero_value_min_chars" mapstructure:"zero_value_min_chars"`
}

// QualityConfig holds the quality-signal normalization targets and weights.
// The density and connectivity targets are empirically chosen; they are
// configuration, not derived values.
type QualityConfig struct {
	EntityDensityTarget  float64 `yaml:"entity_density_target" mapstructure:"entity_density_target"`
	EvidenceRateTarget   float64 `yaml:"evidence_rate_target" mapstructure:"evidence_rate_target"`
	MeanConfidenceTarget float64 `yaml:"mean_confidence_target" mapstructure:"mean_confidence_target"`
	ConnectivityTarget   float64 `yaml:"connectivity_target" mapstructure:"connectivity_target"`

	DensityWeight      float64 `yaml:"density_weight" mapstructure:"density_weight"`
	EvidenceWeight     float64 `yaml:"evidence_weight" mapstructure:"evidence_weight"`
	ConfidenceWeight   float64 `yaml:"confidence_weight" mapstructure:"confidence_weight"`
	ConnectivityWeight float64 `yaml:"connectivity_weight" mapstructure:"connectivity_weight"`
	TechWeight         float64 `yaml:"tech_weight" mapstructure:"tech_weight"`
}

// EscalationConfig configures the accept/escalate decision.
type EscalationConfig struct {
	ScoreThreshold float64 `yaml:"score_threshold" mapstructure:"score_threshold"`
}

// ShadowConfig configures shadow-mode comparison and promotion criteria.
type ShadowConfig struct {
	SchemaPassRateMin     float64 `yaml:"schema_pass_rate_min" mapstructure:"schema_pass_rate_min"`
	EntityOverlapPctMin   float64 `yaml:"entity_overlap_pct_min" mapstructure:"entity_overlap_pct_min"`
	RelationOverlapPctMin float64 `yaml:"relation_overlap_pct_min" mapstructure:"relation_overlap_pct_min"`
	MinDocuments          int     `yaml:"min_documents" mapstructure:"min_documents"`
}

// PipelineConfig configures the daily run.
type PipelineConfig struct {
	LockPath            string `yaml:"lock_path" mapstructure:"lock_path"`
	RequestIntervalSecs int    `yaml:"request_interval_secs" mapstructure:"request_interval_secs"`
	GraphPath           string `yaml:"graph_path" mapstructure:"graph_path"`
	FeedTimeoutSecs     int    `yaml:"feed_timeout_secs" mapstructure:"feed_timeout_secs"`
}

// PricingConfig holds per-model token pricing (USD per million tokens).
type PricingConfig struct {
	Anthropic map[string]ModelPricing `yaml:"anthropic" mapstructure:"anthropic"`
}

// ModelPricing holds per-model token pricing.
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the reporting API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("NEWSGRAPH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// SetDefaults registers every configuration default on the given viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "newsgraph.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)

	v.SetDefault("anthropic.primary_model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.escalation_model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.understudy_model", "")
	v.SetDefault("anthropic.max_tokens", 4096)

	v.SetDefault("selector.budget", 20)
	v.SetDefault("selector.stretch_max", 25)
	v.SetDefault("selector.min_per_feed", 1)
	v.SetDefault("selector.stretch_threshold", 0.55)
	v.SetDefault("selector.min_quality", 0.20)
	v.SetDefault("selector.word_count_low", 200)
	v.SetDefault("selector.word_count_ideal", 800)
	v.SetDefault("selector.word_count_high", 3000)
	v.SetDefault("selector.word_count_weight", 0.40)
	v.SetDefault("selector.metadata_weight", 0.20)
	v.SetDefault("selector.tier_weight", 0.25)
	v.SetDefault("selector.signal_weight", 0.15)

	v.SetDefault("gates.evidence_match_rate_min", 0.70)
	v.SetDefault("gates.high_confidence_min", 0.8)
	v.SetDefault("gates.zero_value_min_chars", 500)

	v.SetDefault("quality.entity_density_target", 3.0)
	v.SetDefault("quality.evidence_rate_target", 0.8)
	v.SetDefault("quality.mean_confidence_target", 0.6)
	v.SetDefault("quality.connectivity_target", 0.1)
	v.SetDefault("quality.density_weight", 0.30)
	v.SetDefault("quality.evidence_weight", 0.25)
	v.SetDefault("quality.confidence_weight", 0.20)
	v.SetDefault("quality.connectivity_weight", 0.15)
	v.SetDefault("quality.tech_weight", 0.10)

	v.SetDefault("escalation.score_threshold", 0.6)

	v.SetDefault("shadow.schema_pass_rate_min", 0.95)
	v.SetDefault("shadow.entity_overlap_pct_min", 85.0)
	v.SetDefault("shadow.relation_overlap_pct_min", 80.0)
	v.SetDefault("shadow.min_documents", 100)

	v.SetDefault("pipeline.lock_path", "newsgraph.lock")
	v.SetDefault("pipeline.request_interval_secs", 2)
	v.SetDefault("pipeline.graph_path", "graph.json")
	v.SetDefault("pipeline.feed_timeout_secs", 30)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
