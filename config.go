package colpabot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Jarturog/colpabot/match"
)

// Config holds all configuration for the ColpaBot engine.
type Config struct {
	// DataDir is the directory holding the per-language resource files:
	// questions_and_answers_<LANG>.tsv, synonyms_<LANG>.tsv and
	// bot_messages.tsv.
	DataDir string `json:"data_dir" yaml:"data_dir"`

	// Languages lists the language codes to load (e.g. "EN", "ES").
	Languages []string `json:"languages" yaml:"languages"`

	// DefaultAlgorithm is used when a query carries no selector.
	DefaultAlgorithm match.Kind `json:"default_algorithm" yaml:"default_algorithm"`

	// MaxMisses is how many consecutive unanswered queries a user may
	// accumulate before the engine starts offering suggested questions.
	MaxMisses int `json:"max_misses" yaml:"max_misses"`

	// MaxSuggestions bounds the suggestion list offered after repeated
	// misses.
	MaxSuggestions int `json:"max_suggestions" yaml:"max_suggestions"`

	// SuggestionRetries bounds the sampling attempts per suggestion slot,
	// so sparse sections cannot loop forever.
	SuggestionRetries int `json:"suggestion_retries" yaml:"suggestion_retries"`

	// TopCandidates bounds the candidate list surfaced for ambiguous
	// queries.
	TopCandidates int `json:"top_candidates" yaml:"top_candidates"`

	// CombinePreviousQuestion enables the context-carry heuristic: on a
	// miss or ambiguous result, retry with the previous question glued in
	// front. Known to be unreliable; off by default.
	CombinePreviousQuestion bool `json:"combine_previous_question" yaml:"combine_previous_question"`

	// VectorDBPath points at the word-embedding database built by the
	// import tooling. Empty disables the vector strategy everywhere.
	VectorDBPath string `json:"vector_db_path" yaml:"vector_db_path"`

	// VectorDim is the embedding dimension of the vector database.
	VectorDim int `json:"vector_dim" yaml:"vector_dim"`

	// ProfileDBPath is the encrypted user-profile database. Used by the
	// server, not by the engine itself.
	ProfileDBPath string `json:"profile_db_path" yaml:"profile_db_path"`

	// ProfileKey is the hex-encoded 32-byte key sealing user profiles.
	ProfileKey string `json:"profile_key" yaml:"profile_key"`
}

// DefaultConfig returns the configuration the engine ships with.
func DefaultConfig() Config {
	return Config{
		DataDir:           "resources",
		Languages:         []string{"EN", "ES"},
		DefaultAlgorithm:  match.KindLevenshtein,
		MaxMisses:         1,
		MaxSuggestions:    3,
		SuggestionRetries: 10,
		TopCandidates:     3,
	}
}

// Validate checks the configuration for construction-time errors.
func (c Config) Validate() error {
	if len(c.Languages) == 0 {
		return fmt.Errorf("%w: no languages configured", ErrInvalidConfig)
	}
	if c.DefaultAlgorithm == "" {
		return fmt.Errorf("%w: no default algorithm", ErrInvalidConfig)
	}
	if c.MaxMisses < 0 || c.MaxSuggestions <= 0 || c.SuggestionRetries <= 0 || c.TopCandidates <= 0 {
		return fmt.Errorf("%w: non-positive limits", ErrInvalidConfig)
	}
	return nil
}

// LoadConfig reads a JSON or YAML config file, merged over DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// QnAPath returns the corpus file path for a language.
func (c Config) QnAPath(lang string) string {
	return filepath.Join(c.DataDir, "questions_and_answers_"+lang+".tsv")
}

// SynonymsPath returns the synonym file path for a language.
func (c Config) SynonymsPath(lang string) string {
	return filepath.Join(c.DataDir, "synonyms_"+lang+".tsv")
}

// MessagesPath returns the bot message catalog path.
func (c Config) MessagesPath() string {
	return filepath.Join(c.DataDir, "bot_messages.tsv")
}

// WorkbookPath returns the spreadsheet corpus path, used when a language
// has no TSV corpus file.
func (c Config) WorkbookPath() string {
	return filepath.Join(c.DataDir, "questions_and_answers.xlsx")
}
