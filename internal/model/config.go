package model

import "time"

// Config holds the complete riskform configuration
type Config struct {
	Backend string        `yaml:"backend" mapstructure:"backend"` // google, local
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Google  GoogleConfig  `yaml:"google" mapstructure:"google"`
	Local   LocalConfig   `yaml:"local" mapstructure:"local"`
	Form    FormConfig    `yaml:"form" mapstructure:"form"`
	Raters  RaterConfig   `yaml:"raters" mapstructure:"raters"`
	Scales  ScaleConfig   `yaml:"scales" mapstructure:"scales"`
	LLM     LLMConfig     `yaml:"llm" mapstructure:"llm"`
	Cache   CacheConfig   `yaml:"cache" mapstructure:"cache"`
}

// StorageConfig locates the evaluation data
type StorageConfig struct {
	FolderID     string `yaml:"folder_id" mapstructure:"folder_id"`         // Drive folder id or local directory
	ManifestName string `yaml:"manifest_name" mapstructure:"manifest_name"` // Exact manifest file name
	ImagesFolder string `yaml:"images_folder" mapstructure:"images_folder"` // Exact images sub-folder name
}

// GoogleConfig configures the hosted backend
type GoogleConfig struct {
	CredentialsFile   string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`

	// Per-API overrides keyed by drive, forms or sheets
	ServiceRates map[string]float64 `yaml:"service_rates" mapstructure:"service_rates"`
}

// LocalConfig configures the filesystem/SQLite backend
type LocalConfig struct {
	Database  string `yaml:"database" mapstructure:"database"`     // SQLite path for forms and responses
	OutputDir string `yaml:"output_dir" mapstructure:"output_dir"` // Spreadsheets are written here as CSV
}

// FormConfig holds the fixed questionnaire texts
type FormConfig struct {
	Title         string `yaml:"title" mapstructure:"title"`
	Description   string `yaml:"description" mapstructure:"description"`
	Confirmation  string `yaml:"confirmation" mapstructure:"confirmation"`
	IdentityPage  string `yaml:"identity_page" mapstructure:"identity_page"`
	NameLabel     string `yaml:"name_label" mapstructure:"name_label"`
	EmailLabel    string `yaml:"email_label" mapstructure:"email_label"`
	ImageMissing  string `yaml:"image_missing" mapstructure:"image_missing"`
	AgreementHelp string `yaml:"agreement_help" mapstructure:"agreement_help"`
	DepthHelp     string `yaml:"depth_help" mapstructure:"depth_help"`
}

// RaterConfig decides which raters get questions and how they are labelled
type RaterConfig struct {
	Keys         []string          `yaml:"keys" mapstructure:"keys"`
	Prefixes     []string          `yaml:"prefixes" mapstructure:"prefixes"`
	Sentinels    []string          `yaml:"sentinels" mapstructure:"sentinels"`
	DisplayNames map[string]string `yaml:"display_names" mapstructure:"display_names"`
}

// ScaleConfig holds the ordered five-point choice labels per dimension
type ScaleConfig struct {
	Agreement []string `yaml:"agreement" mapstructure:"agreement"`
	Depth     []string `yaml:"depth" mapstructure:"depth"`
}

// LLMConfig configures the manifest translator
type LLMConfig struct {
	Provider string `yaml:"provider" mapstructure:"provider"` // openai, gemini, "" (disabled)
	Model    string `yaml:"model" mapstructure:"model"`
	APIKey   string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL  string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	// Proxy applies to OpenAI; the Gemini client reads HTTPS_PROXY
	Proxy   string `yaml:"proxy,omitempty" mapstructure:"proxy"`
	Timeout int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	Workers int    `yaml:"workers" mapstructure:"workers"`
}

// CacheConfig configures the translation cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir" mapstructure:"dir"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// DefaultConfig returns the stock configuration
func DefaultConfig() *Config {
	return &Config{
		Backend: "google",
		Storage: StorageConfig{
			ManifestName: "extracted_risk_assessments_by_id.json",
			ImagesFolder: "images",
		},
		Google: GoogleConfig{
			RequestsPerSecond: 5,
			BurstSize:         10,
			ServiceRates:      map[string]float64{"forms": 1},
		},
		Local: LocalConfig{
			Database:  "riskform.db",
			OutputDir: "riskform-sheets",
		},
		Form: FormConfig{
			Title: "Risk Prediction Evaluation Survey",
			Description: "Please help us evaluate a household accident risk prediction system.\n\n" +
				"For each image, risk assessments written by several agents (AI) are shown.\n" +
				"Rate your agreement with each assessment and how well considered it is on a 5-point scale.",
			Confirmation:  "Thank you for your answers!\n\nYour ratings will be used as research data.",
			IdentityPage:  "Participant information",
			NameLabel:     "Name",
			EmailLabel:    "Email (optional)",
			ImageMissing:  "(image URL not found)",
			AgreementHelp: "How much do you agree with this assessment?",
			DepthHelp:     "Do you think this assessment is well thought out?",
		},
		Raters: DefaultRaterConfig(),
		Scales: ScaleConfig{
			Agreement: []string{
				"1 - Strongly disagree",
				"2 - Somewhat disagree",
				"3 - Neither agree nor disagree",
				"4 - Partly agree",
				"5 - Strongly agree",
			},
			Depth: []string{
				"1 - Very shallow",
				"2 - Somewhat shallow",
				"3 - Neither",
				"4 - Somewhat deep",
				"5 - Very deep",
			},
		},
		LLM: LLMConfig{
			Model:   "", // provider default
			Timeout: 30,
			Workers: 4,
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     ".riskform-cache",
			TTL:     30 * 24 * time.Hour,
		},
	}
}

// DefaultRaterConfig returns the known agents and their anonymized labels
func DefaultRaterConfig() RaterConfig {
	keys := []string{
		"Semantic_state",
		"Semantic_state_RiskScore",
		"Semantic_state_RiskScore_Persona_01",
		"Semantic_state_RiskScore_Persona_02",
		"Semantic_state_RiskScore_Persona_03",
		"Semantic_state_RiskScore_Persona_04",
		"Semantic_state_RiskScore_Persona_05",
		"Semantic_state_Stickler",
		"Semantic_state_Persona_01",
		"Semantic_state_Persona_02",
		"Semantic_state_Persona_03",
		"Semantic_state_Persona_04",
		"Semantic_state_Persona_05",
		"VLM",
	}

	names := make(map[string]string, len(keys))
	for i, key := range keys {
		names[key] = "Agent " + string(rune('A'+i))
	}

	return RaterConfig{
		Keys:         keys,
		Prefixes:     []string{"Semantic_state"},
		Sentinels:    []string{"VLM"},
		DisplayNames: names,
	}
}
