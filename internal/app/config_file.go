package app

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    yaml "gopkg.in/yaml.v3"
)

// Flag defaults that file config may replace when the flag was left alone.
const (
    outputDefault      = "dagens_lunch.html"
    cacheDirDefault    = ".dagenslunch-cache"
    userAgentDefault   = "dagenslunch/1.0 (+https://github.com/hyperifyio/dagenslunch)"
    concurrencyDefault = 4
    fetchTimeoutDefault = 30 * time.Second
)

// FileConfig represents the single-file configuration schema.
type FileConfig struct {
    Output    string `yaml:"output" json:"output"`
    OutputPDF string `yaml:"outputPDF" json:"outputPDF"`
    OutputMarkdown string `yaml:"outputMarkdown" json:"outputMarkdown"`
    Day       string `yaml:"day" json:"day"`
    Verbose   bool   `yaml:"verbose" json:"verbose"`

    Restaurants []Restaurant `yaml:"restaurants" json:"restaurants"`

    Fetch struct {
        Timeout     time.Duration `yaml:"timeout" json:"timeout"`
        Concurrency int           `yaml:"concurrency" json:"concurrency"`
        UserAgent   string        `yaml:"userAgent" json:"userAgent"`
        IgnoreRobots bool         `yaml:"ignoreRobots" json:"ignoreRobots"`
    } `yaml:"fetch" json:"fetch"`

    OCR struct {
        Engine    string `yaml:"engine" json:"engine"`
        Language  string `yaml:"language" json:"language"`
        Tesseract string `yaml:"tesseract" json:"tesseract"`
        Model     string `yaml:"model" json:"model"`
        BaseURL   string `yaml:"base" json:"base"`
        APIKey    string `yaml:"key" json:"key"`
    } `yaml:"ocr" json:"ocr"`

    Cache struct {
        Dir         string        `yaml:"dir" json:"dir"`
        MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
        Clear       bool          `yaml:"clear" json:"clear"`
        StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
    } `yaml:"cache" json:"cache"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
    var fc FileConfig
    b, err := os.ReadFile(path)
    if err != nil {
        return fc, err
    }
    switch ext := filepath.Ext(path); ext {
    case ".yaml", ".yml":
        if err := yaml.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse yaml: %w", err)
        }
    case ".json":
        if err := json.Unmarshal(b, &fc); err != nil {
            return fc, fmt.Errorf("parse json: %w", err)
        }
    default:
        if err := yaml.Unmarshal(b, &fc); err != nil {
            if jerr := json.Unmarshal(b, &fc); jerr != nil {
                return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
            }
        }
    }
    return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for any fields that
// are unset or still at their flag default.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
    if cfg == nil { return }

    if (cfg.OutputPath == "" || cfg.OutputPath == outputDefault) && fc.Output != "" { cfg.OutputPath = fc.Output }
    if cfg.OutputPDFPath == "" && fc.OutputPDF != "" { cfg.OutputPDFPath = fc.OutputPDF }
    if cfg.OutputMarkdownPath == "" && fc.OutputMarkdown != "" { cfg.OutputMarkdownPath = fc.OutputMarkdown }
    if cfg.Day == "" && fc.Day != "" { cfg.Day = fc.Day }
    if !cfg.Verbose && fc.Verbose { cfg.Verbose = true }

    if len(cfg.Restaurants) == 0 && len(fc.Restaurants) > 0 {
        cfg.Restaurants = append([]Restaurant{}, fc.Restaurants...)
    }

    if (cfg.FetchTimeout == 0 || cfg.FetchTimeout == fetchTimeoutDefault) && fc.Fetch.Timeout > 0 { cfg.FetchTimeout = fc.Fetch.Timeout }
    if (cfg.Concurrency == 0 || cfg.Concurrency == concurrencyDefault) && fc.Fetch.Concurrency > 0 { cfg.Concurrency = fc.Fetch.Concurrency }
    if (cfg.UserAgent == "" || cfg.UserAgent == userAgentDefault) && fc.Fetch.UserAgent != "" { cfg.UserAgent = fc.Fetch.UserAgent }

    if !cfg.IgnoreRobots && fc.Fetch.IgnoreRobots { cfg.IgnoreRobots = true }

    if cfg.OCREngine == "" && fc.OCR.Engine != "" { cfg.OCREngine = fc.OCR.Engine }
    if cfg.OCRLanguage == "" && fc.OCR.Language != "" { cfg.OCRLanguage = fc.OCR.Language }
    if cfg.TesseractPath == "" && fc.OCR.Tesseract != "" { cfg.TesseractPath = fc.OCR.Tesseract }
    if cfg.LLMModel == "" && fc.OCR.Model != "" { cfg.LLMModel = fc.OCR.Model }
    if cfg.LLMBaseURL == "" && fc.OCR.BaseURL != "" { cfg.LLMBaseURL = fc.OCR.BaseURL }
    if cfg.LLMAPIKey == "" && fc.OCR.APIKey != "" { cfg.LLMAPIKey = fc.OCR.APIKey }

    if (cfg.CacheDir == "" || cfg.CacheDir == cacheDirDefault) && fc.Cache.Dir != "" { cfg.CacheDir = fc.Cache.Dir }
    if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 { cfg.CacheMaxAge = fc.Cache.MaxAge }
    if !cfg.CacheClear && fc.Cache.Clear { cfg.CacheClear = true }
    if !cfg.CacheStrictPerms && fc.Cache.StrictPerms { cfg.CacheStrictPerms = true }
}

// DefaultRestaurants is used when no restaurants are configured.
func DefaultRestaurants() []Restaurant {
    return []Restaurant{
        {Name: "Gästgivargården", URL: "https://www.gastgivargarden.com/restaurang/dagens-lunch/", Kind: SourceDOM},
        {Name: "Madame", URL: "https://madame.se/dagens-lunch/", Kind: SourceText},
        {Name: "Matkällaren", URL: "https://matkallaren.nu/meny/", Kind: SourceImage},
        {Name: "Vandalorum", URL: "https://www.vandalorum.se/restaurang", Kind: SourceMarker, Marker: "dagens lunch"},
    }
}

// ValidateConfig performs schema validation for required settings.
func ValidateConfig(cfg Config) error {
    if strings.TrimSpace(cfg.OutputPath) == "" {
        return errors.New("config: output path is required")
    }
    if len(cfg.Restaurants) == 0 {
        return ErrNoSources
    }
    if cfg.Concurrency < 0 || cfg.FetchTimeout < 0 || cfg.CacheMaxAge < 0 {
        return errors.New("config: negative limits are not allowed")
    }
    switch strings.ToLower(cfg.OCREngine) {
    case "", "auto", "tesseract", "vision", "none":
    default:
        return fmt.Errorf("config: unknown ocr engine %q", cfg.OCREngine)
    }
    if _, err := resolveDay(cfg.Day, time.Now()); err != nil {
        return fmt.Errorf("config: %w", err)
    }
    seen := make(map[string]bool, len(cfg.Restaurants))
    for i, r := range cfg.Restaurants {
        if strings.TrimSpace(r.Name) == "" {
            return fmt.Errorf("config: restaurants[%d]: name is required", i)
        }
        if seen[r.Name] {
            return fmt.Errorf("config: restaurants[%d]: duplicate name %q", i, r.Name)
        }
        seen[r.Name] = true
        if strings.TrimSpace(r.URL) == "" && !(r.Kind == SourceImage && r.ImageURL != "") {
            return fmt.Errorf("config: restaurant %q: url is required", r.Name)
        }
        switch r.Kind {
        case SourceText, SourceDOM, SourceImage:
        case SourceMarker:
            if strings.TrimSpace(r.Marker) == "" {
                return fmt.Errorf("config: restaurant %q: marker is required for kind marker", r.Name)
            }
        default:
            return fmt.Errorf("config: restaurant %q: unknown kind %q", r.Name, r.Kind)
        }
        if r.MinLength < 0 {
            return fmt.Errorf("config: restaurant %q: negative minLength", r.Name)
        }
        if !r.Layout.IsZero() {
            if err := r.Layout.Validate(); err != nil {
                return fmt.Errorf("config: restaurant %q: %w", r.Name, err)
            }
        }
    }
    return nil
}
