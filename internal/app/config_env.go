package app

import (
    "os"
    "strconv"
    "strings"
    "time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment variables.
// Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
    if cfg == nil { return }

    if cfg.OutputPath == "" { cfg.OutputPath = os.Getenv("LUNCH_OUTPUT") }
    if cfg.OutputPDFPath == "" { cfg.OutputPDFPath = os.Getenv("LUNCH_PDF") }
    if cfg.OutputMarkdownPath == "" { cfg.OutputMarkdownPath = os.Getenv("LUNCH_MD") }
    if cfg.Day == "" { cfg.Day = os.Getenv("LUNCH_DAY") }

    if cfg.LLMBaseURL == "" { cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL") }
    if cfg.LLMModel == "" { cfg.LLMModel = os.Getenv("LLM_MODEL") }
    if cfg.LLMAPIKey == "" { cfg.LLMAPIKey = os.Getenv("LLM_API_KEY") }

    if cfg.OCREngine == "" { cfg.OCREngine = os.Getenv("OCR_ENGINE") }
    if cfg.OCRLanguage == "" { cfg.OCRLanguage = os.Getenv("OCR_LANG") }
    if cfg.TesseractPath == "" { cfg.TesseractPath = os.Getenv("TESSERACT_PATH") }

    if cfg.CacheDir == "" { cfg.CacheDir = os.Getenv("CACHE_DIR") }
    if cfg.CacheMaxAge == 0 {
        if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    }
    if cfg.Concurrency == 0 {
        if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FETCH_CONCURRENCY"))); err == nil && n > 0 {
            cfg.Concurrency = n
        }
    }

    setBool := func(dst *bool, envKey string) {
        if *dst { return }
        if v, ok := envBool(envKey); ok && v { *dst = true }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.IgnoreRobots, "IGNORE_ROBOTS")
}

// ApplyEnvOverrides forcefully overrides cfg fields with environment variables
// when they are set. Env then wins over a config file while flags, applied
// last by the caller, stay highest.
func ApplyEnvOverrides(cfg *Config) {
    if cfg == nil { return }

    if v := os.Getenv("LUNCH_OUTPUT"); v != "" { cfg.OutputPath = v }
    if v := os.Getenv("LUNCH_PDF"); v != "" { cfg.OutputPDFPath = v }
    if v := os.Getenv("LUNCH_MD"); v != "" { cfg.OutputMarkdownPath = v }
    if v := os.Getenv("LUNCH_DAY"); v != "" { cfg.Day = v }

    if v := os.Getenv("LLM_BASE_URL"); v != "" { cfg.LLMBaseURL = v }
    if v := os.Getenv("LLM_MODEL"); v != "" { cfg.LLMModel = v }
    if v := os.Getenv("LLM_API_KEY"); v != "" { cfg.LLMAPIKey = v }

    if v := os.Getenv("OCR_ENGINE"); v != "" { cfg.OCREngine = v }
    if v := os.Getenv("OCR_LANG"); v != "" { cfg.OCRLanguage = v }
    if v := os.Getenv("TESSERACT_PATH"); v != "" { cfg.TesseractPath = v }

    if v := os.Getenv("CACHE_DIR"); v != "" { cfg.CacheDir = v }
    if d, ok := envDuration("CACHE_MAX_AGE"); ok { cfg.CacheMaxAge = d }
    if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("FETCH_CONCURRENCY"))); err == nil && n > 0 {
        cfg.Concurrency = n
    }

    setBool := func(dst *bool, envKey string) {
        if v, ok := envBool(envKey); ok { *dst = v }
    }
    setBool(&cfg.Verbose, "VERBOSE")
    setBool(&cfg.CacheClear, "CACHE_CLEAR")
    setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
    setBool(&cfg.IgnoreRobots, "IGNORE_ROBOTS")
}

func envDuration(key string) (time.Duration, bool) {
    s := strings.TrimSpace(os.Getenv(key))
    if s == "" { return 0, false }
    d, err := time.ParseDuration(s)
    if err != nil { return 0, false }
    return d, true
}

func envBool(key string) (bool, bool) {
    switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
    case "1", "true", "yes", "on":
        return true, true
    case "0", "false", "no", "off":
        return false, true
    }
    return false, false
}
