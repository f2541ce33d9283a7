package config

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/cairn-launcher/cairn/internal/platform"
)

// Parser evaluates cairn.lua files with the platform table available.
type Parser struct {
	detector platform.Detector
}

// NewParser creates a new config parser with the given platform detector.
// A nil detector leaves the platform table undefined.
func NewParser(detector platform.Detector) *Parser {
	return &Parser{detector: detector}
}

// ParseFile reads and parses the config at path.
func (p *Parser) ParseFile(ctx context.Context, path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxConfigSize+1))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > MaxConfigSize {
		return nil, &ParseError{
			Message: "config too large",
			Detail:  fmt.Sprintf("%s exceeds %d bytes", path, MaxConfigSize),
		}
	}

	return p.ParseString(ctx, string(data))
}

// ParseString parses a Lua config from a string. Fields the config omits
// keep their defaults.
func (p *Parser) ParseString(ctx context.Context, luaCode string) (*Config, error) {
	L := newSandboxedVM()
	defer L.Close()
	L.SetContext(ctx)

	if p.detector != nil {
		info, err := p.detector.Detect(ctx)
		if err != nil {
			return nil, fmt.Errorf("platform detection failed: %w", err)
		}
		if err := platform.InjectPlatformTable(L, info); err != nil {
			return nil, fmt.Errorf("inject platform table: %w", err)
		}
	}

	if err := L.DoString(luaCode); err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("config evaluation aborted: %w", ctx.Err())
		}
		return nil, &ParseError{
			Message: "Lua error",
			Detail:  err.Error(),
		}
	}

	return extractConfig(L)
}

// ParseError represents a config parsing error with friendly message.
type ParseError struct {
	Message string // User-friendly message
	Detail  string // Technical details (raw Lua error)
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// extractConfig reads the global "cairn" table over the defaults.
func extractConfig(L *lua.LState) (*Config, error) {
	root, ok := L.GetGlobal(luaGlobalCairn).(*lua.LTable)
	if !ok {
		return nil, &ParseError{
			Message: "missing or invalid 'cairn' table",
			Detail:  fmt.Sprintf("expected table, got %s", L.GetGlobal(luaGlobalCairn).Type()),
		}
	}

	cfg := Default()
	r := reader{}

	r.str(root, "", luaFieldContentRoot, &cfg.ContentRoot)
	r.str(root, "", luaFieldManifest, &cfg.Manifest)

	if t := r.table(root, "", luaFieldDistribution); t != nil {
		r.str(t, luaFieldDistribution, luaFieldBaseURL, &cfg.Distribution.BaseURL)
		r.str(t, luaFieldDistribution, luaFieldTrustedKeysURL, &cfg.Distribution.TrustedKeysURL)
	}

	if t := r.table(root, "", luaFieldFeatures); t != nil {
		r.boolean(t, luaFieldFeatures, luaFieldCustomRes, &cfg.Features.CustomResolution)
		r.boolean(t, luaFieldFeatures, luaFieldQuickPlayMulti, &cfg.Features.QuickPlayMultiplayer)
	}

	if t := r.table(root, "", luaFieldDownload); t != nil {
		var seconds float64
		if r.number(t, luaFieldDownload, luaFieldTimeout, &seconds) {
			cfg.Download.Timeout = time.Duration(seconds * float64(time.Second))
		}
		var rate int64
		if r.integer(t, luaFieldDownload, luaFieldMaxRate, &rate) {
			cfg.Download.MaxRate = rate
		}
		var parallel int64
		if r.integer(t, luaFieldDownload, luaFieldParallel, &parallel) {
			cfg.Download.Parallel = int(parallel)
		}
		r.str(t, luaFieldDownload, luaFieldUserAgent, &cfg.Download.UserAgent)
	}

	if t := r.table(root, "", luaFieldLog); t != nil {
		r.str(t, luaFieldLog, luaFieldLevel, &cfg.Log.Level)
		r.str(t, luaFieldLog, luaFieldFormat, &cfg.Log.Format)
	}

	if r.err != nil {
		return nil, r.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// reader extracts typed fields and keeps the first type error. Absent and
// nil fields are skipped, so platform conditionals like
// `platform.is_linux and "x" or nil` fall back to defaults.
type reader struct {
	err error
}

func (r *reader) get(t *lua.LTable, section, field string, want lua.LValueType) (lua.LValue, bool) {
	v := t.RawGetString(field)
	if v.Type() == lua.LTNil || r.err != nil {
		return nil, false
	}
	if v.Type() != want {
		name := field
		if section != "" {
			name = section + "." + field
		}
		r.err = &ValidationError{
			Field:   name,
			Message: fmt.Sprintf("expected %s, got %s", want, v.Type()),
		}
		return nil, false
	}
	return v, true
}

func (r *reader) table(t *lua.LTable, section, field string) *lua.LTable {
	if v, ok := r.get(t, section, field, lua.LTTable); ok {
		return v.(*lua.LTable)
	}
	return nil
}

func (r *reader) str(t *lua.LTable, section, field string, dst *string) {
	if v, ok := r.get(t, section, field, lua.LTString); ok {
		*dst = v.String()
	}
}

func (r *reader) boolean(t *lua.LTable, section, field string, dst *bool) {
	if v, ok := r.get(t, section, field, lua.LTBool); ok {
		*dst = bool(v.(lua.LBool))
	}
}

func (r *reader) number(t *lua.LTable, section, field string, dst *float64) bool {
	if v, ok := r.get(t, section, field, lua.LTNumber); ok {
		*dst = float64(v.(lua.LNumber))
		return true
	}
	return false
}

func (r *reader) integer(t *lua.LTable, section, field string, dst *int64) bool {
	var f float64
	if !r.number(t, section, field, &f) {
		return false
	}
	if f != math.Trunc(f) || math.Abs(f) > 1<<53 {
		r.err = &ValidationError{
			Field:   section + "." + field,
			Message: fmt.Sprintf("expected an integer, got %v", f),
		}
		return false
	}
	*dst = int64(f)
	return true
}

// FormatError formats a ParseError for user display.
// In verbose mode, show the raw Lua error. Otherwise, show friendly message.
func FormatError(err error, verbose bool) string {
	if parseErr, ok := err.(*ParseError); ok {
		if verbose {
			return fmt.Sprintf("%s\n\nDetails:\n%s", parseErr.Message, parseErr.Detail)
		}
		detail := parseErr.Detail
		if idx := strings.Index(detail, "stack traceback"); idx > 0 {
			detail = strings.TrimSpace(detail[:idx])
		}
		return fmt.Sprintf("%s: %s", parseErr.Message, detail)
	}
	return err.Error()
}
