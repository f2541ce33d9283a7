package config

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// Generator renders a Config as a cairn.lua file.
type Generator struct {
	indent string
}

// NewGenerator creates a new Lua config generator.
func NewGenerator() *Generator {
	return &Generator{indent: "  "}
}

// Generate renders cfg. Parsing the output yields an equal Config.
func (g *Generator) Generate(cfg *Config) (string, error) {
	if err := cfg.Validate(); err != nil {
		return "", err
	}

	var buf bytes.Buffer
	buf.WriteString("-- cairn launcher configuration\n")
	buf.WriteString("-- The read-only `platform` table (os, arch, version, is_linux, ...) is available.\n\n")
	buf.WriteString(luaGlobalCairn + " = {\n")

	g.field(&buf, 1, luaFieldContentRoot, g.quote(cfg.ContentRoot))
	g.field(&buf, 1, luaFieldManifest, g.quote(cfg.Manifest))

	g.open(&buf, luaFieldDistribution)
	g.field(&buf, 2, luaFieldBaseURL, g.quote(cfg.Distribution.BaseURL))
	g.field(&buf, 2, luaFieldTrustedKeysURL, g.quote(cfg.Distribution.TrustedKeysURL))
	g.close(&buf)

	g.open(&buf, luaFieldFeatures)
	g.field(&buf, 2, luaFieldCustomRes, strconv.FormatBool(cfg.Features.CustomResolution))
	g.field(&buf, 2, luaFieldQuickPlayMulti, strconv.FormatBool(cfg.Features.QuickPlayMultiplayer))
	g.close(&buf)

	g.open(&buf, luaFieldDownload)
	g.field(&buf, 2, luaFieldTimeout, strconv.FormatFloat(cfg.Download.Timeout.Seconds(), 'f', -1, 64))
	g.field(&buf, 2, luaFieldMaxRate, strconv.FormatInt(cfg.Download.MaxRate, 10))
	g.field(&buf, 2, luaFieldParallel, strconv.Itoa(cfg.Download.Parallel))
	g.field(&buf, 2, luaFieldUserAgent, g.quote(cfg.Download.UserAgent))
	g.close(&buf)

	g.open(&buf, luaFieldLog)
	g.field(&buf, 2, luaFieldLevel, g.quote(cfg.Log.Level))
	g.field(&buf, 2, luaFieldFormat, g.quote(cfg.Log.Format))
	g.close(&buf)

	buf.WriteString("}\n")
	return buf.String(), nil
}

func (g *Generator) open(buf *bytes.Buffer, name string) {
	fmt.Fprintf(buf, "%s%s = {\n", g.indent, name)
}

func (g *Generator) close(buf *bytes.Buffer) {
	fmt.Fprintf(buf, "%s},\n", g.indent)
}

func (g *Generator) field(buf *bytes.Buffer, depth int, name, value string) {
	fmt.Fprintf(buf, "%s%s = %s,\n", strings.Repeat(g.indent, depth), name, value)
}

// quote quotes a string for Lua 5.1, which has no \x or \u escapes.
func (g *Generator) quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '\\':
			b.WriteString(`\\`)
		case '"':
			b.WriteString(`\"`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03d`, c)
				continue
			}
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}
