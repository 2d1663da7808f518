// Package i18n looks up user-facing strings in the catalogs embedded
// from locales/*.json.  Keys use dot notation over the nested JSON
// objects ("email.booking.created.guest.subject") and values may hold
// {name} placeholders.
package i18n

import (
	"embed"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/language"
)

// DefaultLang is used for unknown languages; FallbackLang for keys the
// requested language lacks.
const (
	DefaultLang  = "it"
	FallbackLang = "en"
)

//go:embed locales/*.json
var locales embed.FS

// Catalog holds the flattened strings of every embedded language.
type Catalog struct {
	strings   map[string]map[string]string
	supported []string
	matcher   language.Matcher
}

// Load parses the embedded catalogs.
func Load() (*Catalog, error) {
	entries, err := locales.ReadDir("locales")
	if err != nil {
		return nil, err
	}
	c := &Catalog{strings: map[string]map[string]string{}}
	for _, e := range entries {
		if e.IsDir() || path.Ext(e.Name()) != ".json" {
			continue
		}
		raw, err := locales.ReadFile("locales/" + e.Name())
		if err != nil {
			return nil, err
		}
		var tree map[string]any
		if err := json.Unmarshal(raw, &tree); err != nil {
			return nil, fmt.Errorf("i18n: parse %s: %w", e.Name(), err)
		}
		lang := strings.TrimSuffix(e.Name(), ".json")
		flat := map[string]string{}
		flatten("", tree, flat)
		c.strings[lang] = flat
	}
	if _, ok := c.strings[DefaultLang]; !ok {
		return nil, fmt.Errorf("i18n: missing %s catalog", DefaultLang)
	}

	// The matcher prefers its first tag when nothing matches.
	c.supported = []string{DefaultLang}
	var rest []string
	for lang := range c.strings {
		if lang != DefaultLang {
			rest = append(rest, lang)
		}
	}
	sort.Strings(rest)
	c.supported = append(c.supported, rest...)
	tags := make([]language.Tag, 0, len(c.supported))
	for _, l := range c.supported {
		tags = append(tags, language.Make(l))
	}
	c.matcher = language.NewMatcher(tags)
	return c, nil
}

func flatten(prefix string, node map[string]any, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]any:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprint(val)
		}
	}
}

// T translates key into lang, interpolating vars.  Unknown languages
// use DefaultLang; keys missing in lang are looked up in FallbackLang;
// keys missing everywhere are returned unchanged.
func (c *Catalog) T(lang, key string, vars map[string]string) string {
	lang = c.Normalize(lang)
	s, ok := c.strings[lang][key]
	if !ok && lang != FallbackLang {
		s, ok = c.strings[FallbackLang][key]
	}
	if !ok {
		return key
	}
	if len(vars) == 0 {
		return s
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(s)
}

// Normalize maps a stored or requested language ("en-GB", "IT", "") to a
// catalog language.
func (c *Catalog) Normalize(lang string) string {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if _, ok := c.strings[lang]; ok {
		return lang
	}
	if base, _, found := strings.Cut(lang, "-"); found {
		if _, ok := c.strings[base]; ok {
			return base
		}
	}
	return DefaultLang
}

// Match negotiates an Accept-Language header against the catalogs.
func (c *Catalog) Match(acceptLanguage string) string {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return DefaultLang
	}
	_, idx, conf := c.matcher.Match(tags...)
	if conf == language.No {
		return DefaultLang
	}
	return c.supported[idx]
}

// Supported lists the catalog languages, default first.
func (c *Catalog) Supported() []string {
	return append([]string(nil), c.supported...)
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// Default returns the process-wide catalog.  The embedded files are part
// of the binary, so a parse failure is a build defect and panics.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := Load()
		if err != nil {
			panic(err)
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// T translates with the default catalog.
func T(lang, key string, vars map[string]string) string {
	return Default().T(lang, key, vars)
}

// Match negotiates with the default catalog.
func Match(acceptLanguage string) string {
	return Default().Match(acceptLanguage)
}
