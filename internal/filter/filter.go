package filter

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/amishk599/jobradar/internal/model"
)

const isoDate = "2006-01-02"

// Options configures a Classifier. Keyword lists extend the ruleset and are
// matched as whole words, case-insensitively.
type Options struct {
	Ruleset              string
	MinPostedDate        string        // YYYY-MM-DD; takes precedence over MaxAge
	MaxAge               time.Duration // relative to Now
	TitleKeywords        []string
	TitleExcludeKeywords []string
	Locations            []string
	ExcludeLocations     []string
	Now                  func() time.Time
}

type pattern struct {
	label string
	re    *regexp.Regexp
}

// Classifier decides whether a posting is relevant: the title must match the
// ruleset, the location must be US eligible and the posting must be recent
// enough. It has no side effects and is safe for concurrent use.
type Classifier struct {
	ruleset string
	include []pattern
	exclude []pattern
	allow   []pattern
	block   []pattern
	minDate string
}

// New builds a Classifier for the named ruleset ("strict" when empty).
func New(opts Options) (*Classifier, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Ruleset))
	if name == "" {
		name = RulesetStrict
	}
	rs, ok := LookupRuleset(name)
	if !ok {
		return nil, fmt.Errorf("unknown ruleset %q (want %s or %s)", opts.Ruleset, RulesetStrict, RulesetBroad)
	}

	c := &Classifier{ruleset: rs.Name}
	var err error
	if c.include, err = compileAll(rs.TitleInclude, keywordPatterns(opts.TitleKeywords)); err != nil {
		return nil, fmt.Errorf("title patterns: %w", err)
	}
	if c.exclude, err = compileAll(rs.TitleExclude, keywordPatterns(opts.TitleExcludeKeywords)); err != nil {
		return nil, fmt.Errorf("title exclude patterns: %w", err)
	}
	if c.allow, err = compileAll(keywordPatterns(usSignals), keywordPatterns(opts.Locations)); err != nil {
		return nil, fmt.Errorf("location patterns: %w", err)
	}
	if c.block, err = compileAll(blockPatterns(countryBlocklist), blockPatterns(opts.ExcludeLocations)); err != nil {
		return nil, fmt.Errorf("location exclude patterns: %w", err)
	}

	now := time.Now
	if opts.Now != nil {
		now = opts.Now
	}
	switch {
	case opts.MinPostedDate != "":
		if _, err := time.Parse(isoDate, opts.MinPostedDate); err != nil {
			return nil, fmt.Errorf("min_posted_date %q: want YYYY-MM-DD", opts.MinPostedDate)
		}
		c.minDate = opts.MinPostedDate
	case opts.MaxAge > 0:
		c.minDate = now().Add(-opts.MaxAge).UTC().Format(isoDate)
	case rs.DefaultMaxAge > 0:
		c.minDate = now().Add(-rs.DefaultMaxAge).UTC().Format(isoDate)
	}

	return c, nil
}

// Ruleset returns the name of the active ruleset.
func (c *Classifier) Ruleset() string { return c.ruleset }

// MinPostedDate returns the recency threshold, or "" when recency is not checked.
func (c *Classifier) MinPostedDate() string { return c.minDate }

// Match reports whether p passes all three checks.
func (c *Classifier) Match(p model.Posting) bool {
	ok, _ := c.Explain(p)
	return ok
}

// Explain is Match plus the reason for a rejection.
func (c *Classifier) Explain(p model.Posting) (bool, string) {
	if reason := c.titleReason(p.Title); reason != "" {
		return false, reason
	}
	if reason := c.locationReason(p.Location); reason != "" {
		return false, reason
	}
	if reason := c.recencyReason(p.PostedDate()); reason != "" {
		return false, reason
	}
	return true, ""
}

// titleReason returns "" for a relevant title. Exclusions are checked first
// so an excluded title cannot be rescued by an inclusion pattern.
func (c *Classifier) titleReason(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	if t == "" {
		return "empty title"
	}
	if p, ok := firstMatch(c.exclude, t); ok {
		return fmt.Sprintf("title excluded by %s", p.label)
	}
	if _, ok := firstMatch(c.include, t); !ok {
		return "title matches no role pattern"
	}
	return ""
}

// locationReason returns "" for an eligible location. Precedence is
// blocklist, then allowlist, then a bare "remote", then reject.
func (c *Classifier) locationReason(location string) string {
	loc := strings.ToLower(strings.TrimSpace(location))
	if placeholderLocations[loc] {
		return ""
	}
	if p, ok := firstMatch(c.block, loc); ok {
		return fmt.Sprintf("location blocked by %s", p.label)
	}
	if _, ok := firstMatch(c.allow, loc); ok {
		return ""
	}
	if bareRemote.MatchString(loc) {
		return ""
	}
	return fmt.Sprintf("location %q is not US eligible", location)
}

var bareRemote = regexp.MustCompile(`\bremote\b`)

// recencyReason compares zero-padded ISO dates lexicographically. A missing
// date is treated as recent.
func (c *Classifier) recencyReason(date string) string {
	if c.minDate == "" || date == "" {
		return ""
	}
	if date < c.minDate {
		return fmt.Sprintf("posted %s before %s", date, c.minDate)
	}
	return ""
}

func firstMatch(patterns []pattern, s string) (pattern, bool) {
	for _, p := range patterns {
		if p.re.MatchString(s) {
			return p, true
		}
	}
	return pattern{}, false
}

func compileAll(lists ...[]string) ([]pattern, error) {
	var out []pattern
	for _, l := range lists {
		for _, expr := range l {
			re, err := regexp.Compile("(?i)" + expr)
			if err != nil {
				return nil, fmt.Errorf("compile %q: %w", expr, err)
			}
			label := strings.TrimSuffix(strings.TrimPrefix(expr, `\b`), `\b`)
			label = strings.TrimSuffix(label, demonymSuffix)
			out = append(out, pattern{label: fmt.Sprintf("%q", label), re: re})
		}
	}
	return out, nil
}

// keywordPatterns turns plain keywords into whole-word patterns. A word
// boundary is only added next to a word character so "c++" still matches.
func keywordPatterns(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		expr := regexp.QuoteMeta(kw)
		if first, _ := utf8.DecodeRuneInString(kw); isWordChar(first) {
			expr = `\b` + expr
		}
		if last, _ := utf8.DecodeLastRuneInString(kw); isWordChar(last) {
			expr += `\b`
		}
		out = append(out, expr)
	}
	return out
}

// demonymSuffix lets a blocked place also match its adjective form:
// "india" blocks "Indian Standard Time" and "europe" blocks "European Union",
// while "Indiana" and "Indianapolis" still pass.
const demonymSuffix = `(?:n|an|ns|ans)?`

// blockPatterns is keywordPatterns for location blocklists.
func blockPatterns(keywords []string) []string {
	out := keywordPatterns(keywords)
	for i, expr := range out {
		if strings.HasSuffix(expr, `\b`) {
			out[i] = strings.TrimSuffix(expr, `\b`) + demonymSuffix + `\b`
		}
	}
	return out
}

func isWordChar(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
