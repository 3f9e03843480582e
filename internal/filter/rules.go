package filter

import "time"

// Ruleset is a named set of title patterns plus its recency default.
// Patterns are regular expressions matched case-insensitively.
type Ruleset struct {
	Name         string
	TitleInclude []string
	TitleExclude []string
	// DefaultMaxAge applies when the config sets neither min_posted_date
	// nor max_age. Zero disables the recency check.
	DefaultMaxAge time.Duration
}

// Ruleset names accepted in config.
const (
	RulesetStrict = "strict"
	RulesetBroad  = "broad"
)

var coreTitleInclude = []string{
	`\bsoftware engineer\b`,
	`\bsoftware developer\b`,
	`\bswe\b`,
	`\bsde\b`,
	`\bbackend engineer\b`,
	`\bfull.?stack engineer\b`,
}

var seniorityExclude = []string{
	`\bsenior\b`,
	`\bsr\.?\b`,
	`\bstaff\b`,
	`\bprincipal\b`,
	`\blead\b`,
	`\bmanager\b`,
	`\bdirector\b`,
	`\bvp\b`,
	`\bvice president\b`,
	`\barchitect\b`,
	`\biii\b`,
	`\biv\b`,
	`\b[345]\b`,
}

var offTargetExclude = []string{
	`\bmachine learning engineer\b`,
	`\bml engineer\b`,
	`\bdata engineer\b`,
	`\bdata scientist\b`,
	`\bdevops engineer\b`,
	`\bsecurity engineer\b`,
	`\bnetwork engineer\b`,
	`\bsolutions engineer\b`,
	`\bsales engineer\b`,
	`\bsupport engineer\b`,
}

var employmentExclude = []string{
	`\bintern(ship)?\b`,
	`\bco.?op\b`,
	`\bpart.?time\b`,
	`\bcontract(or)?\b`,
	`\bfreelance\b`,
}

var reliabilityExclude = []string{
	`\bsite reliability\b`,
	`\bsre\b`,
}

// StrictRuleset targets entry-level SWE, SDE, backend and full-stack roles
// and drops postings older than 30 days by default.
var StrictRuleset = Ruleset{
	Name:          RulesetStrict,
	TitleInclude:  coreTitleInclude,
	TitleExclude:  concat(seniorityExclude, offTargetExclude, reliabilityExclude, employmentExclude),
	DefaultMaxAge: 30 * 24 * time.Hour,
}

// BroadRuleset also accepts platform, frontend, mobile and SRE titles and
// does not check recency unless configured to.
var BroadRuleset = Ruleset{
	Name: RulesetBroad,
	TitleInclude: concat(coreTitleInclude, []string{
		`\bplatform engineer\b`,
		`\bfront.?end engineer\b`,
		`\bmobile engineer\b`,
		`\bsite reliability engineer\b`,
		`\bsre\b`,
	}),
	TitleExclude: concat(seniorityExclude, offTargetExclude, employmentExclude),
}

var rulesets = map[string]Ruleset{
	RulesetStrict: StrictRuleset,
	RulesetBroad:  BroadRuleset,
}

// LookupRuleset returns the ruleset registered under name.
func LookupRuleset(name string) (Ruleset, bool) {
	rs, ok := rulesets[name]
	return rs, ok
}

// usSignals mark a location as US based.
var usSignals = []string{
	"united states", "usa", "us-remote", "us remote",
	"new york", "san francisco", "bay area",
	"seattle", "austin", "los angeles", "boston",
	"chicago", "denver", "atlanta", "washington", "raleigh",
	"houston", "miami", "phoenix", "san jose", "san diego",
	"portland", "minneapolis", "detroit", "pittsburgh",
	"palo alto", "menlo park", "mountain view", "sunnyvale",
	"redwood city", "bellevue", "kirkland", "cambridge",
}

// countryBlocklist marks a location as outside the US. It is checked before
// usSignals so "Remote - Canada" is rejected.
var countryBlocklist = []string{
	"canada", "uk", "united kingdom", "india", "australia",
	"singapore", "germany", "ireland", "france", "netherlands",
	"europe", "emea", "apac", "latam",
	"romania", "spain", "brazil", "japan", "china", "mexico", "poland",
	"italy", "sweden", "luxembourg", "belgium", "switzerland",
	"israel", "korea", "taiwan", "new zealand", "south africa",
	"denmark", "norway", "finland", "austria", "portugal",
	"canadian", "british", "german", "french", "dutch", "spanish",
	"mexican", "brazilian", "japanese", "chinese", "irish", "swiss",
}

// placeholderLocations are values ATS boards use when no location is set.
var placeholderLocations = map[string]bool{
	"": true, "n/a": true, "na": true, "location": true,
	"tbd": true, "tbc": true, "null": true, "none": true,
}

func concat(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}
