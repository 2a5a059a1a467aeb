package domain

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	reRange      = regexp.MustCompile(`\$?([\d,]+(?:\.\d{1,2})?)\s*-\s*\$?([\d,]+(?:\.\d{1,2})?)`)
	reSingle     = regexp.MustCompile(`\$?([\d,]+(?:\.\d{1,2})?)`)
	reSpend      = regexp.MustCompile(`\$?([\d,]+(?:\.\d+)?)\s*(K|M)?`)
	reHires      = regexp.MustCompile(`(\d+)\s*hire`)
)

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(s, ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// ParseBudget extracts a Budget from a free-form description such as
// "Fixed-price: $1,000 - $2,500" or "$25.00-$50.00/hr", following the
// classification rules:
//  1. Text containing "/hr" or "hourly" (case-insensitive) is hourly.
//  2. Else text containing "fixed" or "budget" is fixed.
//  3. Else a single dollar amount ≥ $200 is fixed; otherwise hourly.
//  4. Commas are dropped before parsing; decimals are preserved.
//  5. A range "N-M" populates both bounds; a singleton sets both equal.
//  6. No digits present yields BudgetUnknown with nil bounds.
func ParseBudget(raw string) Budget {
	b := Budget{Type: BudgetUnknown, Raw: raw}
	lower := strings.ToLower(raw)

	if m := reRange.FindStringSubmatch(raw); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			b.Min, b.Max = &lo, &hi
			b.Type = classifyBudgetType(lower, lo)
			return b
		}
	}

	if m := reSingle.FindStringSubmatch(raw); m != nil {
		v, ok := parseAmount(m[1])
		if ok {
			b.Min, b.Max = &v, &v
			b.Type = classifyBudgetType(lower, v)
			return b
		}
	}

	return b
}

func classifyBudgetType(lower string, amount float64) BudgetType {
	switch {
	case strings.Contains(lower, "/hr") || strings.Contains(lower, "hourly"):
		return BudgetHourly
	case strings.Contains(lower, "fixed") || strings.Contains(lower, "budget"):
		return BudgetFixed
	case amount >= 200:
		return BudgetFixed
	default:
		return BudgetHourly
	}
}

// ParseClientSpent parses a free-form total-spend string such as "$1.5M",
// "$10K", or "$50,000" into its numeric value, applying the K/M suffix
// multiplier. The raw string is preserved alongside.
func ParseClientSpent(raw string) (numeric *float64, ok bool) {
	m := reSpend.FindStringSubmatch(strings.ToUpper(raw))
	if m == nil || m[1] == "" {
		return nil, false
	}
	v, valid := parseAmount(m[1])
	if !valid {
		return nil, false
	}
	switch m[2] {
	case "K":
		v *= 1_000
	case "M":
		v *= 1_000_000
	}
	return &v, true
}

// ParseHiresCount extracts an integer hire count from free text like
// "12 hires completed".
func ParseHiresCount(raw string) (*int, bool) {
	m := reHires.FindStringSubmatch(strings.ToLower(raw))
	if m == nil {
		return nil, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, false
	}
	return &n, true
}

var (
	signaturePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:thanks|thank you|regards|best|cheers|sincerely|warm regards|best regards|kind regards),?\s+([A-Z][a-z]+)`),
		regexp.MustCompile(`(?i)(?:thanks|thank you|regards|best|cheers|sincerely|warm regards|best regards|kind regards)[\s—–-]+([A-Z][a-z]+)`),
	}
	introPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:my name is|i'm|i am|this is)\s+([A-Z][a-z]+)`),
		regexp.MustCompile(`(?im)(?:^|\n)hi,?\s+i'm\s+([A-Z][a-z]+)`),
	}
	lastLineName = regexp.MustCompile(`^[-–—]?\s*([A-Z][a-z]+)\s*$`)
)

// excludedNames are common false positives filtered out of contact-name
// discovery regardless of which pattern matched.
var excludedNames = map[string]struct{}{
	"Upwork": {}, "Thanks": {}, "Thank": {}, "Regards": {}, "Best": {},
	"Cheers": {}, "Sincerely": {}, "Please": {}, "Hello": {}, "Looking": {},
	"Required": {}, "Skills": {}, "Requirements": {}, "About": {},
	"Description": {}, "Budget": {}, "Fixed": {}, "Hourly": {},
	"Experience": {}, "Project": {}, "Client": {},
}

func acceptCandidate(name string) (string, bool) {
	if len(name) < 2 {
		return "", false
	}
	if _, excluded := excludedNames[name]; excluded {
		return "", false
	}
	return strings.ToUpper(name[:1]) + strings.ToLower(name[1:]), true
}

// ContactDiscoveryResult is the outcome of scanning a job description for a
// reviewer's first name.
type ContactDiscoveryResult struct {
	ContactName string
	Confidence  Confidence
	SourceKind  string // "signature", "introduction", or "none"
}

// DiscoverContactName scans a job description in priority order:
// signature patterns, introduction patterns, then a lone capitalized token
// on one of the last five non-empty lines.
func DiscoverContactName(description string) ContactDiscoveryResult {
	for _, re := range signaturePatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			if name, ok := acceptCandidate(m[1]); ok {
				return ContactDiscoveryResult{name, ConfidenceHigh, "signature"}
			}
		}
	}

	for _, re := range introPatterns {
		if m := re.FindStringSubmatch(description); m != nil {
			if name, ok := acceptCandidate(m[1]); ok {
				return ContactDiscoveryResult{name, ConfidenceHigh, "introduction"}
			}
		}
	}

	lines := nonEmptyLines(description)
	start := len(lines) - 5
	if start < 0 {
		start = 0
	}
	for _, line := range lines[start:] {
		if m := lastLineName.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			if name, ok := acceptCandidate(m[1]); ok {
				return ContactDiscoveryResult{name, ConfidenceMedium, "signature"}
			}
		}
	}

	return ContactDiscoveryResult{"", ConfidenceLow, "none"}
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}

// EnrichContact fills ContactName/ContactConfidence on a job if not already
// set, leaving an explicitly pre-populated value untouched.
func (j *JobRecord) EnrichContact() {
	if j.ContactName != "" {
		return
	}
	res := DiscoverContactName(j.Description)
	j.ContactName = res.ContactName
	j.ContactConfidence = res.Confidence
}

// FormatGreeting renders the opening line of a proposal given a discovered
// contact name and confidence.
func FormatGreeting(name string, confidence Confidence) string {
	if name == "" {
		return "Hey"
	}
	if confidence == ConfidenceMedium || confidence == ConfidenceLow {
		return "Hey " + name + " (if I have the right person)"
	}
	return "Hey " + name
}
