package triage

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// deadlineHour is the local hour a textual deadline resolves to.
const deadlineHour = 17

var (
	weekdayDeadlineRe = regexp.MustCompile(`(?i)\bby\s+(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`)
	numericDeadlineRe = regexp.MustCompile(`(?i)\bby\s+(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?\b`)
	monthDeadlineRe   = regexp.MustCompile(`(?i)\bby\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|sept|oct|nov|dec)[a-z]*\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b`)
	dueRe             = regexp.MustCompile(`(?i)\bdue\s+(?:date|by)\b`)
	deadlineColonRe   = regexp.MustCompile(`(?i)\bdeadline\s*:`)
	eodRe             = regexp.MustCompile(`(?i)\bbefore\s+(?:eod|cob)\b`)
)

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
	"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
	"sep": time.September, "sept": time.September, "oct": time.October,
	"nov": time.November, "dec": time.December,
}

// urgentKeywords is matched on word boundaries, case-insensitively.
var urgentKeywords = []string{
	"urgent", "asap", "immediately", "critical", "emergency", "deadline",
	"by today", "by eod", "end of day", "time-sensitive", "high priority",
	"action required", "response needed", "as soon as possible",
}

var urgentKeywordRes = compileWords(urgentKeywords)

var (
	asapRe  = regexp.MustCompile(`(?i)\basap\b`)
	todayRe = regexp.MustCompile(`(?i)\b(?:today|tonight)\b`)
)

type phrase struct {
	label string
	re    *regexp.Regexp
}

// replyPhrases are checked in order; the first hit is recorded.
var replyPhrases = []phrase{
	{"please reply", regexp.MustCompile(`(?i)\bplease\s+(?:reply|respond)\b`)},
	{"waiting for your response", regexp.MustCompile(`(?i)\bwaiting\s+for\s+your\s+(?:response|reply)\b`)},
	{"question", regexp.MustCompile(`(?m)\?\s*$`)},
	{"what do you think", regexp.MustCompile(`(?i)\bwhat\s+do\s+you\s+think\b`)},
	{"can you please", regexp.MustCompile(`(?i)\bcan\s+you\s+please\b`)},
}

var (
	financialRe = regexp.MustCompile(`(?i)\b(?:budget|invoice|invoices|payment|payments|pricing|price|cost|costs|revenue|expense|expenses|funding|purchase\s+order|quote|contract\s+value)\b|\$\s?\d`)
	amountRe    = regexp.MustCompile(`(?i)\$\s?(\d[\d,]*(?:\.\d+)?)(?:\s?(k|million)\b)?|\b(\d[\d,]*(?:\.\d+)?)\s?(k|million)\b`)
	legalRe     = regexp.MustCompile(`(?i)\b(?:legal|lawyer|attorney|counsel|contract|contracts|lawsuit|litigation|compliance|nda|liability|regulatory|subpoena|gdpr)\b`)
)

// actionableLabels mark a prior classification as needing attention.
var actionableLabels = []string{"actionable", "decision-required", "needs-response"}

func compileWords(words []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(words))
	for i, w := range words {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}

// matchDeadline reports whether any explicit deadline phrasing is present.
func matchDeadline(text string) bool {
	for _, re := range []*regexp.Regexp{weekdayDeadlineRe, numericDeadlineRe, monthDeadlineRe, dueRe, deadlineColonRe, eodRe} {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}

// resolveTextDeadline turns the earliest resolvable deadline phrase into a time
// in now's location. "due by" and "deadline:" carry no date and do not resolve.
func resolveTextDeadline(text string, now time.Time) (time.Time, bool) {
	var (
		best  time.Time
		found bool
	)
	consider := func(t time.Time) {
		if !found || t.Before(best) {
			best, found = t, true
		}
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), deadlineHour, 0, 0, 0, loc)

	for _, m := range weekdayDeadlineRe.FindAllStringSubmatch(text, -1) {
		wd := weekdays[strings.ToLower(m[1])]
		days := (int(wd) - int(now.Weekday()) + 7) % 7
		t := today.AddDate(0, 0, days)
		if t.Before(now) {
			t = t.AddDate(0, 0, 7)
		}
		consider(t)
	}

	for _, m := range numericDeadlineRe.FindAllStringSubmatch(text, -1) {
		month, _ := strconv.Atoi(m[1])
		day, _ := strconv.Atoi(m[2])
		year := -1
		if m[3] != "" {
			year, _ = strconv.Atoi(m[3])
			if year < 100 {
				year += 2000
			}
		}
		if t, ok := dateAt(year, month, day, today); ok {
			consider(t)
		}
	}

	for _, m := range monthDeadlineRe.FindAllStringSubmatch(text, -1) {
		month := months[strings.ToLower(m[1])]
		day, _ := strconv.Atoi(m[2])
		if t, ok := dateAt(-1, int(month), day, today); ok {
			consider(t)
		}
	}

	if eodRe.MatchString(text) {
		consider(today)
	}

	return best, found
}

// dateAt builds a deadline at deadlineHour. A negative year means the next
// occurrence of month/day on or after today's date.
func dateAt(year, month, day int, today time.Time) (time.Time, bool) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}
	y := year
	if y < 0 {
		y = today.Year()
	}
	t := time.Date(y, time.Month(month), day, deadlineHour, 0, 0, 0, today.Location())
	if t.Day() != day {
		// rolled over, e.g. 2/31
		return time.Time{}, false
	}
	if year < 0 && t.Before(today.AddDate(0, 0, -1)) {
		t = t.AddDate(1, 0, 0)
	}
	return t, true
}

// matchUrgentKeywords returns the distinct urgent keywords present, in table order.
func matchUrgentKeywords(text string) []string {
	var found []string
	for i, re := range urgentKeywordRes {
		if re.MatchString(text) {
			found = append(found, urgentKeywords[i])
		}
	}
	return found
}

func mentionsASAP(text string) bool { return asapRe.MatchString(text) }

func mentionsTodayOrTonight(text string) bool { return todayRe.MatchString(text) }

// matchReplyExpectation returns the label of the first reply phrase found.
func matchReplyExpectation(text string) (string, bool) {
	for _, p := range replyPhrases {
		if p.re.MatchString(text) {
			return p.label, true
		}
	}
	return "", false
}

func matchFinancial(text string) bool { return financialRe.MatchString(text) }

func matchLegal(text string) bool { return legalRe.MatchString(text) }

// parseFinancialAmount extracts the first dollar, "k" or "million" amount.
// "k" amounts are the integer part times 1000; "million" is a flat 1,000,000.
// isMillion reports the latter. Unparseable amounts return ok=false.
func parseFinancialAmount(text string) (amount int64, isMillion, ok bool) {
	m := amountRe.FindStringSubmatch(text)
	if m == nil {
		return 0, false, false
	}
	num, suffix := m[1], m[2]
	if num == "" {
		num, suffix = m[3], m[4]
	}
	switch strings.ToLower(suffix) {
	case "million":
		return 1_000_000, true, true
	case "k":
		n, err := parseWhole(num)
		if err != nil || n > (1<<62)/1000 {
			return 0, false, false
		}
		return n * 1000, false, true
	default:
		n, err := parseWhole(num)
		if err != nil {
			return 0, false, false
		}
		return n, false, true
	}
}

// parseWhole parses the integer part of a number with optional thousands separators.
func parseWhole(s string) (int64, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return strconv.ParseInt(strings.ReplaceAll(s, ",", ""), 10, 64)
}

func classificationActionable(label string) bool {
	l := strings.ToLower(label)
	for _, want := range actionableLabels {
		if strings.Contains(l, want) {
			return true
		}
	}
	return false
}
