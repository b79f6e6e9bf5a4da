package triage

import "regexp"

// expertiseKeywords is scanned in category order.
var expertiseKeywords = []struct {
	category Expertise
	re       *regexp.Regexp
}{
	{ExpertiseTechnical, regexp.MustCompile(`(?i)\b(?:bug|bugs|api|server|servers|deploy|deployment|database|code|infrastructure|outage|engineering|technical|integration)\b`)},
	{ExpertiseDesign, regexp.MustCompile(`(?i)\b(?:design|mockup|mockups|ui|ux|figma|wireframe|wireframes|prototype)\b`)},
	{ExpertiseSales, regexp.MustCompile(`(?i)\b(?:sales|deal|deals|prospect|prospects|lead|leads|quota|pipeline|demo)\b`)},
	{ExpertiseFinance, regexp.MustCompile(`(?i)\b(?:budget|invoice|invoices|expense|expenses|payment|payments|revenue|forecast|accounting|reimbursement)\b`)},
	{ExpertiseLegal, regexp.MustCompile(`(?i)\b(?:contract|contracts|legal|nda|compliance|lawsuit|terms|liability)\b`)},
	{ExpertiseHR, regexp.MustCompile(`(?i)\b(?:hiring|interview|interviews|onboarding|payroll|benefits|vacation|pto|hr|recruiting)\b`)},
	{ExpertiseMarketing, regexp.MustCompile(`(?i)\b(?:marketing|campaign|campaigns|seo|brand|branding|social\s+media|launch|press\s+release)\b`)},
}

// MatchExpertise returns every expertise category the text touches, in fixed order.
func MatchExpertise(text string) []Expertise {
	var out []Expertise
	for _, ek := range expertiseKeywords {
		if ek.re.MatchString(text) {
			out = append(out, ek.category)
		}
	}
	return out
}

// bestTeamMember picks the available member with the largest expertise
// overlap. Ties go to the earlier directory entry. Returns the overlapping
// categories of the winner.
func bestTeamMember(team []TeamMember, needed []Expertise) (*TeamMember, []Expertise) {
	if len(needed) == 0 {
		return nil, nil
	}
	var (
		best    *TeamMember
		overlap []Expertise
	)
	for i := range team {
		m := &team[i]
		if !m.Available {
			continue
		}
		var shared []Expertise
		for _, want := range needed {
			for _, have := range m.Expertise {
				if have == want {
					shared = append(shared, want)
					break
				}
			}
		}
		if len(shared) > len(overlap) {
			best, overlap = m, shared
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, overlap
}
