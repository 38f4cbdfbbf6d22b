package features

import (
	"fmt"
	"strings"

	"github.com/fraudline-dev/fraudline/internal/frame"
)

// missingToken stands in for an absent email domain. It is a real category,
// not a missing value, so it survives categorical explosion.
const missingToken = "nan"

// EmailPrefixes name the purchaser (P) and recipient (R) email domain columns.
var EmailPrefixes = []string{"P", "R"}

// EmailRegion returns the top-level label of an email domain ("com" for
// "gmail.com"), or "nan" when the domain is missing.
func EmailRegion(domain string, missing bool) string {
	if missing || domain == missingToken {
		return missingToken
	}
	parts := strings.Split(domain, ".")
	return parts[len(parts)-1]
}

// EmailSite returns the first label of an email domain ("gmail" for
// "gmail.com"), or "nan" when the domain is missing.
func EmailSite(domain string, missing bool) string {
	if missing || domain == missingToken {
		return missingToken
	}
	return strings.Split(domain, ".")[0]
}

// AddEmailFeatures replaces each <prefix>_emaildomain column with
// <prefix>_email_region and <prefix>_email_site string columns appended at
// the end of the table. Prefixes without a domain column are skipped.
func AddEmailFeatures(t *frame.Table) (*frame.Table, error) {
	var added []*frame.Column
	var domains []string
	for _, p := range EmailPrefixes {
		name := p + "_emaildomain"
		c, ok := t.Column(name)
		if !ok {
			continue
		}
		domains = append(domains, name)

		region := make([]string, t.Rows())
		site := make([]string, t.Rows())
		for i := range region {
			v, missing := cellString(c, i)
			region[i] = EmailRegion(v, missing)
			site[i] = EmailSite(v, missing)
		}
		added = append(added,
			frame.StringColumn(p+"_email_region", region, nil),
			frame.StringColumn(p+"_email_site", site, nil),
		)
	}

	out := t.Drop(domains...)
	for _, c := range added {
		if err := out.Add(c); err != nil {
			return nil, fmt.Errorf("adding email features: %w", err)
		}
	}
	return out, nil
}

// cellString returns row i of c as text. A domain column that was entirely
// empty in the source file is read back as numeric NaN.
func cellString(c *frame.Column, i int) (string, bool) {
	if c.IsMissing(i) {
		return "", true
	}
	return frame.FormatCell(c, i), false
}
