package goshape

import (
	"net"
	"net/mail"
	"net/url"
	"regexp"
	"strings"
)

// FormatCheck reports whether a string satisfies a named format. Checks
// never coerce; the coercing formats (date-time, uuid, timestamp) live in
// the coercion layer instead.
type FormatCheck func(value string) bool

// formatChecks maps format names to structure checks. Register new entries
// during init; the map is read-only once validation starts.
var formatChecks = map[string]FormatCheck{
	"email":    checkEmail,
	"date":     checkDate,
	"uri":      checkURI,
	"url":      checkURI,
	"ipv4":     checkIPv4,
	"ipv6":     checkIPv6,
	"ip":       checkIP,
	"hostname": checkHostname,
}

// formatLabels supply the human wording for invalid_format messages.
var formatLabels = map[string]string{
	"email":     "email address",
	"date":      "date",
	"date-time": "date-time",
	"timestamp": "timestamp",
	"uuid":      "UUID",
	"uri":       "URI",
	"url":       "URL",
	"ipv4":      "IPv4 address",
	"ipv6":      "IPv6 address",
	"ip":        "IP address",
	"hostname":  "hostname",
}

// RegisterFormat installs a custom structure check for a format name.
// Call during init, before any validation runs.
func RegisterFormat(name string, check FormatCheck) {
	formatChecks[strings.ToLower(name)] = check
}

// KnownFormat reports whether name has a built-in or registered check.
func KnownFormat(name string) bool {
	_, ok := formatChecks[strings.ToLower(name)]
	return ok
}

// checkFormat applies the named check; unknown formats pass.
func checkFormat(name, value string) bool {
	check, ok := formatChecks[strings.ToLower(name)]
	if !ok {
		return true
	}
	return check(value)
}

func formatLabel(name string) string {
	if l, ok := formatLabels[strings.ToLower(name)]; ok {
		return l
	}
	return name
}

func checkEmail(value string) bool {
	if _, err := mail.ParseAddress(value); err != nil {
		return false
	}
	parts := strings.Split(value, "@")
	if len(parts) != 2 {
		return false
	}
	return strings.Contains(parts[1], ".")
}

func checkDate(value string) bool {
	return reDate.MatchString(value)
}

var reDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func checkURI(value string) bool {
	u, err := url.Parse(value)
	if err != nil {
		return false
	}
	return u.Scheme != "" && (u.Host != "" || u.Opaque != "")
}

func checkIPv4(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() != nil
}

func checkIPv6(value string) bool {
	ip := net.ParseIP(value)
	return ip != nil && ip.To4() == nil && strings.Contains(value, ":")
}

func checkIP(value string) bool {
	return net.ParseIP(value) != nil
}

var reHostnameLabel = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?$`)

func checkHostname(value string) bool {
	if len(value) == 0 || len(value) > 253 {
		return false
	}
	value = strings.TrimSuffix(value, ".")
	for _, label := range strings.Split(value, ".") {
		if !reHostnameLabel.MatchString(label) {
			return false
		}
	}
	return true
}
