package query

import (
	libinjection "github.com/corazawaf/libinjection-go"
)

// InjectionCheckResult describes a filter value that looks like a SQL
// injection attempt.
type InjectionCheckResult struct {
	Fingerprint string // libinjection fingerprint of the detected pattern
	FilterName  string
	Value       string
}

// CheckParameterForInjection runs libinjection over a free-text filter value.
//
// Returns nil for clean values. Values are always bound as parameters, so a
// hit is only worth a security log line, not a rejection.
//
// Example:
//
//	CheckParameterForInjection("patient_name", "john")
//	// nil
//
//	res := CheckParameterForInjection("patient_name", "x' OR '1'='1")
//	// res.FilterName == "patient_name", res.Fingerprint == "s&sos" (or similar)
func CheckParameterForInjection(filterName string, value any) *InjectionCheckResult {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	isSQLi, fingerprint := libinjection.IsSQLi(s)
	if !isSQLi {
		return nil
	}
	return &InjectionCheckResult{
		Fingerprint: string(fingerprint),
		FilterName:  filterName,
		Value:       s,
	}
}
