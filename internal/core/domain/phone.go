package domain

import "regexp"

var msisdnRe = regexp.MustCompile(`^254\d{9}$`)

// NormalizeMSISDN applies the minimal Kenyan MSISDN normalization: a leading
// "+" is stripped, then a leading "0" is replaced with "254". Anything else
// passes through unchanged. This is deliberately not an E.164 validator;
// ValidateMSISDN does the shape check afterwards.
func NormalizeMSISDN(raw string) string {
	s := raw
	if len(s) > 0 && s[0] == '+' {
		s = s[1:]
	}
	if len(s) > 0 && s[0] == '0' {
		s = "254" + s[1:]
	}
	return s
}

// ValidateMSISDN reports whether a normalized number is 254 followed by
// exactly 9 digits.
func ValidateMSISDN(normalized string) bool {
	return msisdnRe.MatchString(normalized)
}
