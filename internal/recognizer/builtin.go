package recognizer

import (
	"regexp"
	"strings"

	"github.com/CoReason-AI/coreason-aegis/internal/aegistype"
)

// Built-in entity type labels, spec §4.A minimum set.
const (
	EntityPerson     = "PERSON"
	EntityEmail      = "EMAIL_ADDRESS"
	EntityPhone      = "PHONE_NUMBER"
	EntityIP         = "IP_ADDRESS"
	EntityDateTime   = "DATE_TIME"
	EntityURL        = "URL"
	EntityCreditCard = "CREDIT_CARD"
	EntitySSN        = "US_SSN"
)

var (
	emailPattern = regexp.MustCompile(`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`)

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(\+?1[-.]?)?\(?([0-9]{3})\)?[-.]?([0-9]{3})[-.]?([0-9]{4})\b`),
	}

	ipv4Pattern = regexp.MustCompile(`\b(?:(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\.){3}(?:25[0-5]|2[0-4][0-9]|[01]?[0-9][0-9]?)\b`)
	ipv6Pattern = regexp.MustCompile(`\b(?:[0-9a-fA-F]{1,4}:){7}[0-9a-fA-F]{1,4}\b`)

	dateTimePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b(0?[1-9]|1[0-2])/(0?[1-9]|[12][0-9]|3[01])/(\d{4}|\d{2})\b`),
		regexp.MustCompile(`\b(19|20)\d{2}-(0[1-9]|1[0-2])-(0[1-9]|[12][0-9]|3[01])\b`),
	}

	urlPattern = regexp.MustCompile(`\bhttps?://[^\s<>"]+`)

	creditCardPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\b4[0-9]{12}(?:[0-9]{3})?\b`),
		regexp.MustCompile(`\b5[1-5][0-9]{14}\b`),
		regexp.MustCompile(`\b3[47][0-9]{13}\b`),
		regexp.MustCompile(`\b6(?:011|5[0-9]{2})[0-9]{12}\b`),
	}

	ssnPattern       = regexp.MustCompile(`\b[0-9]{3}-[0-9]{2}-[0-9]{4}\b`)
	ssnBarePattern   = regexp.MustCompile(`\b[0-9]{9}\b`)
	personNamePattern = regexp.MustCompile(`\b[A-Z][a-z]+(?:\s[A-Z][a-z]+){1,2}\b`)
)

// EmailRecognizer detects EMAIL_ADDRESS spans.
type EmailRecognizer struct{}

func (EmailRecognizer) Name() string            { return "builtin.email" }
func (EmailRecognizer) EntityTypes() []string   { return []string{EntityEmail} }
func (r EmailRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, emailPattern, EntityEmail, r.Name(), 0.95)
}

// PhoneRecognizer detects PHONE_NUMBER spans.
type PhoneRecognizer struct{}

func (PhoneRecognizer) Name() string          { return "builtin.phone" }
func (PhoneRecognizer) EntityTypes() []string { return []string{EntityPhone} }
func (r PhoneRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	var spans []aegistype.Span
	for _, p := range phonePatterns {
		spans = append(spans, matchSpans(text, p, EntityPhone, r.Name(), 0.88)...)
	}
	return spans
}

// IPAddressRecognizer detects IP_ADDRESS spans (IPv4 and IPv6).
type IPAddressRecognizer struct{}

func (IPAddressRecognizer) Name() string          { return "builtin.ip_address" }
func (IPAddressRecognizer) EntityTypes() []string { return []string{EntityIP} }
func (r IPAddressRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	spans := matchSpans(text, ipv4Pattern, EntityIP, r.Name(), 0.9)
	spans = append(spans, matchSpans(text, ipv6Pattern, EntityIP, r.Name(), 0.9)...)
	return spans
}

// DateTimeRecognizer detects DATE_TIME spans.
type DateTimeRecognizer struct{}

func (DateTimeRecognizer) Name() string          { return "builtin.date_time" }
func (DateTimeRecognizer) EntityTypes() []string { return []string{EntityDateTime} }
func (r DateTimeRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	var spans []aegistype.Span
	for _, p := range dateTimePatterns {
		spans = append(spans, matchSpans(text, p, EntityDateTime, r.Name(), 0.9)...)
	}
	return spans
}

// URLRecognizer detects URL spans.
type URLRecognizer struct{}

func (URLRecognizer) Name() string          { return "builtin.url" }
func (URLRecognizer) EntityTypes() []string { return []string{EntityURL} }
func (r URLRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, urlPattern, EntityURL, r.Name(), 0.9)
}

// CreditCardRecognizer detects CREDIT_CARD spans, confirmed by a Luhn check.
type CreditCardRecognizer struct{}

func (CreditCardRecognizer) Name() string          { return "builtin.credit_card" }
func (CreditCardRecognizer) EntityTypes() []string { return []string{EntityCreditCard} }
func (r CreditCardRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	var spans []aegistype.Span
	for _, p := range creditCardPatterns {
		for _, loc := range p.FindAllStringIndex(text, -1) {
			value := text[loc[0]:loc[1]]
			if !luhnCheck(value) {
				continue
			}
			spans = append(spans, aegistype.Span{
				Start: loc[0], End: loc[1],
				EntityType: EntityCreditCard, Confidence: 0.97, RecognizerID: r.Name(),
			})
		}
	}
	return spans
}

// SSNRecognizer detects US_SSN spans, validated against known-invalid
// group patterns before being accepted.
type SSNRecognizer struct{}

func (SSNRecognizer) Name() string          { return "builtin.us_ssn" }
func (SSNRecognizer) EntityTypes() []string { return []string{EntitySSN} }
func (r SSNRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	spans := matchSpans(text, ssnPattern, EntitySSN, r.Name(), 0.9)
	for _, loc := range ssnBarePattern.FindAllStringIndex(text, -1) {
		value := text[loc[0]:loc[1]]
		if !looksLikeSSN(value) {
			continue
		}
		spans = append(spans, aegistype.Span{
			Start: loc[0], End: loc[1],
			EntityType: EntitySSN, Confidence: 0.7, RecognizerID: r.Name(),
		})
	}
	return spans
}

// PersonRecognizer detects PERSON spans using a capitalized-name
// heuristic. A production deployment supplies a model-backed Recognizer
// instead (spec §9's EntityAnalyzer capability); this is the fallback
// rule-based recognizer that keeps the core self-contained without one.
type PersonRecognizer struct{}

func (PersonRecognizer) Name() string          { return "builtin.person" }
func (PersonRecognizer) EntityTypes() []string { return []string{EntityPerson} }
func (r PersonRecognizer) DetectSpans(text, _ string) []aegistype.Span {
	return matchSpans(text, personNamePattern, EntityPerson, r.Name(), 0.9)
}

// BuiltinRecognizers returns the minimum recognizer set spec §4.A
// requires, in a stable order.
func BuiltinRecognizers() []Recognizer {
	return []Recognizer{
		PersonRecognizer{},
		EmailRecognizer{},
		PhoneRecognizer{},
		IPAddressRecognizer{},
		DateTimeRecognizer{},
		URLRecognizer{},
		CreditCardRecognizer{},
		SSNRecognizer{},
	}
}

func matchSpans(text string, pattern *regexp.Regexp, entityType, recognizerID string, confidence float64) []aegistype.Span {
	var spans []aegistype.Span
	for _, loc := range pattern.FindAllStringIndex(text, -1) {
		spans = append(spans, aegistype.Span{
			Start:        loc[0],
			End:          loc[1],
			EntityType:   entityType,
			Confidence:   confidence,
			RecognizerID: recognizerID,
		})
	}
	return spans
}

func looksLikeSSN(s string) bool {
	if len(s) != 9 {
		return false
	}
	if s[:3] == "000" || s[3:5] == "00" || s[5:] == "0000" {
		return false
	}
	if strings.HasPrefix(s, "666") || strings.HasPrefix(s, "9") {
		return false
	}
	return true
}

func luhnCheck(cardNumber string) bool {
	cardNumber = strings.ReplaceAll(cardNumber, " ", "")
	cardNumber = strings.ReplaceAll(cardNumber, "-", "")
	if len(cardNumber) < 13 || len(cardNumber) > 19 {
		return false
	}
	sum := 0
	isSecond := false
	for i := len(cardNumber) - 1; i >= 0; i-- {
		digit := int(cardNumber[i] - '0')
		if isSecond {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		isSecond = !isSecond
	}
	return sum%10 == 0
}
