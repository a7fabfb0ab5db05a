package tokenizer

// tokenPrefix maps an entity type label to the prefix used inside MASK
// and REPLACE tokens. PERSON's PATIENT_ alias and the rest of this table
// are a domain-specific convention confirmed against the prior
// implementation's normalization table; anything not listed passes
// through unchanged.
func tokenPrefix(entityType string) string {
	switch entityType {
	case "PERSON":
		return "PATIENT"
	case "DATE_TIME":
		return "DATE"
	case "EMAIL_ADDRESS":
		return "EMAIL"
	case "PHONE_NUMBER":
		return "PHONE"
	case "IP_ADDRESS":
		return "IP"
	default:
		return entityType
	}
}
