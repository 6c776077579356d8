package domain

// LegalTopics returns the areas of law used to label and filter cases.
func LegalTopics() []string {
	return []string{
		"Administrative Law",
		"Bankruptcy Law",
		"Civil Rights",
		"Commercial Tenancy",
		"Constitutional Law",
		"Contract Law",
		"Corporate Law",
		"Criminal Law",
		"Employment Law",
		"Environmental Law",
		"Family Law",
		"Immigration Law",
		"Intellectual Property",
		"International Law",
		"Maritime Law",
		"Personal Injury",
		"Property Law",
		"Tax Law",
		"Tort Law",
		"Trusts and Estates",
	}
}

// IsLegalTopic reports whether topic is in the catalogue.
func IsLegalTopic(topic string) bool {
	for _, t := range LegalTopics() {
		if t == topic {
			return true
		}
	}
	return false
}
