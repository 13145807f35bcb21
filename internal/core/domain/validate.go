package domain

import (
	"regexp"
	"strings"
)

const (
	maxDocumentLen = 50
	maxPhoneLen    = 20
)

var documentRegex = regexp.MustCompile(`^[0-9]+$`)

// ValidateDocumentNumber trims and checks a customer document number:
// digits only, at most 50 characters. Returns the cleaned value.
func ValidateDocumentNumber(doc string) (string, error) {
	doc = strings.TrimSpace(doc)
	if doc == "" {
		return "", Invalidf("document number is required")
	}
	if !documentRegex.MatchString(doc) {
		return "", Invalidf("document number must contain only digits")
	}
	if len(doc) > maxDocumentLen {
		return "", Invalidf("document number cannot exceed %d characters", maxDocumentLen)
	}
	return doc, nil
}

// ValidateCustomerName checks a required first/last name field.
func ValidateCustomerName(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", Invalidf("customer %s is required", field)
	}
	return value, nil
}

// ValidateCustomerPhone checks the customer phone: non-blank, at most 20 characters.
func ValidateCustomerPhone(phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", Invalidf("customer phone is required")
	}
	if len(phone) > maxPhoneLen {
		return "", Invalidf("customer phone cannot exceed %d characters", maxPhoneLen)
	}
	return phone, nil
}

// ParseTransactionType parses a raw type string case-insensitively.
// Empty input is an error; callers decide whether a default applies.
func ParseTransactionType(raw string) (TransactionType, error) {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(Income):
		return Income, nil
	case string(Expense):
		return Expense, nil
	default:
		return "", Invalidf("invalid transaction type %q, use INCOME or EXPENSE", raw)
	}
}
