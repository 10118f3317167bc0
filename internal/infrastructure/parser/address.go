package parser

import (
	"strings"

	"OrdersParser/internal/domain"
)

// formatAddress lays out address fragments by how many there are:
//
//	4:  name / street city state zip
//	5:  name / street / extra city zip
//	>5: name / street ... city state / country
//
// A phone number, when present, is appended as a final "Phone:" line.
func formatAddress(parts []string, phone string) domain.Field[string] {
	if len(parts) == 0 {
		return domain.Missing[string]("address block has no text")
	}

	var full string
	switch n := len(parts); {
	case n == 4:
		full = parts[0] + "\n" + parts[1] + " " + parts[2] + " " + parts[3]
	case n == 5:
		full = strings.Join(parts[:n-2], "\n") + " " + parts[n-2] + " " + parts[n-1]
	case n > 5:
		full = strings.Join(parts[:n-3], "\n") + " " + parts[n-3] + " " + parts[n-2] + "\n" + parts[n-1]
	default:
		full = strings.Join(parts, "\n")
	}

	if phone = strings.TrimSpace(phone); phone != "" {
		full += "\nPhone: " + phone
	}
	return domain.Ok(full)
}
