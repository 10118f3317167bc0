package domain

import "strings"

const labelSuffix = ".pdf"

// FileQuery is a conjunction of name-contains predicates.
type FileQuery struct {
	Contains []string
	Excludes []string
}

// ArtworkQuery looks for artwork by term, skipping shipping labels.
func ArtworkQuery(term string) FileQuery {
	return FileQuery{Contains: []string{term}, Excludes: []string{labelSuffix}}
}

// LabelQuery looks for an already uploaded shipping label.
func LabelQuery(orderID string) FileQuery {
	return FileQuery{Contains: []string{orderID, labelSuffix}}
}

// String renders the query in the Drive v3 filter grammar.
func (q FileQuery) String() string {
	clauses := make([]string, 0, len(q.Contains)+len(q.Excludes))
	for _, term := range q.Contains {
		clauses = append(clauses, "name contains '"+escapeTerm(term)+"'")
	}
	for _, term := range q.Excludes {
		clauses = append(clauses, "not name contains '"+escapeTerm(term)+"'")
	}
	return strings.Join(clauses, " and ")
}

// Match evaluates the query against a file name, case-insensitively.
func (q FileQuery) Match(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range q.Contains {
		if !strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	for _, term := range q.Excludes {
		if strings.Contains(lower, strings.ToLower(term)) {
			return false
		}
	}
	return true
}

func escapeTerm(term string) string {
	term = strings.ReplaceAll(term, `\`, `\\`)
	return strings.ReplaceAll(term, "'", `\'`)
}
