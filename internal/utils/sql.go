package utils // nolint:revive // utils is an acceptable name for internal utility package

import "strings"

// QuoteIdentWith quotes an identifier with the given quote character,
// doubling any embedded occurrence of it. Example with `"`: My"Tbl -> "My""Tbl"
func QuoteIdentWith(s, quote string) string {
	replaced := strings.ReplaceAll(s, quote, quote+quote)
	return quote + replaced + quote
}

// QuoteJoinIdentsWith quotes each identifier and joins them with comma+space.
func QuoteJoinIdentsWith(cols []string, quote string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = QuoteIdentWith(c, quote)
	}
	return strings.Join(q, ", ")
}
