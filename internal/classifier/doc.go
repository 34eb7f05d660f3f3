// Package classifier maps extracted page signals onto the fixed category
// taxonomy.
//
// Classification is a pure function: given identical input signals it always
// produces the same category and confidence. Rules are evaluated in a fixed
// precedence order and the first match wins; the final rule always matches,
// so no page is ever left unclassified.
//
// Keyword tables are bilingual (French and English) and matched after
// diacritic folding, so "mentions légales", "Mentions legales" and
// "/mentions-legales" all hit the same rule.
package classifier
