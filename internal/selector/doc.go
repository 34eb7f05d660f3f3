// Package selector chooses the bounded audit sample from a finished crawl.
//
// Selection runs in two passes over the pages in discovery order:
//
//  1. Mandatory coverage: for each category in the fixed ordered list
//     (homepage, contact, legal notices, accessibility, sitemap, help,
//     authentication), the first matching page is selected. Categories
//     absent from the crawl are reported, not errors.
//  2. Diversity coverage: from the remaining pages, those with at least one
//     special characteristic (multimedia, table, form, documents) are
//     selected up to a fixed cap.
//
// No page is selected twice; the total never exceeds the number of mandatory
// categories plus the cap.
package selector
