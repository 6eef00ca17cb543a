/*
Package segment turns raw host text into the ordered collection a selector walks.

Split never fails: blank pieces are discarded and an empty or all-blank input
yields an empty collection. Sanitize is a separate guard for untrusted outer
surfaces (HTTP, MCP) and is never applied implicitly by Split.
*/
package segment
