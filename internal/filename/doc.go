// Package filename infers a destination filename from HTTP response
// metadata.
//
// Candidates are tried in priority order:
//   - Content-Disposition extended parameter (RFC 5987 filename*)
//   - Content-Disposition plain filename parameter (quoted or bare)
//   - Query hints on the final URL (filename, file, name,
//     response-content-disposition)
//   - Basename of the final URL path
//
// Only the first three produce a "confident" name: the server (or the CDN
// signing the URL) explicitly told us what to call the file. A path basename
// is a guess and must not override a downloader's own content-aware naming.
//
// Every candidate is sanitized: path components are stripped and reserved
// filesystem characters replaced before the name is accepted.
package filename
