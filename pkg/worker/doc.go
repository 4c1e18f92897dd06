// Package worker adapts a buffered connection to the request surface an
// application pipeline consumes.
//
// The adapter owns nothing: the rawhttp.Context it wraps is released by
// whoever accepted the connection, so EndOfRequest and CloseConnection are
// deliberately empty.
//
// Path mapping follows the dynamic-extension rule. The URL path is scanned
// for each configured extension marker (".aspx" and ".asmx" by default); the
// file path ends just after the earliest marker found, and whatever follows is
// the path info. Without a marker the whole URL path is the file path:
//
//	/app/page.aspx/extra   ->  file path /app/page.aspx, path info /extra
//	/app/images/logo.png   ->  file path /app/images/logo.png, path info ""
package worker
