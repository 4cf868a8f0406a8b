// Package httputil provides JSON response helpers, request parsing, and
// middleware shared by the admin API handlers.
package httputil
