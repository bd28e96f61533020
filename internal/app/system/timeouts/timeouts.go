// Package timeouts holds the timeout values handlers pair with
// context.WithTimeout for database and blob I/O. Keeping them in one place
// keeps handlers consistent about how long similar operations may run.
//
// Choosing a tier:
//   - Ping: health checks and connectivity verification
//   - Short: single-document reads or lookups
//   - Long: multi-step writes, uploads, and blob cleanup
package timeouts

import "time"

const (
	Ping  = 2 * time.Second
	Short = 5 * time.Second
	Long  = 30 * time.Second
)
