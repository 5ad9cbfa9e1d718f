// Package builder runs the extension build pipeline:
//
//	Validate → Harvest → Filter → Rewrite → Package
//
// Stages execute strictly in order and pass explicit values between each
// other (validated host, package inventory, artifact-set snapshots) instead
// of relying on ambient filesystem state. Any stage failure is terminal for
// the invocation; there are no retries.
package builder
