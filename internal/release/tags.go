package release

import (
	"fmt"
	"time"
)

// fingerprintTagLen is how much of the fingerprint ends up in the
// dependency image tag. Twelve hex characters matches the abbreviated
// digest docker itself displays.
const fingerprintTagLen = 12

// DepsTag returns the dependency image tag for a build-input fingerprint.
func DepsTag(name, fingerprint string) string {
	if len(fingerprint) > fingerprintTagLen {
		fingerprint = fingerprint[:fingerprintTagLen]
	}
	return fmt.Sprintf("%s:deps-%s", name, fingerprint)
}

// AppTag returns the application image tag for a version.
func AppTag(name, version string) string {
	return fmt.Sprintf("%s:%s", name, version)
}

// DeployTag returns the deployment image tag for a stage. The timestamp
// makes each deploy tag unique, so a stage's history stays in the registry.
func DeployTag(name, stage string, now time.Time) string {
	return fmt.Sprintf("%s:deploy-%s.%s", name, stage, now.UTC().Format("20060102T150405Z"))
}
