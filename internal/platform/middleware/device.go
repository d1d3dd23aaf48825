package middleware

import (
	"crypto/sha256"
	"encoding/hex"
	"net/http"

	"github.com/mssola/useragent"

	"rollcall/pkg/requestcontext"
)

const deviceHeader = "X-Device-ID"

// Device records the caller's device identifier and a fingerprint derived
// from it plus the parsed User-Agent. The fingerprint stands in for device_id
// when a submission omits one, so device-based duplicate checks still have
// something to key on.
func Device(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deviceID := r.Header.Get(deviceHeader)
		if deviceID == "" {
			if c, err := r.Cookie("device_id"); err == nil {
				deviceID = c.Value
			}
		}

		ctx := r.Context()
		if deviceID != "" {
			ctx = requestcontext.WithDeviceID(ctx, deviceID)
			ctx = requestcontext.WithDeviceFingerprint(ctx, Fingerprint(deviceID, r.Header.Get("User-Agent")))
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Fingerprint hashes the device identifier with the stable parts of the
// User-Agent (browser family and OS, not the full version string, which
// changes on every browser update). An empty device id yields no fingerprint:
// a User-Agent-only hash would collide across students on identical phone
// models and false-trip the device duplicate check.
func Fingerprint(deviceID, uaString string) string {
	if deviceID == "" {
		return ""
	}
	ua := useragent.New(uaString)
	name, _ := ua.Browser()
	h := sha256.Sum256([]byte(deviceID + "|" + name + "|" + ua.OS()))
	return hex.EncodeToString(h[:])
}
