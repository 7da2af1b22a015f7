package shopify

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"regexp"
	"sort"
	"strings"
)

var hexDigestPattern = regexp.MustCompile(`^[0-9a-f]{64}$`)

// VerifyCallbackSignature checks the hmac parameter Shopify attaches to OAuth
// callbacks. The message is every parameter except hmac and signature,
// sorted by key, rendered as key=value and joined with "&". Repeated keys
// keep the order in which they appeared. It never returns an error.
func VerifyCallbackSignature(query url.Values, secret string) bool {
	if secret == "" || query == nil {
		return false
	}

	provided := query.Get("hmac")
	if !hexDigestPattern.MatchString(provided) {
		return false
	}

	expected := sign(CallbackMessage(query), secret)
	return hmac.Equal([]byte(expected), []byte(provided))
}

// CallbackMessage builds the canonical string that the callback hmac covers.
func CallbackMessage(query url.Values) string {
	keys := make([]string, 0, len(query))
	for key := range query {
		if key == "hmac" || key == "signature" {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, key := range keys {
		for _, value := range query[key] {
			pairs = append(pairs, key+"="+value)
		}
	}
	return strings.Join(pairs, "&")
}

func sign(message, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(message))
	return hex.EncodeToString(mac.Sum(nil))
}
