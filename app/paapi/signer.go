package paapi

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"time"
)

const (
	signingAlgorithm = "AWS4-HMAC-SHA256"
	scopeTerminator  = "aws4_request"
	amzDateFormat    = "20060102T150405Z"
	dateStampFormat  = "20060102"
)

// Signer produces Signature Version 4 authorization headers.
type Signer struct {
	accessKey string
	secretKey string
	region    string
	service   string
}

func NewSigner(accessKey, secretKey, region, service string) *Signer {
	return &Signer{
		accessKey: accessKey,
		secretKey: secretKey,
		region:    region,
		service:   service,
	}
}

// Sign returns headers with x-amz-date and Authorization added. Every header
// passed in, plus host, is signed.
func (s *Signer) Sign(method, host, path string, headers map[string]string, payload []byte, at time.Time) map[string]string {
	at = at.UTC()
	amzDate := at.Format(amzDateFormat)
	dateStamp := at.Format(dateStampFormat)

	signed := make(map[string]string, len(headers)+2)
	for k, v := range headers {
		signed[strings.ToLower(k)] = strings.TrimSpace(v)
	}
	signed["host"] = host
	signed["x-amz-date"] = amzDate

	canonicalHeaders, signedHeaders := canonicalize(signed)
	canonicalRequest := strings.Join([]string{
		method,
		path,
		"",
		canonicalHeaders,
		signedHeaders,
		hashHex(payload),
	}, "\n")

	scope := strings.Join([]string{dateStamp, s.region, s.service, scopeTerminator}, "/")
	stringToSign := strings.Join([]string{
		signingAlgorithm,
		amzDate,
		scope,
		hashHex([]byte(canonicalRequest)),
	}, "\n")

	key := SigningKey(s.secretKey, dateStamp, s.region, s.service)
	signature := hex.EncodeToString(hmacSHA256(key, stringToSign))

	signed["authorization"] = signingAlgorithm +
		" Credential=" + s.accessKey + "/" + scope +
		", SignedHeaders=" + signedHeaders +
		", Signature=" + signature
	return signed
}

// SigningKey derives the per-day key: HMAC chain over date, region, service
// and the terminator, seeded with "AWS4"+secret.
func SigningKey(secret, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secret), dateStamp)
	kRegion := hmacSHA256(kDate, region)
	kService := hmacSHA256(kRegion, service)
	return hmacSHA256(kService, scopeTerminator)
}

// canonicalize returns "key:value\n" lines sorted by key and the matching
// semicolon separated header list.
func canonicalize(headers map[string]string) (string, string) {
	keys := make([]string, 0, len(headers))
	for k := range headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(headers[k])
		b.WriteByte('\n')
	}
	return b.String(), strings.Join(keys, ";")
}

func hmacSHA256(key []byte, data string) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write([]byte(data))
	return mac.Sum(nil)
}

func hashHex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
