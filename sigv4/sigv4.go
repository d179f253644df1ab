// Package sigv4 signs outgoing HTTP requests with AWS Signature Version 4.
package sigv4

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode"

	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/fwojciec/hive"
)

// Header names produced by Sign.
const (
	HeaderAuthorization = "Authorization"
	HeaderDate          = "X-Amz-Date"
	HeaderContentSHA256 = "X-Amz-Content-Sha256"
	HeaderSecurityToken = "X-Amz-Security-Token"
)

// Header is a single signed header to attach to the outgoing request.
type Header struct {
	Name  string
	Value string
}

// Sign computes the SigV4 headers for a request. The same inputs always
// produce the same headers. Malformed credentials fail with an error
// wrapping hive.ErrSigning before anything is signed.
func Sign(method, rawURL string, body []byte, creds hive.AWSCredentials, service string, now time.Time) ([]Header, error) {
	if err := validate(creds, service); err != nil {
		return nil, err
	}

	ctx := context.Background()
	awsCreds, err := credentials.NewStaticCredentialsProvider(
		creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken,
	).Retrieve(ctx)
	if err != nil {
		return nil, fmt.Errorf("sigv4: %w: %w", hive.ErrSigning, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sigv4: %w: %w", hive.ErrSigning, err)
	}
	sum := sha256.Sum256(body)
	payloadHash := hex.EncodeToString(sum[:])
	req.Header.Set(HeaderContentSHA256, payloadHash)

	if err := v4.NewSigner().SignHTTP(ctx, awsCreds, req, payloadHash, service, creds.Region, now.UTC()); err != nil {
		return nil, fmt.Errorf("sigv4: %w: %w", hive.ErrSigning, err)
	}

	headers := []Header{
		{Name: HeaderAuthorization, Value: req.Header.Get(HeaderAuthorization)},
		{Name: HeaderDate, Value: req.Header.Get(HeaderDate)},
		{Name: HeaderContentSHA256, Value: payloadHash},
	}
	if creds.SessionToken != "" {
		headers = append(headers, Header{Name: HeaderSecurityToken, Value: creds.SessionToken})
	}
	return headers, nil
}

// Apply signs req in place. The body must already be buffered in body.
func Apply(req *http.Request, body []byte, creds hive.AWSCredentials, service string, now time.Time) error {
	headers, err := Sign(req.Method, req.URL.String(), body, creds, service, now)
	if err != nil {
		return err
	}
	for _, h := range headers {
		req.Header.Set(h.Name, h.Value)
	}
	return nil
}

func validate(creds hive.AWSCredentials, service string) error {
	fields := []struct {
		name     string
		value    string
		required bool
	}{
		{"access key id", creds.AccessKeyID, true},
		{"secret access key", creds.SecretAccessKey, true},
		{"region", creds.Region, true},
		{"service", service, true},
		{"session token", creds.SessionToken, false},
	}
	for _, f := range fields {
		if f.value == "" {
			if f.required {
				return fmt.Errorf("sigv4: %w: empty %s", hive.ErrSigning, f.name)
			}
			continue
		}
		if strings.IndexFunc(f.value, invalidRune) >= 0 {
			return fmt.Errorf("sigv4: %w: %s contains whitespace or control characters", hive.ErrSigning, f.name)
		}
	}
	return nil
}

func invalidRune(r rune) bool {
	return unicode.IsControl(r) || unicode.IsSpace(r)
}
