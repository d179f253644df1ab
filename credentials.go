package hive

import "context"

// AWSCredentials is a static AWS key pair scoped to a region.
type AWSCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string // optional
	Region          string
}

// Credentials holds whatever the configured provider authenticates with.
// Anthropic uses APIKey or BearerToken; Bedrock uses AWS.
type Credentials struct {
	APIKey      string
	BearerToken string
	AWS         *AWSCredentials
}

// CredentialProvider supplies credentials per request. Acquisition and
// refresh are the implementation's concern.
type CredentialProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// StaticCredentials is a CredentialProvider returning a fixed value.
type StaticCredentials Credentials

// Credentials returns the fixed credentials.
func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

var _ CredentialProvider = StaticCredentials{}
