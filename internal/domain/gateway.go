package domain

import "fmt"

// UnavailableReason classifies why a language-model call produced no
// usable text. The router treats every reason the same way (fall
// through to the FAQ fallback tiers) but logs and tests distinguish
// them.
type UnavailableReason string

const (
	UnavailableNoCredential UnavailableReason = "missing_credential"
	UnavailableTimeout      UnavailableReason = "timeout"
	UnavailableUpstream     UnavailableReason = "upstream_error"
	UnavailableMalformed    UnavailableReason = "malformed_response"
	UnavailableEmpty        UnavailableReason = "empty_response"
)

// UnavailableError reports a failed or unusable language-model call.
// Gateway implementations wrap their failures in this type so the
// router can log the reason without knowing the provider.
type UnavailableError struct {
	Reason UnavailableReason
	Err    error
}

func (e *UnavailableError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("gateway unavailable: %s", e.Reason)
	}
	return fmt.Sprintf("gateway unavailable: %s: %v", e.Reason, e.Err)
}

func (e *UnavailableError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
