// Package apierror maps arbitrary provider failures into a closed taxonomy.
// Classification is deterministic: keyword groups are checked in a fixed
// priority order against the lowercased failure text.
package apierror

import "strings"

// Kind is the failure category of a provider error.
type Kind string

const (
	KindQuota   Kind = "QUOTA"
	KindAuth    Kind = "AUTH"
	KindServer  Kind = "SERVER"
	KindSafety  Kind = "SAFETY"
	KindNetwork Kind = "NETWORK"
	KindUnknown Kind = "UNKNOWN"
	KindNoKey   Kind = "NO_KEY"
)

// Detail is the user-facing description attached to a classified failure.
type Detail struct {
	Kind    Kind   `json:"kind"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
	Remedy  string `json:"remedy"`
}

// Blocking reports whether the failure should surface as a dismissable error.
// Quota failures are recovered via cooldown instead.
func (d Detail) Blocking() bool {
	return d.Kind != KindQuota
}

// keyword groups in priority order: quota first, unknown last.
var matchers = []struct {
	kind     Kind
	keywords []string
}{
	{KindQuota, []string{"429", "quota", "exhausted", "rate limit"}},
	{KindAuth, []string{"400", "403", "key", "permission", "unauthenticated"}},
	{KindServer, []string{"500", "503", "overloaded", "internal", "unavailable"}},
	{KindSafety, []string{"safety", "blocked", "harmful", "filter"}},
	{KindNetwork, []string{"network", "offline", "dial", "connection", "timeout"}},
}

// Classify maps a raw provider failure to a Detail. A nil error classifies as UNKNOWN
// with an empty message.
func Classify(err error) Detail {
	msg := ""
	if err != nil {
		msg = strings.ToLower(err.Error())
	}

	for _, m := range matchers {
		for _, kw := range m.keywords {
			if strings.Contains(msg, kw) {
				return template(m.kind, msg)
			}
		}
	}
	return template(KindUnknown, msg)
}

// MissingCredential is the short-circuit detail for AI-only actions attempted
// without a configured credential. No provider call is made in that case.
func MissingCredential() Detail {
	return Detail{
		Kind:    KindNoKey,
		Code:    "NO_KEY",
		Title:   "Credential Missing",
		Message: "No API credential is configured for AI-backed actions.",
		Remedy:  "Log in again and provide a valid API key.",
	}
}

func template(kind Kind, raw string) Detail {
	switch kind {
	case KindQuota:
		return Detail{
			Kind:    kind,
			Code:    "429",
			Title:   "Usage Limit Reached",
			Message: "The content provider quota was temporarily exhausted by too many requests.",
			Remedy:  "The session pauses automatically for 60 seconds. Wait for the countdown.",
		}
	case KindAuth:
		return Detail{
			Kind:    kind,
			Code:    "403",
			Title:   "Invalid API Key",
			Message: "The provider rejected the configured credential. It may be wrong, expired, or lack permission.",
			Remedy:  "Log out and enter the key again, then verify it is active with the provider.",
		}
	case KindServer:
		return Detail{
			Kind:    kind,
			Code:    "503",
			Title:   "Service Unavailable",
			Message: "The content provider servers are unstable or overloaded right now.",
			Remedy:  "This is temporary. Wait a moment and try again.",
		}
	case KindSafety:
		return Detail{
			Kind:    kind,
			Code:    "SAFETY",
			Title:   "Content Blocked",
			Message: "The provider refused to generate this content due to its safety filters.",
			Remedy:  "Try a different theme or a more specific topic wording.",
		}
	case KindNetwork:
		return Detail{
			Kind:    kind,
			Code:    "NET",
			Title:   "Connection Error",
			Message: "Could not reach the content provider servers.",
			Remedy:  "Check the network connection and try again.",
		}
	default:
		return Detail{
			Kind:    KindUnknown,
			Code:    "UNKNOWN",
			Title:   "Unexpected Error",
			Message: "An unexpected error occurred: " + truncate(raw, 150),
			Remedy:  "Try again. If the error persists, restart the session.",
		}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
