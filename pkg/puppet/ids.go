// Copyright 2024-2026 Aiku AI

package puppet

import (
	"fmt"
	"strings"

	"maunium.net/go/mautrix/id"
)

// MXIDTemplate is a bidirectional mapping between LinkedIn member URNs and
// Matrix user IDs. Formatting and parsing are pure inverses:
// MemberURNFromMXID(MXIDFor(urn)) returns urn for every non-empty urn.
type MXIDTemplate struct {
	prefix string
	suffix string
}

// NewMXIDTemplate builds a template from a username pattern containing
// exactly one {{.}} placeholder and the homeserver domain.
func NewMXIDTemplate(usernameTemplate, homeserverDomain string) (*MXIDTemplate, error) {
	before, after, found := strings.Cut(usernameTemplate, "{{.}}")
	if !found || strings.Contains(after, "{{.}}") {
		return nil, fmt.Errorf("username template %q must contain exactly one {{.}} placeholder", usernameTemplate)
	}
	return &MXIDTemplate{
		prefix: "@" + before,
		suffix: after + ":" + homeserverDomain,
	}, nil
}

// MXIDFor formats the Matrix user ID of the ghost for the given member URN.
func (mt *MXIDTemplate) MXIDFor(memberURN string) id.UserID {
	return id.UserID(mt.prefix + memberURN + mt.suffix)
}

// MemberURNFromMXID parses a ghost user ID back into a member URN. The
// second return value is false if the user ID does not match the template
// shape or homeserver domain.
func (mt *MXIDTemplate) MemberURNFromMXID(mxid id.UserID) (string, bool) {
	s := string(mxid)
	if len(s) <= len(mt.prefix)+len(mt.suffix) ||
		!strings.HasPrefix(s, mt.prefix) || !strings.HasSuffix(s, mt.suffix) {
		return "", false
	}
	memberURN := s[len(mt.prefix) : len(s)-len(mt.suffix)]
	if strings.ContainsRune(memberURN, ':') {
		return "", false
	}
	return memberURN, true
}
