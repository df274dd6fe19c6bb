package authnego

// ClientTypeCode is the numeric client-name-type code used on the wire.
type ClientTypeCode int

const (
	ClientTypeUser ClientTypeCode = iota
	ClientTypeKRB5Principal
	ClientTypeNTLMPrincipal
	ClientTypeUUIDAsUser
)

// ServerTypeCode is the numeric server-name-type code used on the wire.
type ServerTypeCode int

const (
	ServerTypeHostbased ServerTypeCode = iota
	ServerTypeKRB5Referral
	ServerTypeKRB5Principal
)

func clientTypeCode(nt NameType, mech Mechanism) ClientTypeCode {
	switch nt {
	case NameUUID:
		return ClientTypeUUIDAsUser
	case NameKRB5Principal, NameKRB5PrincipalReferral:
		if mech == MechNTLM {
			return ClientTypeNTLMPrincipal
		}
		return ClientTypeKRB5Principal
	default:
		if mech == MechNTLM {
			return ClientTypeNTLMPrincipal
		}
		return ClientTypeUser
	}
}

func serverTypeCode(nt NameType) ServerTypeCode {
	switch nt {
	case NameKRB5PrincipalReferral:
		return ServerTypeKRB5Referral
	case NameKRB5Principal:
		return ServerTypeKRB5Principal
	default:
		return ServerTypeHostbased
	}
}

func mechanismName(m Mechanism, spnego bool) string {
	if spnego {
		return "SPNEGO(" + m.String() + ")"
	}
	return m.String()
}

// printableClient renders a client principal for display: UUID-typed
// clients show their bare form, everything else shows as-is (there is no
// further structure to elide for the name types this core produces).
func printableClient(client string, _ NameType) string {
	return client
}

// SelectionInfo implements selection_info projection. It
// never blocks: a selection whose server has not yet resolved returns an
// empty map, matching "selections with unresolved server return empty".
func (s *Selection) SelectionInfo() map[string]interface{} {
	if !s.latch.resolved() {
		return map[string]interface{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == "" {
		return map[string]interface{}{}
	}

	credType := "none"
	if s.haveCred {
		credType = s.mech.String()
	}

	return map[string]interface{}{
		"client":           s.client,
		"server":           s.server,
		"mechanism":        mechanismName(s.mech, s.spnegoWrap),
		"inner_mechanism":  s.mech.String(),
		"credential_type":  credType,
		"label":            s.label,
		"have_cred":        s.haveCred,
		"use_spnego":       s.spnegoWrap,
		"printable_client": printableClient(s.client, s.clientType),
	}
}

// CopyAuthInfo implements selection_auth_info: SelectionInfo
// plus the numeric GSSD client-type/server-type codes.
func (s *Selection) CopyAuthInfo() map[string]interface{} {
	info := s.SelectionInfo()
	if len(info) == 0 {
		return info
	}

	s.mu.Lock()
	clientType, serverType, mech := s.clientType, s.serverType, s.mech
	s.mu.Unlock()

	info["client_type"] = clientTypeCode(clientType, mech)
	info["server_type"] = serverTypeCode(serverType)
	return info
}

// GetInfoForKey implements single-key accessor over
// SelectionInfo's map.
func (s *Selection) GetInfoForKey(key string) (interface{}, bool) {
	v, ok := s.SelectionInfo()[key]
	return v, ok
}
