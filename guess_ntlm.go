package authnego

import (
	"context"
	"fmt"
	"strings"
)

// guessNTLM implements NTLM pipeline: only runs when no
// client certificates were supplied and the service class is CIFS or host.
func guessNTLM(sess *Session) {
	if len(sess.certificates) > 0 {
		return
	}
	service := strings.ToLower(sess.service)
	if service != "cifs" && service != "host" {
		return
	}
	if sess.hints.Present() && !sess.hints.Contains(OIDNTLM) {
		return
	}

	var flags AddFlag
	if sess.hints.IsRaw(OIDNTLM) {
		flags |= FlagNoSPNEGO
	}

	server := fmt.Sprintf("%s@%s", sess.service, sess.hostname)

	if sess.password != "" {
		explicit := false
		if idx := strings.Index(sess.username, "@"); idx >= 0 {
			domain := strings.ToUpper(sess.username[idx+1:])
			client := sess.username[:idx] + "@" + domain
			sess.selections.add(client, NameUsername, server, true, NameServiceBasedName, MechNTLM, flags|FlagForceAdd)
			explicit = true
		}
		if idx := strings.Index(sess.username, `\`); idx >= 0 {
			domain := strings.ToUpper(sess.username[:idx])
			user := sess.username[idx+1:]
			client := user + "@" + domain
			sess.selections.add(client, NameUsername, server, true, NameServiceBasedName, MechNTLM, flags|FlagForceAdd)
			explicit = true
		}
		if !explicit {
			// Preserved bit-for-bit per documented Open
			// Question: the literal backslash inside the at-sign form.
			client := sess.username + `@\` + sess.hostname
			sess.selections.add(client, NameUsername, server, true, NameServiceBasedName, MechNTLM, flags)
		}
		if sess.specificName != "" {
			client := sess.specificName + `@\` + sess.hostname
			sess.selections.add(client, NameUsername, server, true, NameServiceBasedName, MechNTLM, flags)
		}
	}

	if sess.providers.NTLM == nil {
		return
	}

	creds, err := sess.providers.NTLM.IterCreds(context.Background())
	if err != nil {
		sess.providers.Log.Warnf("ntlm credential enumeration failed: %v", err)
		return
	}

	seen := make(map[string]bool)
	for _, cred := range creds {
		if cred.DisplayName == "" || seen[cred.DisplayName] {
			continue
		}
		seen[cred.DisplayName] = true

		res := sess.selections.add(cred.DisplayName, NameUsername, server, true, NameServiceBasedName, MechNTLM, flags)
		if !res.filtered && !res.duplicate {
			res.sel.bindCache("", cred.DisplayName)
		}
	}
}
