package authnego

import (
	"context"
	"crypto/sha1"
	"fmt"
	"strings"

	"authnego/providers"
)

const lkdcWellknownRealm = "WELLKNOWN:COM.APPLE.LKDC"

// isLocalHostname reports whether hostname is one of the Bonjour/LKDC-local
// suffixes used to pick classic-Kerberos vs. classic-LKDC.
func isLocalHostname(hostname string) bool {
	for _, suffix := range []string{".local", ".members.mac.com", ".members.me.com"} {
		if strings.HasSuffix(hostname, suffix) {
			return true
		}
	}
	return false
}

// kerberosDecision is the four-boolean (plus have_kerberos) decision table
// driving the Kerberos guesser pipeline.
type kerberosDecision struct {
	tryIAKERBWithLKDC bool
	tryWLKDC          bool
	tryLKDCClassic    bool
	clearSPNEGO       bool
	haveKerberos      bool
}

func decideKerberos(sess *Session) kerberosDecision {
	h := sess.hints
	service := strings.ToLower(sess.service)
	d := kerberosDecision{tryLKDCClassic: true}

	gssEnabled := sess.providers.Prefs == nil || sess.providers.Prefs.GSSEnabled()

	switch {
	case gssEnabled && sess.password != "" && h.Contains(OIDIAKERB) && h.Contains(OIDAppleLKDC) && service != "cifs" && service != "host":
		d.tryIAKERBWithLKDC = true
	case h.Contains(OIDPKU2U) || h.Contains(OIDAppleLKDC) || service == "vnc":
		d.tryWLKDC = true
	}

	if h.Contains(OIDPKU2U) || h.Contains(OIDAppleLKDC) ||
		(h.SPNEGOHostname() != "" && !strings.Contains(h.SPNEGOHostname(), "@LKDC")) {
		d.tryLKDCClassic = false
	}

	if service == "afpserver" && !h.Contains(OIDAppleLKDC) {
		d.clearSPNEGO = true
	}

	if !h.Present() || h.Contains(OIDIAKERB) || h.Contains(OIDKerberos) || h.Contains(OIDKerberosMS) || h.Contains(OIDPKU2U) {
		d.haveKerberos = true
	}

	return d
}

// guessKerberos runs the Kerberos pipeline: the
// decision table, then each candidate-generating step in order.
func guessKerberos(sess *Session) {
	kp := sess.providers.Kerberos
	if kp == nil {
		return
	}

	d := decideKerberos(sess)
	if !d.haveKerberos {
		return
	}

	var flags AddFlag
	if d.clearSPNEGO {
		flags |= FlagNoSPNEGO
	}

	ctx := context.Background()

	caches, err := kp.CacheCollection(ctx)
	if err != nil {
		sess.providers.Log.Warnf("kerberos cache enumeration failed: %v", err)
		return
	}

	// Step 2: existing LKDC caches.
	guessExistingCaches(sess, kp, caches, true, flags)

	// Step 3: wellknown LKDC.
	if d.tryIAKERBWithLKDC || d.tryWLKDC {
		guessWellknownLKDC(sess, d, flags)
	}

	if isLocalHostname(sess.hostname) {
		// Step 5: classic LKDC.
		if d.tryLKDCClassic {
			guessClassicLKDC(sess, flags)
		}
	} else {
		// Step 4: classic Kerberos.
		guessClassicKerberos(sess, kp, flags)
	}

	// Step 6: existing non-LKDC caches.
	guessExistingCaches(sess, kp, caches, false, flags)
}

// guessExistingCaches walks the
// already-enumerated cache collection, filtered by LKDC-ness.
func guessExistingCaches(sess *Session, kp providers.KerberosProvider, caches []providers.CCache, lkdcOnly bool, flags AddFlag) {
	for _, c := range caches {
		if kp.IsLKDCPrincipal(c.ClientPrincipal) != lkdcOnly {
			continue
		}

		client := c.ClientPrincipal.Name + "@" + c.ClientPrincipal.Realm

		var server string
		if lkdcOnly {
			if c.LKDCHostname != sess.hostname {
				continue
			}
			server = fmt.Sprintf("%s/%s@%s", sess.service, c.ClientPrincipal.Realm, c.ClientPrincipal.Realm)
		} else {
			server = fmt.Sprintf("%s/%s@%s", sess.service, sess.hostname, c.ClientPrincipal.Realm)
		}

		res := sess.selections.add(client, NameKRB5Principal, server, true, NameKRB5Principal, MechKerberos, flags)
		if res.filtered || res.duplicate {
			continue
		}
		res.sel.bindCache(c.Handle, c.FriendlyName)
	}
}

// guessWellknownLKDC adds the wellknown-LKDC fallback candidate.
func guessWellknownLKDC(sess *Session, d kerberosDecision, flags AddFlag) {
	mech := MechKerberos
	if d.tryIAKERBWithLKDC {
		mech = MechKerberosIAKERB
	}

	server := fmt.Sprintf("%s/localhost@%s", sess.service, lkdcWellknownRealm)
	client := sess.username + "@" + lkdcWellknownRealm
	sess.selections.add(client, NameUsername, server, true, NameKRB5Principal, mech, flags)

	if sess.providers.Certs == nil {
		return
	}

	ctx := context.Background()
	for _, cert := range sess.certificates {
		name, ok := sess.providers.Certs.MappedKerberosPrincipal(ctx, cert)
		if !ok || name == "" {
			name, ok = sess.providers.Certs.AppleIDAttribute(cert)
		}
		if !ok || name == "" {
			continue
		}

		certClient := name + "@" + lkdcWellknownRealm
		res := sess.selections.add(certClient, NameUsername, server, true, NameKRB5Principal, mech, flags)
		if !res.filtered && !res.duplicate {
			res.sel.attachCertificate(cert)
		}
	}
}

// guessClassicKerberos adds host/default-realm based candidates.
func guessClassicKerberos(sess *Session, kp providers.KerberosProvider, flags AddFlag) {
	serverFor := func(realm string) string {
		return fmt.Sprintf("%s/%s@%s", sess.service, sess.hostname, realm)
	}

	if idx := strings.Index(sess.username, "@"); idx >= 0 {
		domain := strings.ToUpper(sess.username[idx+1:])
		sess.selections.add(sess.username, NameUsername, serverFor(domain), true, NameKRB5Principal, MechKerberos, flags)
	}

	if idx := strings.Index(sess.username, `\`); idx >= 0 {
		domain := strings.ToUpper(sess.username[:idx])
		user := sess.username[idx+1:]
		client := user + "@" + domain
		sess.selections.add(client, NameUsername, serverFor(domain), true, NameKRB5Principal, MechKerberos, flags|FlagForceAdd)
	}

	ctx := context.Background()
	realms, err := kp.GetHostRealm(ctx, sess.hostname)
	if err != nil {
		sess.providers.Log.Warnf("get_host_realm(%s) failed: %v", sess.hostname, err)
	}
	defaults, err := kp.GetDefaultRealms(ctx)
	if err != nil {
		sess.providers.Log.Warnf("get_default_realms failed: %v", err)
	}

	seen := make(map[string]bool)
	for _, realm := range append(realms, defaults...) {
		if realm == "" || seen[realm] {
			continue
		}
		seen[realm] = true
		client := sess.username + "@" + realm
		sess.selections.add(client, NameUsername, serverFor(realm), true, NameKRB5Principal, MechKerberos, flags)
	}
}

// guessClassicLKDC adds certificate-fingerprint
// and password-based selections whose server resolves asynchronously via
// dispatchLKDCResolve (see resolve.go).
func guessClassicLKDC(sess *Session, flags AddFlag) {
	for _, cert := range sess.certificates {
		cert := cert
		sum := sha1.Sum(cert.Raw)
		fp := fmt.Sprintf("%X", sum[:])

		res := sess.selections.add(fp, NameKRB5Principal, "", false, NameKRB5Principal, MechKerberos, flags)
		if res.filtered || res.duplicate {
			continue
		}
		res.sel.attachCertificate(cert)
		sess.dispatchLKDCResolve(res.sel, func(realm string) string {
			return fp + "@" + realm
		})
	}

	if sess.password != "" {
		res := sess.selections.add(sess.username, NameUsername, "", false, NameKRB5Principal, MechKerberos, flags)
		if !res.filtered && !res.duplicate {
			username := sess.username
			sess.dispatchLKDCResolve(res.sel, func(realm string) string {
				return username + "@" + realm
			})
		}
	}
}
