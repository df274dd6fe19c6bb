package authnego

import (
	"context"
	"fmt"
)

// dispatchLKDCResolve runs a background task that calls
// lkdc_discover_realm(hostname) and rewrites the selection's client/server
// strings under the session's serial queue before signalling the latch.
// clientBuilder receives the discovered realm and returns the final client
// string (the two call sites differ only in whether
// the client is a certificate fingerprint or the plain username).
func (sess *Session) dispatchLKDCResolve(sel *Selection, clientBuilder func(realm string) string) {
	sess.bg.goFunc(func() {
		if sess.isCanceled() {
			sel.latch.cancel()
			return
		}

		realm, err := sess.providers.Kerberos.DiscoverLKDCRealm(context.Background(), sess.hostname)
		if err != nil {
			sess.providers.Log.Warnf("LKDC realm discovery for %s failed: %v", sess.hostname, err)
			sess.serial.submit(func() {
				sel.mu.Lock()
				sel.resolveErr = err
				sel.mu.Unlock()
				sel.latch.cancel()
			})
			return
		}

		client := clientBuilder(realm)
		server := fmt.Sprintf("%s/%s@%s", sess.service, realm, realm)

		sess.serial.submit(func() {
			if sess.isCanceled() {
				sel.latch.cancel()
				return
			}
			sel.mu.Lock()
			sel.client = client
			sel.server = server
			sel.serverType = NameKRB5Principal
			sel.serverKnown = true
			sel.mu.Unlock()
			sel.latch.signal()
		})
	})
}
