package authnego

import (
	"context"
	"fmt"
	"strings"

	"authnego/providers"
)

// CompletionQueue lets a caller control where AcquireCredentialAsync's
// callback runs: callers supply their own completion queue.
type CompletionQueue interface {
	Submit(fn func())
}

// InlineQueue runs the callback synchronously in the background-queue
// goroutine that drove acquisition. It is the default when a caller has no
// executor of its own to hand in.
type InlineQueue struct{}

// Submit runs fn immediately.
func (InlineQueue) Submit(fn func()) { fn() }

// AcquireCredentialAsync is the async acquisition
// entry point: it waits for the selection's server principal to resolve,
// then dispatches to the mechanism-specific acquisition path on the
// session's background queue, and finally runs callback on queue.
func (s *Selection) AcquireCredentialAsync(info *Info, queue CompletionQueue, callback func(*AcquireResult)) {
	if queue == nil {
		queue = InlineQueue{}
	}
	sess := s.session
	sess.bg.goFunc(func() {
		if !s.Wait() {
			queue.Submit(func() { callback(&AcquireResult{Err: ErrCancelled}) })
			return
		}
		res := sess.acquireFor(s, info)
		queue.Submit(func() { callback(res) })
	})
}

// AcquireCredentialHaveResult is AcquireCredentialAsync without the
// server-resolution wait: used when the caller already knows
// the selection is actionable (e.g. a cache-hit selection whose server was
// resolved at insertion time).
func (s *Selection) AcquireCredentialHaveResult(info *Info, queue CompletionQueue, callback func(*AcquireResult)) {
	if queue == nil {
		queue = InlineQueue{}
	}
	sess := s.session
	sess.bg.goFunc(func() {
		res := sess.acquireFor(s, info)
		queue.Submit(func() { callback(res) })
	})
}

// AcquireCredential is the synchronous wrapper around AcquireCredentialAsync:
// it waits for the server latch first, fails immediately on cancellation,
// otherwise runs the async form and blocks for its result.
func (s *Selection) AcquireCredential(info *Info) (bool, error) {
	if s.session.isCanceled() {
		return false, ErrCancelled
	}
	if !s.Wait() {
		return false, ErrCancelled
	}

	done := make(chan *AcquireResult, 1)
	s.AcquireCredentialAsync(info, InlineQueue{}, func(r *AcquireResult) { done <- r })
	res := <-done
	return res.Succeeded(), res.Err
}

// acquireFor dispatches to the mechanism-specific acquisition path and
// records the outcome.
func (sess *Session) acquireFor(sel *Selection, info *Info) *AcquireResult {
	res := sess.dispatchAcquire(sel, info)
	if sess.providers.Metrics != nil {
		sess.providers.Metrics.ObserveAcquisition(sel.Mechanism(), res.Err)
	}
	return res
}

// dispatchAcquire implements per-mechanism dispatch.
// KerberosU2U and KerberosPKU2U share the Kerberos path: both are
// cache/password/certificate-driven init-creds exchanges, differing only in
// wire-level negotiation that this core never implements.
func (sess *Session) dispatchAcquire(sel *Selection, info *Info) *AcquireResult {
	switch sel.Mechanism() {
	case MechKerberos, MechKerberosU2U, MechKerberosPKU2U:
		return sess.acquireKerberos(sel, info)
	case MechKerberosIAKERB:
		return sess.acquireIAKERB(sel, info)
	case MechNTLM:
		return sess.acquireNTLM(sel, info)
	default:
		return &AcquireResult{Err: ErrNoMechanism}
	}
}

func effectivePassword(sess *Session, info *Info) string {
	if info != nil && info.Password != "" {
		return info.Password
	}
	return sess.password
}

// acquireKerberos implements Kerberos acquisition path.
func (sess *Session) acquireKerberos(sel *Selection, info *Info) *AcquireResult {
	kp := sess.providers.Kerberos
	if kp == nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "no Kerberos provider configured"}}
	}

	if handle, have := sel.CacheHandle(); have {
		bumpCacheRefcount(kp, handle)
		return &AcquireResult{}
	}

	password := effectivePassword(sess, info)
	cert := sel.Certificate()
	if password == "" && cert == nil {
		return &AcquireResult{Err: ErrInsufficientCredentials}
	}

	ctx := context.Background()
	client := sel.ClientName()
	enterprise := strings.Count(client, "@") >= 2

	principal, err := kp.ParseName(ctx, client, enterprise)
	if err != nil {
		return &AcquireResult{Err: &ParseFailure{Input: client, Err: err}}
	}

	req := providers.InitCredsRequest{
		Client:       principal,
		Enterprise:   enterprise,
		Canonicalize: true,
	}
	if cert != nil {
		c := *cert
		req.Certificate = &c
	} else {
		req.Password = password
	}
	if kp.IsLKDCRealm(principal.Realm) {
		req.KDCHostOverride = "tcp/" + sess.hostname
	}

	handle, result, err := kp.InitCreds(ctx, req)
	if err != nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "init_creds", Err: err}}
	}

	label := sess.service + "@" + sess.hostname
	_ = kp.SetCacheConfig(ctx, handle, "FriendlyName", label)
	_ = kp.SetCacheConfig(ctx, handle, nahCreatedKey, nahCreatedValue(""))
	sel.bindCache(handle, label)

	if result.Client.Name != "" && (result.Client.Name != principal.Name || result.Client.Realm != principal.Realm) {
		newClient := result.Client.Name + "@" + result.Client.Realm
		var newServer string
		if kp.IsLKDCRealm(result.Client.Realm) {
			newServer = fmt.Sprintf("%s/%s@%s", sess.service, result.Client.Realm, result.Client.Realm)
		} else {
			newServer = fmt.Sprintf("%s/%s@%s", sess.service, sess.hostname, result.Client.Realm)
		}
		sel.updateReferral(newClient, newServer)
	}

	return &AcquireResult{}
}

func bumpCacheRefcount(kp providers.KerberosProvider, handle CacheHandle) {
	ctx := context.Background()
	count := 0
	if v, ok := kp.CacheConfig(ctx, handle, "refcount"); ok {
		fmt.Sscanf(v, "%d", &count)
	}
	count++
	_ = kp.SetCacheConfig(ctx, handle, "refcount", fmt.Sprintf("%d", count))
}

// acquireNTLM implements NTLM acquisition path.
func (sess *Session) acquireNTLM(sel *Selection, info *Info) *AcquireResult {
	if sel.HaveCredential() {
		return &AcquireResult{}
	}

	password := effectivePassword(sess, info)
	if password == "" {
		return &AcquireResult{Err: ErrInsufficientCredentials}
	}

	np := sess.providers.NTLM
	if np == nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "no NTLM provider configured"}}
	}

	user, realm := splitAtRealm(sel.ClientName())

	ctx := context.Background()
	cred, err := np.AcquireCred(ctx, providers.NTLMIdentity{Username: user, Realm: realm, Password: password})
	if err != nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "acquire_cred", Err: err}}
	}

	_ = np.CredLabelSet(cred, nahCreatedValue(""))
	sel.bindCache(CacheHandle(cred.ID), sess.service+"@"+sess.hostname)

	return &AcquireResult{}
}

// acquireIAKERB implements IAKERB acquisition path.
func (sess *Session) acquireIAKERB(sel *Selection, info *Info) *AcquireResult {
	if sel.HaveCredential() {
		return &AcquireResult{Err: ErrInsufficientCredentials}
	}

	password := effectivePassword(sess, info)
	if password == "" {
		return &AcquireResult{Err: ErrInsufficientCredentials}
	}

	np := sess.providers.NTLM
	if np == nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "no IAKERB provider configured"}}
	}

	ctx := context.Background()
	user, _ := splitAtRealm(sel.ClientName())

	cred, err := np.IAKERBInitialCred(ctx, user, password)
	if err != nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "aapl_initial_cred", Err: err}}
	}

	uuid, err := np.CredUUID(ctx, cred)
	if err != nil {
		return &AcquireResult{Err: &ProviderFailure{Mech: sel.Mechanism(), Msg: "inquire_cred_by_oid", Err: err}}
	}

	sel.setClientUUID(uuid)

	return &AcquireResult{}
}

func splitAtRealm(client string) (user, realm string) {
	if idx := strings.Index(client, "@"); idx >= 0 {
		return client[:idx], client[idx+1:]
	}
	return client, ""
}
