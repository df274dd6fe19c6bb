package authnego

import (
	"context"
	"fmt"
	"strings"

	"authnego/providers"
)

// nahCreatedKey is the Kerberos cache-config key recording ownership
// ("nah-created" label). NTLM credentials reuse the same
// encoding in their single label slot, since providers.NTLMProvider has no
// keyed label store to mirror cc_set_config's (key, value) pairs.
const nahCreatedKey = "nah-created"

// nahCreatedValue encodes the ownership marker plus an optional caller
// label into the single string both label stores hold: "1" when
// unlabelled, "1:<label>" once CredChange has stamped one.
func nahCreatedValue(label string) string {
	if label == "" {
		return "1"
	}
	return "1:" + label
}

// parseNahCreated decodes nahCreatedValue's encoding, reporting whether v
// marks ownership at all and, if so, the caller label (empty if none).
func parseNahCreated(v string) (owned bool, label string) {
	if v == "1" {
		return true, ""
	}
	if strings.HasPrefix(v, "1:") {
		return true, v[len("1:"):]
	}
	return false, ""
}

// referenceKey builds the per-credential reference key: "krb5:<client>" for Kerberos-family
// mechanisms, "ntlm:<client>" for NTLM.
func (s *Selection) referenceKey() string {
	client := s.ClientName()
	if s.Mechanism() == MechNTLM {
		return "ntlm:" + client
	}
	return "krb5:" + client
}

// CopyReferenceKey is the public-API accessor for a selection's reference key.
func (s *Selection) CopyReferenceKey() string {
	return s.referenceKey()
}

func splitReferenceKey(key string) (Mechanism, string, bool) {
	if name, ok := strings.CutPrefix(key, "krb5:"); ok {
		return MechKerberos, name, true
	}
	if name, ok := strings.CutPrefix(key, "ntlm:"); ok {
		return MechNTLM, name, true
	}
	return 0, "", false
}

// AddReferenceAndLabel holds sel's credential and stamps label on it
// The label is not interpreted here; callers attach whatever marker they like.
func (sess *Session) AddReferenceAndLabel(sel *Selection, label string) bool {
	return sess.CredChange(sel.referenceKey(), 1, label)
}

// CredAddReference is the public-API entry point keyed by reference key
// alone.
func (sess *Session) CredAddReference(key string) bool {
	return sess.CredChange(key, 1, "")
}

// CredRemoveReference is CredAddReference's inverse.
func (sess *Session) CredRemoveReference(key string) bool {
	return sess.CredChange(key, -1, "")
}

// CredChange locates the credential named by key,
// refuse to touch it unless it already carries the nah-created label, then
// hold (delta>0), unhold (delta<0), or no-op (delta==0), optionally
// stamping an additional caller label.
func (sess *Session) CredChange(key string, delta int, label string) bool {
	mech, name, ok := splitReferenceKey(key)
	if !ok {
		return false
	}

	ctx := context.Background()

	if mech == MechNTLM {
		np := sess.providers.NTLM
		if np == nil {
			return false
		}
		cred, ok := findNTLMCredByName(ctx, np, name)
		if !ok {
			return false
		}
		v, ok := np.CredLabelGet(cred)
		if !ok {
			return false
		}
		if owned, _ := parseNahCreated(v); !owned {
			return false
		}
		return applyNTLMDelta(np, cred, delta, label)
	}

	kp := sess.providers.Kerberos
	if kp == nil {
		return false
	}
	principal, err := kp.ParseName(ctx, name, strings.Count(name, "@") >= 2)
	if err != nil {
		return false
	}
	handle, found, err := kp.CacheMatch(ctx, principal)
	if err != nil || !found {
		return false
	}
	v, ok := kp.CacheConfig(ctx, handle, nahCreatedKey)
	if !ok {
		return false
	}
	if owned, _ := parseNahCreated(v); !owned {
		return false
	}
	return applyKerberosDelta(kp, handle, delta, label)
}

func findNTLMCredByName(ctx context.Context, np providers.NTLMProvider, name string) (providers.Credential, bool) {
	creds, err := np.IterCreds(ctx)
	if err != nil {
		return providers.Credential{}, false
	}
	for _, c := range creds {
		if c.DisplayName == name || c.ID == name {
			return c, true
		}
	}
	return providers.Credential{}, false
}

func applyKerberosDelta(kp providers.KerberosProvider, handle CacheHandle, delta int, label string) bool {
	ctx := context.Background()
	switch {
	case delta > 0:
		bumpCacheRefcount(kp, handle)
	case delta < 0:
		decrementCacheRefcount(kp, handle)
	}
	if label != "" {
		_ = kp.SetCacheConfig(ctx, handle, nahCreatedKey, nahCreatedValue(label))
	}
	return true
}

func decrementCacheRefcount(kp providers.KerberosProvider, handle CacheHandle) {
	ctx := context.Background()
	count := 0
	if v, ok := kp.CacheConfig(ctx, handle, "refcount"); ok {
		fmt.Sscanf(v, "%d", &count)
	}
	if count > 0 {
		count--
	}
	_ = kp.SetCacheConfig(ctx, handle, "refcount", fmt.Sprintf("%d", count))
}

func applyNTLMDelta(np providers.NTLMProvider, cred providers.Credential, delta int, label string) bool {
	switch {
	case delta > 0:
		if err := np.CredHold(cred); err != nil {
			return false
		}
	case delta < 0:
		if err := np.CredUnhold(cred); err != nil {
			return false
		}
	}
	if label != "" {
		_ = np.CredLabelSet(cred, nahCreatedValue(label))
	}
	return true
}

// FindByLabelAndRelease iterates every credential
// across both mechanisms, skip any without the nah-created marker, and for
// each that carries label clear the label and unhold. Returns the number
// released.
func (sess *Session) FindByLabelAndRelease(label string) int {
	released := 0
	ctx := context.Background()

	if kp := sess.providers.Kerberos; kp != nil {
		if caches, err := kp.CacheCollection(ctx); err == nil {
			for _, c := range caches {
				v, ok := kp.CacheConfig(ctx, c.Handle, nahCreatedKey)
				if !ok {
					continue
				}
				owned, l := parseNahCreated(v)
				if !owned || l != label {
					continue
				}
				_ = kp.SetCacheConfig(ctx, c.Handle, nahCreatedKey, nahCreatedValue(""))
				decrementCacheRefcount(kp, c.Handle)
				released++
			}
		}
	}

	if np := sess.providers.NTLM; np != nil {
		if creds, err := np.IterCreds(ctx); err == nil {
			for _, cred := range creds {
				v, ok := np.CredLabelGet(cred)
				if !ok {
					continue
				}
				owned, l := parseNahCreated(v)
				if !owned || l != label {
					continue
				}
				_ = np.CredLabelSet(cred, nahCreatedValue(""))
				_ = np.CredUnhold(cred)
				released++
			}
		}
	}

	return released
}
