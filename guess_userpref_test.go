package authnego

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"authnego/providers"
)

func strPtr(s string) *string { return &s }

func TestGuessUserSelectionsSkippedWhenGSSDisabled(t *testing.T) {
	prefs := &fakePrefStore{enabled: false}
	sess := newTestSession("host.example.com", "cifs", "alice", "", Providers{Prefs: prefs, Log: &fakeLogSink{}})
	guessUserSelections(sess)
	assert.Empty(t, sess.selections.list())
}

func TestGuessUserSelectionsMatchesDomainAndUser(t *testing.T) {
	prefs := &fakePrefStore{
		enabled: true,
		entries: []providers.UserSelectionEntry{
			{Mech: "ntlm", Domain: "HOST.EXAMPLE.COM", User: strPtr("alice"), Client: "alice@OVERRIDE"},
			{Mech: "ntlm", Domain: "HOST.EXAMPLE.COM", User: strPtr("bob"), Client: "bob@OVERRIDE"},
			{Mech: "kerberos", Domain: "OTHERHOST", Client: "alice@OTHER"},
		},
	}
	sess := newTestSession("host.example.com", "cifs", "alice", "", Providers{Prefs: prefs, Log: &fakeLogSink{}})
	guessUserSelections(sess)

	sels := sess.selections.list()
	require.Len(t, sels, 1)
	assert.Equal(t, "alice@OVERRIDE", sels[0].ClientName())
	assert.Equal(t, MechNTLM, sels[0].Mechanism())
}

func TestGuessUserSelectionsNilUserMatchesAny(t *testing.T) {
	prefs := &fakePrefStore{
		enabled: true,
		entries: []providers.UserSelectionEntry{
			{Mech: "iakerb", Domain: "HOST.EXAMPLE.COM", Client: "anyone@OVERRIDE"},
		},
	}
	sess := newTestSession("host.example.com", "cifs", "zelda", "", Providers{Prefs: prefs, Log: &fakeLogSink{}})
	guessUserSelections(sess)

	sels := sess.selections.list()
	require.Len(t, sels, 1)
	assert.Equal(t, MechKerberosIAKERB, sels[0].Mechanism())
}

func TestGuessUserSelectionsMatchFilter(t *testing.T) {
	prefs := &fakePrefStore{
		enabled: true,
		entries: []providers.UserSelectionEntry{
			{Mech: "ntlm", Domain: "HOST.EXAMPLE.COM", Client: "alice@A", Match: `.service == "cifs"`},
			{Mech: "ntlm", Domain: "HOST.EXAMPLE.COM", Client: "alice@B", Match: `.service == "afp"`},
		},
	}
	sess := newTestSession("host.example.com", "cifs", "alice", "", Providers{Prefs: prefs, Log: &fakeLogSink{}})
	guessUserSelections(sess)

	sels := sess.selections.list()
	require.Len(t, sels, 1)
	assert.Equal(t, "alice@A", sels[0].ClientName())
}

func TestGuessUserSelectionsBadMatchFilterDoesNotMatch(t *testing.T) {
	prefs := &fakePrefStore{
		enabled: true,
		entries: []providers.UserSelectionEntry{
			{Mech: "ntlm", Domain: "HOST.EXAMPLE.COM", Client: "alice@A", Match: `not valid jq (`},
		},
	}
	sess := newTestSession("host.example.com", "cifs", "alice", "", Providers{Prefs: prefs, Log: &fakeLogSink{}})
	guessUserSelections(sess)
	assert.Empty(t, sess.selections.list())
}

func TestParseMechanismName(t *testing.T) {
	assert.Equal(t, MechNTLM, parseMechanismName("NTLM"))
	assert.Equal(t, MechKerberosIAKERB, parseMechanismName("iakerb"))
	assert.Equal(t, MechKerberosPKU2U, parseMechanismName("pku2u"))
	assert.Equal(t, MechKerberosU2U, parseMechanismName("u2u"))
	assert.Equal(t, MechKerberos, parseMechanismName("anything-else"))
}
