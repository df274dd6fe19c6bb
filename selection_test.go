package authnego

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionSetDeduplicates(t *testing.T) {
	sess := newTestSession("host.example.com", "cifs", "alice", "", baseProviders())

	r1 := sess.selections.add("alice@EXAMPLE.COM", NameKRB5Principal, "cifs/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagNone)
	require.False(t, r1.duplicate)

	r2 := sess.selections.add("alice@EXAMPLE.COM", NameKRB5Principal, "cifs/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagNone)
	assert.True(t, r2.duplicate)
	assert.Same(t, r1.sel, r2.sel)

	assert.Len(t, sess.selections.list(), 1)
}

func TestSelectionSetSpecificNameFilter(t *testing.T) {
	sess := newTestSession("host.example.com", "cifs", "alice", "", baseProviders())

	r := sess.selections.add("bob@EXAMPLE.COM", NameKRB5Principal, "cifs/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagNone)
	assert.True(t, r.filtered)
	assert.Empty(t, sess.selections.list())

	r2 := sess.selections.add("bob@EXAMPLE.COM", NameKRB5Principal, "cifs/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagForceAdd)
	assert.False(t, r2.filtered)
	assert.Len(t, sess.selections.list(), 1)
}

func TestSelectionSetSPNEGOFlag(t *testing.T) {
	sess := newTestSession("host.example.com", "afp", "alice", "", baseProviders())

	r := sess.selections.add("alice@EXAMPLE.COM", NameKRB5Principal, "afp/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagNoSPNEGO)
	require.False(t, r.filtered)
	assert.False(t, r.sel.UseSPNEGO())

	r2 := sess.selections.add("alice2@EXAMPLE.COM", NameKRB5Principal, "afp/host@EXAMPLE.COM", true, NameKRB5Principal, MechKerberos, FlagNone)
	require.False(t, r2.filtered)
	assert.True(t, r2.sel.UseSPNEGO())
}

func TestSelectionUnresolvedServerBlocksUntilSignalled(t *testing.T) {
	sess := newTestSession("myhost.local", "afp", "alice", "", baseProviders())

	r := sess.selections.add("fingerprint", NameKRB5Principal, "", false, NameKRB5Principal, MechKerberos, FlagNone)
	require.False(t, r.filtered)

	waited := make(chan bool, 1)
	go func() { waited <- r.sel.Wait() }()

	select {
	case <-waited:
		t.Fatal("Wait returned before the selection was signalled")
	case <-time.After(20 * time.Millisecond):
	}

	r.sel.updateReferral("fingerprint@EXAMPLE.COM", "afp/myhost@EXAMPLE.COM")
	r.sel.latch.signal()

	assert.True(t, <-waited)
	assert.Equal(t, "fingerprint@EXAMPLE.COM", r.sel.ClientName())
	assert.Equal(t, NameKRB5PrincipalReferral, r.sel.ClientNameType())
}
