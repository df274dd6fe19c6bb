// Command authnegoctl is a thin operator shell over the authnego engine:
// list candidate selections for a host/service, drive synchronous
// acquisition, and manage reference-counted credential labels.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"authnego"
	"authnego/providers"
)

var (
	flagUsername string
	flagPassword string
	flagLogDir   string
)

func main() {
	root := &cobra.Command{
		Use:   "authnegoctl",
		Short: "Inspect and drive authnego authentication negotiation",
	}
	root.PersistentFlags().StringVar(&flagUsername, "user", "", "username (defaults to the OS login name)")
	root.PersistentFlags().StringVar(&flagPassword, "password", "", "password for credential-driven guessers/acquisition")
	root.PersistentFlags().StringVar(&flagLogDir, "log-dir", "", "directory for rotated log output (logging disabled if empty)")

	root.AddCommand(newListCmd(), newAcquireCmd(), newCredCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <host> <service>",
		Short: "Print the ranked candidate selections for host/service",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := createSession(args[0], args[1])
			if err != nil {
				return err
			}
			defer sess.Close()

			for i, sel := range sess.GetSelections() {
				fmt.Printf("[%d] mechanism=%s client=%s server=%s spnego=%v have_cred=%v\n",
					i, sel.Mechanism(), sel.ClientName(), sel.ServerName(), sel.UseSPNEGO(), sel.HaveCredential())
			}
			return nil
		},
	}
}

func newAcquireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "acquire <host> <service> <index>",
		Short: "Synchronously acquire the credential for selection <index>",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := createSession(args[0], args[1])
			if err != nil {
				return err
			}
			defer sess.Close()

			var idx int
			if _, err := fmt.Sscanf(args[2], "%d", &idx); err != nil {
				return fmt.Errorf("invalid index %q: %w", args[2], err)
			}
			selections := sess.GetSelections()
			if idx < 0 || idx >= len(selections) {
				return fmt.Errorf("index %d out of range (0..%d)", idx, len(selections)-1)
			}

			sel := selections[idx]
			ok, err := sel.AcquireCredential(nil)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("acquisition did not succeed")
			}

			out, _ := json.MarshalIndent(sel.CopyAuthInfo(), "", "  ")
			fmt.Println(string(out))
			return nil
		},
	}
}

func newCredCmd() *cobra.Command {
	var host, service string

	cmd := &cobra.Command{
		Use:   "cred",
		Short: "Manage reference-counted credential labels",
	}
	cmd.PersistentFlags().StringVar(&host, "host", "localhost", "session hostname for provider context")
	cmd.PersistentFlags().StringVar(&service, "service", "host", "session service class for provider context")

	hold := &cobra.Command{
		Use:   "hold <key>",
		Short: "Increment a credential's reference count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := createSession(host, service)
			if err != nil {
				return err
			}
			defer sess.Close()
			if !sess.CredAddReference(args[0]) {
				return fmt.Errorf("credential %q is not nah-created, or was not found", args[0])
			}
			return nil
		},
	}

	unhold := &cobra.Command{
		Use:   "unhold <key>",
		Short: "Decrement a credential's reference count",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := createSession(host, service)
			if err != nil {
				return err
			}
			defer sess.Close()
			if !sess.CredRemoveReference(args[0]) {
				return fmt.Errorf("credential %q is not nah-created, or was not found", args[0])
			}
			return nil
		},
	}

	gc := &cobra.Command{
		Use:   "gc <label>",
		Short: "Release every nah-created credential carrying <label>",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := createSession(host, service)
			if err != nil {
				return err
			}
			defer sess.Close()
			n := sess.FindByLabelAndRelease(args[0])
			fmt.Printf("released %d credential(s)\n", n)
			return nil
		},
	}

	cmd.AddCommand(hold, unhold, gc)
	return cmd
}

// createSession wires the real provider backends and builds a Session for
// host/service.
func createSession(host, service string) (*authnego.Session, error) {
	log, err := buildLogSink()
	if err != nil {
		return nil, err
	}

	var kp providers.KerberosProvider
	if p, err := providers.NewGokrb5Provider(""); err != nil {
		log.Warnf("kerberos provider unavailable: %v", err)
	} else {
		kp = p
	}

	fileStore, err := providers.LoadFileStore("")
	if err != nil {
		return nil, err
	}
	prefs := providers.NewKeyringStore(fileStore)

	metrics, err := authnego.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		log.Warnf("metrics registration failed: %v", err)
		metrics = nil
	}

	info := &authnego.Info{
		Username: flagUsername,
		Password: flagPassword,
	}

	return authnego.Create(host, service, info, authnego.Providers{
		Kerberos: kp,
		NTLM:     providers.NewPlatformNTLMProvider(),
		Certs:    providers.NewPlatformCertStore(),
		Prefs:    prefs,
		Log:      log,
		Metrics:  metrics,
	})
}

func buildLogSink() (providers.LogSink, error) {
	if flagLogDir == "" {
		return providers.NewNopSink(), nil
	}
	return providers.NewLogrusSink(flagLogDir, providers.DefaultLogConfig())
}
