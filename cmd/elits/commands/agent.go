package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/elits-ai/elits/pkg/ledger"
)

var (
	agentOwner string

	createName     string
	createBio      string
	createHash     string
	createAvatar   string
	delegateTo     string
	delegateScope  string
	delegateExpiry time.Duration
	delegateRestr  []string
	revokeDelegate string
)

var agentCmd = &cobra.Command{
	Use:   "agent",
	Short: "On-chain agent registry operations",
	Long: `Manage your agent's on-chain registration.

Every subcommand prints the transaction signature on success.

Examples:
  elits agent create --owner WALLET --name ada --bio "..." --personality-hash H
  elits agent verify --owner WALLET
  elits agent delegate --owner WALLET --to DELEGATE --scope trading --expires 720h
  elits agent revoke --owner WALLET`,
}

func init() {
	agentCmd.PersistentFlags().StringVar(&agentOwner, "owner", "", "owner wallet address")
	agentCmd.MarkPersistentFlagRequired("owner")

	createCmd := &cobra.Command{
		Use:   "create",
		Short: "Register a new agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			return agentTx(cmd, func(lc ledger.Client) (string, error) {
				return lc.Create(cmd.Context(), agentOwner, ledger.Agent{
					Name:            createName,
					Bio:             createBio,
					PersonalityHash: createHash,
					AvatarURI:       createAvatar,
				})
			})
		},
	}
	createCmd.Flags().StringVar(&createName, "name", "", "agent name")
	createCmd.Flags().StringVar(&createBio, "bio", "", "short agent bio")
	createCmd.Flags().StringVar(&createHash, "personality-hash", "", "hash of the personality profile")
	createCmd.Flags().StringVar(&createAvatar, "avatar-uri", "", "avatar image URI")
	createCmd.MarkFlagRequired("name")

	verifyCmd := &cobra.Command{
		Use:   "verify",
		Short: "Mark the agent as verified",
		RunE: func(cmd *cobra.Command, args []string) error {
			return agentTx(cmd, func(lc ledger.Client) (string, error) {
				return lc.Verify(cmd.Context(), agentOwner)
			})
		},
	}

	delegateCmd := &cobra.Command{
		Use:   "delegate",
		Short: "Grant a scoped delegation to another wallet",
		RunE: func(cmd *cobra.Command, args []string) error {
			return agentTx(cmd, func(lc ledger.Client) (string, error) {
				return lc.Delegate(cmd.Context(), agentOwner, ledger.Delegation{
					Delegate:     delegateTo,
					Scope:        delegateScope,
					ExpiresAt:    time.Now().Add(delegateExpiry),
					Restrictions: delegateRestr,
				})
			})
		},
	}
	delegateCmd.Flags().StringVar(&delegateTo, "to", "", "delegate wallet address")
	delegateCmd.Flags().StringVar(&delegateScope, "scope", "", "delegation scope")
	delegateCmd.Flags().DurationVar(&delegateExpiry, "expires", 720*time.Hour, "delegation lifetime")
	delegateCmd.Flags().StringSliceVar(&delegateRestr, "restrict", nil, "restriction, repeatable")
	delegateCmd.MarkFlagRequired("to")
	delegateCmd.MarkFlagRequired("scope")

	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Deactivate the agent, or revoke one delegation with --delegate",
		RunE: func(cmd *cobra.Command, args []string) error {
			return agentTx(cmd, func(lc ledger.Client) (string, error) {
				if revokeDelegate != "" {
					return lc.RevokeDelegation(cmd.Context(), agentOwner, revokeDelegate)
				}
				return lc.Revoke(cmd.Context(), agentOwner)
			})
		},
	}
	revokeCmd.Flags().StringVar(&revokeDelegate, "delegate", "", "revoke only this delegate's grant")

	agentCmd.AddCommand(createCmd, verifyCmd, delegateCmd, revokeCmd)
	rootCmd.AddCommand(agentCmd)
}

func agentTx(cmd *cobra.Command, fn func(ledger.Client) (string, error)) error {
	cfg, err := GetConfig()
	if err != nil {
		return err
	}
	lc := ledger.NewRPCClient(cfg.LedgerEndpoint)
	sig, err := fn(lc)
	if err != nil {
		return err
	}
	fmt.Println(sig)
	return nil
}
