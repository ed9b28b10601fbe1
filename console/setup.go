package console

import (
	"fmt"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/client"
	"github.com/AUKUS561/LSABEMA/storage"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func Command_GlobalSetup() *cobra.Command {
	cc := &cobra.Command{
		Use:   "global-setup",
		Short: "Generate public parameters and the master key (invalidates every issued key)",
		RunE:  Command_GlobalSetup_Runfunc,
	}
	cc.Flags().Bool("force", false, "overwrite existing global parameters")
	return cc
}

func Command_GlobalSetup_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	force, _ := cmd.Flags().GetBool("force")
	if e.keys.Exists(storage.PublicParamsFile) && !force {
		return errors.New("global parameters already exist, rerun with --force to replace them and every key derived from them")
	}
	pp, msk, err := e.lsabe.GlobalSetup()
	if err != nil {
		return err
	}
	if err := e.keys.SaveGlobal(pp, msk); err != nil {
		return err
	}
	e.log.Sugar().Infof("[global-setup] written to %s", e.keys.Dir())

	if e.cfg.Url != "" {
		if err := client.New(e.cfg.Url).GlobalSetup(cmd.Context(), LSABE.MarshalPublicParams(pp), nil); err != nil {
			return err
		}
		e.log.Sugar().Infof("[global-setup] public parameters sent to %s", e.cfg.Url)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK global parameters in %s\n", e.keys.Dir())
	return nil
}

func Command_AuthoritySetup() *cobra.Command {
	cc := &cobra.Command{
		Use:   "authority-setup",
		Short: "Generate the attribute keys of one authority (replaces earlier keys)",
		RunE:  Command_AuthoritySetup_Runfunc,
	}
	cc.Flags().Int("authority-id", 1, "authority id")
	cc.Flags().StringSlice("sec-attr", nil, "attributes managed by the authority")
	return cc
}

func Command_AuthoritySetup_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	id, _ := cmd.Flags().GetInt("authority-id")
	attrs, _ := cmd.Flags().GetStringSlice("sec-attr")
	pp, err := e.keys.LoadPublicParams()
	if err != nil {
		return err
	}
	auth, err := e.lsabe.AuthoritySetup(pp, id, attrs)
	if err != nil {
		return err
	}
	if err := e.keys.SaveAuthority(auth); err != nil {
		return err
	}
	e.log.Sugar().Infof("[authority-setup] authority %d: %v", id, auth.ATT)

	if e.cfg.Url != "" {
		err = client.New(e.cfg.Url).AuthoritySetup(cmd.Context(), id, LSABE.MarshalATT(auth), nil, LSABE.MarshalAPK(auth))
		if err != nil {
			return err
		}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK authority %d with %d attributes\n", id, len(auth.ATT))
	return nil
}

func Command_Keygen() *cobra.Command {
	cc := &cobra.Command{
		Use:   "keygen",
		Short: "Issue secret key shares of one authority to a GID",
		RunE:  Command_Keygen_Runfunc,
	}
	cc.Flags().Int("authority-id", 1, "authority id")
	cc.Flags().StringSlice("sec-attr", nil, "attributes to issue")
	cc.Flags().String("gid", "", "global identity of the user")
	return cc
}

func Command_Keygen_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	id, _ := cmd.Flags().GetInt("authority-id")
	attrs, _ := cmd.Flags().GetStringSlice("sec-attr")
	gid, _ := cmd.Flags().GetString("gid")

	pp, msk, err := e.keys.LoadGlobal()
	if err != nil {
		return err
	}
	auth, err := e.keys.LoadAuthority(id)
	if err != nil {
		return err
	}
	sk, err := e.lsabe.SecretKeyGen(pp, msk, auth, gid, attrs)
	if err != nil {
		return err
	}
	if len(sk.Keys) == 0 {
		return errors.Errorf("authority %d manages none of %v", id, attrs)
	}
	if len(sk.Keys) < len(attrs) {
		e.log.Sugar().Warnf("[keygen] %s: issued %d of %d attributes: %v", gid, len(sk.Keys), len(attrs), sk.Attributes())
		fmt.Fprintf(cmd.OutOrStdout(), "WARN only %v issued by authority %d\n", sk.Attributes(), id)
	}
	if err := e.keys.SaveUserKey(sk, id); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "OK %d keys for %s from authority %d\n", len(sk.Keys), gid, id)
	return nil
}
