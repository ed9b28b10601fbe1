package console

import (
	"fmt"
	"strings"

	"github.com/AUKUS561/LSABEMA/LSABE"
	"github.com/AUKUS561/LSABEMA/client"
	"github.com/AUKUS561/LSABEMA/matcher"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func Command_Encrypt() *cobra.Command {
	cc := &cobra.Command{
		Use:   "encrypt",
		Short: "Encrypt a message and build its keyword index",
		RunE:  Command_Encrypt_Runfunc,
	}
	cc.Flags().IntSlice("authority-id", []int{1}, "authorities publishing the policy attributes")
	cc.Flags().String("msg", "", "message")
	cc.Flags().StringSlice("kwd", nil, "keywords")
	cc.Flags().String("policy", "", "access policy, default: any attribute of the authorities")
	return cc
}

func Command_Encrypt_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ids, _ := cmd.Flags().GetIntSlice("authority-id")
	msg, _ := cmd.Flags().GetString("msg")
	kws, _ := cmd.Flags().GetStringSlice("kwd")
	policy, _ := cmd.Flags().GetString("policy")

	pp, err := e.keys.LoadPublicParams()
	if err != nil {
		return err
	}
	auths := make([]*LSABE.Authority, 0, len(ids))
	var names []string
	for _, id := range ids {
		a, err := e.keys.LoadAuthorityPublic(id)
		if err != nil {
			return err
		}
		auths = append(auths, a)
		names = append(names, a.ATT...)
	}
	if policy == "" {
		policy = strings.Join(names, " OR ")
	}
	ap, err := e.lsabe.Policy(policy)
	if err != nil {
		return err
	}
	ct, err := e.lsabe.EncryptAndIndexGen(pp, auths, ap, []byte(msg), kws)
	if err != nil {
		return err
	}
	raw := LSABE.MarshalCiphertext(ct)

	var id string
	if e.cfg.Url != "" {
		id, err = client.New(e.cfg.Url).Store(cmd.Context(), raw)
	} else {
		store, err2 := e.openStore()
		if err2 != nil {
			return err2
		}
		defer store.Close()
		id, err = store.Put(raw)
	}
	if err != nil {
		return err
	}
	e.log.Sugar().Infof("[encrypt] stored %s under %q", id, policy)
	fmt.Fprintf(cmd.OutOrStdout(), "OK ciphertext %s\n", id)
	return nil
}

func Command_Search() *cobra.Command {
	cc := &cobra.Command{
		Use:   "search",
		Short: "Search stored ciphertexts by keyword and decrypt the matches",
		RunE:  Command_Search_Runfunc,
	}
	cc.Flags().IntSlice("authority-id", []int{1}, "authorities whose keys are used")
	cc.Flags().String("gid", "", "global identity of the user")
	cc.Flags().StringSlice("kwd", nil, "query keywords")
	return cc
}

func Command_Search_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	ids, _ := cmd.Flags().GetIntSlice("authority-id")
	gid, _ := cmd.Flags().GetString("gid")
	kws, _ := cmd.Flags().GetStringSlice("kwd")

	pp, err := e.keys.LoadPublicParams()
	if err != nil {
		return err
	}
	shares := make([]*LSABE.UserSecretKey, 0, len(ids))
	for _, id := range ids {
		sk, err := e.keys.LoadUserKey(gid, id)
		if err != nil {
			return err
		}
		shares = append(shares, sk)
	}
	sk, err := LSABE.MergeKeys(shares...)
	if err != nil {
		return err
	}

	td, err := e.lsabe.TrapdoorGen(pp, sk, gid, kws)
	if err != nil {
		return err
	}
	// z lives only for this query
	z, err := e.lsabe.NewBlinding()
	if err != nil {
		return err
	}
	tk, err := e.lsabe.TransKeyGen(sk, z, gid)
	if err != nil {
		return err
	}

	var (
		results []*LSABE.PartialCiphertext
		scanned int
		failed  int
	)
	if e.cfg.Url != "" {
		res, err := client.New(e.cfg.Url).Search(cmd.Context(), LSABE.MarshalTrapdoor(td), LSABE.MarshalTransformKey(tk))
		if errors.Is(err, client.ErrNotFound) {
			res, err = &client.SearchResult{}, nil
		}
		if err != nil {
			return err
		}
		scanned, failed = res.Scanned, res.Failed
		for _, s := range res.CTout {
			out, err := LSABE.UnmarshalPartialCiphertext([]byte(s))
			if err != nil {
				failed++
				e.log.Sugar().Warnf("[search] bad result: %v", err)
				continue
			}
			results = append(results, out)
		}
	} else {
		store, err := e.openStore()
		if err != nil {
			return err
		}
		defer store.Close()
		items, err := store.Items()
		if err != nil {
			return err
		}
		report, err := matcher.New(e.lsabe, e.cfg.Workers, e.log).Scan(cmd.Context(), items, td, tk)
		if err != nil {
			return err
		}
		results, scanned, failed = report.Results, report.Scanned, report.Failed
	}

	tw := table.NewWriter()
	tw.AppendHeader(table.Row{"#", "message"})
	undecryptable := 0
	for k, out := range results {
		msg, err := e.lsabe.Decrypt(z, out)
		if err != nil {
			undecryptable++
			e.log.Sugar().Warnf("[search] result %d: %v", k, err)
			continue
		}
		tw.AppendRow(table.Row{k + 1, string(msg)})
	}
	tw.AppendFooter(table.Row{"", fmt.Sprintf("matched %d, scanned %d, failed %d, undecryptable %d", len(results), scanned, failed, undecryptable)})
	e.log.Sugar().Infof("[search] %s: matched %d, failed %d", gid, len(results), failed)
	fmt.Fprintln(cmd.OutOrStdout(), tw.Render())
	if len(results) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Message was not found.")
	}
	return nil
}

func Command_Clear() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every stored ciphertext",
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := prepare(cmd)
			if err != nil {
				return err
			}
			defer e.log.Sync()

			var n int
			if e.cfg.Url != "" {
				n, err = client.New(e.cfg.Url).Clear(cmd.Context())
			} else {
				store, err2 := e.openStore()
				if err2 != nil {
					return err2
				}
				defer store.Close()
				n, err = store.Clear()
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "OK removed %d ciphertexts\n", n)
			return nil
		},
	}
}
