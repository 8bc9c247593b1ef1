package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"checklistapi/services"
)

func newBackupCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "backup",
		Short: "Upload a snapshot of the checklist document to B2",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			keyID := c.v.GetString(cfgKeyB2KeyID)
			key := c.v.GetString(cfgKeyB2Key)
			bucket := c.v.GetString(cfgKeyB2Bucket)
			if keyID == "" || key == "" || bucket == "" {
				return errors.New("backup needs b2_key_id, b2_key and b2_bucket")
			}

			store, closeFn, err := c.openStore(cmd.Context())
			if err != nil {
				return err
			}
			defer closeFn()

			b2Service, err := services.NewB2Service(cmd.Context(), keyID, key, bucket)
			if err != nil {
				return err
			}

			result, err := services.UploadDocumentSnapshot(cmd.Context(), store, b2Service, time.Now())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s (%d bytes, sha1 %s)\n", result.FileName, result.Size, result.SHA1)
			return nil
		},
	}
}
