package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cli carries state shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configFile string
	jsonOutput bool
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:   "checklistctl",
		Short: "Maintenance tool for the checklist store",
		Long: `checklistctl inspects and repairs the checklist collection used by the
checklist API. It talks to the same JSON document or MongoDB database the
server is configured with.

Settings come from flags, then CHECKLIST_* environment variables, then
checklistctl.yaml in the working directory.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			return c.loadConfig()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configFile, "config", "", "config file (default: ./checklistctl.yaml)")
	flags.String("backend", defaultBackend, "store backend: json or mongo")
	flags.String("db-file", defaultDBFile, "path of the JSON checklist document")
	flags.String("mongo-uri", defaultMongoURI, "MongoDB connection string")
	flags.String("database", defaultDatabase, "MongoDB database name")
	flags.BoolVar(&c.jsonOutput, "json", false, "output as JSON")

	c.bindFlag(root, cfgKeyBackend, "backend")
	c.bindFlag(root, cfgKeyDBFile, "db-file")
	c.bindFlag(root, cfgKeyMongoURI, "mongo-uri")
	c.bindFlag(root, cfgKeyDatabase, "database")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newListCmd(c))
	root.AddCommand(newAssignEmailCmd(c))
	root.AddCommand(newReplaceEmailCmd(c))
	root.AddCommand(newBackupCmd(c))

	return root
}

func (c *cli) bindFlag(cmd *cobra.Command, key, flag string) {
	// Lookup never fails for flags registered above.
	_ = c.v.BindPFlag(key, cmd.PersistentFlags().Lookup(flag))
}
