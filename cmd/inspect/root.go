package inspect

import (
	"fmt"
	"io"

	cmdUtil "github.com/ValentinKolb/crusher/cmd/util"
	"github.com/ValentinKolb/crusher/lib/common"
	"github.com/ValentinKolb/crusher/lib/db"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	InspectCmd = &cobra.Command{
		Use:   "inspect [name]",
		Short: "Print the contents of a saved database",
		Long:  `Load the snapshot <name>-db.dat and print every key and value in the same format as the text dump. The name defaults to the --name flag.`,
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdUtil.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	cmdUtil.SetupBrokerFlags(InspectCmd, "demo.txt")

	key := "limit"
	InspectCmd.Flags().Int(key, 0, cmdUtil.WrapString("Print at most this many entries (0 prints all)"))
}

func run(cmd *cobra.Command, args []string) error {
	if err := common.InitLoggers(viper.GetString("log-level")); err != nil {
		return err
	}

	name := viper.GetString("name")
	if len(args) == 1 {
		name = args[0]
	}

	database, err := db.New(name)
	if err != nil {
		return err
	}

	return Dump(cmd.OutOrStdout(), database, viper.GetInt("limit"))
}

// Dump prints up to limit entries of database (all if limit is 0) followed
// by a count line.
func Dump(w io.Writer, database *db.DataBase, limit int) error {
	printed := 0
	var err error
	database.Range(func(key, val value.Value) bool {
		if limit > 0 && printed >= limit {
			return false
		}
		_, err = fmt.Fprintf(w, "%s\t%s\n", key, val)
		printed++
		return err == nil
	})
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(w, "# %d of %d entries\n", printed, database.Len())
	return err
}
