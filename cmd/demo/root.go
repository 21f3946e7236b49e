package demo

import (
	"context"
	"fmt"
	"io"
	"time"

	cmdUtil "github.com/ValentinKolb/crusher/cmd/util"
	"github.com/ValentinKolb/crusher/lib/broker"
	"github.com/ValentinKolb/crusher/lib/store"
	"github.com/ValentinKolb/crusher/lib/value"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	DemoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Walk through the basic crusher operations",
		Long: `Store a few key-value pairs with default failure rates, fetch them back, try to knock a key out of the cache and fetch a key that was never stored.
Afterwards the demo waits for Ctrl-C and saves the database (disable with --wait=false).`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error {
			return cmdUtil.BindCommandFlags(cmd)
		},
		RunE: run,
	}
)

func init() {
	cmdUtil.SetupBrokerFlags(DemoCmd, "test_crusher")

	key := "wait"
	DemoCmd.Flags().Bool(key, true, cmdUtil.WrapString("Wait for Ctrl-C before saving and exiting"))
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	b, err := cmdUtil.OpenBroker(cmdUtil.GetBrokerConfig(), out)
	if err != nil {
		return err
	}

	Walkthrough(b, out)

	if viper.GetBool("wait") {
		fmt.Fprintln(out, "Please press Ctrl-C")
		if err := b.WaitForInterrupt(context.Background(), 100*time.Millisecond); err != nil {
			return err
		}
	}

	return b.Exit()
}

// Walkthrough runs the demo operations against b and prints the results.
func Walkthrough(b *broker.Broker, out io.Writer) {
	key := value.Seq(value.Text("hello"), value.Text("world"))

	b.Store(value.Text("h"), value.Text("v"))
	b.Store(key, value.Seq(value.Text("by"), value.Text("jove")))

	// a key holding a wide variety of types
	b.Store(value.MustParse(`("test", "m", 12, -76, 7.234, -8.763, 10004.3422, (123, "h"))`), value.Text("test"))

	// should work, unless the key got corrupted on the way
	printFetch(b, out, key)

	// try to knock the key out of the cache with a similar one
	b.Store(value.Seq(value.Text("goodbye"), value.Text("world")), value.Int(13))
	printFetch(b, out, key)

	// a key that was never stored
	printFetch(b, out, value.Int(1))
}

func printFetch(b *broker.Broker, out io.Writer, key value.Value) {
	val, err := b.Fetch(key)
	switch {
	case err == nil:
		fmt.Fprintln(out, val)
	case store.IsNotFound(err):
		fmt.Fprintln(out, "Not found")
	default:
		fmt.Fprintf(out, "Error: %v\n", err)
	}
}
