package run

import (
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"time"

	cmdUtil "github.com/ValentinKolb/crusher/cmd/util"
	"github.com/ValentinKolb/crusher/lib/simerr"
	"github.com/ValentinKolb/crusher/lib/util"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var Logger = logger.GetLogger("cli")

var (
	RunCmd = &cobra.Command{
		Use:   "run [script]",
		Short: "Replay a script of broker commands",
		Long: `Replay a script of broker commands against a crusher and save the database on exit.

The script is read from the given file or from stdin. Each line is one tab separated command:

  STORE   <key>  <value>
  FETCH   <key>
  REMOVE  <key>
  CONF    <configuration>

Configuration can also be set via environment variables in the format CRUSHER_<flag> (e.g. CRUSHER_SEED=42).`,
		Args:    cobra.MaximumNArgs(1),
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	cmdUtil.SetupBrokerFlags(RunCmd, "demo.txt")

	key := "wait"
	RunCmd.Flags().Bool(key, false, cmdUtil.WrapString("Wait for Ctrl-C after the script before saving and exiting"))

	key = "metrics"
	RunCmd.Flags().Bool(key, false, cmdUtil.WrapString("Print operation metrics and injected failure tallies on exit"))

	key = "error-log"
	RunCmd.Flags().String(key, "", cmdUtil.WrapString("Append every missing key and rejected configuration, with a summary, to this file"))
}

func processConfig(cmd *cobra.Command, _ []string) error {
	return cmdUtil.BindCommandFlags(cmd)
}

func run(cmd *cobra.Command, args []string) error {
	conf := cmdUtil.GetBrokerConfig()
	out := cmd.OutOrStdout()

	b, err := cmdUtil.OpenBroker(conf, out)
	if err != nil {
		return err
	}
	Logger.Infof("starting broker with configuration:\n%s", conf.String())

	var src io.Reader = cmd.InOrStdin()
	if len(args) == 1 {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		src = f
	}

	runner := NewRunner(b, out)
	if path := viper.GetString("error-log"); path != "" {
		tracker, err := simerr.Open(path, rand.New(rand.NewPCG(util.SplitSeed(b.Seed()))))
		if err != nil {
			b.StopInterrupts()
			return err
		}
		runner.ErrorLog = tracker
	}

	runErr := runner.Run(src)
	if runErr != nil {
		Logger.Errorf("script stopped: %v", runErr)
	}

	if runner.ErrorLog != nil {
		Logger.Infof("error log: fixed %d/%d", runner.ErrorLog.Fixed(), runner.ErrorLog.Errors())
		if err := runner.ErrorLog.Close(); err != nil {
			Logger.Errorf("closing error log: %v", err)
		}
	}

	if runErr == nil && viper.GetBool("wait") && !b.Interrupted() {
		fmt.Fprintln(out, "Please press Ctrl-C")
		if err := b.WaitForInterrupt(context.Background(), 100*time.Millisecond); err != nil {
			return err
		}
	}

	// save even if the script failed, the database holds everything so far
	if err := b.Exit(); err != nil {
		return err
	}

	if viper.GetBool("metrics") {
		fmt.Fprintln(out)
		b.WriteMetrics(out)
		b.WriteFailures(out)
	}

	return runErr
}
